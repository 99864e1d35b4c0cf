package repository

import (
	"context"

	"QOFA/internal/domain/models"
	domrepo "QOFA/internal/domain/repository"
	pkgkafka "QOFA/pkg/kafka"
)

type batchPublisher interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
}

// KafkaSignalPublisher publishes trading signals keyed by symbol, so one
// symbol's signals stay ordered within a partition.
type KafkaSignalPublisher struct {
	producer batchPublisher
	topic    string
}

var _ domrepo.SignalPublisher = (*KafkaSignalPublisher)(nil)

func NewKafkaSignalPublisher(producer batchPublisher, topic string) *KafkaSignalPublisher {
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

func (p *KafkaSignalPublisher) Publish(ctx context.Context, signals []models.TradingSignal) error {
	if len(signals) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(signals))
	for i, s := range signals {
		msgs[i] = pkgkafka.Message{Key: []byte(s.Symbol), Value: s}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

// NopSignalPublisher drops signals when Kafka is disabled.
type NopSignalPublisher struct{}

func (NopSignalPublisher) Publish(context.Context, []models.TradingSignal) error { return nil }
