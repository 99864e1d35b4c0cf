package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"QOFA/internal/domain/models"
	domrepo "QOFA/internal/domain/repository"
	pkgkafka "QOFA/pkg/kafka"
	"QOFA/pkg/util"
)

// TickSink receives validated ticks for streaming analysis.
type TickSink interface {
	Submit(t models.Tick) error
}

// KafkaTicksHandler consumes tick messages, stores them and forwards them to
// the flow pipeline. Either destination may be nil.
type KafkaTicksHandler struct {
	topic   string
	store   domrepo.TickStore
	sink    TickSink
	metrics domrepo.Metrics
	now     func() time.Time
}

func NewKafkaTicksHandler(topic string, store domrepo.TickStore, sink TickSink, metrics domrepo.Metrics) *KafkaTicksHandler {
	return &KafkaTicksHandler{topic: topic, store: store, sink: sink, metrics: metrics, now: time.Now}
}

func (h *KafkaTicksHandler) Topic() string { return h.topic }

type tickMessage struct {
	Symbol string  `json:"symbol"`
	T      int64   `json:"t"`
	C      float64 `json:"c"`
	V      float64 `json:"v"`
	K      float64 `json:"k"`
}

var errBadTick = errors.New("invalid tick")

// Handle decodes {symbol, t, c, v, k?}. t is unix milliseconds; values below
// 1e11 are taken as seconds. A missing strike defaults to the price.
// Malformed messages fail permanently so they go straight to the DLQ.
func (h *KafkaTicksHandler) Handle(ctx context.Context, b []byte) error {
	var m tickMessage
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return &pkgkafka.PermanentError{Err: err}
	}
	tick, err := h.toTick(m)
	if err != nil {
		h.metrics.RecordError("consumer_validate")
		return &pkgkafka.PermanentError{Err: err}
	}
	h.metrics.RecordLatency("ingest_e2e_seconds", h.now().Sub(time.UnixMilli(tick.Timestamp)).Seconds())

	if h.store != nil {
		start := time.Now()
		err := h.store.StoreTicks(ctx, []models.Tick{tick})
		h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
		if err != nil {
			h.metrics.RecordError("consumer_store")
			return err
		}
	}
	if h.sink != nil {
		if err := h.sink.Submit(tick); err != nil {
			h.metrics.RecordError("consumer_pipeline")
		}
	}
	return nil
}

func (h *KafkaTicksHandler) toTick(m tickMessage) (models.Tick, error) {
	switch {
	case m.Symbol == "":
		return models.Tick{}, fmt.Errorf("%w: symbol is empty", errBadTick)
	case math.IsNaN(m.C) || math.IsInf(m.C, 0) || m.C <= 0:
		return models.Tick{}, fmt.Errorf("%w: price %v", errBadTick, m.C)
	case math.IsNaN(m.V) || math.IsInf(m.V, 0) || m.V < 0:
		return models.Tick{}, fmt.Errorf("%w: volume %v", errBadTick, m.V)
	case math.IsNaN(m.K) || math.IsInf(m.K, 0) || m.K < 0:
		return models.Tick{}, fmt.Errorf("%w: strike %v", errBadTick, m.K)
	}
	strike := m.K
	if strike == 0 {
		strike = m.C
	}
	return models.Tick{Symbol: m.Symbol, Timestamp: util.UnixMillis(m.T, h.now()), Price: m.C, Volume: m.V, Strike: strike}, nil
}

var _ pkgkafka.MessageHandler = (*KafkaTicksHandler)(nil)
