package repository

import (
	"context"

	"QOFA/internal/domain/models"
)

// StatusStore persists client heartbeats.
type StatusStore interface {
	Init(ctx context.Context) error
	Save(ctx context.Context, s models.StatusCheck) error
	List(ctx context.Context, limit int) ([]models.StatusCheck, error)
}

// TickStore persists ingested ticks and serves them back as series.
type TickStore interface {
	Init(ctx context.Context) error
	StoreTicks(ctx context.Context, ticks []models.Tick) error
	SeriesStore
	Health(ctx context.Context) error
	Close() error
}

// SignalPublisher fans trading signals out to downstream consumers.
type SignalPublisher interface {
	Publish(ctx context.Context, signals []models.TradingSignal) error
}

type Metrics interface {
	RecordSignal(signalType, flowType string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordEntropy(symbols string, entropy float64)
}
