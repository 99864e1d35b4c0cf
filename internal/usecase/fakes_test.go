package usecase

import (
	"context"
	"sync"

	"QOFA/internal/domain/models"
)

type fakeMetrics struct {
	mu      sync.Mutex
	errors  map[string]int
	signals map[string]int
	entropy map[string]float64
	ops     map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{
		errors:  map[string]int{},
		signals: map[string]int{},
		entropy: map[string]float64{},
		ops:     map[string]int{},
	}
}

func (m *fakeMetrics) RecordSignal(signalType, flowType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signals[signalType+"/"+flowType]++
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *fakeMetrics) RecordLatency(op string, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops[op]++
}

func (m *fakeMetrics) RecordEntropy(symbols string, entropy float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entropy[symbols] = entropy
}

func (m *fakeMetrics) errorCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

type fakePublisher struct {
	published [][]models.TradingSignal
	err       error
}

func (p *fakePublisher) Publish(_ context.Context, s []models.TradingSignal) error {
	p.published = append(p.published, s)
	return p.err
}

type fakeSeriesStore struct {
	prices map[string][]float64
	err    error
}

func (s *fakeSeriesStore) History(_ context.Context, symbol string, limit int) ([]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	p := s.prices[symbol]
	if len(p) > limit {
		p = p[len(p)-limit:]
	}
	return p, nil
}

type fakeStatusStore struct {
	saved     []models.StatusCheck
	lastLimit int
	err       error
}

func (s *fakeStatusStore) Init(context.Context) error { return nil }

func (s *fakeStatusStore) Save(_ context.Context, c models.StatusCheck) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, c)
	return nil
}

func (s *fakeStatusStore) List(_ context.Context, limit int) ([]models.StatusCheck, error) {
	s.lastLimit = limit
	return s.saved, s.err
}

type fakeTickStore struct {
	fakeSeriesStore
	stored []models.Tick
	err    error
}

func (s *fakeTickStore) Init(context.Context) error { return nil }

func (s *fakeTickStore) StoreTicks(_ context.Context, ticks []models.Tick) error {
	if s.err != nil {
		return s.err
	}
	s.stored = append(s.stored, ticks...)
	return nil
}

func (s *fakeTickStore) Health(context.Context) error { return nil }

func (s *fakeTickStore) Close() error { return nil }

type fakeSink struct {
	ticks []models.Tick
	err   error
}

func (s *fakeSink) Submit(t models.Tick) error {
	s.ticks = append(s.ticks, t)
	return s.err
}
