package repository

import (
	"context"
	"sync"

	"QOFA/internal/domain/models"
	domrepo "QOFA/internal/domain/repository"
)

// MemoryStatusStore keeps the newest status checks in process when
// ClickHouse is disabled.
type MemoryStatusStore struct {
	mu   sync.RWMutex
	max  int
	data []models.StatusCheck
}

var _ domrepo.StatusStore = (*MemoryStatusStore)(nil)

func NewMemoryStatusStore(max int) *MemoryStatusStore {
	if max <= 0 {
		max = 1000
	}
	return &MemoryStatusStore{max: max}
}

func (s *MemoryStatusStore) Init(context.Context) error { return nil }

func (s *MemoryStatusStore) Save(_ context.Context, c models.StatusCheck) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append(s.data, c)
	if over := len(s.data) - s.max; over > 0 {
		s.data = append(s.data[:0:0], s.data[over:]...)
	}
	return nil
}

// List returns the newest status checks first.
func (s *MemoryStatusStore) List(_ context.Context, limit int) ([]models.StatusCheck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.data)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]models.StatusCheck, 0, n)
	for i := len(s.data) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.data[i])
	}
	return out, nil
}
