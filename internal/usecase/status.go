package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"QOFA/internal/domain/models"
	domrepo "QOFA/internal/domain/repository"
)

// StatusListLimit caps how many status checks List returns.
const StatusListLimit = 1000

// StatusUseCase records and lists client heartbeats.
type StatusUseCase struct {
	store domrepo.StatusStore
	now   func() time.Time
}

func NewStatusUseCase(store domrepo.StatusStore) *StatusUseCase {
	return &StatusUseCase{store: store, now: time.Now}
}

func (uc *StatusUseCase) Create(ctx context.Context, clientName string) (*models.StatusCheck, error) {
	if clientName == "" {
		return nil, fmt.Errorf("create status: %w", ErrClientNameRequired)
	}
	s := models.StatusCheck{
		ID:         uuid.NewString(),
		ClientName: clientName,
		Timestamp:  uc.now().UTC(),
	}
	if err := uc.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("create status: %w", err)
	}
	return &s, nil
}

func (uc *StatusUseCase) List(ctx context.Context) ([]models.StatusCheck, error) {
	out, err := uc.store.List(ctx, StatusListLimit)
	if err != nil {
		return nil, fmt.Errorf("list status: %w", err)
	}
	return out, nil
}
