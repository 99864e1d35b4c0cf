package repository

import "context"

// SeriesStore provides read-only access to recent price history.
type SeriesStore interface {
	// History returns up to limit most recent closing prices for symbol, oldest first.
	History(ctx context.Context, symbol string, limit int) ([]float64, error)
}
