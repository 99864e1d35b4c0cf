package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"QOFA/internal/domain/models"
	domrepo "QOFA/internal/domain/repository"
	applogger "QOFA/pkg/logger"
)

const tickChunkSize = 2000

// CHTickStore stores ingested ticks and serves price history from ClickHouse.
type CHTickStore struct {
	db       execQuerier
	database string
	l        *applogger.Logger
}

var _ domrepo.TickStore = (*CHTickStore)(nil)

func NewCHTickStore(db execQuerier, database string, l *applogger.Logger) *CHTickStore {
	if l == nil {
		l = applogger.NewNop()
	}
	return &CHTickStore{db: db, database: database, l: l}
}

func (s *CHTickStore) Init(ctx context.Context) error {
	return initSchema(ctx, s.db, s.database)
}

// StoreTicks inserts ticks in multi-row chunks. Ticks without a symbol or
// timestamp are skipped.
func (s *CHTickStore) StoreTicks(ctx context.Context, ticks []models.Tick) error {
	for start := 0; start < len(ticks); start += tickChunkSize {
		end := min(start+tickChunkSize, len(ticks))
		q, args := s.insertTicks(ticks[start:end])
		if len(args) == 0 {
			continue
		}
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse store ticks error", applogger.Int("rows", len(args)/6), applogger.Error(err))
			return fmt.Errorf("store ticks: %w", err)
		}
	}
	return nil
}

func (s *CHTickStore) insertTicks(ticks []models.Tick) (string, []any) {
	values := make([]string, 0, len(ticks))
	args := make([]any, 0, len(ticks)*6)
	for _, t := range ticks {
		if t.Symbol == "" || t.Timestamp == 0 {
			continue
		}
		values = append(values, "(?, ?, ?, ?, ?, ?)")
		args = append(args,
			time.UnixMilli(t.Timestamp).UTC(),
			t.Symbol,
			t.Price,
			t.Volume,
			t.Strike,
			t.Symbol+"-"+strconv.FormatInt(t.Timestamp, 10),
		)
	}
	q := fmt.Sprintf("INSERT INTO %s.ticks (ts, symbol, price, volume, strike, event_id) VALUES %s",
		s.database, strings.Join(values, ","))
	return q, args
}

// History returns the latest limit prices for symbol in ascending time order.
func (s *CHTickStore) History(ctx context.Context, symbol string, limit int) ([]float64, error) {
	start := time.Now()
	q := fmt.Sprintf("SELECT price FROM %s.ticks WHERE symbol = ? ORDER BY ts DESC LIMIT ?", s.database)
	rows, err := s.db.QueryContext(ctx, q, symbol, limit)
	if err != nil {
		s.l.Error("clickhouse history query error", applogger.String("symbol", symbol), applogger.Error(err))
		return nil, fmt.Errorf("history %s: %w", symbol, err)
	}
	defer rows.Close()

	out := make([]float64, 0, limit)
	for rows.Next() {
		var p float64
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	reverse(out)
	s.l.Debug("clickhouse history ok",
		applogger.String("symbol", symbol),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)))
	return out, nil
}

func (s *CHTickStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the pool belongs to pkg/clickhouse.Client.
func (s *CHTickStore) Close() error { return nil }

func reverse(v []float64) {
	for i, j := 0, len(v)-1; i < j; i, j = i+1, j-1 {
		v[i], v[j] = v[j], v[i]
	}
}
