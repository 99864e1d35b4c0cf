package repository

import (
	"context"
	"fmt"
	"time"

	"QOFA/internal/domain/models"
	domrepo "QOFA/internal/domain/repository"
	applogger "QOFA/pkg/logger"
)

// CHStatusStore keeps status checks in ClickHouse.
type CHStatusStore struct {
	db       execQuerier
	database string
	l        *applogger.Logger
}

var _ domrepo.StatusStore = (*CHStatusStore)(nil)

func NewCHStatusStore(db execQuerier, database string, l *applogger.Logger) *CHStatusStore {
	if l == nil {
		l = applogger.NewNop()
	}
	return &CHStatusStore{db: db, database: database, l: l}
}

func (s *CHStatusStore) Init(ctx context.Context) error {
	return initSchema(ctx, s.db, s.database)
}

func (s *CHStatusStore) Save(ctx context.Context, c models.StatusCheck) error {
	q := fmt.Sprintf("INSERT INTO %s.status_checks (id, client_name, ts) VALUES (?, ?, ?)", s.database)
	if _, err := s.db.ExecContext(ctx, q, c.ID, c.ClientName, c.Timestamp.UTC()); err != nil {
		s.l.Error("clickhouse save status error", applogger.String("client", c.ClientName), applogger.Error(err))
		return fmt.Errorf("save status: %w", err)
	}
	return nil
}

// List returns the newest status checks first.
func (s *CHStatusStore) List(ctx context.Context, limit int) ([]models.StatusCheck, error) {
	q := fmt.Sprintf("SELECT toString(id), client_name, ts FROM %s.status_checks ORDER BY ts DESC LIMIT ?", s.database)
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		s.l.Error("clickhouse list status error", applogger.Int("limit", limit), applogger.Error(err))
		return nil, fmt.Errorf("list status: %w", err)
	}
	defer rows.Close()

	out := make([]models.StatusCheck, 0, limit)
	for rows.Next() {
		var c models.StatusCheck
		var ts time.Time
		if err := rows.Scan(&c.ID, &c.ClientName, &ts); err != nil {
			return nil, fmt.Errorf("scan status: %w", err)
		}
		c.Timestamp = ts.UTC()
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
