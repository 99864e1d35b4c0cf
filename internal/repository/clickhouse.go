package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// execQuerier is the subset of *sql.DB the ClickHouse repositories use.
type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	PingContext(ctx context.Context) error
}

// Schema returns the idempotent DDL for database db.
func Schema(db string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.status_checks (
    id          UUID,
    client_name String,
    ts          DateTime64(3, 'UTC')
) ENGINE = MergeTree
ORDER BY (ts, id)`, db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.ticks (
    ts       DateTime64(3, 'UTC'),
    symbol   LowCardinality(String),
    price    Float64,
    volume   Float64,
    strike   Float64,
    event_id String
) ENGINE = ReplacingMergeTree
PARTITION BY toYYYYMMDD(ts)
ORDER BY (symbol, ts, event_id)`, db),
	}
}

func initSchema(ctx context.Context, db execQuerier, database string) error {
	for _, stmt := range Schema(database) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
