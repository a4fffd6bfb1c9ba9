package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect creates a pgx connection pool from a DATABASE_URL-style DSN.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is empty")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	config.MaxConns = 10
	config.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS events (
			id BIGSERIAL PRIMARY KEY,
			dedupe_key TEXT NOT NULL UNIQUE,
			race_name TEXT NOT NULL,
			race_date DATE,
			city TEXT NOT NULL DEFAULT '',
			distances TEXT[] NOT NULL DEFAULT '{}',
			participant_count INTEGER,
			event_id TEXT NOT NULL DEFAULT '',
			timing_company TEXT NOT NULL,
			source_url TEXT NOT NULL,
			run_id UUID NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_timing_company ON events (timing_company)`,
		`CREATE INDEX IF NOT EXISTS idx_events_race_date ON events (race_date)`,
		`CREATE TABLE IF NOT EXISTS duplicate_groups (
			id BIGSERIAL PRIMARY KEY,
			run_id UUID NOT NULL,
			tier TEXT NOT NULL,
			member_count INTEGER NOT NULL,
			representative_name TEXT NOT NULL,
			members JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_duplicate_groups_tier ON duplicate_groups (tier)`,
		`CREATE TABLE IF NOT EXISTS ingest_runs (
			id BIGSERIAL PRIMARY KEY,
			run_id UUID NOT NULL,
			platform TEXT NOT NULL,
			total_found INTEGER NOT NULL,
			total_saved INTEGER NOT NULL,
			errors INTEGER NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
