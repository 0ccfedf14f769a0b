package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// schema is idempotent so the bootstrap can run on every startup
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         VARCHAR(36) PRIMARY KEY,
	email      VARCHAR(255) NOT NULL UNIQUE,
	name       VARCHAR(255),
	api_key    VARCHAR(64) NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS analysis_jobs (
	id                VARCHAR(36) PRIMARY KEY,
	user_id           VARCHAR(36) REFERENCES users(id) ON DELETE SET NULL,
	status            VARCHAR(16) NOT NULL DEFAULT 'pending',
	query             TEXT NOT NULL,
	original_filename VARCHAR(255) NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	started_at        TIMESTAMPTZ,
	completed_at      TIMESTAMPTZ,
	duration_seconds  DOUBLE PRECISION,
	error_message     TEXT,
	retry_count       INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_analysis_jobs_user_id ON analysis_jobs(user_id);
CREATE INDEX IF NOT EXISTS idx_analysis_jobs_status ON analysis_jobs(status);
CREATE INDEX IF NOT EXISTS idx_analysis_jobs_created_at ON analysis_jobs(created_at DESC);

CREATE TABLE IF NOT EXISTS analysis_results (
	id                  VARCHAR(36) PRIMARY KEY,
	job_id              VARCHAR(36) NOT NULL UNIQUE REFERENCES analysis_jobs(id) ON DELETE CASCADE,
	verification_output TEXT,
	analysis_output     TEXT,
	investment_output   TEXT,
	risk_output         TEXT,
	market_output       TEXT,
	full_output         TEXT,
	entity_name         VARCHAR(255),
	document_type       VARCHAR(255),
	reporting_period    VARCHAR(255),
	created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

const (
	bootstrapAttempts = 10
	bootstrapInterval = 3 * time.Second
)

// CreateTables creates the three durable relations if they do not exist
func (s *Storage) CreateTables(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// Bootstrap retries table creation until the database is reachable.
// In container environments Postgres may accept connections a few
// seconds after the API process starts.
func (s *Storage) Bootstrap(ctx context.Context, logger *slog.Logger) error {
	var lastErr error

	for attempt := 1; attempt <= bootstrapAttempts; attempt++ {
		lastErr = s.CreateTables(ctx)
		if lastErr == nil {
			logger.Info("Database schema verified",
				slog.Int("attempt", attempt),
			)
			return nil
		}

		logger.Warn("Database not ready yet, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", bootstrapAttempts),
			slog.Any("error", lastErr),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(bootstrapInterval):
		}
	}

	return fmt.Errorf("schema bootstrap failed after %d attempts: %w", bootstrapAttempts, lastErr)
}
