package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/findoc-ai/analyzer-be/internal/pipeline"
	"github.com/findoc-ai/analyzer-be/internal/worker/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Storage handles all database operations for the worker
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// ClaimJob marks a job as running using a conditional update. Jobs in
// pending or running state are claimable so a redelivered message can
// re-enter processing after a worker crash. Terminal jobs yield no row
// and the caller must treat the message as already handled.
func (s *Storage) ClaimJob(ctx context.Context, jobID string) (*domain.Job, error) {
	query := `
		UPDATE analysis_jobs
		SET status = $1,
		    started_at = COALESCE(started_at, NOW())
		WHERE id = $2
		  AND status IN ($3, $1)
		RETURNING id, query, status, retry_count, started_at
	`

	var job domain.Job
	err := s.db.QueryRowxContext(ctx, query, domain.JobStatusRunning, jobID, domain.JobStatusPending).StructScan(&job)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			exists, checkErr := s.jobExists(ctx, jobID)
			if checkErr != nil {
				return nil, fmt.Errorf("failed to check job existence: %w", checkErr)
			}
			if !exists {
				return nil, domain.ErrJobNotFound
			}
			s.logger.Warn("Job already in terminal state, skipping",
				slog.String("job_id", jobID),
			)
			return nil, domain.ErrJobAlreadyTerminal
		}
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}

	s.logger.Info("Job claimed",
		slog.String("job_id", job.ID),
		slog.Int("retry_count", job.RetryCount),
	)

	return &job, nil
}

func (s *Storage) jobExists(ctx context.Context, jobID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM analysis_jobs WHERE id = $1)`, jobID)
	return exists, err
}

// CompleteJob persists the analysis report and marks the job completed
// in a single transaction. Both statements are conditional so a
// redelivered message that re-runs a finished job cannot produce a
// duplicate result or overwrite the original timestamps.
func (s *Storage) CompleteJob(ctx context.Context, jobID string, report *pipeline.Report, completedAt time.Time, durationSeconds float64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO analysis_results (
			id, job_id,
			verification_output, analysis_output, investment_output,
			risk_output, market_output, full_output,
			entity_name, document_type, reporting_period
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (job_id) DO NOTHING
	`,
		uuid.New().String(), jobID,
		report.VerificationOutput, report.AnalysisOutput, report.InvestmentOutput,
		report.RiskOutput, report.MarketOutput, report.FullOutput,
		report.EntityName, report.DocumentType, report.ReportingPeriod,
	)
	if err != nil {
		return fmt.Errorf("failed to insert result: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE analysis_jobs
		SET status = $1,
		    completed_at = $2,
		    duration_seconds = $3,
		    error_message = NULL
		WHERE id = $4
		  AND status NOT IN ($1, $5)
	`, domain.JobStatusCompleted, completedAt, durationSeconds, jobID, domain.JobStatusFailed)
	if err != nil {
		return fmt.Errorf("failed to mark job completed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit completion: %w", err)
	}

	s.logger.Info("Job completed",
		slog.String("job_id", jobID),
		slog.Float64("duration_seconds", durationSeconds),
	)

	return nil
}

// FailJob marks a job as failed with the given error message. Jobs
// already in a terminal state are left untouched. Duration is computed
// from started_at like completion; jobs that never started record 0.
func (s *Storage) FailJob(ctx context.Context, jobID, errMsg string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE analysis_jobs
		SET status = $1,
		    completed_at = NOW(),
		    duration_seconds = GREATEST(0, EXTRACT(EPOCH FROM (NOW() - started_at))),
		    error_message = $2
		WHERE id = $3
		  AND status NOT IN ($1, $4)
	`, domain.JobStatusFailed, errMsg, jobID, domain.JobStatusCompleted)
	if err != nil {
		return fmt.Errorf("failed to mark job failed: %w", err)
	}

	s.logger.Info("Job marked failed",
		slog.String("job_id", jobID),
		slog.String("error_message", errMsg),
	)

	return nil
}

// IncrementRetryCount bumps the retry counter. The job stays running
// through the backoff window; ClaimJob accepts running jobs so the
// redelivered message can re-enter processing.
func (s *Storage) IncrementRetryCount(ctx context.Context, jobID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE analysis_jobs
		SET retry_count = retry_count + 1
		WHERE id = $1
		  AND status = $2
	`, jobID, domain.JobStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to increment retry count: %w", err)
	}
	return nil
}
