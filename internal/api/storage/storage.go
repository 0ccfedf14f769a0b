package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/findoc-ai/analyzer-be/internal/api/domain"
	"github.com/findoc-ai/analyzer-be/shared/postgresql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// pq error code for unique_violation
const uniqueViolation = "23505"

type Storage struct {
	db *sqlx.DB
}

func NewStorage(pg *postgresql.Client) *Storage {
	return &Storage{
		db: pg.GetDB(),
	}
}

// generateAPIKey returns a 43-character URL-safe random token
func generateAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate api key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// CreateUser registers a new user with a freshly generated API key
func (s *Storage) CreateUser(ctx context.Context, email string, name *string) (*domain.User, error) {
	apiKey, err := generateAPIKey()
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:        uuid.New().String(),
		Email:     email,
		Name:      name,
		APIKey:    apiKey,
		CreatedAt: time.Now().UTC(),
	}

	query := `
		INSERT INTO users (id, email, name, api_key, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err = s.db.ExecContext(ctx, query, user.ID, user.Email, user.Name, user.APIKey, user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// GetUserByAPIKey resolves an API key to a user identity
func (s *Storage) GetUserByAPIKey(ctx context.Context, apiKey string) (*domain.User, error) {
	var user domain.User
	query := `
		SELECT id, email, name, api_key, created_at
		FROM users
		WHERE api_key = $1
	`

	err := s.db.GetContext(ctx, &user, query, apiKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by api key: %w", err)
	}

	return &user, nil
}

// GetUserByEmail looks up a user by registered email
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	query := `
		SELECT id, email, name, api_key, created_at
		FROM users
		WHERE email = $1
	`

	err := s.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &user, nil
}

// CreateJob inserts a new job row in pending state
func (s *Storage) CreateJob(ctx context.Context, job *domain.Job) error {
	query := `
		INSERT INTO analysis_jobs (
			id, user_id, status, query, original_filename,
			created_at, retry_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		job.ID,
		job.UserID,
		job.Status,
		job.Query,
		job.OriginalFilename,
		job.CreatedAt,
		job.RetryCount,
	)

	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

// GetJobByID retrieves a single job row
func (s *Storage) GetJobByID(ctx context.Context, jobID string) (*domain.Job, error) {
	var job domain.Job
	query := `
		SELECT id, user_id, status, query, original_filename,
		       created_at, started_at, completed_at, duration_seconds,
		       error_message, retry_count
		FROM analysis_jobs
		WHERE id = $1
	`

	err := s.db.GetContext(ctx, &job, query, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

// ListJobsForUser returns a page of the user's jobs, newest first
func (s *Storage) ListJobsForUser(ctx context.Context, userID string, limit, offset int) ([]domain.Job, error) {
	query := `
		SELECT id, user_id, status, query, original_filename,
		       created_at, started_at, completed_at, duration_seconds,
		       error_message, retry_count
		FROM analysis_jobs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	jobs := []domain.Job{}
	if err := s.db.SelectContext(ctx, &jobs, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list jobs for user: %w", err)
	}

	return jobs, nil
}

// ListRecentJobs returns the most recent jobs across all users
func (s *Storage) ListRecentJobs(ctx context.Context, limit int) ([]domain.Job, error) {
	query := `
		SELECT id, user_id, status, query, original_filename,
		       created_at, started_at, completed_at, duration_seconds,
		       error_message, retry_count
		FROM analysis_jobs
		ORDER BY created_at DESC
		LIMIT $1
	`

	jobs := []domain.Job{}
	if err := s.db.SelectContext(ctx, &jobs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list recent jobs: %w", err)
	}

	return jobs, nil
}

// DeleteJob removes a job row; the result row cascades with it
func (s *Storage) DeleteJob(ctx context.Context, jobID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM analysis_jobs WHERE id = $1`, jobID)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return domain.ErrJobNotFound
	}

	return nil
}

// GetResultByJobID fetches the stored result for a terminal job
func (s *Storage) GetResultByJobID(ctx context.Context, jobID string) (*domain.Result, error) {
	var res domain.Result
	query := `
		SELECT id, job_id, verification_output, analysis_output,
		       investment_output, risk_output, market_output, full_output,
		       entity_name, document_type, reporting_period, created_at
		FROM analysis_results
		WHERE job_id = $1
	`

	err := s.db.GetContext(ctx, &res, query, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	return &res, nil
}
