package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/findoc-ai/analyzer-be/internal/pipeline"
	"github.com/findoc-ai/analyzer-be/internal/worker/domain"
)

// processJob runs one analysis job end to end. A nil return means the
// message is fully handled and must be ACKed: success, a terminal
// failure recorded in the database, or a retry already republished.
// An error return drives the NACK/requeue decision in the pool.
func (w *Worker) processJob(ctx context.Context, msg *domain.JobMessage) error {
	w.logger.Info("Processing job",
		slog.String("job_id", msg.JobID),
		slog.Int("attempt", msg.Attempt),
		slog.String("worker_id", w.workerID),
	)

	job, err := w.storage.ClaimJob(ctx, msg.JobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobAlreadyTerminal) || errors.Is(err, domain.ErrJobNotFound) {
			// Redelivery of a finished or deleted job - nothing to do
			w.logger.Warn("Job not claimable, dropping message",
				slog.String("job_id", msg.JobID),
				slog.String("reason", err.Error()),
			)
			return nil
		}
		return domain.NewRetryableError(fmt.Errorf("failed to claim job: %w", err))
	}

	text, err := w.extractor.ExtractText(ctx, msg.FilePath)
	if err != nil {
		w.logger.Error("Text extraction failed",
			slog.String("job_id", job.ID),
			slog.String("file_path", msg.FilePath),
			slog.String("error", err.Error()),
		)
		return w.failJob(ctx, msg, fmt.Sprintf("text extraction failed: %s", err))
	}

	report, err := w.analyzer.Analyze(ctx, text, msg.Query)
	if err != nil {
		if pipeline.IsTransient(err) {
			return w.handleTransientFailure(ctx, msg, err)
		}
		w.logger.Error("Analysis failed",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()),
		)
		return w.failJob(ctx, msg, fmt.Sprintf("analysis failed: %s", err))
	}

	completedAt := time.Now().UTC()
	duration := durationSeconds(job.StartedAt, completedAt)

	if err := w.storage.CompleteJob(ctx, job.ID, report, completedAt, duration); err != nil {
		// The report is lost unless the message comes back; CompleteJob
		// is idempotent so a rerun is safe.
		return domain.NewRetryableError(fmt.Errorf("failed to persist result: %w", err))
	}

	w.removeUploadedFile(msg)

	w.logger.Info("Job completed successfully",
		slog.String("job_id", job.ID),
		slog.Float64("duration_seconds", duration),
	)

	return nil
}

// handleTransientFailure republishes the message with an increased
// attempt counter and a broker-held backoff delay, or fails the job
// once the retry budget is spent. The retry message must be durable in
// the broker before this returns nil, because nil ACKs the original
// delivery; until then a crash still redelivers the original.
func (w *Worker) handleTransientFailure(ctx context.Context, msg *domain.JobMessage, cause error) error {
	if msg.Attempt >= w.retry.MaxAttempts {
		w.logger.Warn("Retry budget exhausted",
			slog.String("job_id", msg.JobID),
			slog.Int("attempt", msg.Attempt),
			slog.Int("max_attempts", w.retry.MaxAttempts),
		)
		return w.failJob(ctx, msg, fmt.Sprintf("rate limited, retries exhausted after %d attempts: %s", msg.Attempt, cause))
	}

	if err := w.storage.IncrementRetryCount(ctx, msg.JobID); err != nil {
		return domain.NewRetryableError(fmt.Errorf("failed to record retry: %w", err))
	}

	retryMsg := domain.JobMessage{
		JobID:    msg.JobID,
		FilePath: msg.FilePath,
		Query:    msg.Query,
		Attempt:  msg.Attempt + 1,
	}

	body, err := json.Marshal(retryMsg)
	if err != nil {
		return domain.NewRetryableError(fmt.Errorf("failed to marshal retry message: %w", err))
	}

	delay := w.backoffDelay(msg.Attempt)

	if err := w.publisher.PublishDelayed(ctx, body, "application/json", delay); err != nil {
		return domain.NewRetryableError(fmt.Errorf("failed to republish retry message: %w", err))
	}

	w.logger.Warn("Transient failure, retry published",
		slog.String("job_id", msg.JobID),
		slog.Int("next_attempt", retryMsg.Attempt),
		slog.Duration("delay", delay),
		slog.String("error", cause.Error()),
	)

	return nil
}

// backoffDelay computes the exponential delay before the next attempt
func (w *Worker) backoffDelay(attempt int) time.Duration {
	delay := time.Duration(float64(w.retry.InitialDelay) * math.Pow(w.retry.Multiplier, float64(attempt)))
	if delay > w.retry.MaxDelay {
		delay = w.retry.MaxDelay
	}
	if delay < 0 {
		delay = w.retry.MaxDelay
	}
	return delay
}

// failJob records a terminal failure and cleans up the uploaded file.
// Returns nil so the message is ACKed; the failure lives in the database.
func (w *Worker) failJob(ctx context.Context, msg *domain.JobMessage, errMsg string) error {
	if err := w.storage.FailJob(ctx, msg.JobID, errMsg); err != nil {
		return domain.NewRetryableError(fmt.Errorf("failed to mark job failed: %w", err))
	}
	w.removeUploadedFile(msg)
	return nil
}

// removeUploadedFile deletes the uploaded document. Called only after
// the job outcome is durably recorded.
func (w *Worker) removeUploadedFile(msg *domain.JobMessage) {
	if err := os.Remove(msg.FilePath); err != nil && !os.IsNotExist(err) {
		w.logger.Warn("Failed to remove uploaded file",
			slog.String("job_id", msg.JobID),
			slog.String("file_path", msg.FilePath),
			slog.String("error", err.Error()),
		)
	}
}

// durationSeconds computes elapsed processing time in seconds. Both
// timestamps are normalized to UTC so a mixed-zone pair cannot produce
// a skewed or negative duration.
func durationSeconds(startedAt *time.Time, completedAt time.Time) float64 {
	if startedAt == nil {
		return 0
	}
	d := completedAt.UTC().Sub(startedAt.UTC())
	if d < 0 {
		return 0
	}
	return d.Seconds()
}
