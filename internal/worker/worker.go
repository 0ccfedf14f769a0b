package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/findoc-ai/analyzer-be/internal/config"
	"github.com/findoc-ai/analyzer-be/internal/extractor"
	"github.com/findoc-ai/analyzer-be/internal/pipeline"
	"github.com/findoc-ai/analyzer-be/internal/worker/domain"
	"github.com/findoc-ai/analyzer-be/shared/rabbitmq"
	"github.com/google/uuid"
)

// JobStore is the persistence surface the worker needs. Implemented by
// storage.Storage; faked in tests.
type JobStore interface {
	ClaimJob(ctx context.Context, jobID string) (*domain.Job, error)
	CompleteJob(ctx context.Context, jobID string, report *pipeline.Report, completedAt time.Time, durationSeconds float64) error
	FailJob(ctx context.Context, jobID, errMsg string) error
	IncrementRetryCount(ctx context.Context, jobID string) error
}

// Publisher republishes messages for delayed retries. The delay must
// hold in the broker, not in process memory, so a crash during the
// backoff window cannot lose the job.
type Publisher interface {
	PublishDelayed(ctx context.Context, body []byte, contentType string, delay time.Duration) error
}

// Config holds worker configuration
type Config struct {
	Logger        *slog.Logger
	Storage       JobStore
	RabbitClient  *rabbitmq.Client
	Analyzer      pipeline.Analyzer
	Extractor     extractor.Extractor
	Concurrency   int
	PrefetchCount int
	Retry         config.RetryConfig
}

// Worker consumes analysis jobs from RabbitMQ and processes them
// through the extraction and analysis pipeline.
type Worker struct {
	logger        *slog.Logger
	storage       JobStore
	rabbitClient  *rabbitmq.Client
	publisher     Publisher
	analyzer      pipeline.Analyzer
	extractor     extractor.Extractor
	concurrency   int
	prefetchCount int
	retry         config.RetryConfig
	workerID      string
	jobsChan      chan *domain.JobMessage
	stopChan      chan struct{}
	wg            sync.WaitGroup
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	return &Worker{
		logger:        cfg.Logger,
		storage:       cfg.Storage,
		rabbitClient:  cfg.RabbitClient,
		publisher:     cfg.RabbitClient,
		analyzer:      cfg.Analyzer,
		extractor:     cfg.Extractor,
		concurrency:   cfg.Concurrency,
		prefetchCount: cfg.PrefetchCount,
		retry:         cfg.Retry,
		workerID:      uuid.New().String(),
		jobsChan:      make(chan *domain.JobMessage),
		stopChan:      make(chan struct{}),
	}
}

// Start begins consuming and processing jobs until ctx is canceled
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Int("max_retry_attempts", w.retry.MaxAttempts),
	)

	deliveries, err := w.setupConsumer(ctx)
	if err != nil {
		return err
	}

	w.spawnWorkerPool(ctx)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.startMessageDispatcher(ctx, deliveries)
	}()

	<-ctx.Done()
	w.logger.Info("Worker context canceled, stopping...")

	return nil
}

// Stop gracefully stops the worker and waits for in-flight jobs
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("Worker stopped")
}
