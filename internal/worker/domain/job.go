package domain

import "time"

// Job status constants
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Job represents a claimed analysis job for worker processing
type Job struct {
	ID         string     `db:"id"`
	Query      string     `db:"query"`
	Status     string     `db:"status"`
	RetryCount int        `db:"retry_count"`
	StartedAt  *time.Time `db:"started_at"`
}

// JobMessage represents an analysis request message from RabbitMQ
type JobMessage struct {
	JobID       string `json:"job_id"`
	FilePath    string `json:"file_path"`
	Query       string `json:"query"`
	Attempt     int    `json:"attempt"`
	DeliveryTag uint64 `json:"-"`
}
