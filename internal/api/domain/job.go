package domain

import "time"

// Job status values. Transitions are monotonic forward:
// pending → running → completed | failed.
const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// IsTerminal reports whether a status is final
func IsTerminal(status string) bool {
	return status == JobStatusCompleted || status == JobStatusFailed
}

// User is an identity that may own analysis jobs
type User struct {
	ID        string    `db:"id"`
	Email     string    `db:"email"`
	Name      *string   `db:"name"`
	APIKey    string    `db:"api_key"`
	CreatedAt time.Time `db:"created_at"`
}

// Job is one document-analysis request and its lifecycle state
type Job struct {
	ID               string     `db:"id"`
	UserID           *string    `db:"user_id"`
	Status           string     `db:"status"`
	Query            string     `db:"query"`
	OriginalFilename string     `db:"original_filename"`
	CreatedAt        time.Time  `db:"created_at"`
	StartedAt        *time.Time `db:"started_at"`
	CompletedAt      *time.Time `db:"completed_at"`
	DurationSeconds  *float64   `db:"duration_seconds"`
	ErrorMessage     *string    `db:"error_message"`
	RetryCount       int        `db:"retry_count"`
}

// Result is the durable output of one completed job, one row per job.
// Per-stage outputs are stored alongside the combined full output.
type Result struct {
	ID                 string    `db:"id" json:"id"`
	JobID              string    `db:"job_id" json:"job_id"`
	VerificationOutput *string   `db:"verification_output" json:"verification_output"`
	AnalysisOutput     *string   `db:"analysis_output" json:"analysis_output"`
	InvestmentOutput   *string   `db:"investment_output" json:"investment_output"`
	RiskOutput         *string   `db:"risk_output" json:"risk_output"`
	MarketOutput       *string   `db:"market_output" json:"market_output"`
	FullOutput         *string   `db:"full_output" json:"full_output"`
	EntityName         *string   `db:"entity_name" json:"entity_name"`
	DocumentType       *string   `db:"document_type" json:"document_type"`
	ReportingPeriod    *string   `db:"reporting_period" json:"reporting_period"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
}
