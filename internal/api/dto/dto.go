package dto

import (
	"time"

	"github.com/findoc-ai/analyzer-be/internal/api/domain"
)

type RegisterUserRequest struct {
	Email string  `json:"email" binding:"required,email"`
	Name  *string `json:"name"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name"`
	APIKey    string    `json:"api_key"`
	CreatedAt time.Time `json:"created_at"`
}

func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		APIKey:    u.APIKey,
		CreatedAt: u.CreatedAt,
	}
}

// SubmitResponse is returned immediately when a job is accepted into the queue
type SubmitResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
	PollURL string `json:"poll_url"`
}

type JobStatusResponse struct {
	JobID            string     `json:"job_id"`
	Status           string     `json:"status"`
	Query            string     `json:"query"`
	OriginalFilename string     `json:"original_filename"`
	CreatedAt        time.Time  `json:"created_at"`
	StartedAt        *time.Time `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at"`
	DurationSeconds  *float64   `json:"duration_seconds"`
	ErrorMessage     *string    `json:"error_message"`
	RetryCount       int        `json:"retry_count"`
}

func NewJobStatusResponse(j *domain.Job) JobStatusResponse {
	return JobStatusResponse{
		JobID:            j.ID,
		Status:           j.Status,
		Query:            j.Query,
		OriginalFilename: j.OriginalFilename,
		CreatedAt:        j.CreatedAt,
		StartedAt:        j.StartedAt,
		CompletedAt:      j.CompletedAt,
		DurationSeconds:  j.DurationSeconds,
		ErrorMessage:     j.ErrorMessage,
		RetryCount:       j.RetryCount,
	}
}

type ListJobsRequest struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

type JobListResponse struct {
	Jobs   []JobStatusResponse `json:"jobs"`
	Total  int                 `json:"total"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
}

// ResultResponse is the full analysis result for a completed job
type ResultResponse struct {
	JobID            string     `json:"job_id"`
	Status           string     `json:"status"`
	Query            string     `json:"query"`
	OriginalFilename string     `json:"original_filename"`
	DurationSeconds  *float64   `json:"duration_seconds"`

	VerificationOutput *string `json:"verification_output"`
	AnalysisOutput     *string `json:"analysis_output"`
	InvestmentOutput   *string `json:"investment_output"`
	RiskOutput         *string `json:"risk_output"`
	MarketOutput       *string `json:"market_output"`
	FullOutput         *string `json:"full_output"`

	EntityName      *string `json:"entity_name"`
	DocumentType    *string `json:"document_type"`
	ReportingPeriod *string `json:"reporting_period"`

	CreatedAt time.Time `json:"created_at"`
}

func NewResultResponse(j *domain.Job, r *domain.Result) ResultResponse {
	return ResultResponse{
		JobID:              j.ID,
		Status:             j.Status,
		Query:              j.Query,
		OriginalFilename:   j.OriginalFilename,
		DurationSeconds:    j.DurationSeconds,
		VerificationOutput: r.VerificationOutput,
		AnalysisOutput:     r.AnalysisOutput,
		InvestmentOutput:   r.InvestmentOutput,
		RiskOutput:         r.RiskOutput,
		MarketOutput:       r.MarketOutput,
		FullOutput:         r.FullOutput,
		EntityName:         r.EntityName,
		DocumentType:       r.DocumentType,
		ReportingPeriod:    r.ReportingPeriod,
		CreatedAt:          r.CreatedAt,
	}
}

// HealthResponse reports reachability of each dependency independently
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Database string `json:"database"`
	Queue    string `json:"queue"`
	Cache    string `json:"cache,omitempty"`
}
