package handler

import (
	"context"
	"log/slog"

	"github.com/findoc-ai/analyzer-be/internal/api/domain"
	"github.com/gin-gonic/gin"
)

// Store is the durable-store surface the handlers depend on,
// implemented by storage.Storage
type Store interface {
	CreateUser(ctx context.Context, email string, name *string) (*domain.User, error)
	GetUserByAPIKey(ctx context.Context, apiKey string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	CreateJob(ctx context.Context, job *domain.Job) error
	GetJobByID(ctx context.Context, jobID string) (*domain.Job, error)
	ListJobsForUser(ctx context.Context, userID string, limit, offset int) ([]domain.Job, error)
	ListRecentJobs(ctx context.Context, limit int) ([]domain.Job, error)
	DeleteJob(ctx context.Context, jobID string) error
	GetResultByJobID(ctx context.Context, jobID string) (*domain.Result, error)
}

// Publisher is the queue surface the submission path depends on,
// implemented by rabbitmq.Client
type Publisher interface {
	PublishWithRetry(ctx context.Context, body []byte, contentType string) error
	IsConnected() bool
}

// DBHealth reports on store reachability for the health endpoint
type DBHealth interface {
	HealthCheck(ctx context.Context) error
}

// ResultCache is the optional best-effort result cache,
// implemented by cache.ResultCache
type ResultCache interface {
	GetResult(ctx context.Context, jobID string) (*domain.Result, bool)
	SetResult(ctx context.Context, jobID string, res *domain.Result)
	Delete(ctx context.Context, jobID string)
	Ping(ctx context.Context) error
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger          *slog.Logger
	Store           Store
	Queue           Publisher
	DBHealth        DBHealth
	Cache           ResultCache // nil when the cache is disabled
	UploadDir       string
	MaxUploadSizeMB int // uploads larger than this are rejected
	AnonWindow      int // recent-jobs window size for anonymous listing
	MaxListLimit    int // upper bound for the per-user listing limit
	AppVersion      string
}

// Handler handles all HTTP requests for the analysis API
type Handler struct {
	logger         *slog.Logger
	store          Store
	queue          Publisher
	dbHealth       DBHealth
	cache          ResultCache
	uploadDir      string
	maxUploadBytes int64
	anonWindow     int
	maxListLimit   int
	appVersion     string
}

// NewHandler creates a new Handler instance
func NewHandler(deps *Dependencies) *Handler {
	anonWindow := deps.AnonWindow
	if anonWindow <= 0 {
		anonWindow = 20
	}

	maxUploadMB := deps.MaxUploadSizeMB
	if maxUploadMB <= 0 {
		maxUploadMB = 25
	}

	maxListLimit := deps.MaxListLimit
	if maxListLimit <= 0 {
		maxListLimit = 100
	}

	return &Handler{
		logger:         deps.Logger,
		store:          deps.Store,
		queue:          deps.Queue,
		dbHealth:       deps.DBHealth,
		cache:          deps.Cache,
		uploadDir:      deps.UploadDir,
		maxUploadBytes: int64(maxUploadMB) << 20,
		anonWindow:     anonWindow,
		maxListLimit:   maxListLimit,
		appVersion:     deps.AppVersion,
	}
}

const currentUserKey = "currentUser"

// SetCurrentUser stores the authenticated user on the request context
func SetCurrentUser(c *gin.Context, user *domain.User) {
	c.Set(currentUserKey, user)
}

// CurrentUser returns the authenticated user, if any
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*domain.User)
	return user, ok
}
