package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/findoc-ai/analyzer-be/internal/api/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func completedJob(userID *string) *domain.Job {
	started := time.Now().UTC().Add(-time.Minute)
	completed := time.Now().UTC()
	duration := 42.5
	return &domain.Job{
		ID:               uuid.New().String(),
		UserID:           userID,
		Status:           domain.JobStatusCompleted,
		Query:            "What is the revenue trend?",
		OriginalFilename: "report.pdf",
		CreatedAt:        started.Add(-time.Second),
		StartedAt:        &started,
		CompletedAt:      &completed,
		DurationSeconds:  &duration,
	}
}

func resultFor(jobID string) *domain.Result {
	return &domain.Result{
		ID:                 uuid.New().String(),
		JobID:              jobID,
		VerificationOutput: strPtr("verified"),
		AnalysisOutput:     strPtr("analyzed"),
		InvestmentOutput:   strPtr("invest"),
		RiskOutput:         strPtr("risks"),
		MarketOutput:       strPtr("market"),
		FullOutput:         strPtr("# Full report"),
		EntityName:         strPtr("Acme Corp"),
		DocumentType:       strPtr("Annual Report"),
		ReportingPeriod:    strPtr("FY2025"),
		CreatedAt:          time.Now().UTC(),
	}
}

func TestGetJob(t *testing.T) {
	t.Run("returns status for known job", func(t *testing.T) {
		env := newTestEnv(t)
		job := env.store.addJob(completedJob(nil))

		w := env.do(httptest.NewRequest(http.MethodGet, "/jobs/"+job.ID, nil))

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, job.ID, body["job_id"])
		assert.Equal(t, "completed", body["status"])
		assert.Equal(t, "report.pdf", body["original_filename"])
		assert.Equal(t, 42.5, body["duration_seconds"])
	})

	t.Run("unknown job returns 404", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(httptest.NewRequest(http.MethodGet, "/jobs/"+uuid.New().String(), nil))

		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed job id returns 400", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(httptest.NewRequest(http.MethodGet, "/jobs/not-a-uuid", nil))

		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetResult(t *testing.T) {
	t.Run("completed job returns full result", func(t *testing.T) {
		env := newTestEnv(t)
		job := env.store.addJob(completedJob(nil))
		env.store.results[job.ID] = resultFor(job.ID)

		w := env.do(httptest.NewRequest(http.MethodGet, "/jobs/"+job.ID+"/result", nil))

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, job.ID, body["job_id"])
		assert.Equal(t, "completed", body["status"])
		assert.Equal(t, "# Full report", body["full_output"])
		assert.Equal(t, "Acme Corp", body["entity_name"])
		assert.Equal(t, "Annual Report", body["document_type"])
		assert.Equal(t, "FY2025", body["reporting_period"])
		assert.Equal(t, "verified", body["verification_output"])
	})

	t.Run("pending job returns 202", func(t *testing.T) {
		env := newTestEnv(t)
		job := env.store.addJob(&domain.Job{
			ID:     uuid.New().String(),
			Status: domain.JobStatusPending,
		})

		w := env.do(httptest.NewRequest(http.MethodGet, "/jobs/"+job.ID+"/result", nil))

		require.Equal(t, http.StatusAccepted, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "pending", body["status"])
	})

	t.Run("running job returns 202", func(t *testing.T) {
		env := newTestEnv(t)
		job := env.store.addJob(&domain.Job{
			ID:     uuid.New().String(),
			Status: domain.JobStatusRunning,
		})

		w := env.do(httptest.NewRequest(http.MethodGet, "/jobs/"+job.ID+"/result", nil))

		require.Equal(t, http.StatusAccepted, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "running", body["status"])
	})

	t.Run("failed job returns 404 with stored error", func(t *testing.T) {
		env := newTestEnv(t)
		job := env.store.addJob(&domain.Job{
			ID:           uuid.New().String(),
			Status:       domain.JobStatusFailed,
			ErrorMessage: strPtr("analysis failed: bad document"),
		})

		w := env.do(httptest.NewRequest(http.MethodGet, "/jobs/"+job.ID+"/result", nil))

		require.Equal(t, http.StatusNotFound, w.Code)
		body := decodeBody(t, w)
		assert.Contains(t, body["error"], "bad document")
	})

	t.Run("unknown job returns 404", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(httptest.NewRequest(http.MethodGet, "/jobs/"+uuid.New().String()+"/result", nil))

		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("completed job with missing result row returns 404", func(t *testing.T) {
		env := newTestEnv(t)
		job := env.store.addJob(completedJob(nil))

		w := env.do(httptest.NewRequest(http.MethodGet, "/jobs/"+job.ID+"/result", nil))

		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("cache hit skips the store", func(t *testing.T) {
		env := newTestEnv(t).withCache()
		job := env.store.addJob(completedJob(nil))
		env.cache.entries[job.ID] = resultFor(job.ID)
		// No result in the store; only the cache can serve it

		w := env.do(httptest.NewRequest(http.MethodGet, "/jobs/"+job.ID+"/result", nil))

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "# Full report", body["full_output"])
	})

	t.Run("cache miss populates the cache", func(t *testing.T) {
		env := newTestEnv(t).withCache()
		job := env.store.addJob(completedJob(nil))
		env.store.results[job.ID] = resultFor(job.ID)

		w := env.do(httptest.NewRequest(http.MethodGet, "/jobs/"+job.ID+"/result", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, env.cache.sets, job.ID)
	})
}

func TestListJobs(t *testing.T) {
	t.Run("authenticated user sees only own jobs", func(t *testing.T) {
		env := newTestEnv(t)
		alice := env.store.addUser("alice@example.com", "alice-key")
		bob := env.store.addUser("bob@example.com", "bob-key")

		env.store.addJob(completedJob(&alice.ID))
		env.store.addJob(completedJob(&alice.ID))
		env.store.addJob(completedJob(&bob.ID))
		env.store.addJob(completedJob(nil))

		req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
		req.Header.Set("X-Api-Key", "alice-key")
		w := env.do(req)

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, float64(2), body["total"])
	})

	t.Run("anonymous caller sees bounded recent window", func(t *testing.T) {
		env := newTestEnv(t)
		for i := 0; i < 30; i++ {
			env.store.recentJobs = append(env.store.recentJobs, *completedJob(nil))
		}

		w := env.do(httptest.NewRequest(http.MethodGet, "/jobs", nil))

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, float64(20), body["total"])
		assert.Equal(t, 20, env.store.recentLimit)
	})

	t.Run("requested limit is clamped to the configured maximum", func(t *testing.T) {
		env := newTestEnv(t)
		env.store.addUser("alice@example.com", "alice-key")

		req := httptest.NewRequest(http.MethodGet, "/jobs?limit=500", nil)
		req.Header.Set("X-Api-Key", "alice-key")
		w := env.do(req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 100, env.store.userListLimit)
	})

	t.Run("invalid api key returns 401 instead of anonymous window", func(t *testing.T) {
		env := newTestEnv(t)

		req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
		req.Header.Set("X-Api-Key", "bogus")
		w := env.do(req)

		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestDeleteJob(t *testing.T) {
	t.Run("owner deletes own job", func(t *testing.T) {
		env := newTestEnv(t)
		alice := env.store.addUser("alice@example.com", "alice-key")
		job := env.store.addJob(completedJob(&alice.ID))

		req := httptest.NewRequest(http.MethodDelete, "/jobs/"+job.ID, nil)
		req.Header.Set("X-Api-Key", "alice-key")
		w := env.do(req)

		require.Equal(t, http.StatusNoContent, w.Code)
		assert.Contains(t, env.store.deletedJobs, job.ID)
	})

	t.Run("unauthenticated delete returns 401", func(t *testing.T) {
		env := newTestEnv(t)
		job := env.store.addJob(completedJob(nil))

		w := env.do(httptest.NewRequest(http.MethodDelete, "/jobs/"+job.ID, nil))

		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("non-owner delete returns 403", func(t *testing.T) {
		env := newTestEnv(t)
		alice := env.store.addUser("alice@example.com", "alice-key")
		env.store.addUser("bob@example.com", "bob-key")
		job := env.store.addJob(completedJob(&alice.ID))

		req := httptest.NewRequest(http.MethodDelete, "/jobs/"+job.ID, nil)
		req.Header.Set("X-Api-Key", "bob-key")
		w := env.do(req)

		require.Equal(t, http.StatusForbidden, w.Code)
		assert.Empty(t, env.store.deletedJobs)
	})

	t.Run("anonymous job cannot be deleted by any user", func(t *testing.T) {
		env := newTestEnv(t)
		env.store.addUser("alice@example.com", "alice-key")
		job := env.store.addJob(completedJob(nil))

		req := httptest.NewRequest(http.MethodDelete, "/jobs/"+job.ID, nil)
		req.Header.Set("X-Api-Key", "alice-key")
		w := env.do(req)

		require.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("running job returns 409", func(t *testing.T) {
		env := newTestEnv(t)
		alice := env.store.addUser("alice@example.com", "alice-key")
		job := env.store.addJob(&domain.Job{
			ID:     uuid.New().String(),
			UserID: &alice.ID,
			Status: domain.JobStatusRunning,
		})

		req := httptest.NewRequest(http.MethodDelete, "/jobs/"+job.ID, nil)
		req.Header.Set("X-Api-Key", "alice-key")
		w := env.do(req)

		require.Equal(t, http.StatusConflict, w.Code)
		assert.Empty(t, env.store.deletedJobs)
	})

	t.Run("unknown job returns 404", func(t *testing.T) {
		env := newTestEnv(t)
		env.store.addUser("alice@example.com", "alice-key")

		req := httptest.NewRequest(http.MethodDelete, "/jobs/"+uuid.New().String(), nil)
		req.Header.Set("X-Api-Key", "alice-key")
		w := env.do(req)

		require.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete clears cached result", func(t *testing.T) {
		env := newTestEnv(t).withCache()
		alice := env.store.addUser("alice@example.com", "alice-key")
		job := env.store.addJob(completedJob(&alice.ID))
		env.cache.entries[job.ID] = resultFor(job.ID)

		req := httptest.NewRequest(http.MethodDelete, "/jobs/"+job.ID, nil)
		req.Header.Set("X-Api-Key", "alice-key")
		w := env.do(req)

		require.Equal(t, http.StatusNoContent, w.Code)
		assert.Contains(t, env.cache.deletes, job.ID)
	})
}
