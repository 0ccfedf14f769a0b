package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/findoc-ai/analyzer-be/internal/api/domain"
	"github.com/findoc-ai/analyzer-be/internal/api/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const defaultListLimit = 20

// GetJob handles GET /jobs/:job_id
// Returns current status, timestamps, and duration for one job
func (h *Handler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	job, err := h.store.GetJobByID(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Job '" + jobID + "' not found",
			})
			return
		}
		h.logger.Error("Failed to get job", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get job",
		})
		return
	}

	c.JSON(http.StatusOK, dto.NewJobStatusResponse(job))
}

// GetResult handles GET /jobs/:job_id/result
// Returns the full persisted analysis output for a completed job.
// Non-terminal jobs answer 202 so pollers can distinguish "still
// working" from "no such result".
func (h *Handler) GetResult(c *gin.Context) {
	jobID := c.Param("job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	job, err := h.store.GetJobByID(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Job '" + jobID + "' not found",
			})
			return
		}
		h.logger.Error("Failed to get job", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get job",
		})
		return
	}

	switch job.Status {
	case domain.JobStatusPending:
		c.JSON(http.StatusAccepted, gin.H{
			"job_id": job.ID,
			"status": job.Status,
			"detail": "Job is still pending in the queue",
		})
		return
	case domain.JobStatusRunning:
		c.JSON(http.StatusAccepted, gin.H{
			"job_id": job.ID,
			"status": job.Status,
			"detail": "Job is currently being processed",
		})
		return
	case domain.JobStatusFailed:
		detail := "Unknown error"
		if job.ErrorMessage != nil && *job.ErrorMessage != "" {
			detail = *job.ErrorMessage
		}
		c.JSON(http.StatusNotFound, gin.H{
			"job_id": job.ID,
			"status": job.Status,
			"error":  "Job failed: " + detail,
		})
		return
	}

	if h.cache != nil {
		if res, ok := h.cache.GetResult(c.Request.Context(), jobID); ok {
			c.JSON(http.StatusOK, dto.NewResultResponse(job, res))
			return
		}
	}

	res, err := h.store.GetResultByJobID(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrResultNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Result not found for this job",
			})
			return
		}
		h.logger.Error("Failed to get result", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get result",
		})
		return
	}

	if h.cache != nil {
		h.cache.SetResult(c.Request.Context(), jobID, res)
	}

	c.JSON(http.StatusOK, dto.NewResultResponse(job, res))
}

// ListJobs handles GET /jobs
// Authenticated callers see their own jobs; anonymous callers see a
// bounded window of recent jobs across all users.
func (h *Handler) ListJobs(c *gin.Context) {
	var req dto.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > h.maxListLimit {
		limit = h.maxListLimit
	}

	offset := req.Offset
	if offset < 0 {
		offset = 0
	}

	var (
		jobs []domain.Job
		err  error
	)

	if user, ok := CurrentUser(c); ok {
		jobs, err = h.store.ListJobsForUser(c.Request.Context(), user.ID, limit, offset)
	} else {
		limit = h.anonWindow
		offset = 0
		jobs, err = h.store.ListRecentJobs(c.Request.Context(), h.anonWindow)
	}

	if err != nil {
		h.logger.Error("Failed to list jobs", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list jobs",
		})
		return
	}

	resp := dto.JobListResponse{
		Jobs:   make([]dto.JobStatusResponse, len(jobs)),
		Total:  len(jobs),
		Limit:  limit,
		Offset: offset,
	}
	for i := range jobs {
		resp.Jobs[i] = dto.NewJobStatusResponse(&jobs[i])
	}

	c.JSON(http.StatusOK, resp)
}

// DeleteJob handles DELETE /jobs/:job_id
// Only the owning user may delete a job; the result row cascades.
// Running jobs cannot be deleted because the in-flight pipeline
// invocation is not interruptible.
func (h *Handler) DeleteJob(c *gin.Context) {
	jobID := c.Param("job_id")
	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Authentication required",
		})
		return
	}

	job, err := h.store.GetJobByID(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Job '" + jobID + "' not found",
			})
			return
		}
		h.logger.Error("Failed to get job", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get job",
		})
		return
	}

	if job.UserID == nil || *job.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "You do not own this job",
		})
		return
	}

	if job.Status == domain.JobStatusRunning {
		c.JSON(http.StatusConflict, gin.H{
			"error": "Cannot delete a job that is currently running",
		})
		return
	}

	if err := h.store.DeleteJob(c.Request.Context(), jobID); err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Job '" + jobID + "' not found",
			})
			return
		}
		h.logger.Error("Failed to delete job", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to delete job",
		})
		return
	}

	if h.cache != nil {
		h.cache.Delete(c.Request.Context(), jobID)
	}

	h.logger.Info("Job deleted",
		slog.String("job_id", jobID),
		slog.String("user_id", user.ID),
	)

	c.Status(http.StatusNoContent)
}

// Health handles GET /
// Reports each dependency independently. The cache field is present
// only when a result cache is configured; a cache error degrades the
// overall status too, since reads silently fall back to the database.
func (h *Handler) Health(c *gin.Context) {
	dbStatus := "ok"
	if err := h.dbHealth.HealthCheck(c.Request.Context()); err != nil {
		dbStatus = "error: " + err.Error()
	}

	queueStatus := "ok"
	if !h.queue.IsConnected() {
		queueStatus = "error: not connected"
	}

	cacheStatus := ""
	if h.cache != nil {
		cacheStatus = "ok"
		if err := h.cache.Ping(c.Request.Context()); err != nil {
			cacheStatus = "error: " + err.Error()
		}
	}

	status := "ok"
	if dbStatus != "ok" || queueStatus != "ok" || (cacheStatus != "" && cacheStatus != "ok") {
		status = "degraded"
	}

	c.JSON(http.StatusOK, dto.HealthResponse{
		Status:   status,
		Version:  h.appVersion,
		Database: dbStatus,
		Queue:    queueStatus,
		Cache:    cacheStatus,
	})
}
