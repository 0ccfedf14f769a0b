package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/findoc-ai/analyzer-be/internal/api/domain"
	"github.com/findoc-ai/analyzer-be/internal/api/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// acceptedContentTypes lists the declared MIME types allowed for uploads.
// The octet-stream fallback covers clients that don't sniff PDF content.
var acceptedContentTypes = map[string]bool{
	"application/pdf":          true,
	"application/octet-stream": true,
}

// queueMessage is the work message published for each accepted job
type queueMessage struct {
	JobID    string `json:"job_id"`
	FilePath string `json:"file_path"`
	Query    string `json:"query"`
	Attempt  int    `json:"attempt"`
}

// SubmitAnalysis handles POST /analyze
// Accepts a financial PDF plus a query, persists the upload and a pending
// job row, enqueues a work message, and returns 202 immediately. The
// job row is committed before the publish so a worker can never observe
// a job id with no backing record.
func (h *Handler) SubmitAnalysis(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Uploaded file is required",
		})
		return
	}

	if fileHeader.Size == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Uploaded file is empty",
		})
		return
	}

	if fileHeader.Size > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("Uploaded file exceeds the %d MB limit", h.maxUploadBytes>>20),
		})
		return
	}

	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf") {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Only PDF files are accepted",
		})
		return
	}

	// The filename extension alone is not enough: a renamed text file
	// must also fail the declared content-type check.
	contentType := fileHeader.Header.Get("Content-Type")
	if !acceptedContentTypes[contentType] {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Only PDF files are accepted",
		})
		return
	}

	query := strings.TrimSpace(c.PostForm("query"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Query must not be empty",
		})
		return
	}

	var userID *string
	if user, ok := CurrentUser(c); ok {
		userID = &user.ID
	}

	jobID := uuid.New().String()

	// Upload location derives from the job id, so concurrent uploads
	// can never collide.
	filePath, err := h.saveUpload(fileHeader, jobID)
	if err != nil {
		h.logger.Error("Failed to persist upload",
			slog.String("job_id", jobID),
			slog.Any("error", err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to store uploaded file",
		})
		return
	}

	job := &domain.Job{
		ID:               jobID,
		UserID:           userID,
		Status:           domain.JobStatusPending,
		Query:            query,
		OriginalFilename: fileHeader.Filename,
		CreatedAt:        time.Now().UTC(),
	}

	if err := h.store.CreateJob(c.Request.Context(), job); err != nil {
		h.removeUpload(jobID, filePath)
		h.logger.Error("Failed to create job", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create job",
		})
		return
	}

	body, err := json.Marshal(queueMessage{
		JobID:    jobID,
		FilePath: filePath,
		Query:    query,
		Attempt:  0,
	})
	if err != nil {
		h.removeUpload(jobID, filePath)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to enqueue analysis job",
		})
		return
	}

	if err := h.queue.PublishWithRetry(c.Request.Context(), body, "application/json"); err != nil {
		h.removeUpload(jobID, filePath)
		h.logger.Error("Failed to publish job message",
			slog.String("job_id", jobID),
			slog.Any("error", err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to enqueue analysis job",
		})
		return
	}

	h.logger.Info("Analysis job accepted",
		slog.String("job_id", jobID),
		slog.String("filename", fileHeader.Filename),
		slog.Bool("authenticated", userID != nil),
	)

	c.JSON(http.StatusAccepted, dto.SubmitResponse{
		JobID:   jobID,
		Status:  domain.JobStatusPending,
		Message: "Job accepted and queued for processing. Poll the status URL for updates.",
		PollURL: fmt.Sprintf("/jobs/%s", jobID),
	})
}

// saveUpload writes the uploaded bytes under the configured upload dir
func (h *Handler) saveUpload(fileHeader *multipart.FileHeader, jobID string) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	filePath, err := filepath.Abs(filepath.Join(h.uploadDir, fmt.Sprintf("upload_%s.pdf", jobID)))
	if err != nil {
		return "", fmt.Errorf("failed to resolve upload path: %w", err)
	}

	dst, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(filePath)
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}

	return filePath, nil
}

func (h *Handler) removeUpload(jobID, filePath string) {
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		h.logger.Warn("Failed to remove upload file",
			slog.String("job_id", jobID),
			slog.String("path", filePath),
			slog.Any("error", err),
		)
	}
}
