package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newAnalyzeRequest builds a multipart POST /analyze request
func newAnalyzeRequest(t *testing.T, filename, contentType, content, query string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if filename != "" {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
		header.Set("Content-Type", contentType)
		part, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}

	require.NoError(t, mw.WriteField("query", query))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/analyze", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestSubmitAnalysis(t *testing.T) {
	t.Run("accepts anonymous pdf submission", func(t *testing.T) {
		env := newTestEnv(t)

		req := newAnalyzeRequest(t, "report.pdf", "application/pdf", "%PDF-1.4 fake", "What is the revenue trend?")
		w := env.do(req)

		require.Equal(t, http.StatusAccepted, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "pending", body["status"])
		assert.NotEmpty(t, body["job_id"])
		assert.Equal(t, "/jobs/"+body["job_id"].(string), body["poll_url"])

		// Job row persisted before the queue publish
		require.Len(t, env.store.createdJobs, 1)
		job := env.store.createdJobs[0]
		assert.Nil(t, job.UserID)
		assert.Equal(t, "pending", job.Status)
		assert.Equal(t, "What is the revenue trend?", job.Query)
		assert.Equal(t, "report.pdf", job.OriginalFilename)

		// Work message carries the persisted upload path
		require.Len(t, env.queue.published, 1)
		var msg map[string]interface{}
		require.NoError(t, json.Unmarshal(env.queue.published[0], &msg))
		assert.Equal(t, job.ID, msg["job_id"])
		assert.Equal(t, float64(0), msg["attempt"])
		assert.Equal(t, job.Query, msg["query"])

		filePath := msg["file_path"].(string)
		data, err := os.ReadFile(filePath)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.4 fake", string(data))
	})

	t.Run("attributes job to authenticated user", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.store.addUser("alice@example.com", "alice-key")

		req := newAnalyzeRequest(t, "report.pdf", "application/pdf", "%PDF-1.4", "Summarize risks")
		req.Header.Set("X-Api-Key", "alice-key")
		w := env.do(req)

		require.Equal(t, http.StatusAccepted, w.Code)
		require.Len(t, env.store.createdJobs, 1)
		require.NotNil(t, env.store.createdJobs[0].UserID)
		assert.Equal(t, user.ID, *env.store.createdJobs[0].UserID)
	})

	t.Run("invalid api key rejected not downgraded", func(t *testing.T) {
		env := newTestEnv(t)

		req := newAnalyzeRequest(t, "report.pdf", "application/pdf", "%PDF-1.4", "Summarize risks")
		req.Header.Set("X-Api-Key", "bogus-key")
		w := env.do(req)

		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Empty(t, env.store.createdJobs)
		assert.Empty(t, env.queue.published)
	})

	t.Run("missing file returns 400", func(t *testing.T) {
		env := newTestEnv(t)

		req := newAnalyzeRequest(t, "", "", "", "Summarize")
		w := env.do(req)

		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("non-pdf extension returns 400", func(t *testing.T) {
		env := newTestEnv(t)

		req := newAnalyzeRequest(t, "notes.txt", "application/pdf", "plain text", "Summarize")
		w := env.do(req)

		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody(t, w)
		assert.Contains(t, body["error"], "PDF")
		assert.Empty(t, env.store.createdJobs)
	})

	t.Run("pdf extension with text content type returns 400", func(t *testing.T) {
		env := newTestEnv(t)

		req := newAnalyzeRequest(t, "renamed.pdf", "text/plain", "plain text", "Summarize")
		w := env.do(req)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, env.store.createdJobs)
	})

	t.Run("empty query returns 400", func(t *testing.T) {
		env := newTestEnv(t)

		req := newAnalyzeRequest(t, "report.pdf", "application/pdf", "%PDF-1.4", "   ")
		w := env.do(req)

		require.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody(t, w)
		assert.Contains(t, body["error"], "Query")
		assert.Empty(t, env.store.createdJobs)
	})

	t.Run("empty file returns 400", func(t *testing.T) {
		env := newTestEnv(t)

		req := newAnalyzeRequest(t, "report.pdf", "application/pdf", "", "Summarize")
		w := env.do(req)

		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("oversize file returns 413", func(t *testing.T) {
		env := newTestEnv(t)
		env.deps.MaxUploadSizeMB = 1
		env.rebuildRouter()

		oversize := strings.Repeat("x", (1<<20)+1)
		req := newAnalyzeRequest(t, "report.pdf", "application/pdf", oversize, "Summarize")
		w := env.do(req)

		require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		body := decodeBody(t, w)
		assert.Contains(t, body["error"], "1 MB")
		assert.Empty(t, env.store.createdJobs)

		entries, err := os.ReadDir(env.deps.UploadDir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("publish failure removes stored upload", func(t *testing.T) {
		env := newTestEnv(t)
		env.queue.publishErr = fmt.Errorf("broker unavailable")

		req := newAnalyzeRequest(t, "report.pdf", "application/pdf", "%PDF-1.4", "Summarize")
		w := env.do(req)

		require.Equal(t, http.StatusInternalServerError, w.Code)

		entries, err := os.ReadDir(env.deps.UploadDir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("job creation failure removes stored upload", func(t *testing.T) {
		env := newTestEnv(t)
		env.store.createJobErr = fmt.Errorf("db unavailable")

		req := newAnalyzeRequest(t, "report.pdf", "application/pdf", "%PDF-1.4", "Summarize")
		w := env.do(req)

		require.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Empty(t, env.queue.published)

		entries, err := os.ReadDir(env.deps.UploadDir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}
