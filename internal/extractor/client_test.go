package extractor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestDocument(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload_test.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 sample"), 0o644))
	return path
}

func TestClient_ExtractText(t *testing.T) {
	t.Run("uploads document and returns text", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/extract", r.URL.Path)
			assert.Equal(t, http.MethodPost, r.Method)

			file, header, err := r.FormFile("file")
			require.NoError(t, err)
			defer file.Close()
			assert.Equal(t, "upload_test.pdf", header.Filename)

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"text": "Revenue grew 12% in FY2025."}`))
		}))
		defer srv.Close()

		client := NewClient(srv.URL, 0)
		text, err := client.ExtractText(context.Background(), writeTestDocument(t))

		require.NoError(t, err)
		assert.Equal(t, "Revenue grew 12% in FY2025.", text)
	})

	t.Run("non-200 response fails", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
		}))
		defer srv.Close()

		client := NewClient(srv.URL, 0)
		_, err := client.ExtractText(context.Background(), writeTestDocument(t))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 422")
	})

	t.Run("empty text fails", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"text": ""}`))
		}))
		defer srv.Close()

		client := NewClient(srv.URL, 0)
		_, err := client.ExtractText(context.Background(), writeTestDocument(t))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "no text")
	})

	t.Run("missing file fails without calling the service", func(t *testing.T) {
		called := false
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer srv.Close()

		client := NewClient(srv.URL, 0)
		_, err := client.ExtractText(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))

		require.Error(t, err)
		assert.False(t, called)
	})
}
