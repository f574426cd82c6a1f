package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonHandler(body string, status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}

func TestGzipMiddleware_NoAcceptEncoding(t *testing.T) {
	body := strings.Repeat("a", 2000)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	GzipMiddleware(jsonHandler(body, http.StatusOK)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, body, w.Body.String())
}

func TestGzipMiddleware_Compression(t *testing.T) {
	tests := []struct {
		name         string
		contentType  string
		body         string
		status       int
		expectedGzip bool
	}{
		{name: "large json", contentType: "application/json", body: strings.Repeat(`{"url":"x"}`, 200), status: http.StatusCreated, expectedGzip: true},
		{name: "large html", contentType: "text/html; charset=utf-8", body: strings.Repeat("<p>x</p>", 300), status: http.StatusOK, expectedGzip: true},
		{name: "small json", contentType: "application/json", body: `{"url":"x"}`, status: http.StatusOK},
		{name: "plain text", contentType: "text/plain", body: strings.Repeat("x", 2000), status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Accept-Encoding", "gzip")
			w := httptest.NewRecorder()

			GzipMiddleware(handler).ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if !tt.expectedGzip {
				assert.Empty(t, w.Header().Get("Content-Encoding"))
				assert.Equal(t, tt.body, w.Body.String())
				return
			}
			assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
			gz, err := gzip.NewReader(w.Body)
			require.NoError(t, err)
			plain, err := io.ReadAll(gz)
			require.NoError(t, err)
			assert.Equal(t, tt.body, string(plain))
		})
	}
}

func TestGzipMiddleware_EmptyBodyKeepsStatus(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	req := httptest.NewRequest(http.MethodDelete, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()

	GzipMiddleware(handler).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
}

func TestGzipMiddleware_GzipRequest(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(`{"url":"https://go.dev"}`))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	var received string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		received = string(body)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Encoding", "gzip")
	w := httptest.NewRecorder()
	GzipMiddleware(handler).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"url":"https://go.dev"}`, received)
}

func TestGzipMiddleware_InvalidGzipRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("not gzip"))
	req.Header.Set("Content-Encoding", "gzip")
	w := httptest.NewRecorder()

	GzipMiddleware(jsonHandler("{}", http.StatusOK)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
