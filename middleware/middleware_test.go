package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestLoggingMiddlewarePassesThrough(t *testing.T) {
	h := LoggingMiddleware(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/extract-metadata?url=x", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitMiddlewareAllowsFirstRequest(t *testing.T) {
	h := RateLimitMiddleware(2)(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/extract-metadata?url=x", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitMiddlewareRejectsBurst(t *testing.T) {
	h := RateLimitMiddleware(1)(okHandler())

	rejected := 0
	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/extract-metadata?url=x", nil)
		req.RemoteAddr = "198.51.100.7:4242"
		h.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			rejected++
		}
	}
	require.Positive(t, rejected)
}

func TestRateLimitMiddlewareExemptsHealth(t *testing.T) {
	h := RateLimitMiddleware(1)(okHandler())

	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "198.51.100.7:4242"
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
