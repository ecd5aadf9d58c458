package middleware

import (
	"log"
	"net/http"
	"time"

	"github.com/didip/tollbooth/v7"
	"github.com/didip/tollbooth/v7/limiter"
)

// RateLimitMiddleware caps per-client request rates. Extraction is
// expensive (headless browser, vision model), so the default is
// deliberately low.
func RateLimitMiddleware(requestsPerSecond float64) func(http.Handler) http.Handler {
	lmt := tollbooth.NewLimiter(requestsPerSecond, &limiter.ExpirableOptions{
		DefaultExpirationTTL: time.Hour,
	})
	lmt.SetIPLookups([]string{"X-Forwarded-For", "X-Real-IP", "RemoteAddr"})
	lmt.SetMessage(`{"error": "rate limit exceeded, slow down"}`)
	lmt.SetMessageContentType("application/json")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Health and metrics probes are never rate limited
			if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}
			if httpError := tollbooth.LimitByRequest(lmt, w, r); httpError != nil {
				w.Header().Set("Content-Type", lmt.GetMessageContentType())
				w.WriteHeader(httpError.StatusCode)
				w.Write([]byte(lmt.GetMessage()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LoggingMiddleware logs API requests
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a response writer wrapper to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)

		if r.URL.Path != "/health" && r.URL.Path != "/metrics" {
			// Only log non-health check requests
			log.Printf("API Request: %s %s (Status: %d, Duration: %v)", r.Method, r.URL.Path, wrapped.statusCode, duration)
		}
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	return rw.ResponseWriter.Write(b)
}
