package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// RequestMetrics records per-request measurements.
type RequestMetrics interface {
	RequestStarted()
	RequestFinished(method, route string, status int, elapsed time.Duration)
}

// Metrics returns middleware that records HTTP metrics labelled by the
// matched chi route pattern.
func Metrics(m RequestMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			m.RequestStarted()

			// Wrap response writer to capture status code
			wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			m.RequestFinished(r.Method, routePattern(r), wrapped.statusCode, time.Since(start))
		})
	}
}

// routePattern keeps label cardinality bounded: ids never appear in it.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return "unmatched"
	}

	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}

	return "unmatched"
}
