package middleware

import (
	"net/http"
	"time"

	"github.com/qj0r9j0vc2/modmail/internal/infrastructure/observability"
)

// Observability records HTTP metrics for requests.
func Observability(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if metrics == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			metrics.HTTPRequestsActive.Add(r.Context(), 1)
			defer metrics.HTTPRequestsActive.Add(r.Context(), -1)

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			metrics.RecordHTTPRequest(
				r.Context(),
				r.Method,
				r.URL.Path,
				rw.statusCode,
				time.Since(start),
			)
		})
	}
}
