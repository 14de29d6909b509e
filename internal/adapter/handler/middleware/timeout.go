package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/qj0r9j0vc2/modmail/internal/domain/logger"
)

// Timeout creates middleware that sets a timeout for request processing.
// If the handler has not started its response when the timeout fires, the
// client gets 504 Gateway Timeout and later writes from the handler are dropped.
// Health and metrics endpoints are excluded.
func Timeout(timeout time.Duration, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isProbe(r.URL.Path) || timeout <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			tw := &timeoutResponseWriter{ResponseWriter: w, header: make(http.Header)}
			done := make(chan struct{})
			panicked := make(chan any, 1)

			go func() {
				defer func() {
					if p := recover(); p != nil {
						panicked <- p
					}
				}()
				next.ServeHTTP(tw, r.WithContext(ctx))
				close(done)
			}()

			select {
			case <-done:
			case p := <-panicked:
				panic(p)
			case <-ctx.Done():
				tw.mu.Lock()
				defer tw.mu.Unlock()
				if !tw.wroteHeader {
					log.Warn("request timeout",
						"path", r.URL.Path,
						"method", r.Method,
						"timeout", timeout,
						"request_id", GetRequestID(r.Context()),
					)
					tw.ResponseWriter.WriteHeader(http.StatusGatewayTimeout)
					_, _ = tw.ResponseWriter.Write([]byte("Gateway Timeout\n"))
				}
				tw.timedOut = true
			}
		})
	}
}

// timeoutResponseWriter serializes handler writes with the timeout path.
// Handler headers are buffered and copied out when the status is written.
type timeoutResponseWriter struct {
	http.ResponseWriter

	header      http.Header
	mu          sync.Mutex
	wroteHeader bool
	timedOut    bool
}

func (w *timeoutResponseWriter) Header() http.Header {
	return w.header
}

func (w *timeoutResponseWriter) WriteHeader(statusCode int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writeHeaderLocked(statusCode)
}

func (w *timeoutResponseWriter) writeHeaderLocked(statusCode int) {
	if w.wroteHeader || w.timedOut {
		return
	}
	w.wroteHeader = true
	dst := w.ResponseWriter.Header()
	for k, v := range w.header {
		dst[k] = v
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *timeoutResponseWriter) Write(b []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	w.writeHeaderLocked(http.StatusOK)
	return w.ResponseWriter.Write(b)
}
