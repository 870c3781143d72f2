package gateway

import (
	"net/http"
	"time"

	"github.com/ptmyrd/google-ads-mcp/internal/telemetry"
)

// instrument assigns a request ID, logs the request, and records metrics.
// It wraps the response writer only to observe the status code; Flush is
// forwarded so the delegate's streaming responses are not buffered.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := telemetry.WithRequestID(r.Context(), r.Header.Get("X-Request-Id"))
		r = r.WithContext(ctx)
		w.Header().Set("X-Request-Id", telemetry.RequestID(ctx))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		route := s.router.Route(r.Method, r.URL.Path).String()
		if s.metrics != nil {
			s.metrics.RecordRequest(route, r.Method, rec.status, elapsed)
		}
		telemetry.RequestLogger(ctx, s.logger, r.Method, r.URL.Path).Info("request",
			"route", route,
			"status", rec.status,
			"duration_ms", elapsed.Milliseconds(),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.wroteHeader = true
	}
	return r.ResponseWriter.Write(b)
}

// Flush forwards to the underlying writer so SSE/chunked delegate responses
// stream incrementally.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap supports http.ResponseController.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
