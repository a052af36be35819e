package middleware

import (
	"net/http"
	"time"
)

type logger interface {
	Info(msg string, args ...any)
}

// statusRecorder remembers the first status written and counts body bytes
type statusRecorder struct {
	http.ResponseWriter
	status      int
	size        int
	wroteHeader bool
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.status = statusCode
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Write(p []byte) (int, error) {
	w.wroteHeader = true
	size, err := w.ResponseWriter.Write(p)
	w.size += size
	return size, err
}

// LoggerMiddleware logs every request once it is handled
// Put it after RequestID to get request id logged
func LoggerMiddleware(l logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			l.Info(
				"handled HTTP request",
				"request_id", RequestIDFromContext(r.Context()),
				"method", r.Method,
				"uri", r.RequestURI,
				"duration", time.Since(start),
				"status", rec.status,
				"size", rec.size,
			)
		})
	}
}
