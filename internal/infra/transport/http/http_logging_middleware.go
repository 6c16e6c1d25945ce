package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mkrupp/affinity/internal/infra/logging"
)

// statusRecorder remembers what a handler sent back.
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(b)
	rec.size += n

	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}

	return n, nil
}

// responseLevel maps a status to the level its completion is logged at.
func responseLevel(status int) logging.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return logging.LevelError
	case status >= http.StatusBadRequest:
		return logging.LevelWarn
	default:
		return logging.LevelInfo
	}
}

// LoggingMiddleware logs one "request" record at DEBUG and one "response"
// record whose level follows the status. Only the path is logged, never the
// query, so profile lookups do not put usernames in access logs.
func LoggingMiddleware(next http.Handler, log logging.Logger) http.Handler {
	//nolint:varnamelen
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()

		log.DebugContext(ctx, "request", slog.Group("http",
			"method", r.Method,
			"path", r.URL.Path,
		))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		log.Log(ctx, responseLevel(rec.status), "response", slog.Group("http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"bytes_sent", rec.size,
			"duration", time.Since(start).String(),
		))
	})
}
