// Package middleware provides the HTTP middleware chain: path normalization
// and request logging.
package middleware

import (
	"net/http"
	"strings"
	"time"

	"threads-zapier/internal/common/logging"
)

// NormalizePath strips a single trailing slash so /healthz/ and /healthz hit
// the same route. The root path is left alone.
func NormalizePath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(r.URL.Path) > 1 && strings.HasSuffix(r.URL.Path, "/") {
			r.URL.Path = strings.TrimSuffix(r.URL.Path, "/")
		}
		next.ServeHTTP(w, r)
	})
}

// responseWriter captures the status code for logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Logging logs every request with method, path, status and duration. The log
// level follows the response class.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		fields := []logging.Field{
			{Key: "method", Value: r.Method},
			{Key: "path", Value: r.URL.Path},
			{Key: "status", Value: rw.statusCode},
			{Key: "duration_ms", Value: time.Since(start).Milliseconds()},
			{Key: "remote_addr", Value: r.RemoteAddr},
		}

		switch {
		case rw.statusCode >= http.StatusInternalServerError:
			logging.Error("Request completed", nil, fields...)
		case rw.statusCode >= http.StatusBadRequest:
			logging.Warn("Request completed", fields...)
		default:
			logging.Info("Request completed", fields...)
		}
	})
}
