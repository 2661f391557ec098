// Package middleware holds the admin server's HTTP middleware: structured
// request logging and security headers, trimmed to what an admin/debug
// API needs.
package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// defaultRedactHeaders lists header names never logged verbatim.
var defaultRedactHeaders = []string{"authorization", "cookie"}

// LoggingMiddleware wraps handlers with structured request logging via
// logger, redacting sensitive headers.
func LoggingMiddleware(logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)

			fields := logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"remote_addr": r.RemoteAddr,
				"status":      rw.statusCode,
				"duration_ms": time.Since(start).Milliseconds(),
				"bytes":       rw.bytesWritten,
			}
			if r.URL.RawQuery != "" {
				fields["query"] = r.URL.RawQuery
			}
			if auth := r.Header.Get("Authorization"); auth != "" && shouldRedactHeader("authorization", defaultRedactHeaders) {
				fields["authorization"] = "[REDACTED]"
			}
			logger.WithFields(fields).Info("admin request")
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code and bytes
// written for logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

// shouldRedactHeader reports whether headerName (already lowercased) is in
// redactHeaders.
func shouldRedactHeader(headerName string, redactHeaders []string) bool {
	for _, redact := range redactHeaders {
		if strings.ToLower(redact) == headerName {
			return true
		}
	}
	return false
}
