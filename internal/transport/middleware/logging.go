package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/frahmantamala/pos-backoffice/pkg/logger"
)

// sensitiveHeaders are header name fragments that should be filtered from logs
var sensitiveHeaders = []string{
	"authorization",
	"cookie",
	"token",
	"secret",
	"api-key",
}

func LoggingMiddleware(lg *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w}

			next.ServeHTTP(sw, r)

			// the authentication middleware runs later and enriches its own copy of the context
			reqLogger := logger.FromOr(r.Context(), lg)
			statusCode := sw.Status()

			logLevel := slog.LevelInfo
			if statusCode >= 400 && statusCode < 500 {
				logLevel = slog.LevelWarn
			} else if statusCode >= 500 {
				logLevel = slog.LevelError
			}

			reqLogger.Log(r.Context(), logLevel, "request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
				"headers", filterSensitiveHeaders(r.Header),
				"status_code", statusCode,
				"response_size", sw.bytes,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

// statusWriter captures the status code and body size of a response
type statusWriter struct {
	http.ResponseWriter
	statusCode int
	bytes      int
}

func (sw *statusWriter) WriteHeader(code int) {
	if sw.statusCode == 0 {
		sw.statusCode = code
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	if sw.statusCode == 0 {
		sw.statusCode = http.StatusOK
	}
	n, err := sw.ResponseWriter.Write(b)
	sw.bytes += n
	return n, err
}

func (sw *statusWriter) Status() int {
	if sw.statusCode == 0 {
		return http.StatusOK
	}
	return sw.statusCode
}

// filterSensitiveHeaders masks credentials before headers reach the log
func filterSensitiveHeaders(headers http.Header) map[string]string {
	filtered := make(map[string]string, len(headers))

	for name, values := range headers {
		lowerName := strings.ToLower(name)

		isSensitive := false
		for _, fragment := range sensitiveHeaders {
			if strings.Contains(lowerName, fragment) {
				isSensitive = true
				break
			}
		}

		if isSensitive {
			filtered[name] = "[FILTERED]"
		} else {
			filtered[name] = strings.Join(values, ", ")
		}
	}

	return filtered
}
