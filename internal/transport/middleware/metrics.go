package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/pos-backoffice/internal/observability"
)

// Metrics records request count and latency labelled by the matched route pattern.
func Metrics(m *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w}

			next.ServeHTTP(sw, r)

			path := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					path = pattern
				}
			}
			m.RecordHTTPRequest(r.Method, path, sw.Status(), time.Since(start))
		})
	}
}
