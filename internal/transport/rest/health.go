package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/frahmantamala/pos-backoffice/internal/transport"
)

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

type HealthResponse struct {
	Status     HealthStatus          `json:"status"`
	CheckedAt  time.Time             `json:"checked_at"`
	Components map[string]CheckEntry `json:"components"`
}

type CheckEntry struct {
	Status     HealthStatus `json:"status"`
	Message    string       `json:"message,omitempty"`
	CheckedAt  time.Time    `json:"checked_at"`
	DurationMs int64        `json:"duration_ms"`
}

// Pinger is a dependency the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthHandler struct {
	*transport.BaseHandler
	db    Pinger
	cache Pinger
}

func NewHealthHandler(base *transport.BaseHandler, db, cache Pinger) *HealthHandler {
	return &HealthHandler{BaseHandler: base, db: db, cache: cache}
}

// pingHandler just says the service is up
func (h *HealthHandler) pingHandler(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// healthCheckHandler checks the database and the permission cache. A cache outage only
// degrades the service since authorization falls back to the database.
func (h *HealthHandler) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := map[string]CheckEntry{
		"postgres": check(ctx, h.db, HealthUnhealthy),
	}
	if h.cache != nil {
		components["cache"] = check(ctx, h.cache, HealthDegraded)
	}

	overall := HealthHealthy
	for _, c := range components {
		if c.Status == HealthUnhealthy {
			overall = HealthUnhealthy
			break
		}
		if c.Status == HealthDegraded {
			overall = HealthDegraded
		}
	}

	statusCode := http.StatusOK
	if overall == HealthUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	h.WriteJSON(w, statusCode, HealthResponse{
		Status:     overall,
		CheckedAt:  time.Now(),
		Components: components,
	})
}

func check(ctx context.Context, p Pinger, onFailure HealthStatus) CheckEntry {
	start := time.Now()
	err := p.Ping(ctx)

	entry := CheckEntry{
		Status:     HealthHealthy,
		CheckedAt:  time.Now(),
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		entry.Status = onFailure
		entry.Message = err.Error()
	}
	return entry
}
