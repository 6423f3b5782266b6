package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pos_backoffice"

// Cache lookup outcomes.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Metrics holds the Prometheus collectors for the permission engine.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Permission cache metrics
	CacheRequestsTotal      *prometheus.CounterVec
	CacheInvalidationsTotal *prometheus.CounterVec

	// Authorization metrics
	AuthorizationChecksTotal *prometheus.CounterVec
	ResolutionDuration       prometheus.Histogram
}

func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		CacheRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "permission_cache_requests_total",
				Help:      "Permission cache lookups by key family and outcome",
			},
			[]string{"family", "result"},
		),
		CacheInvalidationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "permission_cache_invalidations_total",
				Help:      "Permission cache invalidations by scope",
			},
			[]string{"scope"},
		),
		AuthorizationChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "authorization_checks_total",
				Help:      "Authorization decisions by result and the layer that answered",
			},
			[]string{"result", "source"},
		),
		ResolutionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "permission_resolution_duration_seconds",
				Help:      "Time spent resolving effective permissions from the grant store",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
		),
	}

	registerer.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.CacheRequestsTotal,
		m.CacheInvalidationsTotal,
		m.AuthorizationChecksTotal,
		m.ResolutionDuration,
	)

	return m
}

func (m *Metrics) RecordCacheLookup(family, result string) {
	if m == nil {
		return
	}
	m.CacheRequestsTotal.WithLabelValues(family, result).Inc()
}

func (m *Metrics) RecordInvalidation(scope string) {
	if m == nil {
		return
	}
	m.CacheInvalidationsTotal.WithLabelValues(scope).Inc()
}

func (m *Metrics) RecordAuthorization(allowed bool, source string) {
	if m == nil {
		return
	}
	result := "denied"
	if allowed {
		result = "allowed"
	}
	m.AuthorizationChecksTotal.WithLabelValues(result, source).Inc()
}

func (m *Metrics) ObserveResolution(d time.Duration) {
	if m == nil {
		return
	}
	m.ResolutionDuration.Observe(d.Seconds())
}

func (m *Metrics) RecordHTTPRequest(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// Handler exposes the collectors registered on gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
