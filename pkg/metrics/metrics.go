// Package metrics provides Prometheus instrumentation for uiforge-engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// HTTP request metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Generation turn metrics
	GenerationTurnsTotal   *prometheus.CounterVec
	GenerationTurnDuration prometheus.Histogram

	// Persistence metrics
	VersionsCreatedTotal prometheus.Counter
}

// Generation turn outcome labels.
const (
	OutcomeChanged   = "changed"
	OutcomeUnchanged = "unchanged"
	OutcomeError     = "error"
)

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	m := &Metrics{}

	m.HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uiforge_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	m.HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "uiforge_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	m.GenerationTurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uiforge_generation_turns_total",
			Help: "Total number of refinement turns by outcome",
		},
		[]string{"outcome"},
	)

	m.GenerationTurnDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "uiforge_generation_turn_duration_seconds",
			Help:    "Duration of refinement turns in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 120},
		},
	)

	m.VersionsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "uiforge_versions_created_total",
			Help: "Total number of component versions created",
		},
	)

	return m
}

// ObserveGenerationTurn records one refinement turn.
func (m *Metrics) ObserveGenerationTurn(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.GenerationTurnsTotal.WithLabelValues(outcome).Inc()
	m.GenerationTurnDuration.Observe(elapsed.Seconds())
}
