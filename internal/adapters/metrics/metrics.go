// Package metrics exports load-attempt telemetry to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LoadMetrics tracks how storage initialization went across a fleet.
//
// All metrics use the "fsrecords_" prefix. Methods handle a nil receiver
// gracefully, so a nil *LoadMetrics acts as a no-op when metrics are disabled.
//
// Metrics tracked:
//   - Load attempts by category (exactly one increment per attempt)
//   - Initializations by rebuild cause
//   - Initialization duration
//   - Attempts needed per initialization
type LoadMetrics struct {
	// LoadAttempts counts load attempts by outcome category.
	// Labels: category=[NONE, INITIAL, SCHEDULED_REBUILD, ...]
	LoadAttempts *prometheus.CounterVec

	// Initializations counts finished initializations by rebuild cause.
	// Labels: rebuild_cause=[NONE, INITIAL, SCHEDULED_REBUILD, ...]
	Initializations *prometheus.CounterVec

	// InitializationDuration tracks total initialization time, rebuilds included.
	InitializationDuration prometheus.Histogram

	// InitializationAttempts tracks how many attempts an initialization took.
	InitializationAttempts prometheus.Histogram
}

// NewLoadMetrics creates and registers the load metrics.
// If registerer is nil, prometheus.DefaultRegisterer is used.
func NewLoadMetrics(registerer prometheus.Registerer) *LoadMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &LoadMetrics{
		LoadAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fsrecords_load_attempts_total",
				Help: "Total storage load attempts by outcome category",
			},
			[]string{"category"},
		),
		Initializations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fsrecords_initializations_total",
				Help: "Total storage initializations by rebuild cause",
			},
			[]string{"rebuild_cause"},
		),
		InitializationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fsrecords_initialization_duration_seconds",
				Help:    "Storage initialization duration in seconds, rebuilds included",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
		),
		InitializationAttempts: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fsrecords_initialization_attempts",
				Help:    "Load attempts needed per storage initialization",
				Buckets: prometheus.LinearBuckets(1, 1, 10),
			},
		),
	}

	registerer.MustRegister(
		m.LoadAttempts,
		m.Initializations,
		m.InitializationDuration,
		m.InitializationAttempts,
	)

	return m
}

// ObserveAttempt records the outcome of one load attempt.
func (m *LoadMetrics) ObserveAttempt(category string) {
	if m == nil {
		return
	}
	m.LoadAttempts.WithLabelValues(category).Inc()
}

// ObserveInitialization records a finished initialization.
func (m *LoadMetrics) ObserveInitialization(rebuildCause string, attempts int, durationSeconds float64) {
	if m == nil {
		return
	}
	m.Initializations.WithLabelValues(rebuildCause).Inc()
	m.InitializationAttempts.Observe(float64(attempts))
	m.InitializationDuration.Observe(durationSeconds)
}
