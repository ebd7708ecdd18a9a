package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveAttempt(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewLoadMetrics(registry)

	m.ObserveAttempt("NOT_CLOSED_PROPERLY")
	m.ObserveAttempt("INITIAL")
	m.ObserveAttempt("NOT_CLOSED_PROPERLY")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LoadAttempts.WithLabelValues("NOT_CLOSED_PROPERLY")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoadAttempts.WithLabelValues("INITIAL")))
}

func TestObserveInitialization(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewLoadMetrics(registry)

	m.ObserveInitialization("SCHEDULED_REBUILD", 2, 0.25)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Initializations.WithLabelValues("SCHEDULED_REBUILD")))

	mfs, err := registry.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	assert.True(t, names["fsrecords_initialization_duration_seconds"])
	assert.True(t, names["fsrecords_initialization_attempts"])
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *LoadMetrics
	assert.NotPanics(t, func() {
		m.ObserveAttempt("NONE")
		m.ObserveInitialization("NONE", 1, 0.1)
	})
}
