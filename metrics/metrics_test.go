package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCounters(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveAnalysis(OutcomeClone, 0.5)
	m.ObserveAnalysis(OutcomeClone, 0.25)
	m.ObserveAnalysis(OutcomeFailed, 0.1)
	m.ObserveCacheLookup(true)
	m.ObserveCacheLookup(false)
	m.ObserveCacheLookup(false)
	m.ObserveResolution(2, "storage-slot")
	m.ObserveResolution(0, "")
	m.ObserveRPCFailure(StageResolution)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AnalysesTotal.WithLabelValues(OutcomeClone)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnalysesTotal.WithLabelValues(OutcomeFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookupsTotal.WithLabelValues(LookupHit)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookupsTotal.WithLabelValues(LookupMiss)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProxiesDetectedTotal.WithLabelValues("storage-slot")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RPCFailuresTotal.WithLabelValues(StageResolution)))

	lines, err := Summarize(reg)
	require.NoError(t, err)
	assert.Contains(t, lines, `codetwin_analyses_total{outcome="clone"} 2`)
	assert.Contains(t, lines, `codetwin_proxy_hops count=2 sum=2`)
	assert.Contains(t, lines, `codetwin_cache_lookups_total{result="miss"} 2`)
}

func TestNilMetrics(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAnalysis(OutcomeUnique, 1)
		m.ObserveCacheLookup(true)
		m.ObserveResolution(1, "clone-minimal")
		m.ObserveRPCFailure(StageInitial)
	})

	// Unregistered metrics still count
	assert.NotPanics(t, func() { NewMetrics(nil).ObserveCacheLookup(true) })
}
