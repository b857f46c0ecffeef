package metrics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// namespace prefixes every metric name.
const namespace = "codetwin"

// Outcome label values of AnalysesTotal.
const (
	OutcomeClone    = "clone"
	OutcomeUnique   = "unique"
	OutcomeCached   = "cached"
	OutcomeNoCode   = "no_code"
	OutcomeFailed   = "failed"
	LookupHit       = "hit"
	LookupMiss      = "miss"
	StageInitial    = "initial_fetch"
	StageResolution = "resolution"
)

// Metrics describes the prometheus collectors updated by the analysis pipeline. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	AnalysesTotal        *prometheus.CounterVec
	CacheLookupsTotal    *prometheus.CounterVec
	ProxiesDetectedTotal *prometheus.CounterVec
	RPCFailuresTotal     *prometheus.CounterVec
	ProxyHops            prometheus.Histogram
	AnalysisDuration     prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg. A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AnalysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Total number of analyses by outcome",
		}, []string{"outcome"}),
		CacheLookupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Total number of result cache lookups by result",
		}, []string{"result"}),
		ProxiesDetectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proxies_detected_total",
			Help:      "Total number of proxies detected by proxy type",
		}, []string{"type"}),
		RPCFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_failures_total",
			Help:      "Total number of failed chain reads by pipeline stage",
		}, []string{"stage"}),
		ProxyHops: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "proxy_hops",
			Help:      "Number of proxy hops followed per analysis",
			Buckets:   []float64{0, 1, 2, 3, 5, 8},
		}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Time taken to analyze a contract in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.AnalysesTotal, m.CacheLookupsTotal, m.ProxiesDetectedTotal, m.RPCFailuresTotal, m.ProxyHops, m.AnalysisDuration)
	}
	return m
}

// ObserveAnalysis records the outcome of an analysis.
func (m *Metrics) ObserveAnalysis(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.AnalysesTotal.WithLabelValues(outcome).Inc()
	m.AnalysisDuration.Observe(seconds)
}

// ObserveCacheLookup records a result cache hit or miss.
func (m *Metrics) ObserveCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := LookupMiss
	if hit {
		result = LookupHit
	}
	m.CacheLookupsTotal.WithLabelValues(result).Inc()
}

// ObserveResolution records the hop count of a proxy resolution and, if a proxy was found, its type.
func (m *Metrics) ObserveResolution(hops int, proxyType string) {
	if m == nil {
		return
	}
	m.ProxyHops.Observe(float64(hops))
	if proxyType != "" {
		m.ProxiesDetectedTotal.WithLabelValues(proxyType).Inc()
	}
}

// ObserveRPCFailure records a failed chain read at the provided pipeline stage.
func (m *Metrics) ObserveRPCFailure(stage string) {
	if m == nil {
		return
	}
	m.RPCFailuresTotal.WithLabelValues(stage).Inc()
}

// Summarize gathers every codetwin metric from g and renders one line per series, sorted by name. Histograms are
// rendered as their sample count and sum.
func Summarize(g prometheus.Gatherer) ([]string, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, err
	}

	lines := make([]string, 0)
	for _, family := range families {
		if !strings.HasPrefix(family.GetName(), namespace+"_") {
			continue
		}
		for _, metric := range family.GetMetric() {
			lines = append(lines, family.GetName()+formatLabels(metric.GetLabel())+" "+formatValue(family.GetType(), metric))
		}
	}
	sort.Strings(lines)
	return lines, nil
}

func formatLabels(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	pairs := make([]string, len(labels))
	for i, label := range labels {
		pairs[i] = fmt.Sprintf("%s=%q", label.GetName(), label.GetValue())
	}
	return "{" + strings.Join(pairs, ",") + "}"
}

func formatValue(metricType dto.MetricType, metric *dto.Metric) string {
	switch metricType {
	case dto.MetricType_COUNTER:
		return fmt.Sprintf("%g", metric.GetCounter().GetValue())
	case dto.MetricType_GAUGE:
		return fmt.Sprintf("%g", metric.GetGauge().GetValue())
	case dto.MetricType_HISTOGRAM:
		h := metric.GetHistogram()
		return fmt.Sprintf("count=%d sum=%g", h.GetSampleCount(), h.GetSampleSum())
	default:
		return "?"
	}
}
