// Package metrics provides Prometheus metrics for rule loading, dispatch and query execution.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// MetricsNamespace is the namespace for all parse rule metrics.
	MetricsNamespace = "parse_rules"

	subsystemRules    = "rules"
	subsystemDispatch = "dispatch"
	subsystemQuery    = "query"
)

// Dispatch outcomes.
const (
	OutcomeMatched  = "matched"
	OutcomeNoMatch  = "no_match"
	OutcomeBadURL   = "url_error"
	OutcomeProbeErr = "probe_error"
)

// Metrics holds all parse rule metrics.
type Metrics struct {
	// Rule index metrics
	RulesLoaded   prometheus.Gauge
	DomainsLoaded prometheus.Gauge
	Reloads       *prometheus.CounterVec
	LoadDuration  prometheus.Histogram

	// Dispatch metrics
	Dispatches *prometheus.CounterVec

	// Query metrics
	QueryDuration prometheus.Histogram
	QueryErrors   prometheus.Counter
	Annotations   prometheus.Counter
	EmptyResults  prometheus.Counter
}

// New creates and registers all metrics with reg, or the default registerer when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)
	m := &Metrics{}

	m.initRuleMetrics(factory)
	m.initDispatchMetrics(factory)
	m.initQueryMetrics(factory)

	return m
}

func (m *Metrics) initRuleMetrics(factory promauto.Factory) {
	m.RulesLoaded = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Subsystem: subsystemRules,
		Name:      "loaded",
		Help:      "Number of rules in the current index",
	})

	m.DomainsLoaded = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Subsystem: subsystemRules,
		Name:      "domains",
		Help:      "Number of domains in the current index",
	})

	m.Reloads = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: subsystemRules,
		Name:      "reloads_total",
		Help:      "Rule source loads by status",
	}, []string{"status"})

	m.LoadDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Subsystem: subsystemRules,
		Name:      "load_duration_seconds",
		Help:      "Time to load and compile the rule source",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	})
}

func (m *Metrics) initDispatchMetrics(factory promauto.Factory) {
	m.Dispatches = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: subsystemDispatch,
		Name:      "total",
		Help:      "Dispatches by outcome",
	}, []string{"outcome"})
}

func (m *Metrics) initQueryMetrics(factory promauto.Factory) {
	m.QueryDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Subsystem: subsystemQuery,
		Name:      "duration_seconds",
		Help:      "Time spent executing selected queries",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	})

	m.QueryErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: subsystemQuery,
		Name:      "errors_total",
		Help:      "Queries that failed or timed out",
	})

	m.Annotations = factory.NewCounter(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: subsystemQuery,
		Name:      "annotations_total",
		Help:      "Queries that produced an annotation",
	})

	m.EmptyResults = factory.NewCounter(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: subsystemQuery,
		Name:      "empty_results_total",
		Help:      "Queries that produced an empty result",
	})
}

// RecordLoad records a load attempt. rules and domains are ignored on failure.
func (m *Metrics) RecordLoad(rules, domains int, took time.Duration, err error) {
	if m == nil {
		return
	}
	m.LoadDuration.Observe(took.Seconds())
	if err != nil {
		m.Reloads.WithLabelValues("failure").Inc()
		return
	}
	m.Reloads.WithLabelValues("success").Inc()
	m.RulesLoaded.Set(float64(rules))
	m.DomainsLoaded.Set(float64(domains))
}

// RecordDispatch counts a dispatch outcome.
func (m *Metrics) RecordDispatch(outcome string) {
	if m == nil {
		return
	}
	m.Dispatches.WithLabelValues(outcome).Inc()
}

// RecordQuery records one query execution.
func (m *Metrics) RecordQuery(took time.Duration, result string, err error) {
	if m == nil {
		return
	}
	m.QueryDuration.Observe(took.Seconds())
	switch {
	case err != nil:
		m.QueryErrors.Inc()
	case result == "":
		m.EmptyResults.Inc()
	default:
		m.Annotations.Inc()
	}
}
