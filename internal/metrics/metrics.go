// Package metrics exposes Prometheus instrumentation for the query pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Classification and summary sources.
const (
	SourceLLM      = "llm"
	SourceFallback = "fallback"
	SourceCache    = "cache"
	SourceTemplate = "template"
)

var (
	// classificationTotal counts intent classifications by where the descriptor came from.
	// Labels: source (llm, fallback, cache)
	classificationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wealthquery",
		Name:      "classification_total",
		Help:      "Intent classifications by descriptor source",
	}, []string{"source"})

	// storeFallbackTotal counts reads answered from the built-in sample sets.
	// Labels: store (profiles, transactions)
	storeFallbackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wealthquery",
		Name:      "store_fallback_total",
		Help:      "Store reads replaced by sample data after an error",
	}, []string{"store"})

	// summaryTotal counts text summaries by source.
	// Labels: source (llm, template)
	summaryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wealthquery",
		Name:      "summary_total",
		Help:      "Text summaries by source",
	}, []string{"source"})

	queryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "wealthquery",
		Name:      "query_duration_seconds",
		Help:      "End-to-end pipeline latency",
		Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})

	queryFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wealthquery",
		Name:      "query_failures_total",
		Help:      "Queries converted into a failure response",
	})
)

// RecordClassification records where an intent descriptor came from.
func RecordClassification(source string) {
	classificationTotal.WithLabelValues(source).Inc()
}

// RecordStoreFallback records a store read replaced by sample data.
func RecordStoreFallback(store string) {
	storeFallbackTotal.WithLabelValues(store).Inc()
}

// RecordSummary records how a text summary was produced.
func RecordSummary(source string) {
	summaryTotal.WithLabelValues(source).Inc()
}

// ObserveQuery records pipeline latency and failures.
func ObserveQuery(seconds float64, failed bool) {
	queryDuration.Observe(seconds)
	if failed {
		queryFailuresTotal.Inc()
	}
}
