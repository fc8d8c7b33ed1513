package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HarnessVerdictsTotal counts conformance case verdicts
	HarnessVerdictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracearena_harness_verdicts_total",
			Help: "Conformance case results by outcome and expectation match",
		},
		[]string{"outcome", "matched"},
	)

	// HarnessCaseDuration observes conformance case runtime
	HarnessCaseDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tracearena_harness_case_duration_seconds",
			Help:    "Wall time of a single conformance case",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
	)
)
