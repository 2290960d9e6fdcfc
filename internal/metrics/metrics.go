package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Decision metrics
	EvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_evaluations_total",
			Help: "Total location evaluations by resulting status",
		},
		[]string{"status"},
	)

	EvaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "advisor_evaluation_duration_seconds",
			Help:    "Time taken to evaluate one location",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	DegradedDecisions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "advisor_degraded_decisions_total",
			Help: "Decisions computed from stale or missing input data",
		},
	)

	// Rule metrics
	RuleVerdicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_rule_verdicts_total",
			Help: "Rule evaluation outcomes",
		},
		[]string{"category", "outcome"}, // outcome: triggered, clear, skipped
	)

	// Sample resolver metrics
	SampleFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "advisor_sample_fetch_duration_seconds",
			Help:    "Time taken to fetch samples from the sample source",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	SampleCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_sample_cache_lookups_total",
			Help: "Redis latest-sample cache lookups",
		},
		[]string{"result"}, // result: hit, miss, error
	)

	// Sink metrics
	SinkAppendFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_sink_append_failures_total",
			Help: "Failed decision sink appends",
		},
		[]string{"sink"},
	)
)
