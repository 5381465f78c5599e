package arbitrage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OpportunitiesEmittedTotal tracks opportunities emitted by direction.
	OpportunitiesEmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanner_arb_opportunities_emitted_total",
		Help: "Total number of arbitrage opportunities emitted",
	}, []string{"direction"})

	// EdgePctHistogram tracks the edge percentage of emitted opportunities.
	EdgePctHistogram = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scanner_arb_edge_pct",
		Help:    "Edge percentage of emitted arbitrage opportunities",
		Buckets: []float64{2, 3, 4, 5, 7.5, 10, 15, 20, 30, 50},
	})

	// EvaluatorSkipTotal tracks pairs the evaluator declined to evaluate.
	EvaluatorSkipTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanner_arb_evaluator_skip_total",
		Help: "Total pairs skipped by the evaluator by reason",
	}, []string{"reason"})

	// EvaluationDurationSeconds tracks the wall time of one Evaluate call.
	EvaluationDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scanner_arb_evaluation_duration_seconds",
		Help:    "Duration of one arbitrage evaluation",
		Buckets: prometheus.DefBuckets,
	})

	// DerivedPenaltyAppliedTotal tracks how often the derived-quote
	// threshold penalty was applied, whether or not it changed the outcome.
	DerivedPenaltyAppliedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scanner_arb_derived_penalty_applied_total",
		Help: "Total evaluations where at least one leg was a derived quote",
	})
)
