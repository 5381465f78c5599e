package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QuoteUpdatesProcessedTotal tracks realtime updates handled per venue.
	QuoteUpdatesProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanner_realtime_quote_updates_processed_total",
		Help: "Total QuoteUpdates processed by a venue's realtime worker",
	}, []string{"venue"})

	// ReevaluationDurationSeconds tracks the wall time of handling one
	// QuoteUpdate, including every touched pair's re-evaluation.
	ReevaluationDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scanner_realtime_reevaluation_duration_seconds",
		Help:    "Duration of handling one realtime quote update",
		Buckets: prometheus.DefBuckets,
	}, []string{"venue"})

	// OpportunityTransitionsTotal tracks rising/falling edge transitions.
	OpportunityTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanner_realtime_opportunity_transitions_total",
		Help: "Total rising/falling opportunity edge transitions",
	}, []string{"venue", "edge"})
)
