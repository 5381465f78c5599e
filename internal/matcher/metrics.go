package matcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ManualMatchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scanner_matcher_manual_matches_total",
		Help: "Total pairs emitted by the manual mapping tier",
	})

	AutoMatchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scanner_matcher_auto_matches_total",
		Help: "Total pairs emitted by the automatic matching tier",
	})

	HardConstraintRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanner_matcher_hard_constraint_rejections_total",
		Help: "Total candidate pairs rejected by a hard constraint",
	}, []string{"reason"})

	PrunedTokensTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scanner_matcher_pruned_tokens_total",
		Help: "Total inverted-index tokens removed as non-discriminating",
	})

	MatchDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scanner_matcher_match_duration_seconds",
		Help:    "Wall time of one matcher.Match invocation for a venue pair",
		Buckets: prometheus.DefBuckets,
	}, []string{"venue_a", "venue_b"})
)
