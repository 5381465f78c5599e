package scan

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScanDurationSeconds tracks one full scan tick's wall time.
	ScanDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scanner_scan_duration_seconds",
		Help:    "Duration of one full scan tick (catalog fetch, match, evaluate, merge, publish)",
		Buckets: prometheus.DefBuckets,
	})

	// ScansTotal counts completed scan ticks.
	ScansTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scanner_scans_total",
		Help: "Total completed scan ticks",
	})

	// ScansSkippedTotal counts ticks coalesced away because a scan was
	// still running when the next tick fired.
	ScansSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scanner_scans_skipped_total",
		Help: "Total scan ticks skipped because the prior scan had not finished",
	})

	// ScanFailuresTotal counts scans in which every venue failed; these
	// are the failures that count toward the cool-off.
	ScanFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scanner_scan_failures_total",
		Help: "Total scans in which every enabled venue failed to list markets",
	})

	// VenueListErrorsTotal tracks per-venue ListMarkets failures observed
	// by the orchestrator (duplicates internal/venue's own counter at a
	// coarser, per-scan granularity for alerting on scan health).
	VenueListErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanner_scan_venue_list_errors_total",
		Help: "Total ListMarkets failures observed by the scan orchestrator, by venue",
	}, []string{"venue"})

	// OpportunitiesPublishedGauge is the size of the most recently
	// published opportunity snapshot.
	OpportunitiesPublishedGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scanner_opportunities_published",
		Help: "Number of opportunities in the most recently published snapshot",
	})

	// CoolOffActiveGauge is 1 while the orchestrator is in its post-failure
	// cool-off window, 0 otherwise.
	CoolOffActiveGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scanner_scan_cooloff_active",
		Help: "1 while the scan orchestrator is in its consecutive-failure cool-off window",
	})
)
