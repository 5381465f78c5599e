package venue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ListMarketsDurationSeconds tracks one list_markets call's wall time.
	ListMarketsDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scanner_venue_list_markets_duration_seconds",
		Help:    "Duration of one venue ListMarkets call",
		Buckets: prometheus.DefBuckets,
	}, []string{"venue"})

	// CatalogSize tracks the number of markets returned by the last
	// successful ListMarkets call.
	CatalogSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "scanner_venue_catalog_size",
		Help: "Number of markets in the venue's last fetched catalog",
	}, []string{"venue"})

	// ListMarketsErrorsTotal tracks failed catalog fetches by reason.
	ListMarketsErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanner_venue_list_markets_errors_total",
		Help: "Total ListMarkets failures by venue and error kind",
	}, []string{"venue", "kind"})

	// CacheServedTotal tracks how often a stale cache answered for a
	// failed live fetch.
	CacheServedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanner_venue_cache_served_total",
		Help: "Total ListMarkets calls answered from cache after a live fetch failure",
	}, []string{"venue"})

	// PollUpdatesTotal tracks quote updates produced by a poll-based (not
	// WebSocket-backed) realtime subscription.
	PollUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanner_venue_poll_updates_total",
		Help: "Total quote updates emitted by polling-based venue subscriptions",
	}, []string{"venue"})
)
