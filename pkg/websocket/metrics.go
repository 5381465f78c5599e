package websocket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveConnections tracks active WebSocket connections per venue.
	ActiveConnections = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "scanner_ws_active_connections",
		Help: "Number of active WebSocket connections",
	}, []string{"venue"})

	// ReconnectAttemptsTotal tracks reconnection attempts.
	ReconnectAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanner_ws_reconnect_attempts_total",
		Help: "Total number of WebSocket reconnection attempts",
	}, []string{"venue"})

	// ReconnectFailuresTotal tracks reconnection failures.
	ReconnectFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanner_ws_reconnect_failures_total",
		Help: "Total number of WebSocket reconnection failures",
	}, []string{"venue"})

	// MessagesReceivedTotal tracks messages received by venue.
	MessagesReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scanner_ws_messages_received_total",
			Help: "Total number of WebSocket messages received",
		},
		[]string{"venue"},
	)

	// MessageLatencySeconds tracks message processing latency.
	MessageLatencySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scanner_ws_message_latency_seconds",
		Help:    "WebSocket message processing latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"venue"})

	// SubscriptionCount tracks active market subscriptions per venue.
	SubscriptionCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "scanner_ws_subscription_count",
		Help: "Number of active market subscriptions",
	}, []string{"venue"})

	// MessagesDroppedTotal tracks messages dropped due to full channel.
	MessagesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scanner_ws_messages_dropped_total",
			Help: "Total number of WebSocket messages dropped due to channel full",
		},
		[]string{"venue", "reason"},
	)

	// ConnectionDuration tracks WebSocket connection lifetime.
	ConnectionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scanner_ws_connection_duration_seconds",
		Help:    "Duration of WebSocket connections before disconnect",
		Buckets: []float64{60, 300, 600, 1800, 3600, 7200, 14400, 28800, 43200, 86400},
	}, []string{"venue"})

	// UnsubscriptionsTotal tracks market unsubscriptions.
	UnsubscriptionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanner_ws_unsubscriptions_total",
		Help: "Total number of market unsubscriptions",
	}, []string{"venue"})

	// ==============================
	// Pool-specific metrics
	// ==============================

	// PoolActiveConnections tracks active connections in a venue's pool.
	PoolActiveConnections = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "scanner_ws_pool_active_connections",
		Help: "Number of active connections in a venue's WebSocket pool",
	}, []string{"venue"})

	// PoolSubscriptionDistribution tracks distribution of subscriptions across pool connections.
	PoolSubscriptionDistribution = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scanner_ws_pool_subscription_distribution",
		Help:    "Distribution of subscriptions across pool connections",
		Buckets: prometheus.LinearBuckets(0, 100, 10),
	}, []string{"venue"})

	// PoolMessageMultiplexLatency tracks latency added by message multiplexing.
	PoolMessageMultiplexLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scanner_ws_pool_multiplex_latency_seconds",
		Help:    "Latency added by message multiplexing in pool",
		Buckets: prometheus.ExponentialBuckets(0.000001, 2, 20),
	}, []string{"venue"})
)
