package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DispatchedTotal counts successful sink deliveries.
	DispatchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanner_notify_dispatched_total",
		Help: "Total notifications successfully dispatched, by sink",
	}, []string{"sink"})

	// DispatchErrorsTotal counts failed sink deliveries.
	DispatchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanner_notify_dispatch_errors_total",
		Help: "Total sink dispatch failures, by sink",
	}, []string{"sink"})

	// SuppressedTotal counts candidates dropped by the cooldown window.
	SuppressedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scanner_notify_suppressed_total",
		Help: "Total opportunity notifications suppressed by the cooldown window",
	})
)
