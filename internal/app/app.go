// Package app wires every scanner component together: venue adapters,
// the matcher, the arbitrage evaluator, the scan orchestrator, the
// realtime fan-out hub, the notification broker, and the dashboard
// HTTP server.
package app

import (
	"context"
	"sync"

	"github.com/mselser95/arb-scanner/internal/scan"
	"github.com/mselser95/arb-scanner/pkg/config"
	"github.com/mselser95/arb-scanner/pkg/healthprobe"
	"github.com/mselser95/arb-scanner/pkg/httpserver"
	"go.uber.org/zap"
)

// App is the scanner's top-level orchestrator. The realtime hub and
// notification broker it wires at construction need no further direct
// calls from App: the hub is driven entirely by the orchestrator's ctx,
// and the broker is driven entirely by the callbacks New hands to the
// hub and orchestrator, so neither needs to be held as a field here.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	orchestrator  *scan.Orchestrator
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

// Options holds application options reserved for daemon-mode flags.
type Options struct{}
