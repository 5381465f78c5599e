package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Shutdown stops every component in dependency order: the dashboard
// server first so it stops accepting new connections, then the root
// context cancellation that unwinds the orchestrator's scan loop and
// the realtime hub's per-venue workers (both select on this same ctx).
func (a *App) Shutdown() error {
	a.logger.Info("application-shutting-down")

	a.healthChecker.SetReady(false)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http-server-shutdown-error", zap.Error(err))
	}

	a.cancel()
	a.wg.Wait()

	a.logger.Info("application-shutdown-complete")
	return nil
}
