package app

import (
	"time"

	"github.com/mselser95/arb-scanner/internal/arbitrage"
	"github.com/mselser95/arb-scanner/internal/scan"
)

// stateProvider adapts the scan store to pkg/httpserver.StateProvider,
// keeping the dashboard server decoupled from internal/scan's types.
type stateProvider struct {
	store        *scan.Store
	thresholdPct float64
}

func newStateProvider(store *scan.Store, thresholdPct float64) *stateProvider {
	return &stateProvider{store: store, thresholdPct: thresholdPct}
}

func (p *stateProvider) ScanNumber() uint64 {
	return p.store.Current().Stats.ScanNumber
}

func (p *stateProvider) LastScanAt() time.Time {
	return p.store.Current().Stats.CompletedAt
}

func (p *stateProvider) VenueStatus() map[string]string {
	return p.store.Current().Stats.VenueStatus
}

func (p *stateProvider) EffectiveThresholdPct() float64 {
	return p.thresholdPct
}

func (p *stateProvider) Opportunities() []*arbitrage.Opportunity {
	return p.store.Current().Opportunities
}
