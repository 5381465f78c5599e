// Package scan runs the periodic control loop that fetches every venue's
// catalog, matches pairs across venues, evaluates them for arbitrage, and
// publishes the merged result to the dashboard and the realtime fan-out
// (spec §4.5).
package scan

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mselser95/arb-scanner/internal/arbitrage"
	"github.com/mselser95/arb-scanner/internal/matcher"
	"github.com/mselser95/arb-scanner/internal/realtime"
	"github.com/mselser95/arb-scanner/internal/venue"
	"github.com/mselser95/arb-scanner/pkg/types"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	listMarketsTimeout      = 15 * time.Second
	coolOffFailureThreshold = 5
	coolOffDuration         = 30 * time.Second
	defaultSubscriptionTopN = 50
)

// Config holds Orchestrator construction parameters.
type Config struct {
	Adapters         map[types.Venue]venue.Adapter
	Matcher          *matcher.Matcher
	EvalConfig       arbitrage.Config
	ManualMappings   []types.ManualMapping
	Interval         time.Duration
	SubscriptionTopN int // 0 uses defaultSubscriptionTopN
	Hub              *realtime.Hub
	Store            *Store
	// OnScanComplete is called with every opportunity found this scan
	// (not only newly-surfaced ones): the notification broker applies
	// its own per-key cooldown, so a persisting opportunity must be
	// offered every scan for the broker to re-notify once its cooldown
	// window elapses (spec §4.7: "the next scan will present the
	// opportunity again once cooldown expires").
	OnScanComplete func([]*arbitrage.Opportunity)
	Logger         *zap.Logger
}

// Orchestrator is the spec §4.5 control loop. Only one tick runs at a
// time -- a second ticker fire while a tick is still in flight is
// coalesced away -- so the unexported mutable fields below need no lock.
type Orchestrator struct {
	adapters         map[types.Venue]venue.Adapter
	matcher          *matcher.Matcher
	evalCfg          arbitrage.Config
	manualMappings   []types.ManualMapping
	interval         time.Duration
	subscriptionTopN int
	hub            *realtime.Hub
	store          *Store
	onScanComplete func([]*arbitrage.Opportunity)
	logger         *zap.Logger

	runningMu sync.Mutex
	running   bool

	scanNumber          uint64
	consecutiveFailures int
	hubStarted          bool
}

// New builds an Orchestrator.
func New(cfg Config) *Orchestrator {
	topN := cfg.SubscriptionTopN
	if topN <= 0 {
		topN = defaultSubscriptionTopN
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	store := cfg.Store
	if store == nil {
		store = NewStore()
	}

	return &Orchestrator{
		adapters:         cfg.Adapters,
		matcher:          cfg.Matcher,
		evalCfg:          cfg.EvalConfig,
		manualMappings:   cfg.ManualMappings,
		interval:         cfg.Interval,
		subscriptionTopN: topN,
		hub:              cfg.Hub,
		store:            store,
		onScanComplete:   cfg.OnScanComplete,
		logger:           logger,
	}
}

// Store returns the orchestrator's opportunity store.
func (o *Orchestrator) Store() *Store { return o.store }

// Run blocks until ctx is canceled, firing one scan per interval and
// coalescing any tick that would overlap a still-running scan.
func (o *Orchestrator) Run(ctx context.Context) {
	o.runOnce(ctx)

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !o.tryStart() {
				ScansSkippedTotal.Inc()
				o.logger.Debug("scan-tick-coalesced")
				continue
			}
			go func() {
				defer o.finish()
				o.runOnce(ctx)
			}()
		}
	}
}

func (o *Orchestrator) tryStart() bool {
	o.runningMu.Lock()
	defer o.runningMu.Unlock()
	if o.running {
		return false
	}
	o.running = true
	return true
}

func (o *Orchestrator) finish() {
	o.runningMu.Lock()
	o.running = false
	o.runningMu.Unlock()
}

// runOnce executes spec §4.5 steps 1-5 once. Safe to call directly for
// the initial pre-ticker scan since Run has not yet handed out the
// running flag to anyone else.
func (o *Orchestrator) runOnce(ctx context.Context) {
	if o.consecutiveFailures >= coolOffFailureThreshold {
		CoolOffActiveGauge.Set(1)
		o.logger.Warn("scan-cooloff-engaged", zap.Int("consecutive-failures", o.consecutiveFailures))
		select {
		case <-time.After(coolOffDuration):
		case <-ctx.Done():
			return
		}
		CoolOffActiveGauge.Set(0)
	}

	start := time.Now()
	o.scanNumber++

	byVenue, venueStatus, allFailed := o.fetchCatalogs(ctx)

	stats := Stats{ScanNumber: o.scanNumber, VenueStatus: venueStatus}

	if allFailed {
		o.consecutiveFailures++
		ScanFailuresTotal.Inc()
		stats.ScanDurationSec = time.Since(start).Seconds()
		stats.CompletedAt = time.Now()
		o.store.Merge(nil, stats)
		ScanDurationSeconds.Observe(stats.ScanDurationSec)
		return
	}
	o.consecutiveFailures = 0

	pairs := o.matchAll(byVenue)
	opps := o.evaluateAll(pairs)

	stats.ScanDurationSec = time.Since(start).Seconds()
	stats.CompletedAt = time.Now()
	snap, newKeys := o.store.Merge(opps, stats)

	if o.hub != nil {
		o.hub.PublishScanResult(byVenue, pairs)
		o.updateSubscriptions(ctx, byVenue, snap.Opportunities)
	}

	if len(newKeys) > 0 {
		o.logger.Info("opportunities-surfaced", zap.Int("count", len(newKeys)))
	}

	if o.onScanComplete != nil {
		o.onScanComplete(snap.Opportunities)
	}

	ScansTotal.Inc()
	ScanDurationSeconds.Observe(stats.ScanDurationSec)
}

type catalogResult struct {
	venue types.Venue
	snaps []*types.MarketSnapshot
	err   error
}

// fetchCatalogs runs ListMarkets on every enabled adapter concurrently,
// each bounded by its own 15s timeout. A failing venue marks its status
// ERROR for this scan without failing the whole tick (spec §4.5 step 1);
// allFailed is true only when every adapter errored.
func (o *Orchestrator) fetchCatalogs(ctx context.Context) (map[types.Venue][]*types.MarketSnapshot, map[string]string, bool) {
	results := make(chan catalogResult, len(o.adapters))
	var wg sync.WaitGroup

	for v, adapter := range o.adapters {
		wg.Add(1)
		go func(v types.Venue, adapter venue.Adapter) {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(ctx, listMarketsTimeout)
			defer cancel()
			snaps, err := adapter.ListMarkets(callCtx, "active")
			results <- catalogResult{venue: v, snaps: snaps, err: err}
		}(v, adapter)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	byVenue := make(map[types.Venue][]*types.MarketSnapshot, len(o.adapters))
	status := make(map[string]string, len(o.adapters))
	var errs error
	okCount := 0

	for r := range results {
		if r.err != nil {
			status[string(r.venue)] = "ERROR"
			VenueListErrorsTotal.WithLabelValues(string(r.venue)).Inc()
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", r.venue, r.err))
			continue
		}
		status[string(r.venue)] = "OK"
		byVenue[r.venue] = r.snaps
		okCount++
	}

	if errs != nil {
		o.logger.Warn("scan-catalog-fetch-errors", zap.Error(errs))
	}

	return byVenue, status, okCount == 0
}

// matchAll runs the matcher over every unordered pair of venues with a
// non-empty catalog (spec §4.5 step 2).
func (o *Orchestrator) matchAll(byVenue map[types.Venue][]*types.MarketSnapshot) []types.MatchPair {
	venues := make([]types.Venue, 0, len(byVenue))
	for v, snaps := range byVenue {
		if len(snaps) > 0 {
			venues = append(venues, v)
		}
	}
	sort.Slice(venues, func(i, j int) bool { return venues[i] < venues[j] })

	var pairs []types.MatchPair
	for i := 0; i < len(venues); i++ {
		for j := i + 1; j < len(venues); j++ {
			a, b := venues[i], venues[j]
			pairs = append(pairs, o.matcher.Match(byVenue[a], byVenue[b], o.manualMappings)...)
		}
	}
	return pairs
}

// evaluateAll runs C4 over every candidate pair (spec §4.5 step 3).
func (o *Orchestrator) evaluateAll(pairs []types.MatchPair) []*arbitrage.Opportunity {
	opps := make([]*arbitrage.Opportunity, 0, len(pairs))
	for _, p := range pairs {
		if opp := arbitrage.Evaluate(p, o.evalCfg); opp != nil {
			opps = append(opps, opp)
		}
	}
	return opps
}

// updateSubscriptions recomputes each venue's realtime subscription
// target set (spec §4.6) and starts or refreshes its worker.
func (o *Orchestrator) updateSubscriptions(ctx context.Context, byVenue map[types.Venue][]*types.MarketSnapshot, opps []*arbitrage.Opportunity) {
	liveByVenue := make(map[types.Venue]map[string]bool)
	for _, opp := range opps {
		markLive(liveByVenue, opp.VenueA, opp.MarketIDA)
		markLive(liveByVenue, opp.VenueB, opp.MarketIDB)
	}

	targets := make(map[types.Venue][]string, len(byVenue))
	for v, snaps := range byVenue {
		targets[v] = realtime.SelectSubscriptionTargets(snaps, liveByVenue[v], o.subscriptionTopN)
	}

	if !o.hubStarted {
		o.hub.Start(ctx, targets)
		o.hubStarted = true
		return
	}

	for v, ids := range targets {
		if err := o.hub.Resubscribe(ctx, v, ids); err != nil {
			o.logger.Warn("resubscribe-failed", zap.String("venue", string(v)), zap.Error(err))
		}
	}
}

func markLive(liveByVenue map[types.Venue]map[string]bool, v types.Venue, marketID string) {
	set, ok := liveByVenue[v]
	if !ok {
		set = make(map[string]bool)
		liveByVenue[v] = set
	}
	set[marketID] = true
}
