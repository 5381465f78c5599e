package realtime

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/mselser95/arb-scanner/internal/arbitrage"
	"github.com/mselser95/arb-scanner/pkg/types"
	"go.uber.org/zap"
)

// Transition describes a rising or falling edge in a pair's arbitrage
// opportunity (spec §4.6 step 4).
type Transition struct {
	Key     string
	Venue   types.Venue
	Pair    types.MatchPair
	Opp     *arbitrage.Opportunity // nil on a falling edge
	Rising  bool
}

// VenueWorker owns one venue's realtime quote map. Only this worker
// mutates its map, so no lock is needed on it; updates for the same
// venue_market_id are processed in arrival order because they pass
// through a single channel read by a single goroutine (spec §5
// "Ordering").
type VenueWorker struct {
	venue    types.Venue
	quotes   map[string]*types.MarketSnapshot
	catalog  *atomic.Pointer[CatalogSnapshot]
	lookup   *atomic.Pointer[LookupTable]
	active   *activeSet
	evalCfg  arbitrage.Config
	onChange func(Transition)
	logger   *zap.Logger
}

func newVenueWorker(venue types.Venue, catalog *atomic.Pointer[CatalogSnapshot], lookup *atomic.Pointer[LookupTable], active *activeSet, evalCfg arbitrage.Config, onChange func(Transition), logger *zap.Logger) *VenueWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VenueWorker{
		venue:    venue,
		quotes:   make(map[string]*types.MarketSnapshot),
		catalog:  catalog,
		lookup:   lookup,
		active:   active,
		evalCfg:  evalCfg,
		onChange: onChange,
		logger:   logger,
	}
}

// Run consumes updates until ctx is canceled or the channel closes.
// Each update, including every touched pair's re-evaluation and any
// onChange call, is handled to completion before the next is read off
// the channel. onChange runs synchronously on this goroutine, so a slow
// onChange delays every later update for this venue, whatever its market.
func (w *VenueWorker) Run(ctx context.Context, updates <-chan *types.QuoteUpdate) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			w.handle(u)
		}
	}
}

func (w *VenueWorker) handle(u *types.QuoteUpdate) {
	start := time.Now()
	defer func() { ReevaluationDurationSeconds.WithLabelValues(string(w.venue)).Observe(time.Since(start).Seconds()) }()

	key := venueKey(u.Venue, u.VenueMarketID)
	w.quotes[key] = mergeUpdate(w.quotes[key], u)
	QuoteUpdatesProcessedTotal.WithLabelValues(string(w.venue)).Inc()

	table := w.lookup.Load()
	if table == nil {
		return
	}
	pairs := (*table)[key]
	if len(pairs) == 0 {
		return
	}

	catalog := w.catalog.Load()

	for _, pair := range pairs {
		w.reevaluate(pair, catalog)
	}
}

func (w *VenueWorker) reevaluate(pair types.MatchPair, catalog *CatalogSnapshot) {
	local := w.quotes[venueKey(w.venue, localMarketID(pair, w.venue))]
	if local == nil {
		w.logger.Debug("reevaluate-skipped-no-local-quote", zap.String("market-id", localMarketID(pair, w.venue)))
		return
	}

	other := counterpart(pair, w.venue, local.VenueMarketID)
	if catalog != nil {
		if latest := catalog.Get(other.Venue, other.VenueMarketID); latest != nil {
			other = latest
		}
	}

	live := pair
	if pair.A.Venue == w.venue && pair.A.VenueMarketID == local.VenueMarketID {
		live.A, live.B = local, other
	} else {
		live.A, live.B = other, local
	}

	opp := arbitrage.Evaluate(live, w.evalCfg)
	key := pairKey(live)
	wasActive := w.active.get(key)

	switch {
	case opp != nil && !wasActive:
		w.active.set(key, true)
		OpportunityTransitionsTotal.WithLabelValues(string(w.venue), "rising").Inc()
		w.emit(Transition{Key: key, Venue: w.venue, Pair: live, Opp: opp, Rising: true})
	case opp == nil && wasActive:
		w.active.set(key, false)
		OpportunityTransitionsTotal.WithLabelValues(string(w.venue), "falling").Inc()
		w.emit(Transition{Key: key, Venue: w.venue, Pair: live, Opp: nil, Rising: false})
	}
}

func (w *VenueWorker) emit(t Transition) {
	if w.onChange != nil {
		w.onChange(t)
	}
}

func localMarketID(pair types.MatchPair, v types.Venue) string {
	if pair.A.Venue == v {
		return pair.A.VenueMarketID
	}
	return pair.B.VenueMarketID
}

func pairKey(p types.MatchPair) string {
	return string(p.A.Venue) + ":" + p.A.VenueMarketID + "|" + string(p.B.Venue) + ":" + p.B.VenueMarketID
}

func mergeUpdate(base *types.MarketSnapshot, u *types.QuoteUpdate) *types.MarketSnapshot {
	var snap types.MarketSnapshot
	if base != nil {
		snap = *base
	} else {
		snap = types.MarketSnapshot{Venue: u.Venue, VenueMarketID: u.VenueMarketID}
	}

	switch u.Side {
	case types.SideYes:
		snap.YesBid = u.BestBid
		snap.YesAsk = u.BestAsk
	case types.SideNo:
		snap.NoBid = u.BestBid
		snap.NoAsk = u.BestAsk
	}

	return &snap
}
