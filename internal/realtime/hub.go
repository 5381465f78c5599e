package realtime

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/mselser95/arb-scanner/internal/arbitrage"
	"github.com/mselser95/arb-scanner/internal/venue"
	"github.com/mselser95/arb-scanner/pkg/types"
	"go.uber.org/zap"
)

// Hub owns the shared, atomically-published catalog snapshot and lookup
// table, and one VenueWorker per realtime-capable venue.
type Hub struct {
	adapters map[types.Venue]venue.Adapter
	evalCfg  arbitrage.Config
	onChange func(Transition)
	logger   *zap.Logger

	catalog *atomic.Pointer[CatalogSnapshot]
	lookup  *atomic.Pointer[LookupTable]
	active  *activeSet

	mu      sync.Mutex
	workers map[types.Venue]*VenueWorker
	updates map[types.Venue]chan *types.QuoteUpdate
}

// NewHub builds a Hub. onChange is invoked on every rising/falling edge
// transition; the application wires it to the dashboard broadcast and
// the notification broker.
func NewHub(adapters map[types.Venue]venue.Adapter, evalCfg arbitrage.Config, onChange func(Transition), logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &Hub{
		adapters: adapters,
		evalCfg:  evalCfg,
		onChange: onChange,
		logger:   logger,
		catalog:  &atomic.Pointer[CatalogSnapshot]{},
		lookup:   &atomic.Pointer[LookupTable]{},
		active:   newActiveSet(),
		workers:  make(map[types.Venue]*VenueWorker),
		updates:  make(map[types.Venue]chan *types.QuoteUpdate),
	}

	empty := CatalogSnapshot{}
	h.catalog.Store(&empty)
	emptyTable := LookupTable{}
	h.lookup.Store(&emptyTable)

	return h
}

// PublishScanResult republishes the catalog snapshot and lookup table at
// the end of every scan (spec §4.5/§4.6). Readers never lock.
func (h *Hub) PublishScanResult(byVenue map[types.Venue][]*types.MarketSnapshot, pairs []types.MatchPair) {
	snap := NewCatalogSnapshot(byVenue)
	h.catalog.Store(&snap)

	table := BuildLookupTable(pairs)
	h.lookup.Store(&table)
}

// Start launches one worker goroutine per venue adapter, with an initial
// subscription to targetMarketIDs (spec §4.6's top-N-by-volume union
// live-opportunity selection, computed by the caller). A venue whose
// Subscribe call fails keeps its worker but is only logged.
func (h *Hub) Start(ctx context.Context, targetMarketIDs map[types.Venue][]string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for v, adapter := range h.adapters {
		updates := make(chan *types.QuoteUpdate, 1024)
		h.updates[v] = updates

		worker := newVenueWorker(v, h.catalog, h.lookup, h.active, h.evalCfg, h.onChange, h.logger.With(zap.String("venue", string(v))))
		h.workers[v] = worker

		go worker.Run(ctx, updates)

		ids := targetMarketIDs[v]
		if len(ids) == 0 {
			continue
		}

		localUpdates := updates
		err := adapter.Subscribe(ctx, ids, func(u *types.QuoteUpdate) {
			select {
			case localUpdates <- u:
			default:
				h.logger.Warn("realtime-hub-channel-full", zap.String("venue", string(v)))
			}
		})
		if err != nil {
			h.logger.Warn("venue-subscribe-failed", zap.String("venue", string(v)), zap.Error(err))
		}
	}
}

// Resubscribe issues a fresh Subscribe call on a venue's adapter with the
// new target set. The adapter tracks which ids are already subscribed and
// sends only the new ones; ids dropped from the target set stay subscribed.
func (h *Hub) Resubscribe(ctx context.Context, v types.Venue, marketIDs []string) error {
	adapter, ok := h.adapters[v]
	if !ok {
		return nil
	}

	h.mu.Lock()
	updates, ok := h.updates[v]
	h.mu.Unlock()
	if !ok {
		return nil
	}

	return adapter.Subscribe(ctx, marketIDs, func(u *types.QuoteUpdate) {
		select {
		case updates <- u:
		default:
			h.logger.Warn("realtime-hub-channel-full", zap.String("venue", string(v)))
		}
	})
}

// SelectSubscriptionTargets implements spec §4.6's target set: the top-N
// markets by 24h volume on the venue, unioned with every market currently
// participating in a live opportunity.
func SelectSubscriptionTargets(catalog []*types.MarketSnapshot, liveMarketIDs map[string]bool, n int) []string {
	sorted := make([]*types.MarketSnapshot, len(catalog))
	copy(sorted, catalog)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Volume24hUSD > sorted[j].Volume24hUSD })

	seen := make(map[string]bool, n+len(liveMarketIDs))
	var out []string

	for i, s := range sorted {
		if i >= n {
			break
		}
		if !seen[s.VenueMarketID] {
			seen[s.VenueMarketID] = true
			out = append(out, s.VenueMarketID)
		}
	}

	for id := range liveMarketIDs {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}

	return out
}
