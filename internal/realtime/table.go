// Package realtime maintains per-venue top-of-book quote state and
// re-evaluates arbitrage opportunities incrementally as QuoteUpdates
// arrive, per spec §4.6.
package realtime

import "github.com/mselser95/arb-scanner/pkg/types"

// venueKey is the lookup table's key: one venue's market id.
func venueKey(v types.Venue, marketID string) string {
	return string(v) + ":" + marketID
}

// CatalogSnapshot is the orchestrator's end-of-scan publication: the
// latest known MarketSnapshot per venue per market, read lock-free by
// every realtime worker to find a touched pair's non-local side.
type CatalogSnapshot map[string]*types.MarketSnapshot

// Get returns the last known snapshot for a venue market, or nil.
func (c CatalogSnapshot) Get(v types.Venue, marketID string) *types.MarketSnapshot {
	return c[venueKey(v, marketID)]
}

// NewCatalogSnapshot builds an immutable snapshot index from every venue's
// catalog fetch results in one scan.
func NewCatalogSnapshot(byVenue map[types.Venue][]*types.MarketSnapshot) CatalogSnapshot {
	snap := make(CatalogSnapshot)
	for _, snaps := range byVenue {
		for _, s := range snaps {
			snap[venueKey(s.Venue, s.VenueMarketID)] = s
		}
	}
	return snap
}

// LookupTable maps one venue market id to every MatchPair that touches it
// on either side. Published immutable after each scan (spec §4.6 step 2);
// realtime workers read it via an atomically swapped pointer, never
// locking.
type LookupTable map[string][]types.MatchPair

// BuildLookupTable indexes a scan's matched pairs by both sides' venue
// market ids.
func BuildLookupTable(pairs []types.MatchPair) LookupTable {
	table := make(LookupTable)
	for _, p := range pairs {
		aKey := venueKey(p.A.Venue, p.A.VenueMarketID)
		bKey := venueKey(p.B.Venue, p.B.VenueMarketID)
		table[aKey] = append(table[aKey], p)
		table[bKey] = append(table[bKey], p)
	}
	return table
}

// counterpart returns the other side of pair relative to the venue market
// id that was just updated.
func counterpart(p types.MatchPair, v types.Venue, marketID string) *types.MarketSnapshot {
	if p.A.Venue == v && p.A.VenueMarketID == marketID {
		return p.B
	}
	return p.A
}
