package realtime

import (
	"sync/atomic"
	"testing"

	"github.com/mselser95/arb-scanner/internal/arbitrage"
	"github.com/mselser95/arb-scanner/pkg/types"
)

func testPair() types.MatchPair {
	return types.MatchPair{
		A:          &types.MarketSnapshot{Venue: types.VenuePoly, VenueMarketID: "a1"},
		B:          &types.MarketSnapshot{Venue: types.VenueOpinion, VenueMarketID: "b1"},
		Confidence: 0.9,
	}
}

func TestBuildLookupTable_IndexesBothSides(t *testing.T) {
	pair := testPair()
	table := BuildLookupTable([]types.MatchPair{pair})

	if len(table[venueKey(types.VenuePoly, "a1")]) != 1 {
		t.Error("expected the A-side key to index the pair")
	}
	if len(table[venueKey(types.VenueOpinion, "b1")]) != 1 {
		t.Error("expected the B-side key to index the pair")
	}
}

func TestVenueWorker_RisingThenFallingEdge(t *testing.T) {
	pair := testPair()
	table := BuildLookupTable([]types.MatchPair{pair})
	// A worker reads the other side of a pair from the published catalog,
	// never from another worker's live map, so the A-side YES ask of 0.30
	// is published there.
	catalogPtr := &atomic.Pointer[CatalogSnapshot]{}
	catalog := CatalogSnapshot{
		venueKey(types.VenuePoly, "a1"): {Venue: types.VenuePoly, VenueMarketID: "a1", YesAsk: 0.30},
	}
	catalogPtr.Store(&catalog)
	lookupPtr := &atomic.Pointer[LookupTable]{}
	lookupPtr.Store(&table)

	active := newActiveSet()
	var transitions []Transition
	onChange := func(tr Transition) { transitions = append(transitions, tr) }

	cfg := arbitrage.Config{ThresholdPct: 2.0, FeePerLeg: 0.005, DerivedPenaltyPct: 1.0}

	workerA := newVenueWorker(types.VenuePoly, catalogPtr, lookupPtr, active, cfg, onChange, nil)
	workerB := newVenueWorker(types.VenueOpinion, catalogPtr, lookupPtr, active, cfg, onChange, nil)

	// A-side YES ask 0.30, B-side NO ask unknown yet (0) -> no opportunity.
	workerA.handle(&types.QuoteUpdate{Venue: types.VenuePoly, VenueMarketID: "a1", Side: types.SideYes, BestAsk: 0.30})
	if len(transitions) != 0 {
		t.Fatalf("expected no transition before the B side is known, got %d", len(transitions))
	}

	// B-side NO ask 0.45 against the catalog's A-side YES ask 0.30 ->
	// combined 0.75, edge 24% -> rising edge.
	workerB.handle(&types.QuoteUpdate{Venue: types.VenueOpinion, VenueMarketID: "b1", Side: types.SideNo, BestAsk: 0.45})
	if len(transitions) != 1 {
		t.Fatalf("expected 1 rising transition, got %d", len(transitions))
	}
	if !transitions[0].Rising {
		t.Error("expected a rising edge")
	}

	// B-side NO ask widens to 0.90 -> combined 1.20, no longer profitable -> falling edge.
	workerB.handle(&types.QuoteUpdate{Venue: types.VenueOpinion, VenueMarketID: "b1", Side: types.SideNo, BestAsk: 0.90})
	if len(transitions) != 2 {
		t.Fatalf("expected a second (falling) transition, got %d", len(transitions))
	}
	if transitions[1].Rising {
		t.Error("expected a falling edge")
	}
}

func TestSelectSubscriptionTargets_UnionsTopNAndLive(t *testing.T) {
	catalog := []*types.MarketSnapshot{
		{VenueMarketID: "high-volume", Volume24hUSD: 1000},
		{VenueMarketID: "low-volume", Volume24hUSD: 1},
	}
	live := map[string]bool{"low-volume": true}

	targets := SelectSubscriptionTargets(catalog, live, 1)

	found := make(map[string]bool)
	for _, id := range targets {
		found[id] = true
	}
	if !found["high-volume"] {
		t.Error("expected the top-1-by-volume market to be included")
	}
	if !found["low-volume"] {
		t.Error("expected a market participating in a live opportunity to be included even outside top-N")
	}
}
