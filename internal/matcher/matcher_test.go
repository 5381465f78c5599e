package matcher

import (
	"testing"

	"github.com/mselser95/arb-scanner/pkg/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

func snap(venue types.Venue, id, title string) *types.MarketSnapshot {
	return &types.MarketSnapshot{Venue: venue, VenueMarketID: id, Title: title, YesAsk: 0.5, NoAsk: 0.5}
}

func newTestMatcher() *Matcher {
	return New(Config{DefaultThreshold: 0.30}, zap.NewNop())
}

func TestMatcher_YearConflictNeverMatches(t *testing.T) {
	m := newTestMatcher()

	catalogA := []*types.MarketSnapshot{snap(types.VenuePoly, "a1", "Will Trump win in 2024?")}
	catalogB := []*types.MarketSnapshot{snap(types.VenueOpinion, "b1", "Will Trump win in 2028?")}

	pairs := m.Match(catalogA, catalogB, nil)
	if len(pairs) != 0 {
		t.Errorf("expected no pairs across a year conflict, got %d", len(pairs))
	}
}

func TestMatcher_DirectionalReversalRejected(t *testing.T) {
	m := newTestMatcher()

	catalogA := []*types.MarketSnapshot{snap(types.VenuePoly, "a1", "Will Trump remain president?")}
	catalogB := []*types.MarketSnapshot{snap(types.VenueOpinion, "b1", "Trump out by March?")}

	pairs := m.Match(catalogA, catalogB, nil)
	if len(pairs) != 0 {
		t.Errorf("expected no pairs under stay/exit reversal, got %d", len(pairs))
	}
}

func TestMatcher_ManualMapWinsOverWeakAutoScore(t *testing.T) {
	m := newTestMatcher()

	catalogA := []*types.MarketSnapshot{snap(types.VenuePoly, "x", "Completely unrelated title one")}
	catalogB := []*types.MarketSnapshot{snap(types.VenueOpinion, "y", "Totally different phrase two")}

	mapping := types.ManualMapping{
		Slug: "manual-pin",
		Outcomes: map[string]map[types.Venue]types.ManualOutcomeRef{
			"yes": {
				types.VenuePoly:    {VenueMarketID: "x"},
				types.VenueOpinion: {VenueMarketID: "y"},
			},
		},
	}

	pairs := m.Match(catalogA, catalogB, []types.ManualMapping{mapping})
	if len(pairs) != 1 {
		t.Fatalf("expected 1 manual pair, got %d", len(pairs))
	}
	if pairs[0].Confidence != 1.0 {
		t.Errorf("expected manual confidence 1.0, got %v", pairs[0].Confidence)
	}
}

func TestMatcher_ClaimUniqueness(t *testing.T) {
	m := newTestMatcher()

	catalogA := []*types.MarketSnapshot{
		snap(types.VenuePoly, "a1", "Will the Fed cut interest rates in March?"),
		snap(types.VenuePoly, "a2", "Will the Fed cut interest rates in March?"),
	}
	catalogB := []*types.MarketSnapshot{
		snap(types.VenueOpinion, "b1", "Will the Fed cut interest rates in March?"),
	}

	pairs := m.Match(catalogA, catalogB, nil)
	if len(pairs) > 1 {
		t.Fatalf("expected at most one pair since b1 can only be claimed once, got %d", len(pairs))
	}

	seen := make(map[string]bool)
	for _, p := range pairs {
		if seen[p.B.VenueMarketID] {
			t.Errorf("venue_market_id %s claimed by two pairs", p.B.VenueMarketID)
		}
		seen[p.B.VenueMarketID] = true
	}
}

func TestMatcher_SymmetricConfidence(t *testing.T) {
	titleA := "Will Bitcoin reach $100,000 by end of 2025?"
	titleB := "Will BTC hit $100,000 before 2025 ends?"

	m1 := newTestMatcher()
	ab := m1.Match(
		[]*types.MarketSnapshot{snap(types.VenuePoly, "a", titleA)},
		[]*types.MarketSnapshot{snap(types.VenueOpinion, "b", titleB)},
		nil,
	)

	m2 := newTestMatcher()
	ba := m2.Match(
		[]*types.MarketSnapshot{snap(types.VenueOpinion, "b", titleB)},
		[]*types.MarketSnapshot{snap(types.VenuePoly, "a", titleA)},
		nil,
	)

	var scoreAB, scoreBA float64
	if len(ab) == 1 {
		scoreAB = ab[0].Confidence
	}
	if len(ba) == 1 {
		scoreBA = ba[0].Confidence
	}

	if scoreAB != scoreBA {
		t.Errorf("match confidence not symmetric: A->B=%v B->A=%v", scoreAB, scoreBA)
	}
}

func TestMatcher_PruningRemovesUbiquitousTokens(t *testing.T) {
	m := newTestMatcher()

	catalogB := make([]*types.MarketSnapshot, 0, 20)
	for i := 0; i < 20; i++ {
		catalogB = append(catalogB, snap(types.VenueOpinion, string(rune('a'+i)), "Will candidate win the election race?"))
	}
	catalogA := []*types.MarketSnapshot{snap(types.VenuePoly, "x", "Will candidate win the election race specifically here?")}

	before := testutil.ToFloat64(PrunedTokensTotal)

	claimedA, claimedB := make(map[string]bool), make(map[string]bool)
	m.autoTier(catalogA, catalogB, claimedA, claimedB)

	after := testutil.ToFloat64(PrunedTokensTotal)
	if after <= before {
		t.Error("expected ubiquitous tokens shared by every B-side market to be pruned")
	}
}

func TestLCSRatio(t *testing.T) {
	cases := []struct {
		a, b string
		min  float64
	}{
		{"hello world", "hello world", 1.0},
		{"", "anything", 0},
		{"abc", "xyz", 0},
	}

	for _, c := range cases {
		got := lcsRatio(c.a, c.b)
		if c.min == 1.0 && got != 1.0 {
			t.Errorf("lcsRatio(%q,%q) = %v, want 1.0", c.a, c.b, got)
		}
		if c.min == 0 && got > 0.34 {
			t.Errorf("lcsRatio(%q,%q) = %v, want near 0", c.a, c.b, got)
		}
	}
}
