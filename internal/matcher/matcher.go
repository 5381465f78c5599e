// Package matcher decides when a market on one venue refers to the same
// real-world event as a market on another venue. Two tiers: an exact
// manual map, then an inverted-index candidate search scored by a
// weighted, hard-constrained similarity.
package matcher

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/mselser95/arb-scanner/internal/keyword"
	"github.com/mselser95/arb-scanner/pkg/types"
	"go.uber.org/zap"
)

// Config holds per-venue-pair similarity thresholds.
type Config struct {
	// Thresholds maps a lowercase "venuea_venueb" key (e.g. "poly_kalshi";
	// either venue order matches) to the minimum automatic-tier score
	// required to emit a pair.
	Thresholds map[string]float64
	// DefaultThreshold applies to any venue pair absent from Thresholds.
	DefaultThreshold float64
}

// ThresholdFor returns the configured minimum similarity for a venue
// pair, falling back to DefaultThreshold.
func (c Config) ThresholdFor(a, b types.Venue) float64 {
	for _, key := range []string{pairKey(a, b), pairKey(b, a)} {
		if t, ok := c.Thresholds[key]; ok {
			return t
		}
	}
	return c.DefaultThreshold
}

func pairKey(a, b types.Venue) string {
	return strings.ToLower(string(a)) + "_" + strings.ToLower(string(b))
}

// Matcher runs the two-tier matching algorithm. It caches keyword
// extraction by venue_market_id across calls, since the same catalogs
// are re-matched every scan cycle.
type Matcher struct {
	cfg      Config
	logger   *zap.Logger
	mu       sync.Mutex
	tokCache map[string]keyword.Tokens // keyed by "venue:venue_market_id"
}

// New builds a Matcher.
func New(cfg Config, logger *zap.Logger) *Matcher {
	return &Matcher{
		cfg:      cfg,
		logger:   logger,
		tokCache: make(map[string]keyword.Tokens),
	}
}

func tokenKey(v types.Venue, id string) string { return string(v) + ":" + id }

func (m *Matcher) tokensFor(s *types.MarketSnapshot) keyword.Tokens {
	key := tokenKey(s.Venue, s.VenueMarketID)

	m.mu.Lock()
	defer m.mu.Unlock()

	if t, ok := m.tokCache[key]; ok {
		return t
	}

	t := keyword.Extract(s.Title)
	m.tokCache[key] = t
	return t
}

// Match runs the manual tier followed by the automatic tier over two
// venue catalogs and returns the resulting match pairs. catalogA and
// catalogB must each contain markets from exactly one venue.
func (m *Matcher) Match(catalogA, catalogB []*types.MarketSnapshot, manualMappings []types.ManualMapping) []types.MatchPair {
	if len(catalogA) == 0 || len(catalogB) == 0 {
		return nil
	}

	venueA, venueB := catalogA[0].Venue, catalogB[0].Venue
	start := time.Now()
	defer func() {
		MatchDurationSeconds.WithLabelValues(string(venueA), string(venueB)).Observe(time.Since(start).Seconds())
	}()

	byIDA := make(map[string]*types.MarketSnapshot, len(catalogA))
	for _, s := range catalogA {
		byIDA[s.VenueMarketID] = s
	}
	byIDB := make(map[string]*types.MarketSnapshot, len(catalogB))
	for _, s := range catalogB {
		byIDB[s.VenueMarketID] = s
	}

	claimedA := make(map[string]bool)
	claimedB := make(map[string]bool)

	var pairs []types.MatchPair

	manual := m.manualTier(byIDA, byIDB, venueA, venueB, manualMappings, claimedA, claimedB)
	pairs = append(pairs, manual...)

	auto := m.autoTier(catalogA, catalogB, claimedA, claimedB)
	pairs = append(pairs, auto...)

	return pairs
}

// manualTier emits confidence=1.0 pairs for every manual mapping outcome
// whose two venues are both present among the candidate catalogs, and
// marks both sides claimed.
func (m *Matcher) manualTier(
	byIDA, byIDB map[string]*types.MarketSnapshot,
	venueA, venueB types.Venue,
	mappings []types.ManualMapping,
	claimedA, claimedB map[string]bool,
) []types.MatchPair {
	var pairs []types.MatchPair

	for _, mapping := range mappings {
		for _, outcome := range mapping.Outcomes {
			refA, okA := outcome[venueA]
			refB, okB := outcome[venueB]
			if !okA || !okB {
				continue
			}

			snapA, foundA := byIDA[refA.VenueMarketID]
			snapB, foundB := byIDB[refB.VenueMarketID]
			if !foundA || !foundB {
				continue
			}
			if claimedA[snapA.VenueMarketID] || claimedB[snapB.VenueMarketID] {
				continue
			}

			claimedA[snapA.VenueMarketID] = true
			claimedB[snapB.VenueMarketID] = true
			pairs = append(pairs, types.MatchPair{A: snapA, B: snapB, Confidence: 1.0})
			ManualMatchesTotal.Inc()
		}
	}

	return pairs
}

const (
	pruneFraction = 0.20
	pruneFloor    = 10
)

// autoTier builds an inverted index over the unclaimed B-side catalog,
// prunes non-discriminating tokens, and for every unclaimed A-side
// market finds the best-scoring unclaimed B-side candidate.
func (m *Matcher) autoTier(catalogA, catalogB []*types.MarketSnapshot, claimedA, claimedB map[string]bool) []types.MatchPair {
	bTokens := make(map[string]keyword.Tokens, len(catalogB))
	bByID := make(map[string]*types.MarketSnapshot, len(catalogB))
	var activeB []*types.MarketSnapshot

	for _, s := range catalogB {
		if claimedB[s.VenueMarketID] {
			continue
		}
		bTokens[s.VenueMarketID] = m.tokensFor(s)
		bByID[s.VenueMarketID] = s
		activeB = append(activeB, s)
	}

	if len(activeB) == 0 {
		return nil
	}

	index := make(map[string]map[string]struct{})
	for _, s := range activeB {
		t := bTokens[s.VenueMarketID]
		all := t.Entities.Union(t.Numbers).Union(t.Words)
		for tok := range all {
			if index[tok] == nil {
				index[tok] = make(map[string]struct{})
			}
			index[tok][s.VenueMarketID] = struct{}{}
		}
	}

	pruneThreshold := int(math.Ceil(pruneFraction * float64(len(activeB))))
	if pruneThreshold < pruneFloor {
		pruneThreshold = pruneFloor
	}
	for tok, posting := range index {
		if len(posting) > pruneThreshold {
			delete(index, tok)
			PrunedTokensTotal.Inc()
		}
	}

	var pairs []types.MatchPair
	threshold := m.cfg.ThresholdFor(ventureOf(catalogA), ventureOf(catalogB))

	for _, a := range catalogA {
		if claimedA[a.VenueMarketID] {
			continue
		}

		aTok := m.tokensFor(a)
		candidateSet := make(map[string]struct{})
		all := aTok.Entities.Union(aTok.Numbers).Union(aTok.Words)
		for tok := range all {
			for bID := range index[tok] {
				candidateSet[bID] = struct{}{}
			}
		}

		bestScore := 0.0
		var bestID string
		for bID := range candidateSet {
			if claimedB[bID] {
				continue
			}
			bTok := bTokens[bID]

			ok, reason := passesHardConstraints(aTok, bTok)
			if !ok {
				HardConstraintRejectionsTotal.WithLabelValues(reason).Inc()
				continue
			}

			score := similarity(aTok, bTok)
			if score > bestScore {
				bestScore = score
				bestID = bID
			}
		}

		if bestID != "" && bestScore >= threshold {
			claimedA[a.VenueMarketID] = true
			claimedB[bestID] = true
			pair := types.MatchPair{A: a, B: bByID[bestID], Confidence: bestScore}
			pairs = append(pairs, pair)
			AutoMatchesTotal.Inc()
			m.logger.Debug("auto-match-found", zap.String("pair", pairDebugString(pair)))
		}
	}

	return pairs
}

func ventureOf(catalog []*types.MarketSnapshot) types.Venue {
	if len(catalog) == 0 {
		return ""
	}
	return catalog[0].Venue
}

// String is a debug helper used in logs when a matcher run is traced.
func pairDebugString(p types.MatchPair) string {
	return fmt.Sprintf("%s:%s <-> %s:%s (%.2f)", p.A.Venue, p.A.VenueMarketID, p.B.Venue, p.B.VenueMarketID, p.Confidence)
}
