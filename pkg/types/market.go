package types

import "time"

// Venue identifies one of the binary-outcome marketplaces the scanner polls.
type Venue string

const (
	VenuePoly    Venue = "POLY"
	VenueOpinion Venue = "OPINION"
	VenuePredict Venue = "PREDICT"
	VenueKalshi  Venue = "KALSHI"
)

// Side identifies which outcome leg a quote belongs to.
type Side string

const (
	SideYes Side = "YES"
	SideNo  Side = "NO"
)

// MarketSnapshot is a point-in-time view of one market on one venue.
//
// A quote is usable when 0 < YesAsk, NoAsk < 1 (see HasValidAsks). Not
// every adapter drops snapshots that break this (Predict's never carry
// asks), so they can reach the matcher; the arbitrage evaluator skips any
// direction whose ask is outside (0, 1).
type MarketSnapshot struct {
	Venue         Venue
	VenueMarketID string
	Title         string
	YesAsk        float64
	NoAsk         float64
	YesBid        float64 // 0 if unknown
	NoBid         float64 // 0 if unknown
	AskSizeYes    float64 // 0 means unknown, not zero liquidity
	AskSizeNo     float64
	LiquidityUSD  float64
	Volume24hUSD  float64
	EndTime       time.Time // zero value means unknown
	URL           string

	// Derived is true when NoAsk/NoBid (or YesAsk/YesBid) were computed as
	// 1-minus-the-other-side rather than read from the venue's book. The
	// evaluator must apply a stricter effective threshold whenever this is
	// set (spec §4.1, §9 "derived-quote" open question).
	Derived bool
}

// HasValidAsks reports whether both ask sides are present and in (0, 1).
func (m *MarketSnapshot) HasValidAsks() bool {
	return m.YesAsk > 0 && m.YesAsk < 1 && m.NoAsk > 0 && m.NoAsk < 1
}

// QuoteUpdate is a differential update from a venue's realtime stream.
type QuoteUpdate struct {
	Venue         Venue
	VenueMarketID string
	Side          Side
	BestBid       float64
	BestAsk       float64
	Timestamp     time.Time
}

// ManualMapping pins one real-world event across venues by editorial fiat.
// Loaded once at startup and never mutated afterward.
type ManualMapping struct {
	Slug        string                                 `yaml:"slug"`
	Description string                                 `yaml:"description"`
	Outcomes    map[string]map[Venue]ManualOutcomeRef `yaml:"outcomes"`
}

// ManualOutcomeRef names the venue-specific market and outcome label for
// one outcome of a ManualMapping.
type ManualOutcomeRef struct {
	VenueMarketID string `yaml:"venue_market_id"`
	OutcomeLabel  string `yaml:"outcome_label"`
}

// Direction names which leg is bought YES and which is bought NO in a
// cross-venue arbitrage pair. Never both-YES or both-NO.
type Direction string

const (
	DirectionAYesBNo Direction = "A_YES_B_NO"
	DirectionBYesANo Direction = "B_YES_A_NO"
)

// MatchPair is the matcher's output: two snapshots believed to reference
// the same real-world event, with a confidence in [0,1]. Confidence is
// exactly 1.0 iff the pair came from the manual map.
type MatchPair struct {
	A          *MarketSnapshot
	B          *MarketSnapshot
	Confidence float64
}

// Key returns the identity the scan orchestrator and realtime fan-out use
// to track a matched pair independent of direction.
func (p *MatchPair) Key() string {
	return string(p.A.Venue) + ":" + p.A.VenueMarketID + "|" + string(p.B.Venue) + ":" + p.B.VenueMarketID
}
