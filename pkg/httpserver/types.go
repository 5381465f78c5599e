package httpserver

import "time"

// DashboardSnapshot is the JSON shape served by GET /api/state and
// broadcast over /ws (spec §4.8). It carries no business logic -- every
// field is copied from whatever the StateProvider reports.
type DashboardSnapshot struct {
	Timestamp             time.Time         `json:"timestamp"`
	ScanNumber            uint64            `json:"scan_number"`
	LastScanAt            time.Time         `json:"last_scan_at"`
	VenueStatus           map[string]string `json:"venue_status"`
	EffectiveThresholdPct float64           `json:"effective_threshold_pct"`
	Opportunities         []OpportunityView `json:"opportunities"`
}

// OpportunityView is the wire representation of one opportunity. Kept
// separate from arbitrage.Opportunity so the domain model carries no
// JSON tags of its own.
type OpportunityView struct {
	ID            string    `json:"id"`
	VenueA        string    `json:"venue_a"`
	MarketIDA     string    `json:"market_id_a"`
	TitleA        string    `json:"title_a"`
	VenueB        string    `json:"venue_b"`
	MarketIDB     string    `json:"market_id_b"`
	TitleB        string    `json:"title_b"`
	Direction     string    `json:"direction"`
	CombinedPrice float64   `json:"combined_price"`
	EdgePct       float64   `json:"edge_pct"`
	AskSizeMin    float64   `json:"ask_size_min,omitempty"`
	HasAskSize    bool      `json:"has_ask_size"`
	Confidence    float64   `json:"confidence"`
	Derived       bool      `json:"derived"`
	FirstSeenAt   time.Time `json:"first_seen_at"`
	LastSeenAt    time.Time `json:"last_seen_at"`
}

// DashboardEvent is the frame shape broadcast over /ws: {type, data}
// (spec §4.8).
type DashboardEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}
