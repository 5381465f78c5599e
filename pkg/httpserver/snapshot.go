package httpserver

import (
	"sort"
	"time"

	"github.com/mselser95/arb-scanner/internal/arbitrage"
)

// StateProvider decouples the dashboard server from the scan
// orchestrator and realtime hub; internal/app supplies the concrete
// adapter the way the teacher's MarketSnapshotProvider decouples its
// dashboard from the market-making engine.
type StateProvider interface {
	ScanNumber() uint64
	LastScanAt() time.Time
	VenueStatus() map[string]string
	EffectiveThresholdPct() float64
	Opportunities() []*arbitrage.Opportunity
}

const topOpportunitiesLimit = 50

// BuildSnapshot assembles the dashboard's current view, sorted by edge
// percentage descending and capped at the top 50 (spec §4.8).
func BuildSnapshot(p StateProvider) DashboardSnapshot {
	opps := append([]*arbitrage.Opportunity(nil), p.Opportunities()...)
	sort.Slice(opps, func(i, j int) bool { return opps[i].EdgePct > opps[j].EdgePct })
	if len(opps) > topOpportunitiesLimit {
		opps = opps[:topOpportunitiesLimit]
	}

	views := make([]OpportunityView, len(opps))
	for i, opp := range opps {
		views[i] = toView(opp)
	}

	return DashboardSnapshot{
		Timestamp:             time.Now(),
		ScanNumber:            p.ScanNumber(),
		LastScanAt:            p.LastScanAt(),
		VenueStatus:           p.VenueStatus(),
		EffectiveThresholdPct: p.EffectiveThresholdPct(),
		Opportunities:         views,
	}
}

func toView(opp *arbitrage.Opportunity) OpportunityView {
	return OpportunityView{
		ID:            opp.ID,
		VenueA:        string(opp.VenueA),
		MarketIDA:     opp.MarketIDA,
		TitleA:        opp.TitleA,
		VenueB:        string(opp.VenueB),
		MarketIDB:     opp.MarketIDB,
		TitleB:        opp.TitleB,
		Direction:     string(opp.Direction),
		CombinedPrice: opp.CombinedPrice,
		EdgePct:       opp.EdgePct,
		AskSizeMin:    opp.AskSizeMin,
		HasAskSize:    opp.HasAskSize,
		Confidence:    opp.Confidence,
		Derived:       opp.Derived,
		FirstSeenAt:   opp.FirstSeenAt,
		LastSeenAt:    opp.LastSeenAt,
	}
}
