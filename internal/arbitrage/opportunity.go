package arbitrage

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mselser95/arb-scanner/pkg/types"
)

// Opportunity is a detected cross-venue arbitrage: a YES ask on one
// venue and a NO ask on the other summing to less than one, net of
// fees.
type Opportunity struct {
	ID            string
	VenueA        types.Venue
	MarketIDA     string
	TitleA        string
	VenueB        types.Venue
	MarketIDB     string
	TitleB        string
	Direction     types.Direction
	CombinedPrice float64
	EdgePct       float64
	AskSizeMin    float64 // 0 means neither venue exposed a size
	HasAskSize    bool
	Confidence    float64
	Derived       bool
	FirstSeenAt   time.Time
	LastSeenAt    time.Time
	LastNotified  time.Time // zero value means never notified
}

// Key identifies an opportunity by (venue_a, id_a, venue_b, id_b,
// direction), so the two directions of one pair have distinct keys.
func (o *Opportunity) Key() string {
	return fmt.Sprintf("%s:%s|%s:%s|%s", o.VenueA, o.MarketIDA, o.VenueB, o.MarketIDB, o.Direction)
}

func newOpportunity(pair types.MatchPair, dir types.Direction, combined, edgePct float64) *Opportunity {
	a, b := pair.A, pair.B

	var askMin float64
	var hasSize bool
	switch dir {
	case types.DirectionAYesBNo:
		if a.AskSizeYes > 0 || b.AskSizeNo > 0 {
			askMin, hasSize = minNonZero(a.AskSizeYes, b.AskSizeNo)
		}
	case types.DirectionBYesANo:
		if b.AskSizeYes > 0 || a.AskSizeNo > 0 {
			askMin, hasSize = minNonZero(b.AskSizeYes, a.AskSizeNo)
		}
	}

	now := time.Now()

	return &Opportunity{
		ID:            uuid.New().String(),
		VenueA:        a.Venue,
		MarketIDA:     a.VenueMarketID,
		TitleA:        a.Title,
		VenueB:        b.Venue,
		MarketIDB:     b.VenueMarketID,
		TitleB:        b.Title,
		Direction:     dir,
		CombinedPrice: combined,
		EdgePct:       edgePct,
		AskSizeMin:    askMin,
		HasAskSize:    hasSize,
		Confidence:    pair.Confidence,
		Derived:       a.Derived || b.Derived,
		FirstSeenAt:   now,
		LastSeenAt:    now,
	}
}

// minNonZero returns the smaller of two sizes, ignoring any that is
// zero/unknown. hasSize is false only when both are unknown.
func minNonZero(x, y float64) (float64, bool) {
	switch {
	case x > 0 && y > 0:
		if x < y {
			return x, true
		}
		return y, true
	case x > 0:
		return x, true
	case y > 0:
		return y, true
	default:
		return 0, false
	}
}

func (o *Opportunity) String() string {
	return fmt.Sprintf(
		"Opportunity[%s] %s:%s <-> %s:%s dir=%s combined=%.4f edge=%.2f%% conf=%.2f",
		o.ID[:8], o.VenueA, o.MarketIDA, o.VenueB, o.MarketIDB, o.Direction, o.CombinedPrice, o.EdgePct, o.Confidence,
	)
}
