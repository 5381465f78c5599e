package notify

import (
	"context"
	"fmt"

	"github.com/mselser95/arb-scanner/internal/arbitrage"
	"github.com/mselser95/arb-scanner/pkg/types"
	"go.uber.org/zap"
)

// ConsoleSink pretty-prints an opportunity to stdout.
type ConsoleSink struct {
	logger *zap.Logger
}

// NewConsoleSink builds a ConsoleSink.
func NewConsoleSink(logger *zap.Logger) *ConsoleSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("console-sink-initialized")
	return &ConsoleSink{logger: logger}
}

func (c *ConsoleSink) Name() string { return "console" }

func (c *ConsoleSink) Notify(ctx context.Context, opp *arbitrage.Opportunity) error {
	buyA, buyB := "YES", "NO"
	if opp.Direction == types.DirectionBYesANo {
		buyA, buyB = "NO", "YES"
	}

	fmt.Println("\n" + "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("ARBITRAGE OPPORTUNITY\n")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("ID:        %s\n", opp.ID[:8])
	fmt.Printf("Edge:      %.2f%%   Combined: %.4f\n", opp.EdgePct, opp.CombinedPrice)
	fmt.Printf("Confidence: %.2f   Derived: %v\n", opp.Confidence, opp.Derived)
	fmt.Printf("%s (%s): buy %-3s  %q\n", opp.VenueA, opp.MarketIDA, buyA, opp.TitleA)
	fmt.Printf("%s (%s): buy %-3s  %q\n", opp.VenueB, opp.MarketIDB, buyB, opp.TitleB)
	if opp.HasAskSize {
		fmt.Printf("Min ask size: %.2f\n", opp.AskSizeMin)
	}
	fmt.Printf("First seen: %s   Last seen: %s\n", opp.FirstSeenAt.Format("2006-01-02 15:04:05"), opp.LastSeenAt.Format("2006-01-02 15:04:05"))
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	return nil
}
