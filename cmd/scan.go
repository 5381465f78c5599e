package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mselser95/arb-scanner/internal/arbitrage"
	"github.com/mselser95/arb-scanner/internal/matcher"
	"github.com/mselser95/arb-scanner/internal/notify"
	"github.com/mselser95/arb-scanner/pkg/config"
	"github.com/mselser95/arb-scanner/pkg/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const scanFetchTimeout = 20 * time.Second

//nolint:gochecknoglobals // Cobra boilerplate
var singleMarket string

//nolint:gochecknoglobals // Cobra boilerplate
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a single scan cycle and print any opportunities found",
	Long: `Fetches every enabled venue's catalog once, matches equivalent
markets across venues, evaluates each matched pair, and prints any
arbitrage opportunity found. Does not start the dashboard or the
periodic scan loop.

Use --single-market VENUE:MARKET_ID to restrict one venue's catalog to
a single market, for manually verifying a specific pairing.`,
	RunE: runScan,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVar(&singleMarket, "single-market", "", "restrict one venue's catalog to VENUE:MARKET_ID for debugging")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	adapters, err := buildVenueRegistry(cfg, logger)
	if err != nil {
		return fmt.Errorf("build venue registry: %w", err)
	}

	mm, err := config.LoadManualMappings(cfg.ManualMappingsFile)
	if err != nil {
		return fmt.Errorf("load manual mappings: %w", err)
	}

	mtcher := matcher.New(matcher.Config{
		DefaultThreshold: cfg.Matcher.DefaultThreshold,
		Thresholds:       cfg.Matcher.Thresholds,
	}, logger)

	evalCfg := arbitrage.Config{
		ThresholdPct:      cfg.Arbitrage.MinArbitrageThreshold,
		FeePerLeg:         cfg.Arbitrage.TradingFee,
		DerivedPenaltyPct: cfg.Arbitrage.DerivedPenaltyPct,
		MaxEndTimeGap:     cfg.Arbitrage.MaxEndTimeGap(),
	}

	filterVenue, filterMarketID, err := parseSingleMarket(singleMarket)
	if err != nil {
		return err
	}

	byVenue := make(map[types.Venue][]*types.MarketSnapshot, len(adapters))
	for v, adapter := range adapters {
		ctx, cancel := context.WithTimeout(context.Background(), scanFetchTimeout)
		snaps, err := adapter.ListMarkets(ctx, "active")
		cancel()
		if err != nil {
			logger.Warn("scan-venue-fetch-failed", zap.String("venue", string(v)), zap.Error(err))
			continue
		}
		if v == filterVenue && filterMarketID != "" {
			snaps = filterByMarketID(snaps, filterMarketID)
		}
		byVenue[v] = snaps
	}

	pairs := matchAllVenuePairs(mtcher, byVenue, mm)

	consoleSink := notify.NewConsoleSink(logger)
	found := 0
	for _, p := range pairs {
		opp := arbitrage.Evaluate(p, evalCfg)
		if opp == nil {
			continue
		}
		found++
		_ = consoleSink.Notify(context.Background(), opp)
	}

	if found == 0 {
		fmt.Println("no arbitrage opportunities found this scan")
	}
	return nil
}

func parseSingleMarket(spec string) (types.Venue, string, error) {
	if spec == "" {
		return "", "", nil
	}
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("--single-market must be VENUE:MARKET_ID, got %q", spec)
	}
	return types.Venue(strings.ToUpper(parts[0])), parts[1], nil
}

func filterByMarketID(snaps []*types.MarketSnapshot, marketID string) []*types.MarketSnapshot {
	for _, s := range snaps {
		if s.VenueMarketID == marketID {
			return []*types.MarketSnapshot{s}
		}
	}
	return nil
}

// matchAllVenuePairs mirrors internal/scan.Orchestrator.matchAll for a
// one-shot, non-looping scan.
func matchAllVenuePairs(m *matcher.Matcher, byVenue map[types.Venue][]*types.MarketSnapshot, mm []types.ManualMapping) []types.MatchPair {
	venues := make([]types.Venue, 0, len(byVenue))
	for v, snaps := range byVenue {
		if len(snaps) > 0 {
			venues = append(venues, v)
		}
	}
	sort.Slice(venues, func(i, j int) bool { return venues[i] < venues[j] })

	var pairs []types.MatchPair
	for i := 0; i < len(venues); i++ {
		for j := i + 1; j < len(venues); j++ {
			a, b := venues[i], venues[j]
			pairs = append(pairs, m.Match(byVenue[a], byVenue[b], mm)...)
		}
	}
	return pairs
}
