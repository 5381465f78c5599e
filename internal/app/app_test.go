package app

import (
	"testing"

	"github.com/mselser95/arb-scanner/pkg/config"
	"go.uber.org/zap"
)

func minimalTestConfig() *config.Config {
	return &config.Config{
		LogLevel:         "error",
		HTTPPort:         "0",
		SubscriptionTopN: 10,
		Arbitrage: config.ArbitrageConfig{
			MinArbitrageThreshold: 2.0,
			ScanIntervalSeconds:   15,
			CooldownMinutes:       5,
			TradingFee:            0.005,
			DerivedPenaltyPct:     1.0,
			MaxEndTimeGapDays:     30,
		},
		Matcher: config.MatcherConfig{DefaultThreshold: 0.45},
		Venues: map[string]config.Venue{
			"poly":   {Enabled: true, BaseURL: "https://gamma-api.polymarket.com"},
			"kalshi": {Enabled: true, BaseURL: "https://trading-api.kalshi.com"},
		},
	}
}

func TestNew_WiresEveryComponentWithoutError(t *testing.T) {
	logger := zap.NewNop()

	application, err := New(minimalTestConfig(), logger, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if application.orchestrator == nil {
		t.Error("expected a non-nil orchestrator")
	}
	if application.httpServer == nil {
		t.Error("expected a non-nil http server")
	}
	if application.healthChecker == nil {
		t.Error("expected a non-nil health checker")
	}
}

func TestNew_RejectsUnknownVenueKey(t *testing.T) {
	cfg := minimalTestConfig()
	cfg.Venues["unknown-venue"] = config.Venue{Enabled: true, BaseURL: "https://example.com"}

	if _, err := New(cfg, zap.NewNop(), nil); err == nil {
		t.Fatal("expected an error for an unrecognized venue key")
	}
}

func TestAbsentScanBudget_ScalesWithInterval(t *testing.T) {
	cfg := minimalTestConfig()
	cfg.Arbitrage.ScanIntervalSeconds = 30

	if got := absentScanBudget(cfg); got != 10 {
		t.Errorf("expected a 30s interval to budget 10 scans for ~5 minutes, got %d", got)
	}
}

func TestAbsentScanBudget_FloorsAtOne(t *testing.T) {
	cfg := minimalTestConfig()
	cfg.Arbitrage.ScanIntervalSeconds = 10 * 60

	if got := absentScanBudget(cfg); got != 1 {
		t.Errorf("expected an interval longer than the budget window to floor at 1, got %d", got)
	}
}

func TestAbsentScanBudget_ZeroIntervalUsesStoreDefault(t *testing.T) {
	cfg := minimalTestConfig()
	cfg.Arbitrage.ScanIntervalSeconds = 0

	if got := absentScanBudget(cfg); got != 0 {
		t.Errorf("expected a zero interval to request the Store's own default, got %d", got)
	}
}
