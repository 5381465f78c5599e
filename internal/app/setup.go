package app

import (
	"context"
	"fmt"

	"github.com/mselser95/arb-scanner/internal/arbitrage"
	"github.com/mselser95/arb-scanner/internal/matcher"
	"github.com/mselser95/arb-scanner/internal/notify"
	"github.com/mselser95/arb-scanner/internal/realtime"
	"github.com/mselser95/arb-scanner/internal/scan"
	"github.com/mselser95/arb-scanner/internal/venue"
	"github.com/mselser95/arb-scanner/pkg/config"
	"github.com/mselser95/arb-scanner/pkg/healthprobe"
	"github.com/mselser95/arb-scanner/pkg/httpserver"
	"github.com/mselser95/arb-scanner/pkg/types"
	"go.uber.org/zap"
)

// venueNameToType maps a configuration file's lowercase venue key (spec
// §6: venues.poly, venues.kalshi, ...) to its wire-level identifier.
var venueNameToType = map[string]types.Venue{
	"poly":    types.VenuePoly,
	"kalshi":  types.VenueKalshi,
	"opinion": types.VenueOpinion,
	"predict": types.VenuePredict,
}

// New builds and wires every scanner component. Construction order
// matches each component's dependencies: adapters before the matcher
// result is usable, the store before the HTTP server that reads it
// through the StateProvider, the broker and HTTP server before the hub
// whose onChange callback uses them, and the orchestrator last since it
// drives the hub, store and broker.
func New(cfg *config.Config, logger *zap.Logger, opts *Options) (*App, error) {
	if opts == nil {
		opts = &Options{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := healthprobe.New()

	adapters, err := setupVenueAdapters(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup venue adapters: %w", err)
	}

	mm, err := config.LoadManualMappings(cfg.ManualMappingsFile)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("load manual mappings: %w", err)
	}

	mtcher := setupMatcher(cfg, logger)
	evalCfg := setupEvalConfig(cfg)
	store := scan.NewStoreWithRetention(absentScanBudget(cfg))

	broker := setupBroker(cfg, logger)

	httpSrv := setupHTTPServer(cfg, logger, healthChecker, store, cfg.Arbitrage.MinArbitrageThreshold)

	hub := realtime.NewHub(adapters, evalCfg, func(t realtime.Transition) {
		httpSrv.BroadcastOpportunityChange(t.Key, t.Rising, t.Opp)
		if t.Rising && t.Opp != nil {
			broker.Notify(ctx, t.Opp)
		}
	}, logger)

	orchestrator := scan.New(scan.Config{
		Adapters:         adapters,
		Matcher:          mtcher,
		EvalConfig:       evalCfg,
		ManualMappings:   mm,
		Interval:         cfg.Arbitrage.ScanInterval(),
		SubscriptionTopN: cfg.SubscriptionTopN,
		Hub:              hub,
		Store:            store,
		OnScanComplete: func(opps []*arbitrage.Opportunity) {
			httpSrv.BroadcastScanComplete()
			broker.NotifyAll(ctx, opps)
		},
		Logger: logger,
	})

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpSrv,
		orchestrator:  orchestrator,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func setupVenueAdapters(cfg *config.Config, logger *zap.Logger) (map[types.Venue]venue.Adapter, error) {
	vcfgs := make(map[types.Venue]venue.VenueConfig, len(cfg.Venues))
	for name, v := range cfg.Venues {
		vt, ok := venueNameToType[name]
		if !ok {
			return nil, fmt.Errorf("unknown venue %q in configuration", name)
		}
		vcfgs[vt] = venue.VenueConfig{
			Enabled:      v.Enabled,
			BaseURL:      v.BaseURL,
			APIKey:       v.APIKey,
			CacheSeconds: v.CacheSeconds,
			WSURL:        v.WSURL,
		}
	}
	return venue.BuildRegistry(vcfgs, logger), nil
}

func setupMatcher(cfg *config.Config, logger *zap.Logger) *matcher.Matcher {
	return matcher.New(matcher.Config{
		DefaultThreshold: cfg.Matcher.DefaultThreshold,
		Thresholds:       cfg.Matcher.Thresholds,
	}, logger)
}

func setupEvalConfig(cfg *config.Config) arbitrage.Config {
	return arbitrage.Config{
		ThresholdPct:      cfg.Arbitrage.MinArbitrageThreshold,
		FeePerLeg:         cfg.Arbitrage.TradingFee,
		DerivedPenaltyPct: cfg.Arbitrage.DerivedPenaltyPct,
		MaxEndTimeGap:     cfg.Arbitrage.MaxEndTimeGap(),
	}
}

// absentScanBudget sizes the opportunity store's absence-retention
// window to span roughly five minutes of scan ticks (spec §3), scaled
// by the configured scan interval rather than a fixed tick count.
func absentScanBudget(cfg *config.Config) int {
	interval := cfg.Arbitrage.ScanIntervalSeconds
	if interval <= 0 {
		return 0
	}
	budget := (5 * 60) / interval
	if budget < 1 {
		budget = 1
	}
	return budget
}

func setupBroker(cfg *config.Config, logger *zap.Logger) *notify.Broker {
	sinks := []notify.Sink{notify.NewConsoleSink(logger)}
	if cfg.Notification.Telegram.Enabled {
		sinks = append(sinks, notify.NewTelegramSink(notify.TelegramConfig{
			Enabled:  cfg.Notification.Telegram.Enabled,
			BotToken: cfg.Notification.Telegram.BotToken,
			ChatID:   cfg.Notification.Telegram.ChatID,
		}, logger))
	}
	return notify.New(notify.Config{
		Sinks:    sinks,
		Cooldown: cfg.Arbitrage.Cooldown(),
		Logger:   logger,
	})
}

func setupHTTPServer(cfg *config.Config, logger *zap.Logger, hc *healthprobe.HealthChecker, store *scan.Store, thresholdPct float64) *httpserver.Server {
	return httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: hc,
		Provider:      newStateProvider(store, thresholdPct),
	})
}
