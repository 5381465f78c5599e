// Package notify deduplicates opportunity events by (marketA, marketB,
// direction) within a cooldown window and forwards surviving events to a
// list of best-effort sinks (spec §4.7).
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/mselser95/arb-scanner/internal/arbitrage"
	"go.uber.org/zap"
)

const defaultCooldown = 5 * time.Minute

// Sink is anything that can deliver a formatted opportunity alert. A sink
// failure is logged and does not retry -- the next scan presents the
// opportunity again once cooldown expires (spec §4.7).
type Sink interface {
	Name() string
	Notify(ctx context.Context, opp *arbitrage.Opportunity) error
}

// Broker applies the cooldown/dedup policy and fans out to every sink.
type Broker struct {
	sinks    []Sink
	cooldown time.Duration
	logger   *zap.Logger

	mu           sync.Mutex
	lastNotified map[string]time.Time
}

// Config holds Broker construction parameters.
type Config struct {
	Sinks    []Sink
	Cooldown time.Duration // 0 uses defaultCooldown
	Logger   *zap.Logger
}

// New builds a Broker.
func New(cfg Config) *Broker {
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broker{
		sinks:        cfg.Sinks,
		cooldown:     cooldown,
		logger:       logger,
		lastNotified: make(map[string]time.Time),
	}
}

// Notify applies the cooldown check for opp.Key() and, if it clears,
// dispatches to every sink concurrently. Sinks never block each other.
func (b *Broker) Notify(ctx context.Context, opp *arbitrage.Opportunity) {
	key := opp.Key()

	b.mu.Lock()
	last, seen := b.lastNotified[key]
	now := time.Now()
	if seen && now.Sub(last) < b.cooldown {
		b.mu.Unlock()
		SuppressedTotal.Inc()
		return
	}
	b.lastNotified[key] = now
	b.mu.Unlock()

	opp.LastNotified = now

	var wg sync.WaitGroup
	for _, sink := range b.sinks {
		wg.Add(1)
		go func(s Sink) {
			defer wg.Done()
			if err := s.Notify(ctx, opp); err != nil {
				DispatchErrorsTotal.WithLabelValues(s.Name()).Inc()
				b.logger.Warn("notify-sink-failed", zap.String("sink", s.Name()), zap.String("key", key), zap.Error(err))
				return
			}
			DispatchedTotal.WithLabelValues(s.Name()).Inc()
		}(sink)
	}
	wg.Wait()
}

// NotifyAll applies Notify to every opportunity in found, typically the
// newly-surfaced set the scan orchestrator or realtime hub identified.
func (b *Broker) NotifyAll(ctx context.Context, found []*arbitrage.Opportunity) {
	for _, opp := range found {
		b.Notify(ctx, opp)
	}
}
