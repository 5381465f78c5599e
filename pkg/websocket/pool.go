package websocket

import (
	"context"
	"fmt"
	"hash/crc32"
	"reflect"
	"sync"
	"time"

	"github.com/mselser95/arb-scanner/pkg/types"
	"go.uber.org/zap"
)

// PoolConfig holds WebSocket pool configuration for one venue.
type PoolConfig struct {
	Size                  int // Number of WebSocket connections (venues cap subscriptions per connection)
	Venue                 types.Venue
	WSUrl                 string
	Codec                 Codec
	DialTimeout           time.Duration
	PongTimeout           time.Duration
	PingInterval          time.Duration
	ReconnectInitialDelay time.Duration
	ReconnectMaxDelay     time.Duration
	ReconnectBackoffMult  float64
	MessageBufferSize     int
	Logger                *zap.Logger
}

// Pool manages multiple WebSocket connections to the same venue for load
// distribution, e.g. when a venue caps subscriptions per connection.
type Pool struct {
	cfg                PoolConfig
	managers           []*Manager
	marketToIndex      map[string]int
	totalSubscriptions int
	mu                 sync.RWMutex
	messageChan        chan *types.QuoteUpdate
	ctx                context.Context
	cancel             context.CancelFunc
	wg                 sync.WaitGroup
	logger             *zap.Logger
}

// NewPool creates a new WebSocket connection pool for one venue.
func NewPool(cfg PoolConfig) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	messageBufferSize := cfg.Size * cfg.MessageBufferSize

	pool := &Pool{
		cfg:           cfg,
		managers:      make([]*Manager, cfg.Size),
		marketToIndex: make(map[string]int),
		messageChan:   make(chan *types.QuoteUpdate, messageBufferSize),
		ctx:           ctx,
		cancel:        cancel,
		logger:        cfg.Logger,
	}

	for i := range cfg.Size {
		managerCfg := Config{
			URL:                   cfg.WSUrl,
			Venue:                 cfg.Venue,
			Codec:                 cfg.Codec,
			DialTimeout:           cfg.DialTimeout,
			PongTimeout:           cfg.PongTimeout,
			PingInterval:          cfg.PingInterval,
			ReconnectInitialDelay: cfg.ReconnectInitialDelay,
			ReconnectMaxDelay:     cfg.ReconnectMaxDelay,
			ReconnectBackoffMult:  cfg.ReconnectBackoffMult,
			MessageBufferSize:     cfg.MessageBufferSize,
			Logger:                cfg.Logger.With(zap.Int("manager-id", i)),
		}

		pool.managers[i] = New(managerCfg)
	}

	return pool
}

// Start starts all WebSocket managers in the pool.
func (p *Pool) Start() error {
	p.logger.Info("websocket-pool-starting", zap.String("venue", string(p.cfg.Venue)), zap.Int("pool-size", p.cfg.Size))

	errChan := make(chan error, p.cfg.Size)
	var startWg sync.WaitGroup

	for i, mgr := range p.managers {
		startWg.Add(1)
		go func(index int, manager *Manager) {
			defer startWg.Done()

			err := manager.Start()
			if err != nil {
				p.logger.Error("manager-start-failed",
					zap.Int("manager-id", index),
					zap.Error(err))
				errChan <- fmt.Errorf("manager %d start failed: %w", index, err)
			}
		}(i, mgr)
	}

	startWg.Wait()
	close(errChan)

	var startErrors []error
	for err := range errChan {
		startErrors = append(startErrors, err)
	}

	if len(startErrors) > 0 {
		return fmt.Errorf("failed to start %d managers: %v", len(startErrors), startErrors)
	}

	p.wg.Add(1)
	go p.multiplexMessages()

	PoolActiveConnections.WithLabelValues(string(p.cfg.Venue)).Set(float64(p.cfg.Size))

	p.logger.Info("websocket-pool-started", zap.Int("active-managers", p.cfg.Size))

	return nil
}

// Subscribe distributes market subscriptions across managers using
// hash-based sharding.
func (p *Pool) Subscribe(ctx context.Context, marketIDs []string) error {
	if len(marketIDs) == 0 {
		return nil
	}

	byManager := make(map[int][]string)
	newCount := 0

	p.mu.Lock()
	for _, id := range marketIDs {
		if _, exists := p.marketToIndex[id]; exists {
			continue
		}

		idx := p.getManagerIndex(id)
		p.marketToIndex[id] = idx
		byManager[idx] = append(byManager[idx], id)
		newCount++
	}
	p.mu.Unlock()

	errChan := make(chan error, len(byManager))
	var subWg sync.WaitGroup

	for idx, ids := range byManager {
		subWg.Add(1)
		go func(managerIdx int, marketIDs []string) {
			defer subWg.Done()

			err := p.managers[managerIdx].Subscribe(ctx, marketIDs)
			if err != nil {
				p.logger.Error("manager-subscribe-failed",
					zap.Int("manager-id", managerIdx),
					zap.Int("market-count", len(marketIDs)),
					zap.Error(err))
				errChan <- fmt.Errorf("manager %d subscribe failed: %w", managerIdx, err)
			}
		}(idx, ids)
	}

	subWg.Wait()
	close(errChan)

	var subscribeErrors []error
	for err := range errChan {
		subscribeErrors = append(subscribeErrors, err)
	}

	if len(subscribeErrors) > 0 {
		return fmt.Errorf("failed to subscribe on %d managers: %v", len(subscribeErrors), subscribeErrors)
	}

	p.mu.Lock()
	p.totalSubscriptions += newCount
	total := p.totalSubscriptions
	p.mu.Unlock()

	SubscriptionCount.WithLabelValues(string(p.cfg.Venue)).Set(float64(total))
	p.updateDistributionMetrics()

	p.logger.Info("pool-subscribed-to-markets",
		zap.Int("new-markets", newCount),
		zap.Int("total-subscriptions", total),
		zap.Int("managers-used", len(byManager)))

	return nil
}

// Unsubscribe removes market subscriptions from their assigned managers.
func (p *Pool) Unsubscribe(ctx context.Context, marketIDs []string) error {
	if len(marketIDs) == 0 {
		return nil
	}

	byManager := make(map[int][]string)
	removedCount := 0

	p.mu.Lock()
	for _, id := range marketIDs {
		if idx, exists := p.marketToIndex[id]; exists {
			byManager[idx] = append(byManager[idx], id)
			delete(p.marketToIndex, id)
			removedCount++
		}
	}
	p.mu.Unlock()

	errChan := make(chan error, len(byManager))
	var unsubWg sync.WaitGroup

	for idx, ids := range byManager {
		unsubWg.Add(1)
		go func(managerIdx int, marketIDs []string) {
			defer unsubWg.Done()

			err := p.managers[managerIdx].Unsubscribe(ctx, marketIDs)
			if err != nil {
				p.logger.Error("manager-unsubscribe-failed",
					zap.Int("manager-id", managerIdx),
					zap.Int("market-count", len(marketIDs)),
					zap.Error(err))
				errChan <- fmt.Errorf("manager %d unsubscribe failed: %w", managerIdx, err)
			}
		}(idx, ids)
	}

	unsubWg.Wait()
	close(errChan)

	var unsubscribeErrors []error
	for err := range errChan {
		unsubscribeErrors = append(unsubscribeErrors, err)
	}

	if len(unsubscribeErrors) > 0 {
		return fmt.Errorf("failed to unsubscribe on %d managers: %v", len(unsubscribeErrors), unsubscribeErrors)
	}

	p.mu.Lock()
	p.totalSubscriptions -= removedCount
	total := p.totalSubscriptions
	p.mu.Unlock()

	SubscriptionCount.WithLabelValues(string(p.cfg.Venue)).Set(float64(total))

	p.logger.Info("pool-unsubscribed-from-markets",
		zap.Int("removed-markets", removedCount),
		zap.Int("total-subscriptions", total),
		zap.Int("managers-used", len(byManager)))

	return nil
}

// MessageChan returns the multiplexed quote update channel for this venue.
func (p *Pool) MessageChan() <-chan *types.QuoteUpdate {
	return p.messageChan
}

// Close gracefully closes all WebSocket managers in the pool.
func (p *Pool) Close() error {
	p.logger.Info("closing-websocket-pool", zap.String("venue", string(p.cfg.Venue)))

	p.cancel()

	var closeWg sync.WaitGroup
	for i, mgr := range p.managers {
		closeWg.Add(1)
		go func(index int, manager *Manager) {
			defer closeWg.Done()

			err := manager.Close()
			if err != nil {
				p.logger.Error("manager-close-failed",
					zap.Int("manager-id", index),
					zap.Error(err))
			}
		}(i, mgr)
	}

	closeWg.Wait()
	p.wg.Wait()
	close(p.messageChan)

	PoolActiveConnections.WithLabelValues(string(p.cfg.Venue)).Set(0)

	p.logger.Info("websocket-pool-closed")

	return nil
}

// multiplexMessages receives quote updates from all managers and forwards
// them to the pool's single output channel.
func (p *Pool) multiplexMessages() {
	defer p.wg.Done()

	cases := make([]reflect.SelectCase, len(p.managers)+1)

	cases[0] = reflect.SelectCase{
		Dir:  reflect.SelectRecv,
		Chan: reflect.ValueOf(p.ctx.Done()),
	}

	for i, mgr := range p.managers {
		cases[i+1] = reflect.SelectCase{
			Dir:  reflect.SelectRecv,
			Chan: reflect.ValueOf(mgr.MessageChan()),
		}
	}

	p.logger.Info("message-multiplexer-started", zap.Int("manager-count", len(p.managers)))

	for {
		chosen, value, ok := reflect.Select(cases)

		if chosen == 0 {
			p.logger.Info("message-multiplexer-stopped")
			return
		}

		if !ok {
			p.logger.Warn("manager-channel-closed", zap.Int("manager-id", chosen-1))
			cases[chosen].Chan = reflect.ValueOf(make(chan *types.QuoteUpdate))
			continue
		}

		update, ok := value.Interface().(*types.QuoteUpdate)
		if !ok {
			p.logger.Error("invalid-message-type",
				zap.Int("manager-id", chosen-1),
				zap.String("type", fmt.Sprintf("%T", value.Interface())))
			continue
		}

		select {
		case p.messageChan <- update:
		default:
			p.logger.Warn("dropped-message-from-multiplexer",
				zap.Int("manager-id", chosen-1),
				zap.String("market-id", update.VenueMarketID))
		}
	}
}

// getManagerIndex calculates the manager index for a market ID using a
// CRC32 hash. Must be called with p.mu held.
func (p *Pool) getManagerIndex(marketID string) int {
	hash := crc32.ChecksumIEEE([]byte(marketID))
	return int(hash) % p.cfg.Size
}

// updateDistributionMetrics updates Prometheus metrics for subscription
// distribution across this venue's connections.
func (p *Pool) updateDistributionMetrics() {
	subscriptionsPerManager := make(map[int]int)

	p.mu.RLock()
	for _, idx := range p.marketToIndex {
		subscriptionsPerManager[idx]++
	}
	p.mu.RUnlock()

	for _, count := range subscriptionsPerManager {
		PoolSubscriptionDistribution.WithLabelValues(string(p.cfg.Venue)).Observe(float64(count))
	}
}
