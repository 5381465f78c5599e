package websocket

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mselser95/arb-scanner/pkg/types"
	"go.uber.org/zap"
)

// Manager manages a single WebSocket connection to one venue's realtime
// feed. The wire shape (subscribe frame, unsubscribe frame, inbound
// parsing) is supplied by a Codec so the connection/reconnect/ping
// machinery stays venue-agnostic.
type Manager struct {
	url             string
	venue           types.Venue
	codec           Codec
	conn            *websocket.Conn
	logger          *zap.Logger
	reconnectMgr    *ReconnectManager
	config          Config
	messageChan     chan *types.QuoteUpdate
	ctx             context.Context
	cancel          context.CancelFunc
	wg              sync.WaitGroup
	mu              sync.RWMutex
	subscribed      map[string]bool // tracks subscribed venue market IDs
	connected       atomic.Bool
	lastPongTime    atomic.Int64
	connectionStart atomic.Int64 // Unix timestamp of connection start
}

// Config holds WebSocket manager configuration.
type Config struct {
	URL                   string
	Venue                 types.Venue
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

// New creates a new WebSocket manager for one venue connection.
func New(cfg Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	reconnectCfg := ReconnectConfig{
		InitialDelay:      cfg.ReconnectInitialDelay,
		MaxDelay:          cfg.ReconnectMaxDelay,
		BackoffMultiplier: cfg.ReconnectBackoffMult,
		JitterPercent:     0.2,
	}

	return &Manager{
		url:          cfg.URL,
		venue:        cfg.Venue,
		codec:        cfg.Codec,
		logger:       cfg.Logger,
		reconnectMgr: NewReconnectManagerForVenue(reconnectCfg, cfg.Logger, string(cfg.Venue)),
		config:       cfg,
		messageChan:  make(chan *types.QuoteUpdate, cfg.MessageBufferSize),
		ctx:          ctx,
		cancel:       cancel,
		subscribed:   make(map[string]bool),
	}
}

// Start starts the WebSocket manager.
func (m *Manager) Start() error {
	m.logger.Info("websocket-manager-starting", zap.String("url", m.url))

	err := m.connect(m.ctx)
	if err != nil {
		return fmt.Errorf("initial connection: %w", err)
	}

	m.wg.Add(3)
	go m.readLoop()
	go m.pingLoop()
	go m.reconnectLoop()

	return nil
}

// connect establishes a WebSocket connection.
func (m *Manager) connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: m.config.DialTimeout,
	}

	m.logger.Info("connecting-to-websocket", zap.String("url", m.url))

	conn, _, err := dialer.DialContext(ctx, m.url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	conn.SetPongHandler(func(string) error {
		m.lastPongTime.Store(time.Now().Unix())
		return nil
	})

	m.mu.Lock()
	m.conn = conn
	m.mu.Unlock()

	now := time.Now()
	m.connected.Store(true)
	m.lastPongTime.Store(now.Unix())
	m.connectionStart.Store(now.Unix())
	ActiveConnections.WithLabelValues(string(m.venue)).Set(1)

	m.logger.Info("websocket-connected")

	return nil
}

// Subscribe subscribes to a list of venue market IDs.
func (m *Manager) Subscribe(ctx context.Context, marketIDs []string) error {
	if len(marketIDs) == 0 {
		return nil
	}

	m.mu.Lock()

	newIDs := make([]string, 0, len(marketIDs))
	for _, id := range marketIDs {
		if !m.subscribed[id] {
			newIDs = append(newIDs, id)
			m.subscribed[id] = true
		}
	}

	if len(newIDs) == 0 {
		m.mu.Unlock()
		m.logger.Debug("all-markets-already-subscribed")
		return nil
	}

	initial := len(m.subscribed) == len(newIDs)
	subscribeMsg := m.codec.BuildSubscribe(newIDs, initial)
	totalSubscribed := len(m.subscribed)
	m.mu.Unlock()

	err := m.conn.WriteJSON(subscribeMsg)
	if err != nil {
		m.mu.Lock()
		for _, id := range newIDs {
			delete(m.subscribed, id)
		}
		totalSubscribed = len(m.subscribed)
		m.mu.Unlock()

		SubscriptionCount.WithLabelValues(string(m.venue)).Set(float64(totalSubscribed))
		return fmt.Errorf("write subscribe message: %w", err)
	}

	SubscriptionCount.WithLabelValues(string(m.venue)).Set(float64(totalSubscribed))

	m.logger.Info("subscribed-to-markets",
		zap.Int("new-count", len(newIDs)),
		zap.Int("total-count", totalSubscribed))

	return nil
}

// Unsubscribe unsubscribes from a list of venue market IDs.
func (m *Manager) Unsubscribe(ctx context.Context, marketIDs []string) (err error) {
	if len(marketIDs) == 0 {
		return nil
	}

	m.mu.Lock()

	toRemove := make([]string, 0, len(marketIDs))
	for _, id := range marketIDs {
		if m.subscribed[id] {
			toRemove = append(toRemove, id)
			delete(m.subscribed, id)
		}
	}

	if len(toRemove) == 0 {
		m.mu.Unlock()
		m.logger.Debug("no-markets-to-unsubscribe")
		return nil
	}

	unsubscribeMsg := m.codec.BuildUnsubscribe(toRemove)
	totalSubscribed := len(m.subscribed)
	m.mu.Unlock()

	err = m.conn.WriteJSON(unsubscribeMsg)
	if err != nil {
		m.mu.Lock()
		for _, id := range toRemove {
			m.subscribed[id] = true
		}
		totalSubscribed = len(m.subscribed)
		m.mu.Unlock()

		SubscriptionCount.WithLabelValues(string(m.venue)).Set(float64(totalSubscribed))
		return fmt.Errorf("write unsubscribe message: %w", err)
	}

	SubscriptionCount.WithLabelValues(string(m.venue)).Set(float64(totalSubscribed))
	UnsubscriptionsTotal.WithLabelValues(string(m.venue)).Inc()

	m.logger.Info("unsubscribed-from-markets",
		zap.Int("count", len(toRemove)),
		zap.Int("remaining-count", totalSubscribed))

	return nil
}

// readLoop reads frames from the WebSocket and decodes them via the codec.
func (m *Manager) readLoop() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		m.mu.RLock()
		conn := m.conn
		m.mu.RUnlock()

		if conn == nil {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			m.logger.Warn("read-error", zap.Error(err))

			startTime := m.connectionStart.Load()
			if startTime > 0 {
				duration := time.Since(time.Unix(startTime, 0)).Seconds()
				ConnectionDuration.WithLabelValues(string(m.venue)).Observe(duration)
			}

			m.connected.Store(false)
			ActiveConnections.WithLabelValues(string(m.venue)).Set(0)
			return
		}

		start := time.Now()
		updates, heartbeat, err := m.codec.Parse(message)
		if err != nil {
			if heartbeat {
				m.logger.Debug("websocket-heartbeat-received", zap.Int("bytes", len(message)))
				continue
			}

			previewLen := len(message)
			if previewLen > 100 {
				previewLen = 100
			}
			m.logger.Debug("websocket-unparseable-message",
				zap.Error(err),
				zap.Int("bytes", len(message)),
				zap.String("preview", string(message[:previewLen])))
			continue
		}

		MessagesReceivedTotal.WithLabelValues(string(m.venue)).Inc()

		for _, u := range updates {
			select {
			case m.messageChan <- u:
			default:
				m.logger.Warn("message-channel-full", zap.String("market-id", u.VenueMarketID))
				MessagesDroppedTotal.WithLabelValues(string(m.venue), "channel_full").Inc()
			}
		}

		MessageLatencySeconds.WithLabelValues(string(m.venue)).Observe(time.Since(start).Seconds())
	}
}

// pingLoop sends periodic PING control frames.
func (m *Manager) pingLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			if !m.connected.Load() {
				continue
			}

			m.mu.RLock()
			conn := m.conn
			m.mu.RUnlock()

			if conn == nil {
				continue
			}

			err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(time.Second))
			if err != nil {
				m.logger.Warn("ping-error", zap.Error(err))
			}
		}
	}
}

// reconnectLoop handles reconnection when the connection drops.
func (m *Manager) reconnectLoop() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		if m.connected.Load() {
			time.Sleep(time.Second)
			continue
		}

		m.logger.Warn("connection-lost-initiating-reconnect")

		err := m.reconnectMgr.Reconnect(m.ctx, m.connect)
		if err != nil {
			if err == context.Canceled {
				return
			}
			m.logger.Error("reconnection-failed", zap.Error(err))
			continue
		}

		err = m.resubscribeAll(m.ctx)
		if err != nil {
			m.logger.Error("resubscribe-failed", zap.Error(err))
			m.connected.Store(false)
			continue
		}

		m.logger.Info("reconnection-complete-restarting-read-loop")

		m.wg.Add(1)
		go m.readLoop()
	}
}

// resubscribeAll resubscribes to all previously subscribed markets.
func (m *Manager) resubscribeAll(ctx context.Context) error {
	m.mu.RLock()
	ids := make([]string, 0, len(m.subscribed))
	for id := range m.subscribed {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	if len(ids) == 0 {
		return nil
	}

	subscribeMsg := m.codec.BuildSubscribe(ids, true)

	m.mu.RLock()
	err := m.conn.WriteJSON(subscribeMsg)
	m.mu.RUnlock()

	if err != nil {
		return fmt.Errorf("write resubscribe message: %w", err)
	}

	m.logger.Info("resubscribed-to-all-markets", zap.Int("count", len(ids)))

	return nil
}

// MessageChan returns the channel for receiving quote updates.
func (m *Manager) MessageChan() <-chan *types.QuoteUpdate {
	return m.messageChan
}

// Close gracefully closes the WebSocket manager.
func (m *Manager) Close() error {
	m.logger.Info("closing-websocket-manager")

	m.cancel()

	m.mu.RLock()
	if m.conn != nil {
		m.conn.Close()
	}
	m.mu.RUnlock()

	m.wg.Wait()

	close(m.messageChan)

	ActiveConnections.WithLabelValues(string(m.venue)).Set(0)

	m.logger.Info("websocket-manager-closed")

	return nil
}
