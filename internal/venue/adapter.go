// Package venue translates each platform's REST and WebSocket surface into
// the common MarketSnapshot / QuoteUpdate vocabulary the matcher, evaluator,
// and scan orchestrator share. Every adapter owns its own auth header,
// pagination scheme, and status vocabulary; none of that leaks past this
// package.
package venue

import (
	"context"
	"time"

	"github.com/mselser95/arb-scanner/pkg/types"
	"go.uber.org/zap"
)

// Adapter is the contract one venue implementation must satisfy.
type Adapter interface {
	Venue() types.Venue

	// ListMarkets fetches the venue's catalog, walking pagination until
	// exhausted or a page cap is hit, ordered by 24h volume descending.
	// Returns a cached result (not an error) on transient failure if a
	// cache exists; otherwise returns a *types.VenueError.
	ListMarkets(ctx context.Context, status string) ([]*types.MarketSnapshot, error)

	// Subscribe opens (or reuses) a realtime connection and invokes
	// onUpdate for every QuoteUpdate touching marketIDs. Subsequent calls
	// add only the ids not already subscribed; ids left out of a later call
	// stay subscribed (nothing is unsubscribed). A venue with no realtime
	// capability returns a *types.VenueError with ErrNetworkUnavailable.
	Subscribe(ctx context.Context, marketIDs []string, onUpdate func(*types.QuoteUpdate)) error

	// Close releases any connections and background workers.
	Close() error
}

// Config is the common shape every adapter constructor accepts. Venues that
// need no key leave APIKey empty.
type Config struct {
	BaseURL      string
	APIKey       string
	CacheSeconds int
	Logger       *zap.Logger
}

func (c Config) cacheTTL() time.Duration {
	if c.CacheSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.CacheSeconds) * time.Second
}

func (c Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
