package venue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/mselser95/arb-scanner/pkg/cache"
	"github.com/mselser95/arb-scanner/pkg/types"
	"github.com/mselser95/arb-scanner/pkg/websocket"
	"go.uber.org/zap"
)

const polyCacheKey = "catalog"

// gammaMarket mirrors the shape of one element of Polymarket's Gamma API
// /markets response. outcomePrices and clobTokenIds arrive as JSON-encoded
// strings, not native arrays.
type gammaMarket struct {
	ConditionID   string `json:"conditionId"`
	Question      string `json:"question"`
	Slug          string `json:"slug"`
	Active        bool   `json:"active"`
	Closed        bool   `json:"closed"`
	Liquidity     string `json:"liquidity"`
	Volume24hr    string `json:"volume24hr"`
	EndDate       string `json:"endDate"`
	OutcomePrices string `json:"outcomePrices"`
	ClobTokenIDs  string `json:"clobTokenIds"`
}

// PolyAdapter talks to Polymarket's Gamma REST API for catalog data and its
// CLOB WebSocket for realtime top-of-book, subscribed by lists of each
// market's YES and NO outcome-token asset IDs.
type PolyAdapter struct {
	cfg        Config
	httpClient *http.Client
	cache      cache.Cache
	logger     *zap.Logger
	codec      *polyCodec
	pool       *websocket.Pool
	wsURL      string
}

// NewPolyAdapter builds a Polymarket adapter. wsURL is the CLOB WebSocket
// endpoint; an empty value disables realtime subscription.
func NewPolyAdapter(cfg Config, wsURL string) *PolyAdapter {
	c, _ := cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 1e4,
		MaxCost:     1 << 20,
		BufferItems: 64,
		Logger:      cfg.logger(),
	})

	return &PolyAdapter{
		cfg:        cfg,
		httpClient: newHTTPClient(15 * time.Second),
		cache:      c,
		logger:     cfg.logger(),
		codec:      newPolyCodec(),
		wsURL:      wsURL,
	}
}

func (a *PolyAdapter) Venue() types.Venue { return types.VenuePoly }

func (a *PolyAdapter) ListMarkets(ctx context.Context, status string) ([]*types.MarketSnapshot, error) {
	start := time.Now()
	defer func() {
		ListMarketsDurationSeconds.WithLabelValues(string(types.VenuePoly)).Observe(time.Since(start).Seconds())
	}()

	snapshots, err := a.fetchAll(ctx, status)
	if err != nil {
		ListMarketsErrorsTotal.WithLabelValues(string(types.VenuePoly), errKind(err)).Inc()
		if cached, ok := a.cache.Get(polyCacheKey); ok {
			CacheServedTotal.WithLabelValues(string(types.VenuePoly)).Inc()
			return cached.([]*types.MarketSnapshot), nil
		}
		return nil, err
	}

	a.cache.Set(polyCacheKey, snapshots, a.cfg.cacheTTL())
	CatalogSize.WithLabelValues(string(types.VenuePoly)).Set(float64(len(snapshots)))

	return snapshots, nil
}

func (a *PolyAdapter) fetchAll(ctx context.Context, status string) ([]*types.MarketSnapshot, error) {
	const pageSize = 100
	const maxPages = 20

	closed := "false"
	active := "true"
	if status == "closed" {
		closed, active = "true", "false"
	}

	var out []*types.MarketSnapshot
	offset := 0

	for page := 0; page < maxPages; page++ {
		params := url.Values{}
		params.Set("closed", closed)
		params.Set("active", active)
		params.Set("limit", strconv.Itoa(pageSize))
		params.Set("offset", strconv.Itoa(offset))
		params.Set("order", "volume24hr")
		params.Set("ascending", "false")

		reqURL := fmt.Sprintf("%s/markets?%s", a.cfg.BaseURL, params.Encode())

		body, err := fetchJSON(ctx, a.httpClient, types.VenuePoly, "list_markets", reqURL, nil)
		if err != nil {
			return nil, err
		}

		var raw []gammaMarket
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, &types.VenueError{Kind: types.ErrParse, Venue: types.VenuePoly, Op: "list_markets", Err: err}
		}

		for i := range raw {
			if snap := a.toSnapshot(&raw[i]); snap != nil {
				out = append(out, snap)
			}
		}

		if len(raw) < pageSize {
			break
		}
		offset += pageSize
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Volume24hUSD > out[j].Volume24hUSD })

	return out, nil
}

func (a *PolyAdapter) toSnapshot(m *gammaMarket) *types.MarketSnapshot {
	var tokenIDs []string
	var prices []string
	_ = json.Unmarshal([]byte(m.ClobTokenIDs), &tokenIDs)
	_ = json.Unmarshal([]byte(m.OutcomePrices), &prices)

	if len(prices) < 2 || m.ConditionID == "" {
		return nil
	}

	// First is YES, second is NO (spec §6 positional convention).
	yesAsk, err1 := strconv.ParseFloat(prices[0], 64)
	noAsk, err2 := strconv.ParseFloat(prices[1], 64)
	if err1 != nil || err2 != nil {
		return nil
	}

	liquidity, _ := strconv.ParseFloat(m.Liquidity, 64)
	volume, _ := strconv.ParseFloat(m.Volume24hr, 64)
	endTime, _ := time.Parse(time.RFC3339, m.EndDate)

	snap := &types.MarketSnapshot{
		Venue:         types.VenuePoly,
		VenueMarketID: m.ConditionID,
		Title:         m.Question,
		YesAsk:        yesAsk,
		NoAsk:         noAsk,
		LiquidityUSD:  liquidity,
		Volume24hUSD:  volume,
		EndTime:       endTime,
		URL:           "https://polymarket.com/event/" + m.Slug,
	}

	if len(tokenIDs) >= 2 {
		a.codec.register(m.ConditionID, tokenIDs[0], tokenIDs[1])
	}

	return snap
}

func (a *PolyAdapter) Subscribe(ctx context.Context, marketIDs []string, onUpdate func(*types.QuoteUpdate)) error {
	if a.wsURL == "" {
		return &types.VenueError{Kind: types.ErrNetworkUnavailable, Venue: types.VenuePoly, Op: "subscribe", Err: fmt.Errorf("no websocket endpoint configured")}
	}

	if a.pool == nil {
		a.pool = websocket.NewPool(websocket.PoolConfig{
			Size:                  6,
			Venue:                 types.VenuePoly,
			WSUrl:                 a.wsURL,
			Codec:                 a.codec,
			DialTimeout:           10 * time.Second,
			PongTimeout:           30 * time.Second,
			PingInterval:          15 * time.Second,
			ReconnectInitialDelay: time.Second,
			ReconnectMaxDelay:     60 * time.Second,
			ReconnectBackoffMult:  2.0,
			MessageBufferSize:     256,
			Logger:                a.logger,
		})
		if err := a.pool.Start(); err != nil {
			return &types.VenueError{Kind: types.ErrNetworkUnavailable, Venue: types.VenuePoly, Op: "subscribe", Err: err}
		}
		go a.drain(onUpdate)
	}

	return a.pool.Subscribe(ctx, marketIDs)
}

func (a *PolyAdapter) drain(onUpdate func(*types.QuoteUpdate)) {
	for u := range a.pool.MessageChan() {
		onUpdate(u)
	}
}

func (a *PolyAdapter) Close() error {
	if a.pool != nil {
		return a.pool.Close()
	}
	a.cache.Close()
	return nil
}

func errKind(err error) string {
	var verr *types.VenueError
	if errors.As(err, &verr) {
		return string(verr.Kind)
	}
	return "unknown"
}
