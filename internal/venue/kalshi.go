package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/mselser95/arb-scanner/pkg/cache"
	"github.com/mselser95/arb-scanner/pkg/types"
	"github.com/mselser95/arb-scanner/pkg/websocket"
	"go.uber.org/zap"
)

const kalshiCacheKey = "catalog"

// kalshiMarket mirrors one element of Kalshi's /markets response. Unlike
// Polymarket, prices arrive inline with the catalog (spec §6) so no
// separate orderbook call is needed for the catalog snapshot.
type kalshiMarket struct {
	Ticker        string  `json:"ticker"`
	Title         string  `json:"title"`
	Status        string  `json:"status"`
	YesAskDollars float64 `json:"yes_ask_dollars"`
	NoAskDollars  float64 `json:"no_ask_dollars"`
	Liquidity     float64 `json:"liquidity"`
	Volume24h     float64 `json:"volume_24h"`
	CloseTime     string  `json:"close_time"`
}

type kalshiMarketsResponse struct {
	Markets []kalshiMarket `json:"markets"`
	Cursor  string         `json:"cursor"`
}

// KalshiAdapter talks to Kalshi's public markets API: cursor pagination up
// to 1000 per page, no authentication required (spec §6).
type KalshiAdapter struct {
	cfg        Config
	httpClient *http.Client
	cache      cache.Cache
	logger     *zap.Logger
	codec      *kalshiCodec
	pool       *websocket.Pool
	wsURL      string
}

func NewKalshiAdapter(cfg Config, wsURL string) *KalshiAdapter {
	c, _ := cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 1e4,
		MaxCost:     1 << 20,
		BufferItems: 64,
		Logger:      cfg.logger(),
	})

	return &KalshiAdapter{
		cfg:        cfg,
		httpClient: newHTTPClient(15 * time.Second),
		cache:      c,
		logger:     cfg.logger(),
		codec:      newKalshiCodec(),
		wsURL:      wsURL,
	}
}

func (a *KalshiAdapter) Venue() types.Venue { return types.VenueKalshi }

func (a *KalshiAdapter) ListMarkets(ctx context.Context, status string) ([]*types.MarketSnapshot, error) {
	start := time.Now()
	defer func() {
		ListMarketsDurationSeconds.WithLabelValues(string(types.VenueKalshi)).Observe(time.Since(start).Seconds())
	}()

	if status == "" {
		status = "open"
	}

	snapshots, err := a.fetchAll(ctx, status)
	if err != nil {
		ListMarketsErrorsTotal.WithLabelValues(string(types.VenueKalshi), errKind(err)).Inc()
		if cached, ok := a.cache.Get(kalshiCacheKey); ok {
			CacheServedTotal.WithLabelValues(string(types.VenueKalshi)).Inc()
			return cached.([]*types.MarketSnapshot), nil
		}
		return nil, err
	}

	a.cache.Set(kalshiCacheKey, snapshots, a.cfg.cacheTTL())
	CatalogSize.WithLabelValues(string(types.VenueKalshi)).Set(float64(len(snapshots)))

	return snapshots, nil
}

func (a *KalshiAdapter) fetchAll(ctx context.Context, status string) ([]*types.MarketSnapshot, error) {
	const pageSize = 1000
	const maxPages = 10

	var out []*types.MarketSnapshot
	cursor := ""

	for page := 0; page < maxPages; page++ {
		params := url.Values{}
		params.Set("status", status)
		params.Set("limit", fmt.Sprintf("%d", pageSize))
		params.Set("mve_filter", "exclude")
		if cursor != "" {
			params.Set("cursor", cursor)
		}

		reqURL := fmt.Sprintf("%s/markets?%s", a.cfg.BaseURL, params.Encode())

		body, err := fetchJSON(ctx, a.httpClient, types.VenueKalshi, "list_markets", reqURL, nil)
		if err != nil {
			return nil, err
		}

		var resp kalshiMarketsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, &types.VenueError{Kind: types.ErrParse, Venue: types.VenueKalshi, Op: "list_markets", Err: err}
		}

		if len(resp.Markets) == 0 {
			break
		}

		for i := range resp.Markets {
			if snap := toKalshiSnapshot(&resp.Markets[i]); snap != nil {
				out = append(out, snap)
			}
		}

		cursor = resp.Cursor
		if cursor == "" {
			break
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Volume24hUSD > out[j].Volume24hUSD })

	return out, nil
}

func toKalshiSnapshot(m *kalshiMarket) *types.MarketSnapshot {
	if m.Ticker == "" || m.YesAskDollars <= 0 || m.NoAskDollars <= 0 {
		return nil
	}

	endTime, _ := time.Parse(time.RFC3339, m.CloseTime)

	return &types.MarketSnapshot{
		Venue:         types.VenueKalshi,
		VenueMarketID: m.Ticker,
		Title:         m.Title,
		YesAsk:        m.YesAskDollars,
		NoAsk:         m.NoAskDollars,
		LiquidityUSD:  m.Liquidity,
		Volume24hUSD:  m.Volume24h,
		EndTime:       endTime,
		URL:           "https://kalshi.com/markets/" + m.Ticker,
	}
}

func (a *KalshiAdapter) Subscribe(ctx context.Context, marketIDs []string, onUpdate func(*types.QuoteUpdate)) error {
	if a.wsURL == "" {
		return &types.VenueError{Kind: types.ErrNetworkUnavailable, Venue: types.VenueKalshi, Op: "subscribe", Err: fmt.Errorf("no websocket endpoint configured")}
	}

	if a.pool == nil {
		a.pool = websocket.NewPool(websocket.PoolConfig{
			Size:                  2,
			Venue:                 types.VenueKalshi,
			WSUrl:                 a.wsURL,
			Codec:                 a.codec,
			DialTimeout:           10 * time.Second,
			PongTimeout:           30 * time.Second,
			PingInterval:          10 * time.Second,
			ReconnectInitialDelay: time.Second,
			ReconnectMaxDelay:     60 * time.Second,
			ReconnectBackoffMult:  2.0,
			MessageBufferSize:     256,
			Logger:                a.logger,
		})
		if err := a.pool.Start(); err != nil {
			return &types.VenueError{Kind: types.ErrNetworkUnavailable, Venue: types.VenueKalshi, Op: "subscribe", Err: err}
		}
		go a.drain(onUpdate)
	}

	return a.pool.Subscribe(ctx, marketIDs)
}

func (a *KalshiAdapter) drain(onUpdate func(*types.QuoteUpdate)) {
	for u := range a.pool.MessageChan() {
		onUpdate(u)
	}
}

func (a *KalshiAdapter) Close() error {
	if a.pool != nil {
		return a.pool.Close()
	}
	a.cache.Close()
	return nil
}
