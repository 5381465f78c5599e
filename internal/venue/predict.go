package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/mselser95/arb-scanner/pkg/cache"
	"github.com/mselser95/arb-scanner/pkg/types"
	"go.uber.org/zap"
)

const predictCacheKey = "catalog"

type predictMarket struct {
	MarketID  string  `json:"market_id"`
	Question  string  `json:"question"`
	EventID   string  `json:"event_id"`
	Liquidity float64 `json:"liquidity"`
	Volume24h float64 `json:"volume_24h"`
	EndDate   string  `json:"end_date"`
}

type predictEvent struct {
	Markets []predictMarket `json:"markets"`
}

type predictEventsResponse struct {
	Events []predictEvent `json:"events"`
}

// PredictAdapter talks to Probable Markets' public events API. Its price,
// orderbook, and CLOB-token endpoints all return HTTP 500 in production --
// only catalog metadata (title, liquidity, volume, end date) is available
// (original_source/probable_api.py). Snapshots therefore always carry a
// zero YesAsk/NoAsk; they still reach the matcher, and the arbitrage
// evaluator skips them for lacking a valid ask. The venue participates in
// catalog-level bookkeeping and dashboard status reporting. Subscribe is
// unsupported.
type PredictAdapter struct {
	cfg        Config
	httpClient *http.Client
	cache      cache.Cache
	logger     *zap.Logger
}

func NewPredictAdapter(cfg Config) *PredictAdapter {
	c, _ := cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 1e4,
		MaxCost:     1 << 20,
		BufferItems: 64,
		Logger:      cfg.logger(),
	})

	return &PredictAdapter{
		cfg:        cfg,
		httpClient: newHTTPClient(15 * time.Second),
		cache:      c,
		logger:     cfg.logger(),
	}
}

func (a *PredictAdapter) Venue() types.Venue { return types.VenuePredict }

func (a *PredictAdapter) ListMarkets(ctx context.Context, status string) ([]*types.MarketSnapshot, error) {
	start := time.Now()
	defer func() {
		ListMarketsDurationSeconds.WithLabelValues(string(types.VenuePredict)).Observe(time.Since(start).Seconds())
	}()

	snapshots, err := a.fetchAll(ctx)
	if err != nil {
		ListMarketsErrorsTotal.WithLabelValues(string(types.VenuePredict), errKind(err)).Inc()
		if cached, ok := a.cache.Get(predictCacheKey); ok {
			CacheServedTotal.WithLabelValues(string(types.VenuePredict)).Inc()
			return cached.([]*types.MarketSnapshot), nil
		}
		return nil, err
	}

	a.cache.Set(predictCacheKey, snapshots, a.cfg.cacheTTL())
	CatalogSize.WithLabelValues(string(types.VenuePredict)).Set(float64(len(snapshots)))

	return snapshots, nil
}

func (a *PredictAdapter) fetchAll(ctx context.Context) ([]*types.MarketSnapshot, error) {
	const pageSize = 500
	const maxPages = 4

	var out []*types.MarketSnapshot

	for page := 0; page < maxPages; page++ {
		params := url.Values{}
		params.Set("active_only", "true")
		params.Set("limit", strconv.Itoa(pageSize))
		params.Set("offset", strconv.Itoa(page*pageSize))

		reqURL := fmt.Sprintf("%s/events?%s", a.cfg.BaseURL, params.Encode())

		body, err := fetchJSON(ctx, a.httpClient, types.VenuePredict, "list_markets", reqURL, nil)
		if err != nil {
			return nil, err
		}

		var resp predictEventsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, &types.VenueError{Kind: types.ErrParse, Venue: types.VenuePredict, Op: "list_markets", Err: err}
		}

		if len(resp.Events) == 0 {
			break
		}

		for _, ev := range resp.Events {
			for i := range ev.Markets {
				out = append(out, toPredictSnapshot(&ev.Markets[i]))
			}
		}

		if len(resp.Events) < pageSize {
			break
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Volume24hUSD > out[j].Volume24hUSD })

	return out, nil
}

func toPredictSnapshot(m *predictMarket) *types.MarketSnapshot {
	endTime, _ := time.Parse(time.RFC3339, m.EndDate)

	return &types.MarketSnapshot{
		Venue:         types.VenuePredict,
		VenueMarketID: m.MarketID,
		Title:         m.Question,
		LiquidityUSD:  m.Liquidity,
		Volume24hUSD:  m.Volume24h,
		EndTime:       endTime,
		URL:           "https://probable.markets/event/" + m.EventID,
	}
}

func (a *PredictAdapter) Subscribe(ctx context.Context, marketIDs []string, onUpdate func(*types.QuoteUpdate)) error {
	return &types.VenueError{
		Kind:  types.ErrNetworkUnavailable,
		Venue: types.VenuePredict,
		Op:    "subscribe",
		Err:   fmt.Errorf("predict exposes no working price endpoint; realtime subscription is unsupported"),
	}
}

func (a *PredictAdapter) Close() error {
	a.cache.Close()
	return nil
}
