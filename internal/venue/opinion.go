package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/mselser95/arb-scanner/pkg/cache"
	"github.com/mselser95/arb-scanner/pkg/types"
	"go.uber.org/zap"
)

const (
	opinionCacheKey        = "catalog"
	opinionOrderBookWorkers = 8
)

type opinionMarket struct {
	MarketID    json.Number `json:"marketId"`
	MarketTitle string      `json:"marketTitle"`
	YesTokenID  string      `json:"yesTokenId"`
	NoTokenID   string      `json:"noTokenId"`
	Volume      string      `json:"volume"`
	Volume24h   string      `json:"volume24h"`
	StatusEnum  string      `json:"statusEnum"`
	CutoffAt    int64       `json:"cutoff_at"`
}

type opinionMarketsResult struct {
	List []opinionMarket `json:"list"`
}

type opinionMarketsResponse struct {
	Result opinionMarketsResult `json:"result"`
	Errno  int                  `json:"errno"`
}

type opinionOrderBook struct {
	Bids []opinionLevel `json:"bids"`
	Asks []opinionLevel `json:"asks"`
}

type opinionLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// OpinionAdapter talks to Opinion.trade's read-only HTTP API. Opinion
// authenticates with a lowercase "apikey" header -- neither Authorization
// nor X-API-Key (spec §6) -- and exposes only the YES side of each market's
// book, so the NO side is always derived (1 - yes_bid / 1 - yes_ask).
// Opinion has no realtime WebSocket feed; Subscribe polls the cached
// catalog instead.
type OpinionAdapter struct {
	cfg        Config
	httpClient *http.Client
	cache      cache.Cache
	logger     *zap.Logger

	pollMu   sync.Mutex
	polling  map[string]bool
	pollStop chan struct{}
}

func NewOpinionAdapter(cfg Config) *OpinionAdapter {
	c, _ := cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 1e4,
		MaxCost:     1 << 20,
		BufferItems: 64,
		Logger:      cfg.logger(),
	})

	return &OpinionAdapter{
		cfg:        cfg,
		httpClient: newHTTPClient(15 * time.Second),
		cache:      c,
		logger:     cfg.logger(),
		polling:    make(map[string]bool),
		pollStop:   make(chan struct{}),
	}
}

func (a *OpinionAdapter) Venue() types.Venue { return types.VenueOpinion }

func (a *OpinionAdapter) headers() map[string]string {
	return map[string]string{"apikey": a.cfg.APIKey}
}

func (a *OpinionAdapter) ListMarkets(ctx context.Context, status string) ([]*types.MarketSnapshot, error) {
	start := time.Now()
	defer func() {
		ListMarketsDurationSeconds.WithLabelValues(string(types.VenueOpinion)).Observe(time.Since(start).Seconds())
	}()

	if status == "" {
		status = "activated"
	}

	markets, err := a.fetchMarkets(ctx, status)
	if err != nil {
		ListMarketsErrorsTotal.WithLabelValues(string(types.VenueOpinion), errKind(err)).Inc()
		if cached, ok := a.cache.Get(opinionCacheKey); ok {
			CacheServedTotal.WithLabelValues(string(types.VenueOpinion)).Inc()
			return cached.([]*types.MarketSnapshot), nil
		}
		return nil, err
	}

	snapshots := a.attachPrices(ctx, markets)

	sort.SliceStable(snapshots, func(i, j int) bool { return snapshots[i].Volume24hUSD > snapshots[j].Volume24hUSD })

	a.cache.Set(opinionCacheKey, snapshots, a.cfg.cacheTTL())
	CatalogSize.WithLabelValues(string(types.VenueOpinion)).Set(float64(len(snapshots)))

	return snapshots, nil
}

// fetchMarkets walks Opinion's offset pagination, 20 markets per page (the
// API's page cap).
func (a *OpinionAdapter) fetchMarkets(ctx context.Context, status string) ([]opinionMarket, error) {
	const pageSize = 20
	const maxPages = 25

	var all []opinionMarket

	for page := 0; page < maxPages; page++ {
		params := url.Values{}
		params.Set("status", status)
		params.Set("sortBy", "5")
		params.Set("limit", strconv.Itoa(pageSize))
		params.Set("offset", strconv.Itoa(page*pageSize))

		reqURL := fmt.Sprintf("%s/market?%s", a.cfg.BaseURL, params.Encode())

		body, err := fetchJSON(ctx, a.httpClient, types.VenueOpinion, "list_markets", reqURL, a.headers())
		if err != nil {
			return nil, err
		}

		var resp opinionMarketsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, &types.VenueError{Kind: types.ErrParse, Venue: types.VenueOpinion, Op: "list_markets", Err: err}
		}

		if len(resp.Result.List) == 0 {
			break
		}

		all = append(all, resp.Result.List...)

		if len(resp.Result.List) < pageSize {
			break
		}
	}

	return all, nil
}

// attachPrices fetches each market's YES-side order book with bounded
// concurrency and derives the NO side, marking the snapshot Derived.
func (a *OpinionAdapter) attachPrices(ctx context.Context, markets []opinionMarket) []*types.MarketSnapshot {
	out := make([]*types.MarketSnapshot, len(markets))

	sem := make(chan struct{}, opinionOrderBookWorkers)
	var wg sync.WaitGroup

	for i := range markets {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, m opinionMarket) {
			defer wg.Done()
			defer func() { <-sem }()
			out[idx] = a.toSnapshot(ctx, &m)
		}(i, markets[i])
	}
	wg.Wait()

	filtered := out[:0]
	for _, s := range out {
		if s != nil {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

func (a *OpinionAdapter) toSnapshot(ctx context.Context, m *opinionMarket) *types.MarketSnapshot {
	volume, _ := strconv.ParseFloat(m.Volume, 64)
	volume24h, _ := strconv.ParseFloat(m.Volume24h, 64)

	snap := &types.MarketSnapshot{
		Venue:         types.VenueOpinion,
		VenueMarketID: m.MarketID.String(),
		Title:         m.MarketTitle,
		LiquidityUSD:  volume,
		Volume24hUSD:  volume24h,
		URL:           "https://opinion.trade/market/" + m.MarketID.String(),
	}
	if m.CutoffAt > 0 {
		snap.EndTime = time.Unix(m.CutoffAt, 0)
	}

	book, err := a.fetchOrderBook(ctx, m.YesTokenID)
	if err != nil || book == nil {
		return nil
	}

	snap.YesBid = book.bid
	snap.YesAsk = book.ask
	snap.AskSizeYes = book.askSize
	snap.NoBid = 1 - book.ask
	snap.NoAsk = 1 - book.bid
	snap.Derived = true

	if !snap.HasValidAsks() {
		return nil
	}
	return snap
}

type opinionTopOfBook struct {
	bid, ask, askSize float64
}

func (a *OpinionAdapter) fetchOrderBook(ctx context.Context, tokenID string) (*opinionTopOfBook, error) {
	if tokenID == "" {
		return nil, fmt.Errorf("empty token id")
	}

	reqURL := fmt.Sprintf("%s/token/orderbook?token_id=%s", a.cfg.BaseURL, url.QueryEscape(tokenID))
	body, err := fetchJSON(ctx, a.httpClient, types.VenueOpinion, "get_order_book", reqURL, a.headers())
	if err != nil {
		return nil, err
	}

	var book opinionOrderBook
	if err := json.Unmarshal(body, &book); err != nil {
		return nil, &types.VenueError{Kind: types.ErrParse, Venue: types.VenueOpinion, Op: "get_order_book", Err: err}
	}

	top := &opinionTopOfBook{bid: 0.49, ask: 0.51}
	if len(book.Bids) > 0 {
		top.bid, _ = strconv.ParseFloat(book.Bids[0].Price, 64)
	}
	if len(book.Asks) > 0 {
		top.ask, _ = strconv.ParseFloat(book.Asks[0].Price, 64)
		top.askSize, _ = strconv.ParseFloat(book.Asks[0].Size, 64)
	}
	return top, nil
}

// Subscribe has no WebSocket backing; it starts a goroutine per market that
// re-reads the cached catalog at the catalog's cache interval and
// synthesizes YES and NO QuoteUpdates from it. Markets already being polled
// are skipped; a market left out of a later call keeps being polled until
// ctx ends or Close is called.
func (a *OpinionAdapter) Subscribe(ctx context.Context, marketIDs []string, onUpdate func(*types.QuoteUpdate)) error {
	a.pollMu.Lock()
	defer a.pollMu.Unlock()

	for _, id := range marketIDs {
		if a.polling[id] {
			continue
		}
		a.polling[id] = true
		go a.pollLoop(ctx, id, onUpdate)
	}
	return nil
}

func (a *OpinionAdapter) pollLoop(ctx context.Context, marketID string, onUpdate func(*types.QuoteUpdate)) {
	ticker := time.NewTicker(a.cfg.cacheTTL())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-a.pollStop:
			return
		case <-ticker.C:
			catalog, ok := a.cache.Get(opinionCacheKey)
			if !ok {
				continue
			}
			for _, snap := range catalog.([]*types.MarketSnapshot) {
				if snap.VenueMarketID != marketID {
					continue
				}
				now := time.Now()
				onUpdate(&types.QuoteUpdate{Venue: types.VenueOpinion, VenueMarketID: marketID, Side: types.SideYes, BestBid: snap.YesBid, BestAsk: snap.YesAsk, Timestamp: now})
				onUpdate(&types.QuoteUpdate{Venue: types.VenueOpinion, VenueMarketID: marketID, Side: types.SideNo, BestBid: snap.NoBid, BestAsk: snap.NoAsk, Timestamp: now})
				PollUpdatesTotal.WithLabelValues(string(types.VenueOpinion)).Inc()
			}
		}
	}
}

func (a *OpinionAdapter) Close() error {
	close(a.pollStop)
	a.cache.Close()
	return nil
}
