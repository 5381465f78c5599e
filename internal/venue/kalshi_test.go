package venue

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mselser95/arb-scanner/pkg/types"
)

func TestKalshiAdapter_WalksCursorPagination(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		cursor := r.URL.Query().Get("cursor")

		var resp kalshiMarketsResponse
		if cursor == "" {
			resp = kalshiMarketsResponse{
				Markets: []kalshiMarket{{Ticker: "T1", Title: "one", YesAskDollars: 0.4, NoAskDollars: 0.55, Volume24h: 100}},
				Cursor:  "page2",
			}
		} else {
			resp = kalshiMarketsResponse{
				Markets: []kalshiMarket{{Ticker: "T2", Title: "two", YesAskDollars: 0.3, NoAskDollars: 0.65, Volume24h: 200}},
				Cursor:  "",
			}
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	a := NewKalshiAdapter(Config{BaseURL: server.URL}, "")
	snaps, err := a.ListMarkets(context.Background(), "open")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("expected 2 markets across 2 pages, got %d", len(snaps))
	}
	if calls != 2 {
		t.Errorf("expected 2 requests, got %d", calls)
	}
	// Sorted by volume descending: T2 (200) before T1 (100).
	if snaps[0].VenueMarketID != "T2" {
		t.Errorf("expected T2 first by volume, got %s", snaps[0].VenueMarketID)
	}
}

func TestKalshiAdapter_FallsBackToCacheOnFailure(t *testing.T) {
	a := NewKalshiAdapter(Config{BaseURL: "http://127.0.0.1:1"}, "")
	a.cache.Set(kalshiCacheKey, []*types.MarketSnapshot{{VenueMarketID: "cached"}}, a.cfg.cacheTTL())

	snaps, err := a.ListMarkets(context.Background(), "open")
	if err != nil {
		t.Fatalf("expected cache fallback, got error: %v", err)
	}
	if len(snaps) != 1 || snaps[0].VenueMarketID != "cached" {
		t.Errorf("expected cached snapshot, got %+v", snaps)
	}
}

func TestKalshiCodec_ParsesTickerFrame(t *testing.T) {
	c := newKalshiCodec()
	raw := []byte(`{"type":"ticker_v2","msg":{"market_ticker":"T1","yes_bid_dollars":0.39,"yes_ask_dollars":0.41,"no_bid_dollars":0.58,"no_ask_dollars":0.60}}`)

	updates, heartbeat, err := c.Parse(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if heartbeat {
		t.Fatal("expected a priced frame")
	}
	if len(updates) != 2 {
		t.Fatalf("expected YES and NO updates, got %d", len(updates))
	}
}
