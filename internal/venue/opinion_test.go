package venue

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

var opinionMarketID = json.Number("1")

func TestOpinionAdapter_RequiresLowercaseAPIKeyHeader(t *testing.T) {
	var sawHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawHeader = r.Header.Get("apikey")
		switch {
		case r.URL.Path == "/market":
			json.NewEncoder(w).Encode(opinionMarketsResponse{
				Result: opinionMarketsResult{List: []opinionMarket{
					{MarketID: opinionMarketID, MarketTitle: "m1", YesTokenID: "tok-yes", Volume: "10", Volume24h: "20"},
				}},
			})
		case r.URL.Path == "/token/orderbook":
			json.NewEncoder(w).Encode(opinionOrderBook{
				Bids: []opinionLevel{{Price: "0.40", Size: "50"}},
				Asks: []opinionLevel{{Price: "0.45", Size: "60"}},
			})
		}
	}))
	defer server.Close()

	a := NewOpinionAdapter(Config{BaseURL: server.URL, APIKey: "secret"})
	snaps, err := a.ListMarkets(context.Background(), "activated")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sawHeader != "secret" {
		t.Errorf("apikey header = %q, want secret", sawHeader)
	}
	if len(snaps) != 1 {
		t.Fatalf("expected 1 market, got %d", len(snaps))
	}

	snap := snaps[0]
	if !snap.Derived {
		t.Error("expected the NO side to be marked derived")
	}
	if snap.NoAsk != 1-snap.YesBid {
		t.Errorf("no_ask = %v, want %v", snap.NoAsk, 1-snap.YesBid)
	}
	if snap.NoBid != 1-snap.YesAsk {
		t.Errorf("no_bid = %v, want %v", snap.NoBid, 1-snap.YesAsk)
	}
}
