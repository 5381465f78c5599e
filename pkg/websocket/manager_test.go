package websocket

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/mselser95/arb-scanner/pkg/types"
	"go.uber.org/zap"
)

// stubCodec is a minimal Codec used across websocket package tests. It
// echoes subscribe/unsubscribe as plain JSON maps and parses any frame
// that decodes as a {"market_id":"...","bid":...,"ask":...} object.
type stubCodec struct{}

func (stubCodec) BuildSubscribe(marketIDs []string, initial bool) interface{} {
	return map[string]interface{}{"op": "subscribe", "ids": marketIDs, "initial": initial}
}

func (stubCodec) BuildUnsubscribe(marketIDs []string) interface{} {
	return map[string]interface{}{"op": "unsubscribe", "ids": marketIDs}
}

func (stubCodec) Parse(raw []byte) ([]*types.QuoteUpdate, bool, error) {
	if len(raw) == 0 || string(raw) == "{}" {
		return nil, true, nil
	}

	var frame struct {
		MarketID string  `json:"market_id"`
		Bid      float64 `json:"bid"`
		Ask      float64 `json:"ask"`
	}
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, false, err
	}

	return []*types.QuoteUpdate{{
		Venue:         types.VenuePoly,
		VenueMarketID: frame.MarketID,
		Side:          types.SideYes,
		BestBid:       frame.Bid,
		BestAsk:       frame.Ask,
		Timestamp:     time.Now(),
	}}, false, nil
}

// newTestServer starts a WebSocket server that reads and discards every
// client frame (subscribe/unsubscribe included) and pushes whatever the
// test sends on push into the connection.
func newTestServer(t *testing.T, push <-chan []byte) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		go func() {
			for msg := range push {
				if conn.WriteMessage(websocket.TextMessage, msg) != nil {
					return
				}
			}
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))

	return srv
}

func TestManager_SubscribeDeduplicatesTokens(t *testing.T) {
	push := make(chan []byte)
	defer close(push)
	srv := newTestServer(t, push)
	defer srv.Close()

	mgr := New(Config{
		URL:                  "ws" + srv.URL[4:],
		Venue:                types.VenuePoly,
		Codec:                stubCodec{},
		DialTimeout:          time.Second,
		PongTimeout:          time.Second,
		PingInterval:         time.Hour,
		ReconnectInitialDelay: time.Millisecond,
		ReconnectMaxDelay:    time.Millisecond,
		ReconnectBackoffMult: 2,
		MessageBufferSize:    16,
		Logger:               zap.NewNop(),
	})

	if err := mgr.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer mgr.Close()

	if err := mgr.Subscribe(nil, []string{"m1", "m2"}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := mgr.Subscribe(nil, []string{"m1", "m3"}); err != nil {
		t.Fatalf("subscribe again: %v", err)
	}

	if len(mgr.subscribed) != 3 {
		t.Errorf("expected 3 subscribed markets, got %d", len(mgr.subscribed))
	}
}

func TestManager_ParsesQuoteUpdates(t *testing.T) {
	push := make(chan []byte, 1)
	srv := newTestServer(t, push)
	defer srv.Close()

	mgr := New(Config{
		URL:                  "ws" + srv.URL[4:],
		Venue:                types.VenuePoly,
		Codec:                stubCodec{},
		DialTimeout:          time.Second,
		PongTimeout:          time.Second,
		PingInterval:         time.Hour,
		ReconnectInitialDelay: time.Millisecond,
		ReconnectMaxDelay:    time.Millisecond,
		ReconnectBackoffMult: 2,
		MessageBufferSize:    16,
		Logger:               zap.NewNop(),
	})

	if err := mgr.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() {
		close(push)
		mgr.Close()
	}()

	push <- []byte(`{"market_id":"m1","bid":0.40,"ask":0.42}`)

	select {
	case update := <-mgr.MessageChan():
		if update.VenueMarketID != "m1" {
			t.Errorf("expected market m1, got %s", update.VenueMarketID)
		}
		if update.BestAsk != 0.42 {
			t.Errorf("expected ask 0.42, got %v", update.BestAsk)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for quote update")
	}
}
