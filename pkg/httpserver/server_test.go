package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mselser95/arb-scanner/internal/arbitrage"
	"github.com/mselser95/arb-scanner/pkg/types"
)

type fakeProvider struct {
	opps []*arbitrage.Opportunity
}

func (f *fakeProvider) ScanNumber() uint64                    { return 7 }
func (f *fakeProvider) LastScanAt() time.Time                 { return time.Unix(1000, 0) }
func (f *fakeProvider) VenueStatus() map[string]string        { return map[string]string{"POLY": "OK"} }
func (f *fakeProvider) EffectiveThresholdPct() float64        { return 2.0 }
func (f *fakeProvider) Opportunities() []*arbitrage.Opportunity { return f.opps }

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	provider := &fakeProvider{opps: []*arbitrage.Opportunity{
		{ID: "low", VenueA: types.VenuePoly, VenueB: types.VenueKalshi, EdgePct: 3.0},
		{ID: "high", VenueA: types.VenuePoly, VenueB: types.VenueKalshi, EdgePct: 9.0},
	}}
	s := New(&Config{Port: "0", Provider: provider})
	go s.hub.run()
	return s, httptest.NewServer(s.server.Handler)
}

func TestHandleState_SortsOpportunitiesByEdgeDescending(t *testing.T) {
	_, srv := newTestServer(t)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/state")
	if err != nil {
		t.Fatalf("GET /api/state: %v", err)
	}
	defer resp.Body.Close()

	var snap DashboardSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snap.Opportunities) != 2 {
		t.Fatalf("expected 2 opportunities, got %d", len(snap.Opportunities))
	}
	if snap.Opportunities[0].ID != "high" {
		t.Errorf("expected the higher-edge opportunity first, got %s", snap.Opportunities[0].ID)
	}
	if snap.ScanNumber != 7 {
		t.Errorf("expected scan number 7, got %d", snap.ScanNumber)
	}
}

func TestHandleWebSocket_SendsInitialSnapshot(t *testing.T) {
	_, srv := newTestServer(t)
	defer srv.Close()

	wsURL := "ws" + srv.URL[len("http"):] + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read initial frame: %v", err)
	}

	var evt DashboardEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		t.Fatalf("unmarshal frame: %v", err)
	}
	if evt.Type != "snapshot" {
		t.Errorf("expected the first frame to be a snapshot, got %s", evt.Type)
	}
}
