package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/mselser95/arb-scanner/internal/arbitrage"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	snap := BuildSnapshot(s.provider)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		s.logger.Error("encode-state-snapshot-failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket-upgrade-failed", zap.Error(err))
		return
	}

	c := newClient(s.hub, conn)

	snap := BuildSnapshot(s.provider)
	data, err := json.Marshal(DashboardEvent{Type: "snapshot", Data: snap})
	if err != nil {
		s.logger.Error("marshal-initial-snapshot-failed", zap.Error(err))
		return
	}
	select {
	case c.send <- data:
	default:
		s.logger.Warn("dashboard-client-send-buffer-full-on-connect")
	}
}

// BroadcastScanComplete pushes a full snapshot to every connected client,
// called by the scan orchestrator after each publish (spec §4.8).
func (s *Server) BroadcastScanComplete() {
	s.hub.broadcastEvent(DashboardEvent{Type: "scan_complete", Data: BuildSnapshot(s.provider)})
}

// BroadcastOpportunityChange pushes a single realtime transition, called
// by the realtime hub's onChange callback on a rising or falling edge.
// opp is nil on a falling edge.
func (s *Server) BroadcastOpportunityChange(key string, rising bool, opp *arbitrage.Opportunity) {
	data := struct {
		Key    string           `json:"key"`
		Rising bool             `json:"rising"`
		Opp    *OpportunityView `json:"opportunity,omitempty"`
	}{Key: key, Rising: rising}

	if opp != nil {
		v := toView(opp)
		data.Opp = &v
	}

	s.hub.broadcastEvent(DashboardEvent{Type: "opportunity_change", Data: data})
}
