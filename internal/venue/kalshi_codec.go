package venue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mselser95/arb-scanner/pkg/types"
)

// kalshiCodec implements websocket.Codec for a ticker-channel feed: one
// subscribe frame names every market ticker directly, and inbound frames
// carry both YES and NO best bid/ask for that ticker already in dollars
// (spec §6, "ticker channel with an array of market tickers").
type kalshiCodec struct{}

func newKalshiCodec() *kalshiCodec { return &kalshiCodec{} }

func (c *kalshiCodec) BuildSubscribe(marketIDs []string, initial bool) interface{} {
	return map[string]interface{}{
		"type":           "subscribe",
		"channels":       []string{"ticker_v2"},
		"market_tickers": marketIDs,
	}
}

func (c *kalshiCodec) BuildUnsubscribe(marketIDs []string) interface{} {
	return map[string]interface{}{
		"type":           "unsubscribe",
		"channels":       []string{"ticker_v2"},
		"market_tickers": marketIDs,
	}
}

type kalshiFrame struct {
	Type string `json:"type"`
	Msg  struct {
		MarketTicker string  `json:"market_ticker"`
		YesBid       float64 `json:"yes_bid_dollars"`
		YesAsk       float64 `json:"yes_ask_dollars"`
		NoBid        float64 `json:"no_bid_dollars"`
		NoAsk        float64 `json:"no_ask_dollars"`
	} `json:"msg"`
}

func (c *kalshiCodec) Parse(raw []byte) ([]*types.QuoteUpdate, bool, error) {
	var frame kalshiFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, false, fmt.Errorf("decode frame: %w", err)
	}

	if frame.Type != "ticker_v2" {
		return nil, true, fmt.Errorf("non-ticker frame type %q", frame.Type)
	}

	now := time.Now()
	return []*types.QuoteUpdate{
		{
			Venue:         types.VenueKalshi,
			VenueMarketID: frame.Msg.MarketTicker,
			Side:          types.SideYes,
			BestBid:       frame.Msg.YesBid,
			BestAsk:       frame.Msg.YesAsk,
			Timestamp:     now,
		},
		{
			Venue:         types.VenueKalshi,
			VenueMarketID: frame.Msg.MarketTicker,
			Side:          types.SideNo,
			BestBid:       frame.Msg.NoBid,
			BestAsk:       frame.Msg.NoAsk,
			Timestamp:     now,
		},
	}, false, nil
}
