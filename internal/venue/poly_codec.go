package venue

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/mselser95/arb-scanner/pkg/types"
)

// polyCodec implements websocket.Codec for Polymarket's CLOB feed, which
// addresses individual outcome tokens rather than markets: subscribing to a
// market means listing both its YES and NO asset IDs under "assets_ids" in
// a subscribe frame. The codec keeps the
// market<->asset mapping learned from the REST catalog so Parse can
// translate an asset-keyed frame back into a market-keyed QuoteUpdate.
type polyCodec struct {
	mu            sync.RWMutex
	yesAsset      map[string]string // marketID -> yes asset id
	noAsset       map[string]string // marketID -> no asset id
	assetToMarket map[string]assetRef
}

type assetRef struct {
	marketID string
	side     types.Side
}

func newPolyCodec() *polyCodec {
	return &polyCodec{
		yesAsset:      make(map[string]string),
		noAsset:       make(map[string]string),
		assetToMarket: make(map[string]assetRef),
	}
}

// register records (or updates) the asset IDs for a market. A call with
// an empty YES asset ID is a no-op.
func (c *polyCodec) register(marketID, yesAssetID, noAssetID string) {
	if yesAssetID == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.yesAsset[marketID] = yesAssetID
	c.assetToMarket[yesAssetID] = assetRef{marketID: marketID, side: types.SideYes}

	if noAssetID != "" {
		c.noAsset[marketID] = noAssetID
		c.assetToMarket[noAssetID] = assetRef{marketID: marketID, side: types.SideNo}
	}
}

func (c *polyCodec) BuildSubscribe(marketIDs []string, initial bool) interface{} {
	c.mu.RLock()
	assets := make([]string, 0, len(marketIDs)*2)
	for _, id := range marketIDs {
		if y, ok := c.yesAsset[id]; ok {
			assets = append(assets, y)
		}
		if n, ok := c.noAsset[id]; ok {
			assets = append(assets, n)
		}
	}
	c.mu.RUnlock()

	return map[string]interface{}{
		"type":         "subscribe",
		"assets_ids":   assets,
		"initial_dump": initial,
	}
}

func (c *polyCodec) BuildUnsubscribe(marketIDs []string) interface{} {
	c.mu.RLock()
	assets := make([]string, 0, len(marketIDs)*2)
	for _, id := range marketIDs {
		if y, ok := c.yesAsset[id]; ok {
			assets = append(assets, y)
		}
		if n, ok := c.noAsset[id]; ok {
			assets = append(assets, n)
		}
	}
	c.mu.RUnlock()

	return map[string]interface{}{
		"type":       "unsubscribe",
		"assets_ids": assets,
	}
}

type polyFrame struct {
	EventType string `json:"event_type"`
	AssetID   string `json:"asset_id"`
	BestBid   string `json:"best_bid"`
	BestAsk   string `json:"best_ask"`
}

func (c *polyCodec) Parse(raw []byte) ([]*types.QuoteUpdate, bool, error) {
	var frame polyFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, false, fmt.Errorf("decode frame: %w", err)
	}

	if frame.EventType == "pong" || frame.AssetID == "" {
		return nil, true, fmt.Errorf("heartbeat or unaddressed frame")
	}

	c.mu.RLock()
	ref, ok := c.assetToMarket[frame.AssetID]
	c.mu.RUnlock()
	if !ok {
		return nil, false, fmt.Errorf("unknown asset id %s", frame.AssetID)
	}

	bid, _ := strconv.ParseFloat(frame.BestBid, 64)
	ask, _ := strconv.ParseFloat(frame.BestAsk, 64)

	return []*types.QuoteUpdate{{
		Venue:         types.VenuePoly,
		VenueMarketID: ref.marketID,
		Side:          ref.side,
		BestBid:       bid,
		BestAsk:       ask,
		Timestamp:     time.Now(),
	}}, false, nil
}
