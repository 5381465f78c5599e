package websocket

import "github.com/mselser95/arb-scanner/pkg/types"

// Codec builds venue-specific subscribe/unsubscribe frames and decodes a
// raw inbound frame into quote updates. Each venue adapter supplies its
// own Codec; Manager and Pool know nothing about any venue's wire shape.
type Codec interface {
	// BuildSubscribe builds the frame sent to add market IDs to the
	// stream. initial is true the first time a connection subscribes to
	// anything (some venues distinguish the opening subscribe from a
	// later incremental one).
	BuildSubscribe(marketIDs []string, initial bool) interface{}

	// BuildUnsubscribe builds the frame sent to drop market IDs.
	BuildUnsubscribe(marketIDs []string) interface{}

	// Parse decodes one raw inbound frame. heartbeat is true when the
	// frame carries no quote data (ping/keepalive/ack) and should be
	// counted but not logged as unparseable.
	Parse(raw []byte) (updates []*types.QuoteUpdate, heartbeat bool, err error)
}
