package websocket

import (
	"testing"
	"time"

	"github.com/mselser95/arb-scanner/pkg/types"
	"go.uber.org/zap"
)

func TestPool_SubscribeShardsAcrossManagers(t *testing.T) {
	push1 := make(chan []byte)
	push2 := make(chan []byte)
	defer close(push1)
	defer close(push2)

	srv1 := newTestServer(t, push1)
	defer srv1.Close()
	srv2 := newTestServer(t, push2)
	defer srv2.Close()

	// The pool dials cfg.WSUrl for every manager; route both test servers
	// through a single URL is not representative of sharding by address,
	// so this test only exercises deterministic hashing, not failover.
	pool := NewPool(PoolConfig{
		Size:                  2,
		Venue:                 types.VenuePoly,
		WSUrl:                 "ws" + srv1.URL[4:],
		Codec:                 stubCodec{},
		DialTimeout:           time.Second,
		PongTimeout:           time.Second,
		PingInterval:          time.Hour,
		ReconnectInitialDelay: time.Millisecond,
		ReconnectMaxDelay:     time.Millisecond,
		ReconnectBackoffMult:  2,
		MessageBufferSize:     16,
		Logger:                zap.NewNop(),
	})

	if err := pool.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer pool.Close()

	if err := pool.Subscribe(nil, []string{"m1", "m2", "m3", "m4"}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	pool.mu.RLock()
	defer pool.mu.RUnlock()

	if len(pool.marketToIndex) != 4 {
		t.Errorf("expected 4 tracked markets, got %d", len(pool.marketToIndex))
	}

	idx1 := pool.getManagerIndex("m1")
	if pool.marketToIndex["m1"] != idx1 {
		t.Errorf("hash assignment for m1 is not deterministic")
	}
}

func TestPool_UnsubscribeRemovesTracking(t *testing.T) {
	push := make(chan []byte)
	defer close(push)
	srv := newTestServer(t, push)
	defer srv.Close()

	pool := NewPool(PoolConfig{
		Size:                  1,
		Venue:                 types.VenueKalshi,
		WSUrl:                 "ws" + srv.URL[4:],
		Codec:                 stubCodec{},
		DialTimeout:           time.Second,
		PongTimeout:           time.Second,
		PingInterval:          time.Hour,
		ReconnectInitialDelay: time.Millisecond,
		ReconnectMaxDelay:     time.Millisecond,
		ReconnectBackoffMult:  2,
		MessageBufferSize:     16,
		Logger:                zap.NewNop(),
	})

	if err := pool.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer pool.Close()

	if err := pool.Subscribe(nil, []string{"a", "b"}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := pool.Unsubscribe(nil, []string{"a"}); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}

	pool.mu.RLock()
	_, stillTracked := pool.marketToIndex["a"]
	_, bTracked := pool.marketToIndex["b"]
	pool.mu.RUnlock()

	if stillTracked {
		t.Error("expected market a to be untracked after unsubscribe")
	}
	if !bTracked {
		t.Error("expected market b to remain tracked")
	}
}
