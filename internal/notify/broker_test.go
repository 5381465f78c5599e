package notify

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mselser95/arb-scanner/internal/arbitrage"
	"github.com/mselser95/arb-scanner/pkg/types"
)

type recordingSink struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (r *recordingSink) Name() string { return "recording" }

func (r *recordingSink) Notify(ctx context.Context, opp *arbitrage.Opportunity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.err
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func testOpportunity() *arbitrage.Opportunity {
	return &arbitrage.Opportunity{
		ID:        "11111111-1111-1111-1111-111111111111",
		VenueA:    types.VenuePoly,
		MarketIDA: "a1",
		VenueB:    types.VenueKalshi,
		MarketIDB: "b1",
		Direction: types.DirectionAYesBNo,
		EdgePct:   5.0,
	}
}

func TestBroker_CooldownSuppressesRepeatWithinWindow(t *testing.T) {
	sink := &recordingSink{}
	b := New(Config{Sinks: []Sink{sink}, Cooldown: time.Hour})

	opp := testOpportunity()
	b.Notify(context.Background(), opp)
	b.Notify(context.Background(), opp)

	if got := sink.count(); got != 1 {
		t.Errorf("expected 1 dispatch within the cooldown window, got %d", got)
	}
}

func TestBroker_FiresAgainAfterCooldownExpires(t *testing.T) {
	sink := &recordingSink{}
	b := New(Config{Sinks: []Sink{sink}, Cooldown: 10 * time.Millisecond})

	opp := testOpportunity()
	b.Notify(context.Background(), opp)
	time.Sleep(20 * time.Millisecond)
	b.Notify(context.Background(), opp)

	if got := sink.count(); got != 2 {
		t.Errorf("expected 2 dispatches once the cooldown elapsed, got %d", got)
	}
}

func TestBroker_DistinctKeysAreIndependentlyCooled(t *testing.T) {
	sink := &recordingSink{}
	b := New(Config{Sinks: []Sink{sink}, Cooldown: time.Hour})

	opp1 := testOpportunity()
	opp2 := testOpportunity()
	opp2.MarketIDB = "b2"

	b.Notify(context.Background(), opp1)
	b.Notify(context.Background(), opp2)

	if got := sink.count(); got != 2 {
		t.Errorf("expected 2 dispatches for 2 distinct keys, got %d", got)
	}
}

func TestBroker_FailingSinkDoesNotBlockOthers(t *testing.T) {
	failing := &recordingSink{err: fmt.Errorf("boom")}
	ok := &recordingSink{}
	b := New(Config{Sinks: []Sink{failing, ok}, Cooldown: time.Hour})

	b.Notify(context.Background(), testOpportunity())

	if got := failing.count(); got != 1 {
		t.Errorf("expected the failing sink to still be invoked, got %d", got)
	}
	if got := ok.count(); got != 1 {
		t.Errorf("expected the healthy sink to be invoked, got %d", got)
	}
}
