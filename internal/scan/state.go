package scan

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/mselser95/arb-scanner/internal/arbitrage"
)

// firstSeenRetentionPct is the maximum edge-percent drift, spec §4.5 step
// 4, under which a re-surfacing opportunity keeps its prior FirstSeenAt
// instead of being treated as newly discovered.
const firstSeenRetentionPct = 0.5

// defaultMaxAbsentScans is the fallback retention window (spec §3:
// "Opportunities absent from N consecutive scans are removed... default
// equivalent to ~5 minutes") when a Store is built with NewStore. A
// caller that knows its configured scan interval should use
// NewStoreWithRetention instead to size N correctly for that interval.
const defaultMaxAbsentScans = 20

// Snapshot is one published view of the scanner's current opportunity set.
type Snapshot struct {
	Opportunities []*arbitrage.Opportunity
	Stats         Stats
}

// Stats summarizes one scan tick for the dashboard.
type Stats struct {
	ScanNumber      uint64
	VenueStatus     map[string]string // venue -> "OK" | "ERROR"
	OpportunityCnt  int
	ScanDurationSec float64
	CompletedAt     time.Time
}

// Store holds the current opportunity snapshot and the prior-opportunity
// index merge depends on. Readers never block a writer and vice versa:
// Current returns the atomically-published pointer, Merge builds the next
// one off to the side and swaps it in only at the end.
type Store struct {
	mu             sync.Mutex // guards prior/absent, serializes Merge calls across goroutines
	prior          map[string]*arbitrage.Opportunity
	absent         map[string]int // consecutive scans a known key was missing from `found`
	maxAbsentScans int
	current        atomic.Pointer[Snapshot]
}

// NewStore builds an empty Store using the default absence-retention
// window. Prefer NewStoreWithRetention when the scan interval is known,
// so N consecutive misses actually spans ~5 minutes as spec §3 intends.
func NewStore() *Store {
	return NewStoreWithRetention(defaultMaxAbsentScans)
}

// NewStoreWithRetention builds an empty Store that drops a vanished
// opportunity once it has been absent from maxAbsentScans consecutive
// scans (spec §3); a non-positive value uses defaultMaxAbsentScans.
func NewStoreWithRetention(maxAbsentScans int) *Store {
	if maxAbsentScans <= 0 {
		maxAbsentScans = defaultMaxAbsentScans
	}
	s := &Store{
		prior:          make(map[string]*arbitrage.Opportunity),
		absent:         make(map[string]int),
		maxAbsentScans: maxAbsentScans,
	}
	s.current.Store(&Snapshot{Stats: Stats{VenueStatus: map[string]string{}}})
	return s
}

// Current returns the most recently published snapshot.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Merge applies spec §4.5 step 4 to a freshly evaluated opportunity list,
// publishes the result as the new Current snapshot, and returns it. It also
// returns the opportunity keys that are newly surfaced this tick: keys not
// held by the store, either never seen before or re-surfacing after they
// were dropped for absence. A key that reappears while still retained is
// not newly surfaced.
func (s *Store) Merge(found []*arbitrage.Opportunity, stats Stats) (*Snapshot, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]*arbitrage.Opportunity, len(found))
	nextAbsent := make(map[string]int, len(s.absent))
	seen := make(map[string]bool, len(found))
	var newlySurfaced []string

	for _, opp := range found {
		key := opp.Key()
		seen[key] = true
		if prior, ok := s.prior[key]; ok {
			if diff := opp.EdgePct - prior.EdgePct; diff < firstSeenRetentionPct && diff > -firstSeenRetentionPct {
				opp.FirstSeenAt = prior.FirstSeenAt
			}
			opp.LastNotified = prior.LastNotified
		} else {
			newlySurfaced = append(newlySurfaced, key)
		}
		next[key] = opp
	}

	// Keep a vanished opportunity around (with its last-known quote) until
	// its maxAbsentScans-th consecutive miss, which drops it, per spec §3's
	// "absent from N consecutive scans" removal rule.
	for key, prior := range s.prior {
		if seen[key] {
			continue
		}
		misses := s.absent[key] + 1
		if misses >= s.maxAbsentScans {
			continue
		}
		nextAbsent[key] = misses
		next[key] = prior
	}

	merged := make([]*arbitrage.Opportunity, 0, len(next))
	for _, opp := range next {
		merged = append(merged, opp)
	}

	s.prior = next
	s.absent = nextAbsent

	stats.OpportunityCnt = len(merged)
	snap := &Snapshot{Opportunities: merged, Stats: stats}
	s.current.Store(snap)
	OpportunitiesPublishedGauge.Set(float64(len(merged)))

	return snap, newlySurfaced
}

// MarkNotified records that an opportunity's notification was just sent,
// so a repeat scan doesn't re-enqueue it inside the cooldown window
// internal/notify already tracks independently; this is bookkeeping only
// so LastNotified survives across scans for dashboard display.
func (s *Store) MarkNotified(key string, opp *arbitrage.Opportunity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.prior[key]; ok {
		cur.LastNotified = opp.LastNotified
	}
}
