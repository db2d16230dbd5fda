// Package telemetry owns the authoritative current snapshot, the
// short-/long-term ring buffers, and the predicted-peak record, along with
// the locking and signaling that makes them safe for concurrent
// producers and consumers. Grounded on the module-level mutable state
// described by the original's logger.c, generalized here into one owned
// aggregate per spec.md's design note on module-level mutable state.
package telemetry

import (
	"context"
	"time"

	"github.com/kwartiwi/p1sensor/pkg/p1/snapshot"
)

// ShortTermCapacity is S: 15 minutes at the nominal 1-second telegram
// interval.
const ShortTermCapacity = 900

// LongTermCapacity is L: just over 24 hours of quarter-hour buckets.
const LongTermCapacity = 100

// QuarterHourSeconds is the bucket width used by the long-term log.
const QuarterHourSeconds = 900

// Store is the firmware's telemetry state. The zero value is not usable;
// construct with NewStore.
type Store struct {
	snapMu TimedMutex
	snap   snapshot.Snapshot

	shortMu    TimedMutex
	short      [ShortTermCapacity]snapshot.ShortTermEntry
	shortHead  int // index of the next slot to write
	shortCount int

	longMu    TimedMutex
	long      [LongTermCapacity]snapshot.LongTermEntry
	longHead  int // index of the most recently written slot
	longCount int

	predMu TimedMutex
	pred   snapshot.PredictedPeak

	available *Broadcaster
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		snapMu:    NewTimedMutex(),
		shortMu:   NewTimedMutex(),
		longMu:    NewTimedMutex(),
		predMu:    NewTimedMutex(),
		available: NewBroadcaster(),
	}
}

// TelegramAvailable returns the signal consumers wait on to learn a new
// snapshot was committed.
func (s *Store) TelegramAvailable() *Broadcaster {
	return s.available
}

// CommitSnapshot replaces the current snapshot and fires the
// "telegram available" edge. Called by the P1 reader only after the parser
// has accepted the telegram's CRC — snap must already be fully populated,
// never a partial parse.
func (s *Store) CommitSnapshot(snap snapshot.Snapshot) {
	s.snapMu.Lock()
	s.snap = snap
	s.snapMu.Unlock()
	s.available.Signal()
}

// ReadSnapshot invokes fn with a copy of the current snapshot taken under
// the snapshot lock, bounded by ctx.
func (s *Store) ReadSnapshot(ctx context.Context, fn func(snapshot.Snapshot)) error {
	if !s.snapMu.TryLockContext(ctx) {
		return ctx.Err()
	}
	defer s.snapMu.Unlock()
	fn(s.snap)
	return nil
}

// AppendShortTerm writes entry at the current head and advances it,
// saturating the item count at ShortTermCapacity.
func (s *Store) AppendShortTerm(entry snapshot.ShortTermEntry) {
	s.shortMu.Lock()
	s.short[s.shortHead] = entry
	s.shortHead = (s.shortHead + 1) % ShortTermCapacity
	if s.shortCount < ShortTermCapacity {
		s.shortCount++
	}
	s.shortMu.Unlock()
}

// SnapshotShortTerm copies the short-term log in chronological order.
func (s *Store) SnapshotShortTerm(ctx context.Context) ([]snapshot.ShortTermEntry, error) {
	if !s.shortMu.TryLockContext(ctx) {
		return nil, ctx.Err()
	}
	defer s.shortMu.Unlock()

	out := make([]snapshot.ShortTermEntry, s.shortCount)
	start := (s.shortHead - s.shortCount + ShortTermCapacity) % ShortTermCapacity
	for i := 0; i < s.shortCount; i++ {
		out[i] = s.short[(start+i)%ShortTermCapacity]
	}
	return out, nil
}

// quarterHourBucket is the glossary's ⌊t/900⌋.
func quarterHourBucket(t time.Time) int64 {
	return t.Unix() / QuarterHourSeconds
}

// AppendLongTerm advances to a new slot only when entry falls in a later
// quarter-hour bucket than the current head; otherwise it overwrites the
// head in place, so the log holds at most one (the most recent) sample per
// bucket.
func (s *Store) AppendLongTerm(entry snapshot.LongTermEntry) {
	s.longMu.Lock()
	defer s.longMu.Unlock()

	if s.longCount == 0 {
		s.long[s.longHead] = entry
		s.longCount = 1
		return
	}

	head := s.long[s.longHead]
	if head.Timestamp.IsZero() || quarterHourBucket(entry.Timestamp) > quarterHourBucket(head.Timestamp) {
		s.longHead = (s.longHead + 1) % LongTermCapacity
		if s.longCount < LongTermCapacity {
			s.longCount++
		}
	}
	s.long[s.longHead] = entry
}

// SnapshotLongTerm copies the long-term log in chronological order.
func (s *Store) SnapshotLongTerm(ctx context.Context) ([]snapshot.LongTermEntry, error) {
	if !s.longMu.TryLockContext(ctx) {
		return nil, ctx.Err()
	}
	defer s.longMu.Unlock()

	out := make([]snapshot.LongTermEntry, s.longCount)
	if s.longCount == 0 {
		return out, nil
	}
	start := (s.longHead - s.longCount + 1 + LongTermCapacity) % LongTermCapacity
	for i := 0; i < s.longCount; i++ {
		out[i] = s.long[(start+i)%LongTermCapacity]
	}
	return out, nil
}

// CommitPredictedPeak overwrites the predicted-peak record as a whole.
func (s *Store) CommitPredictedPeak(p snapshot.PredictedPeak) {
	s.predMu.Lock()
	s.pred = p
	s.predMu.Unlock()
}

// PredictedPeak returns the most recently committed prediction.
func (s *Store) PredictedPeak(ctx context.Context) (snapshot.PredictedPeak, error) {
	if !s.predMu.TryLockContext(ctx) {
		return snapshot.PredictedPeak{}, ctx.Err()
	}
	defer s.predMu.Unlock()
	return s.pred, nil
}
