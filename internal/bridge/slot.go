package bridge

import "sync"

// SlotStats counts slot traffic. Every published snapshot is accounted for
// exactly once: it is either overwritten by a newer publish or claimed by
// the consumer, so Published == Overwritten + Claimed + (1 if a snapshot is
// still pending).
type SlotStats struct {
	Published   uint64 // snapshots handed to Publish
	Overwritten uint64 // pending snapshots discarded by a newer publish
	Claimed     uint64 // snapshots handed to the consumer
	EmptyClaims uint64 // claims that found the slot empty
}

// LatestFrameSlot is a single-slot, latest-wins mailbox between exactly one
// producer (the source callback thread) and one consumer (the polling
// thread). Publish overwrites any unclaimed snapshot; Claim takes and clears.
// Both operations are short critical sections under one mutex and never
// block on each other beyond that.
type LatestFrameSlot struct {
	mu      sync.Mutex
	pending *FrameSnapshot
	stats   SlotStats
}

// NewLatestFrameSlot returns an empty slot.
func NewLatestFrameSlot() *LatestFrameSlot {
	return &LatestFrameSlot{}
}

// Publish stores snap as the pending snapshot, discarding any previous
// unclaimed one. Called only from the producer thread. Nil snapshots are
// ignored.
func (s *LatestFrameSlot) Publish(snap *FrameSnapshot) {
	if snap == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		s.stats.Overwritten++
	}
	s.pending = snap
	s.stats.Published++
}

// Claim removes and returns the pending snapshot, transferring ownership to
// the caller. Returns nil when nothing has been published since the last
// claim; that is not an error, it means "no new data since last poll".
func (s *LatestFrameSlot) Claim() *FrameSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.pending
	s.pending = nil
	if snap == nil {
		s.stats.EmptyClaims++
	} else {
		s.stats.Claimed++
	}
	return snap
}

// Stats returns a copy of the slot counters.
func (s *LatestFrameSlot) Stats() SlotStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
