package manager

import "sync/atomic"

// RealmState holds the mutable realm-wide state shared by every request:
// the not-before watermark below which all previously issued tokens are
// considered revoked. It is safe for a single administrative writer and
// many concurrent readers; readers always observe the latest write.
type RealmState struct {
	notBefore atomic.Int64
}

// NewRealmState creates a RealmState with the watermark at zero
// (no tokens revoked).
func NewRealmState() *RealmState {
	return &RealmState{}
}

// NotBefore returns the current watermark as a Unix timestamp.
func (s *RealmState) NotBefore() int64 {
	return s.notBefore.Load()
}

// AdvanceNotBefore moves the watermark forward to ts. The watermark never
// regresses: a stale or replayed administrative event cannot re-admit
// tokens that a later event revoked. Returns true if the watermark moved.
func (s *RealmState) AdvanceNotBefore(ts int64) bool {
	for {
		current := s.notBefore.Load()
		if ts <= current {
			return false
		}
		if s.notBefore.CompareAndSwap(current, ts) {
			return true
		}
	}
}
