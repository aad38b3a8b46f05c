package retriever

import (
	"sync/atomic"
	"time"
)

// Snapshot is one published document with its retriever.
type Snapshot struct {
	Retriever   *Retriever
	ContentHash string
	Strategy    string
	LoadedAt    time.Time
}

// Store publishes the active snapshot. Publishing swaps the pointer; readers
// that already called Current keep the snapshot they were given.
type Store struct {
	cur atomic.Pointer[Snapshot]
}

// PublishIfChanged publishes snap unless the active snapshot already has
// its ContentHash. The check and the swap are one atomic step, so of two
// concurrent publishes of the same content exactly one succeeds.
func (s *Store) PublishIfChanged(snap *Snapshot) (prev *Snapshot, ok bool) {
	for {
		prev = s.cur.Load()
		if prev != nil && prev.ContentHash == snap.ContentHash {
			return prev, false
		}
		if s.cur.CompareAndSwap(prev, snap) {
			return prev, true
		}
	}
}

// Current returns the active snapshot, or nil before the first Publish.
func (s *Store) Current() *Snapshot {
	return s.cur.Load()
}
