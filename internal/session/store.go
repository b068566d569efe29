package session

import (
	"sync"
)

// Store holds the latest published Snapshot and fans it out to subscribers.
// Publication is a by-reference swap: readers see either the previous
// snapshot or the fully assembled new one, never a partial state.
type Store struct {
	mu   sync.RWMutex
	snap *Snapshot
	subs map[chan *Snapshot]struct{}
}

func NewStore() *Store {
	return &Store{
		subs: make(map[chan *Snapshot]struct{}),
	}
}

// Current returns the latest snapshot, or nil before the first publish.
// The returned snapshot is shared; callers must treat it as read-only and
// Clone before mutating.
func (s *Store) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Publish swaps in a new snapshot and notifies every subscriber. Delivery
// is latest-wins: a subscriber that has not drained its channel loses the
// older pending snapshot, never the new one.
func (s *Store) Publish(snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
	for ch := range s.subs {
		select {
		case ch <- snap:
		default:
			// Full: evict the stale pending snapshot, then retry once.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// Subscribe registers a snapshot channel with capacity one. The caller
// receives every publish unless it lags, in which case intermediate
// snapshots are skipped.
func (s *Store) Subscribe() chan *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan *Snapshot, 1)
	s.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe removes and closes a channel returned by Subscribe.
func (s *Store) Unsubscribe(ch chan *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(ch)
	}
}

// SubscriberCount reports how many channels are currently registered.
func (s *Store) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}
