package store

// Subscription delivers state snapshots after every mutation. When the
// consumer falls behind, the oldest pending snapshot is dropped so the
// newest one is always delivered.
type Subscription struct {
	C <-chan State

	ch    chan State
	store *Store
}

// Subscribe registers an observer with the given channel buffer (minimum 1).
// On a closed Store the returned channel is already closed.
func (s *Store) Subscribe(buffer int) *Subscription {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan State, buffer)
	sub := &Subscription{C: ch, ch: ch, store: s}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return sub
	}
	s.subs[sub] = struct{}{}
	return sub
}

// Close unsubscribes and closes C. Safe to call more than once.
func (sub *Subscription) Close() {
	s := sub.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[sub]; !ok {
		return
	}
	delete(s.subs, sub)
	close(sub.ch)
}

// offer is called with the store lock held, so it never races Close.
func (sub *Subscription) offer(st State) {
	for {
		select {
		case sub.ch <- st:
			return
		default:
		}
		select {
		case <-sub.ch:
		default:
		}
	}
}
