// Package store is the application state container: a mutex-guarded context
// object with named mutators, change subscriptions and a persisted subset.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/and161185/covered/internal/model"
	"github.com/and161185/covered/internal/storage"
)

// StorageKey names the persisted record.
const StorageKey = "covered-app-storage"

const persistVersion = 1

// Persister is the durable storage the Store writes its snapshot to.
type Persister interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Options configure Open. A nil Persister disables persistence.
type Options struct {
	Persister Persister
	Logger    *zap.Logger
}

type record struct {
	State   Persisted `json:"state"`
	Version int       `json:"version"`
}

// Store holds the process-wide state. All methods are safe for concurrent use.
type Store struct {
	log       *zap.Logger
	persister Persister

	mu     sync.Mutex
	state  State
	subs   map[*Subscription]struct{}
	closed bool

	// seq orders snapshots; persistMu serialises writes so the newest wins.
	seq       uint64
	persistMu sync.Mutex
	written   uint64
	lastSaved []byte
}

// Open creates a Store and rehydrates the persisted subset. A missing record
// starts fresh; an unreadable one is logged and discarded.
func Open(ctx context.Context, opts Options) (*Store, error) {
	s := &Store{
		log:       opts.Logger,
		persister: opts.Persister,
		state:     initialState(),
		subs:      make(map[*Subscription]struct{}),
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.persister == nil {
		return s, nil
	}

	// An empty subset needs no write until something persisted changes.
	s.lastSaved, _ = Encode(s.state.persisted())

	raw, err := s.persister.Get(ctx, StorageKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("store: rehydrate: %w", err)
	}
	p, err := Rehydrate(raw)
	if err != nil {
		s.log.Warn("store: discarding unreadable snapshot", zap.Error(err))
		s.lastSaved = nil
		return s, nil
	}
	s.state.CurrentHome = p.CurrentHome
	s.state.Homes = p.Homes
	s.lastSaved = raw
	return s, nil
}

// Close stops notifications and persistence and closes every subscription.
// Later mutations only change the in-memory state.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for sub := range s.subs {
		close(sub.ch)
		delete(s.subs, sub)
	}
}

// Encode serialises the persisted subset as stored on disk.
func Encode(p Persisted) ([]byte, error) {
	if p.Homes == nil {
		p.Homes = []model.Home{}
	}
	return json.Marshal(record{State: p, Version: persistVersion})
}

// Rehydrate parses a record produced by Encode.
func Rehydrate(raw []byte) (Persisted, error) {
	var r record
	if err := json.Unmarshal(raw, &r); err != nil {
		return Persisted{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if r.Version != persistVersion {
		return Persisted{}, fmt.Errorf("snapshot version %d, want %d", r.Version, persistVersion)
	}
	if r.State.Homes == nil {
		r.State.Homes = []model.Home{}
	}
	return r.State, nil
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// IsAuthenticated reports whether a user is signed in.
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.User != nil
}

// update applies fn under the lock, notifies subscribers and persists the
// subset when it changed. Persistence failures are logged only.
func (s *Store) update(fn func(st *State)) {
	s.mu.Lock()
	fn(&s.state)
	snap := s.state.clone()
	if !s.closed {
		for sub := range s.subs {
			sub.offer(snap)
		}
	}
	var (
		payload []byte
		seq     uint64
	)
	if s.persister != nil && !s.closed {
		var err error
		payload, err = Encode(snap.persisted())
		if err != nil {
			s.log.Error("store: encode snapshot", zap.Error(err))
		}
		s.seq++
		seq = s.seq
	}
	s.mu.Unlock()

	if payload != nil {
		s.save(seq, payload)
	}
}

func (s *Store) save(seq uint64, payload []byte) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if seq <= s.written || bytes.Equal(payload, s.lastSaved) {
		return
	}
	if err := s.persister.Set(context.Background(), StorageKey, payload); err != nil {
		s.log.Warn("store: persist snapshot", zap.Error(err))
		return
	}
	s.written = seq
	s.lastSaved = payload
}
