// Package memory contains in-process implementations of repository
// interfaces for development servers and tests. Semantics follow the
// PostgreSQL schema: owner scoping, cascading deletes and foreign keys.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/and161185/covered/internal/model"
)

type rec[T any] struct {
	v   T
	seq uint64
}

// DB holds every table behind a single lock.
type DB struct {
	mu  sync.RWMutex
	seq uint64
	now func() time.Time

	accounts map[string]model.Account
	emails   map[string]string
	refresh  map[string]model.RefreshToken
	profiles map[string]model.Profile
	push     map[string]model.PushToken
	homes    map[string]rec[model.Home]
	rooms    map[string]rec[model.Room]
	items    map[string]rec[model.Item]
}

// New returns an empty database.
func New() *DB {
	return &DB{
		now:      time.Now,
		accounts: map[string]model.Account{},
		emails:   map[string]string{},
		refresh:  map[string]model.RefreshToken{},
		profiles: map[string]model.Profile{},
		push:     map[string]model.PushToken{},
		homes:    map[string]rec[model.Home]{},
		rooms:    map[string]rec[model.Room]{},
		items:    map[string]rec[model.Item]{},
	}
}

// nextSeq must be called with mu held for writing.
func (db *DB) nextSeq() uint64 {
	db.seq++
	return db.seq
}

// sorted returns the values of recs matching keep in insertion order.
func sorted[T any](recs map[string]rec[T], keep func(T) bool) []T {
	list := make([]rec[T], 0, len(recs))
	for _, r := range recs {
		if keep(r.v) {
			list = append(list, r)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].seq < list[j].seq })
	out := make([]T, 0, len(list))
	for _, r := range list {
		out = append(out, r.v)
	}
	return out
}
