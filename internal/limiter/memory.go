package limiter

import (
	"context"
	"sync"
	"time"
)

type attempt struct {
	fails        int
	last         time.Time
	blockedUntil time.Time
}

// Memory is an in-process limiter with the same window and lockout rules as PG.
type Memory struct {
	mu       sync.Mutex
	now      func() time.Time
	window   time.Duration
	maxFails int
	blockFor time.Duration
	seen     map[string]attempt
}

// NewMemory constructs an in-process limiter.
func NewMemory(window time.Duration, maxFails int, blockFor time.Duration) *Memory {
	return &Memory{
		now:      time.Now,
		window:   window,
		maxFails: maxFails,
		blockFor: blockFor,
		seen:     map[string]attempt{},
	}
}

func key(email string, ipHash []byte) string { return email + "\x00" + string(ipHash) }

// Allow reports whether sign-in is currently allowed.
func (l *Memory) Allow(_ context.Context, email string, ipHash []byte) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a := l.seen[key(email, ipHash)]
	if wait := a.blockedUntil.Sub(l.now()); wait > 0 {
		return false, wait, nil
	}
	return true, 0, nil
}

// Success resets counters for (email, ip).
func (l *Memory) Success(_ context.Context, email string, ipHash []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.seen, key(email, ipHash))
	return nil
}

// Failure records a failed attempt and blocks once maxFails is reached within the window.
func (l *Memory) Failure(_ context.Context, email string, ipHash []byte) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	k := key(email, ipHash)
	a := l.seen[k]
	if a.fails == 0 || now.Sub(a.last) > l.window {
		a.fails = 1
	} else {
		a.fails++
	}
	a.last = now
	blocked := a.fails >= l.maxFails
	if blocked {
		a.blockedUntil = now.Add(l.blockFor)
	}
	l.seen[k] = a
	if blocked {
		return true, l.blockFor, nil
	}
	return false, 0, nil
}
