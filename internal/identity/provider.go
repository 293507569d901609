// Package identity is the client's view of the external identity provider:
// a capability interface, its session-change events and two adapters.
package identity

import (
	"context"
	"sync"

	"github.com/and161185/covered/internal/model"
)

// EventType names a session transition.
type EventType string

const (
	EventInitialSession EventType = "INITIAL_SESSION"
	EventSignedIn       EventType = "SIGNED_IN"
	EventSignedOut      EventType = "SIGNED_OUT"
	EventTokenRefreshed EventType = "TOKEN_REFRESHED"
	EventUserUpdated    EventType = "USER_UPDATED"
)

// Event is published on every session transition. Session is nil after sign-out.
type Event struct {
	Type    EventType
	Session *model.Session
}

// AuthResponse is returned by sign-up and sign-in. Session is nil when the
// provider requires email confirmation before issuing one.
type AuthResponse struct {
	User    *model.IdentityUser
	Session *model.Session
}

// Provider is the capability set the client needs from an identity provider.
type Provider interface {
	// GetSession returns the current session, refreshing it if expired; nil when signed out.
	GetSession(ctx context.Context) (*model.Session, error)
	SignUp(ctx context.Context, email, password string, meta model.UserMetadata) (*AuthResponse, error)
	SignInWithPassword(ctx context.Context, email, password string) (*AuthResponse, error)
	SignOut(ctx context.Context) error
	GetUser(ctx context.Context) (*model.IdentityUser, error)
	RefreshSession(ctx context.Context) (*model.Session, error)
	// SetSession establishes a session from tokens received out of band (deep links).
	SetSession(ctx context.Context, accessToken, refreshToken string) (*model.Session, error)
	// Subscribe delivers every later Event in order until cancel is called.
	Subscribe() (events <-chan Event, cancel func())
}

// hub fans events out to subscribers without blocking the publisher and
// without dropping events: each subscriber owns an unbounded queue.
type hub struct {
	mu   sync.Mutex
	next int
	subs map[int]*subscriber
}

type subscriber struct {
	out  chan Event
	wake chan struct{}
	done chan struct{}

	mu    sync.Mutex
	queue []Event
}

func (h *hub) subscribe() (<-chan Event, func()) {
	s := &subscriber{
		out:  make(chan Event),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	if h.subs == nil {
		h.subs = make(map[int]*subscriber)
	}
	id := h.next
	h.next++
	h.subs[id] = s
	h.mu.Unlock()

	go s.pump()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(s.done)
		})
	}
	return s.out, cancel
}

func (h *hub) publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.subs {
		s.mu.Lock()
		s.queue = append(s.queue, ev)
		s.mu.Unlock()
		select {
		case s.wake <- struct{}{}:
		default:
		}
	}
}

func (s *subscriber) pump() {
	defer close(s.out)
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}
		for {
			s.mu.Lock()
			if len(s.queue) == 0 {
				s.mu.Unlock()
				break
			}
			ev := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()

			select {
			case s.out <- ev:
			case <-s.done:
				return
			}
		}
	}
}

func cloneSession(s *model.Session) *model.Session {
	if s == nil {
		return nil
	}
	cp := *s
	if s.User != nil {
		u := *s.User
		cp.User = &u
	}
	return &cp
}
