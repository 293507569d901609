// Package session owns every write of the signed-in user into the store.
//
// A Keeper is a single goroutine consuming one FIFO queue. The queue is fed
// by the identity provider's event stream and by explicit submissions, and
// events are applied strictly in arrival order.
package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/and161185/covered/internal/identity"
	"github.com/and161185/covered/internal/model"
)

// ErrClosed is returned by Flush after Close.
var ErrClosed = errors.New("session keeper closed")

// Sink receives the effects of session events.
type Sink interface {
	SetUser(u *model.IdentityUser)
	SetLoading(loading bool)
}

type message struct {
	ev      identity.Event
	barrier chan struct{}
}

// Keeper is the single writer of the store's user field.
type Keeper struct {
	sink Sink
	log  *zap.Logger

	mu      sync.Mutex
	queue   []message
	cancels []func()
	closed  bool

	wake chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
}

// NewKeeper starts the keeper goroutine.
func NewKeeper(sink Sink, log *zap.Logger) *Keeper {
	if log == nil {
		log = zap.NewNop()
	}
	k := &Keeper{
		sink: sink,
		log:  log,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	k.wg.Add(1)
	go k.loop()
	return k
}

// Attach forwards a provider event stream into the queue until the stream
// ends or the keeper closes. cancel is invoked on Close.
func (k *Keeper) Attach(events <-chan identity.Event, cancel func()) {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		cancel()
		return
	}
	k.cancels = append(k.cancels, cancel)
	k.mu.Unlock()

	k.wg.Add(1)
	go func() {
		defer k.wg.Done()
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				k.enqueue(message{ev: ev})
			case <-k.done:
				return
			}
		}
	}()
}

// Submit queues an event behind everything already received.
func (k *Keeper) Submit(ev identity.Event) { k.enqueue(message{ev: ev}) }

// Flush waits until every event queued before the call has been applied.
func (k *Keeper) Flush(ctx context.Context) error {
	b := make(chan struct{})
	if !k.enqueue(message{barrier: b}) {
		return ErrClosed
	}
	select {
	case <-b:
		return nil
	case <-k.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close unsubscribes from the provider and stops the keeper. Events still
// queued are dropped.
func (k *Keeper) Close() {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return
	}
	k.closed = true
	cancels := k.cancels
	k.cancels = nil
	k.mu.Unlock()

	for _, c := range cancels {
		c()
	}
	close(k.done)
	k.wg.Wait()
}

func (k *Keeper) enqueue(m message) bool {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return false
	}
	k.queue = append(k.queue, m)
	k.mu.Unlock()
	select {
	case k.wake <- struct{}{}:
	default:
	}
	return true
}

func (k *Keeper) loop() {
	defer k.wg.Done()
	for {
		select {
		case <-k.done:
			return
		case <-k.wake:
		}
		for {
			k.mu.Lock()
			if len(k.queue) == 0 || k.closed {
				k.mu.Unlock()
				break
			}
			m := k.queue[0]
			k.queue = k.queue[1:]
			k.mu.Unlock()

			if m.barrier != nil {
				close(m.barrier)
				continue
			}
			k.apply(m.ev)
		}
	}
}

func (k *Keeper) apply(ev identity.Event) {
	var u *model.IdentityUser
	if ev.Type != identity.EventSignedOut && ev.Session != nil {
		u = ev.Session.User
	}
	k.log.Debug("session event", zap.String("event", string(ev.Type)), zap.Bool("signed_in", u != nil))
	k.sink.SetUser(u)
	k.sink.SetLoading(false)
}
