package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/covered/internal/identity"
	"github.com/and161185/covered/internal/model"
	"github.com/and161185/covered/internal/store"
)

type recordingSink struct {
	mu      sync.Mutex
	users   []*model.IdentityUser
	loading bool
}

func (r *recordingSink) SetUser(u *model.IdentityUser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, u)
}

func (r *recordingSink) SetLoading(l bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loading = l
}

func (r *recordingSink) snapshot() []*model.IdentityUser {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*model.IdentityUser(nil), r.users...)
}

func signedIn(id string) identity.Event {
	return identity.Event{Type: identity.EventSignedIn, Session: &model.Session{AccessToken: "t", User: &model.IdentityUser{ID: id}}}
}

func TestKeeper_AppliesInOrder(t *testing.T) {
	t.Parallel()
	sink := &recordingSink{loading: true}
	k := NewKeeper(sink, zaptest.NewLogger(t))
	defer k.Close()

	k.Submit(signedIn("u1"))
	k.Submit(identity.Event{Type: identity.EventSignedOut})
	k.Submit(signedIn("u2"))
	k.Submit(identity.Event{Type: identity.EventInitialSession})
	require.NoError(t, k.Flush(context.Background()))

	users := sink.snapshot()
	require.Len(t, users, 4)
	require.Equal(t, "u1", users[0].ID)
	require.Nil(t, users[1])
	require.Equal(t, "u2", users[2].ID)
	require.Nil(t, users[3])
	require.False(t, sink.loading)
}

func TestKeeper_SignedOutIgnoresStaleSession(t *testing.T) {
	t.Parallel()
	sink := &recordingSink{}
	k := NewKeeper(sink, nil)
	defer k.Close()

	ev := signedIn("u1")
	ev.Type = identity.EventSignedOut
	k.Submit(ev)
	require.NoError(t, k.Flush(context.Background()))
	require.Nil(t, sink.snapshot()[0])
}

func TestKeeper_ProviderStreamDrivesStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	st, err := store.Open(ctx, store.Options{})
	require.NoError(t, err)
	defer st.Close()

	p := identity.NewMemory(time.Hour)
	k := NewKeeper(st, zaptest.NewLogger(t))
	defer k.Close()
	k.Attach(p.Subscribe())

	sub := st.Subscribe(8)
	defer sub.Close()

	_, err = p.SignUp(ctx, "a@b.com", "Aa1!aaaa", model.UserMetadata{})
	require.NoError(t, err)

	require.Eventually(t, st.IsAuthenticated, 2*time.Second, 5*time.Millisecond)
	require.False(t, st.State().IsLoading)

	st.SetProfile(&model.Profile{ID: "u1"})
	require.NoError(t, p.SignOut(ctx))
	require.Eventually(t, func() bool { return !st.IsAuthenticated() }, 2*time.Second, 5*time.Millisecond)
	require.Nil(t, st.State().Profile)
}

func TestKeeper_FlushAfterSubmitSeesProviderEventsFirst(t *testing.T) {
	t.Parallel()
	sink := &recordingSink{}
	k := NewKeeper(sink, nil)
	defer k.Close()

	events := make(chan identity.Event, 1)
	k.Attach(events, func() {})
	events <- signedIn("from-provider")

	require.Eventually(t, func() bool { return len(sink.snapshot()) == 1 }, 2*time.Second, 5*time.Millisecond)
	k.Submit(identity.Event{Type: identity.EventSignedOut})
	require.NoError(t, k.Flush(context.Background()))

	users := sink.snapshot()
	require.Equal(t, "from-provider", users[0].ID)
	require.Nil(t, users[1])
}

func TestKeeper_Close(t *testing.T) {
	t.Parallel()
	k := NewKeeper(&recordingSink{}, nil)

	cancelled := false
	k.Attach(make(chan identity.Event), func() { cancelled = true })
	k.Close()
	k.Close()
	require.True(t, cancelled)
	require.ErrorIs(t, k.Flush(context.Background()), ErrClosed)

	lateCancelled := false
	k.Attach(make(chan identity.Event), func() { lateCancelled = true })
	require.True(t, lateCancelled)
}

func TestKeeper_FlushHonoursContext(t *testing.T) {
	t.Parallel()
	block := make(chan struct{})
	sink := &blockingSink{block: block}
	k := NewKeeper(sink, nil)
	defer func() {
		close(block)
		k.Close()
	}()

	k.Submit(signedIn("u1"))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, k.Flush(ctx), context.DeadlineExceeded)
}

type blockingSink struct{ block chan struct{} }

func (b *blockingSink) SetUser(*model.IdentityUser) { <-b.block }
func (b *blockingSink) SetLoading(bool)             {}
