package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/covered/internal/errs"
	"github.com/and161185/covered/internal/model"
)

func TestMemory_Lifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory(0)
	events, cancel := m.Subscribe()
	defer cancel()

	res, err := m.SignUp(ctx, "a@b.com", "Aa1!aaaa", model.UserMetadata{DisplayName: "Jane Doe"})
	require.NoError(t, err)
	require.Equal(t, "Jane Doe", res.User.UserMetadata.DisplayName)
	require.Equal(t, EventSignedIn, nextEvent(t, events).Type)

	_, err = m.SignUp(ctx, "a@b.com", "Aa1!aaaa", model.UserMetadata{})
	require.ErrorIs(t, err, errs.ErrIdentityProvider)

	require.NoError(t, m.SignOut(ctx))
	ev := nextEvent(t, events)
	require.Equal(t, EventSignedOut, ev.Type)
	require.Nil(t, ev.Session)

	_, err = m.SignInWithPassword(ctx, "a@b.com", "nope")
	require.ErrorIs(t, err, errs.ErrIdentityProvider)

	res, err = m.SignInWithPassword(ctx, "a@b.com", "Aa1!aaaa")
	require.NoError(t, err)
	require.Equal(t, EventSignedIn, nextEvent(t, events).Type)

	u, ok := m.AccessTokenUser(res.Session.AccessToken)
	require.True(t, ok)
	require.Equal(t, "a@b.com", u.Email)

	m.Expire()
	s, err := m.GetSession(ctx)
	require.NoError(t, err)
	require.NotEqual(t, res.Session.AccessToken, s.AccessToken)
	require.Equal(t, EventTokenRefreshed, nextEvent(t, events).Type)

	_, ok = m.AccessTokenUser(res.Session.AccessToken)
	require.False(t, ok)
}

func TestMemory_EventsKeepOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory(0)
	events, cancel := m.Subscribe()
	defer cancel()

	_, err := m.SignUp(ctx, "a@b.com", "Aa1!aaaa", model.UserMetadata{})
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		require.NoError(t, m.SignOut(ctx))
		_, err := m.SignInWithPassword(ctx, "a@b.com", "Aa1!aaaa")
		require.NoError(t, err)
	}

	require.Equal(t, EventSignedIn, nextEvent(t, events).Type)
	for i := 0; i < 20; i++ {
		require.Equal(t, EventSignedOut, nextEvent(t, events).Type)
		require.Equal(t, EventSignedIn, nextEvent(t, events).Type)
	}
}

func TestMemory_CancelClosesChannel(t *testing.T) {
	t.Parallel()
	m := NewMemory(0)
	events, cancel := m.Subscribe()
	cancel()
	cancel()
	_, open := <-events
	require.False(t, open)
}

func TestMemory_ConfirmationAndLink(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewMemory(0)
	m.RequireConfirmation = true

	res, err := m.SignUp(ctx, "a@b.com", "Aa1!aaaa", model.UserMetadata{})
	require.NoError(t, err)
	require.Nil(t, res.Session)
	require.NotNil(t, res.User)

	access, refresh, ok := m.IssueLink("a@b.com")
	require.True(t, ok)
	s, err := m.SetSession(ctx, access, refresh)
	require.NoError(t, err)
	require.Equal(t, "a@b.com", s.User.Email)

	_, err = m.SetSession(ctx, "x", "y")
	require.ErrorIs(t, err, errs.ErrIdentityProvider)
}

func TestMemory_FailHook(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	m := NewMemory(0)
	m.Fail = func(op string) error {
		if op == "SignIn" {
			return boom
		}
		return nil
	}
	_, err := m.SignInWithPassword(context.Background(), "a@b.com", "x")
	require.ErrorIs(t, err, boom)

	_, err = m.RefreshSession(context.Background())
	require.ErrorIs(t, err, errs.ErrIdentityProvider)
}
