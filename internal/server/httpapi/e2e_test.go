package httpapi

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/covered/internal/app"
	"github.com/and161185/covered/internal/config"
	"github.com/and161185/covered/internal/errs"
	"github.com/and161185/covered/internal/model"
)

// TestClientAgainstServer drives the client core through the GoTrue adapter
// and the gateway against this server.
func TestClientAgainstServer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	srv := newTestServer(t, "anon")

	cfg := config.Default()
	cfg.APIURL = srv.URL
	cfg.IdentityURL = srv.URL
	cfg.IdentityAnonKey = "anon"
	cfg.Storage = config.StorageConfig{Type: config.StorageMemory}
	a, err := app.New(ctx, cfg, app.Options{Logger: zaptest.NewLogger(t), HTTPClient: srv.Client()})
	require.NoError(t, err)
	defer func() { _ = a.Close() }()

	require.True(t, a.Start(ctx).Success)

	res := a.Auth.SignUp(ctx, "jane@example.com", "Aa1!aaaa", "Jane Doe")
	require.True(t, res.Success, res.Error)
	require.NoError(t, res.SyncErr)
	require.Equal(t, "Jane Doe", a.Store.State().Profile.Name)
	require.Eventually(t, a.Store.IsAuthenticated, 2*time.Second, 5*time.Millisecond)

	dup := a.Auth.SignUp(ctx, "jane@example.com", "Aa1!aaaa", "Jane Doe")
	require.False(t, dup.Success)
	require.ErrorIs(t, dup.Err, errs.ErrIdentityProvider)
	require.Equal(t, "User already registered", dup.Error)

	home := a.CreateHome(ctx, model.HomeInput{Name: "Beach House", Address: "1 Ocean Dr"})
	require.True(t, home.Success, home.Error)
	require.Len(t, a.Store.State().Homes, 1)
	require.Equal(t, home.Data.ID, a.Store.State().Homes[0].ID)

	room := a.CreateRoom(ctx, model.RoomInput{HomeID: home.Data.ID, Name: "Kitchen", RoomType: model.RoomKitchen})
	require.True(t, room.Success, room.Error)
	sel := a.SelectHome(ctx, home.Data.ID)
	require.True(t, sel.Success, sel.Error)
	require.Len(t, a.Store.State().Rooms, 1)

	missing := a.DeleteHome(ctx, "00000000-0000-4000-8000-000000000000")
	require.False(t, missing.Success)
	require.Equal(t, "Home not found", missing.Error)

	require.True(t, a.Auth.SignOut(ctx).Success)
	require.Empty(t, a.Store.State().Homes)

	again := a.Auth.SignIn(ctx, "jane@example.com", "Aa1!aaaa")
	require.True(t, again.Success, again.Error)
	homes := a.LoadHomes(ctx)
	require.True(t, homes.Success, homes.Error)
	require.Len(t, homes.Data, 1)
}
