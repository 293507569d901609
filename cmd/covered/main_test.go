package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/and161185/covered/internal/app"
	"github.com/and161185/covered/internal/config"
	"github.com/and161185/covered/internal/identity"
	"github.com/and161185/covered/internal/model"
)

type env struct {
	t        *testing.T
	provider *identity.Memory
	apiURL   string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	p := identity.NewMemory(time.Hour)

	write := func(w http.ResponseWriter, status int, body any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := p.AccessTokenUser(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		if !ok {
			write(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "Invalid token"})
			return
		}
		switch {
		case r.URL.Path == "/api/auth/verify":
			write(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{}})
		case r.URL.Path == "/api/auth/profile":
			write(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{
				"user": model.Profile{ID: u.ID, Email: u.Email, Name: u.UserMetadata.DisplayName},
			}})
		case r.Method == http.MethodPost && r.URL.Path == "/api/homes":
			var in model.HomeInput
			_ = json.NewDecoder(r.Body).Decode(&in)
			write(w, http.StatusCreated, map[string]any{"success": true, "data": map[string]any{
				"home": model.Home{ID: "h1", UserID: u.ID, Name: in.Name, Address: in.Address},
			}})
		case r.Method == http.MethodGet && r.URL.Path == "/api/homes/h1":
			write(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{
				"home": model.Home{ID: "h1", UserID: u.ID, Name: "Beach House"},
			}})
		case r.Method == http.MethodPost && r.URL.Path == "/api/rooms":
			var in model.RoomInput
			_ = json.NewDecoder(r.Body).Decode(&in)
			write(w, http.StatusCreated, map[string]any{"success": true, "data": map[string]any{
				"room": model.Room{ID: "r1", HomeID: in.HomeID, Name: in.Name, RoomType: in.RoomType},
			}})
		default:
			write(w, http.StatusNotFound, map[string]any{"success": false, "error": "Not found"})
		}
	}))
	t.Cleanup(srv.Close)
	return &env{t: t, provider: p, apiURL: srv.URL}
}

func (e *env) run(stdin string, args ...string) (string, string, error) {
	e.t.Helper()
	var out, errOut bytes.Buffer
	c := newCLI(strings.NewReader(stdin), &out, &errOut)
	c.openApp = func(ctx context.Context, cfg *config.Config, opts app.Options) (*app.App, error) {
		opts.Provider = e.provider
		return app.New(ctx, cfg, opts)
	}
	root := c.rootCmd()
	root.SetArgs(append([]string{"--api", e.apiURL}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestVersion(t *testing.T) {
	e := newEnv(t)
	out, _, err := e.run("", "version")
	require.NoError(t, err)
	require.Equal(t, "covered dev (unknown)\n", out)
}

func TestSignupWhoamiLogout(t *testing.T) {
	e := newEnv(t)

	out, _, err := e.run("Aa1!aaaa\n", "signup", "-e", "Jane@Example.com", "-n", "Jane Doe")
	require.NoError(t, err)
	var u userView
	require.NoError(t, json.Unmarshal([]byte(out), &u))
	require.Equal(t, "jane@example.com", u.Email)
	require.Equal(t, "Jane Doe", u.Name)

	out, _, err = e.run("", "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "jane@example.com")

	out, _, err = e.run("", "profile")
	require.NoError(t, err)
	require.Contains(t, out, `"name": "Jane Doe"`)

	out, _, err = e.run("", "logout")
	require.NoError(t, err)
	require.Equal(t, "signed out\n", out)

	_, _, err = e.run("", "whoami")
	require.EqualError(t, err, "not signed in")
}

func TestSignup_WeakPassword(t *testing.T) {
	e := newEnv(t)
	_, _, err := e.run("", "signup", "-e", "a@b.com", "-n", "Jane", "-p", "short")
	require.Error(t, err)
	require.Contains(t, err.Error(), "password")
}

func TestLogin_BadCredentials(t *testing.T) {
	e := newEnv(t)
	_, _, err := e.run("", "signup", "-e", "a@b.com", "-n", "Jane", "-p", "Aa1!aaaa")
	require.NoError(t, err)

	_, _, err = e.run("", "login", "-e", "a@b.com", "-p", "Wrong1!pass")
	require.EqualError(t, err, "Invalid login credentials")

	_, _, err = e.run("Aa1!aaaa\n", "login", "-e", "a@b.com")
	require.NoError(t, err)
}

func TestHomesAndRooms(t *testing.T) {
	e := newEnv(t)
	_, _, err := e.run("", "signup", "-e", "a@b.com", "-n", "Jane", "-p", "Aa1!aaaa")
	require.NoError(t, err)

	_, _, err = e.run("", "homes", "create", "-n", "Beach House")
	require.Error(t, err)
	require.Contains(t, err.Error(), "address is required")

	out, _, err := e.run("", "homes", "create", "-n", "Beach House", "-a", "1 Ocean Dr")
	require.NoError(t, err)
	var h model.Home
	require.NoError(t, json.Unmarshal([]byte(out), &h))
	require.Equal(t, "h1", h.ID)
	require.Equal(t, "1 Ocean Dr", h.Address)

	_, _, err = e.run("", "homes", "current")
	require.Error(t, err)

	_, _, err = e.run("", "homes", "use", "h1")
	require.NoError(t, err)

	out, _, err = e.run("", "homes", "current")
	require.NoError(t, err)
	require.Contains(t, out, "Beach House")

	out, _, err = e.run("", "rooms", "create", "-n", "Kitchen", "-t", "kitchen")
	require.NoError(t, err)
	var r model.Room
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	require.Equal(t, "h1", r.HomeID)

	_, _, err = e.run("", "rooms", "create", "-n", "Shed", "-t", "shed")
	require.Error(t, err)
	require.Contains(t, err.Error(), "room_type")

	_, _, err = e.run("", "homes", "delete", "nope")
	require.EqualError(t, err, "Not found")
}

func TestConfigInitAndShow(t *testing.T) {
	e := newEnv(t)
	_, _, err := e.run("", "config", "init")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(config.Dir(), "config.toml"))
	require.NoError(t, err)

	_, _, err = e.run("", "config", "init")
	require.Error(t, err)

	out, _, err := e.run("", "config", "show")
	require.NoError(t, err)
	require.Contains(t, out, e.apiURL)
}

func TestOpenURL(t *testing.T) {
	e := newEnv(t)
	e.provider.RequireConfirmation = true
	out, _, err := e.run("", "signup", "-e", "a@b.com", "-n", "Jane", "-p", "Aa1!aaaa")
	require.NoError(t, err)
	require.Contains(t, out, "confirmation link")

	access, refresh, ok := e.provider.IssueLink("a@b.com")
	require.True(t, ok)
	out, _, err = e.run("", "open-url", "covered://auth/callback#access_token="+access+"&refresh_token="+refresh)
	require.NoError(t, err)
	require.Contains(t, out, "a@b.com")

	_, _, err = e.run("", "open-url", "covered://auth/callback")
	require.Error(t, err)
}
