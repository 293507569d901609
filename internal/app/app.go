// Package app assembles the client core from a configuration: durable
// storage, the state store, the identity provider, the request gateway, the
// sync service, the session keeper and the auth orchestrator.
package app

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/and161185/covered/internal/api"
	"github.com/and161185/covered/internal/auth"
	"github.com/and161185/covered/internal/config"
	"github.com/and161185/covered/internal/gateway"
	"github.com/and161185/covered/internal/identity"
	"github.com/and161185/covered/internal/session"
	"github.com/and161185/covered/internal/storage"
	"github.com/and161185/covered/internal/store"
)

// Options override parts of the assembly, mostly for tests.
type Options struct {
	Logger     *zap.Logger
	HTTPClient *http.Client
	// Provider replaces the GoTrue adapter built from the configuration.
	Provider identity.Provider
}

// App is a running client core. Close releases it.
type App struct {
	Config   *config.Config
	Log      *zap.Logger
	Storage  storage.Store
	Store    *store.Store
	Identity identity.Provider
	Gateway  *gateway.Client
	API      *api.Service
	Keeper   *session.Keeper
	Auth     *auth.Orchestrator
}

// New builds the client core. Nothing talks to the network until Start or
// an operation is called.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	st, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	state, err := store.Open(ctx, store.Options{Persister: st, Logger: log.Named("store")})
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	provider := opts.Provider
	if provider == nil {
		gopts := []identity.GoTrueOption{identity.WithLogger(log.Named("identity"))}
		if opts.HTTPClient != nil {
			gopts = append(gopts, identity.WithHTTPClient(opts.HTTPClient))
		}
		provider = identity.NewGoTrue(cfg.IdentityURL, cfg.IdentityAnonKey, st, gopts...)
	}

	gwOpts := []gateway.Option{gateway.WithTimeout(cfg.RequestTimeout), gateway.WithLogger(log.Named("gateway"))}
	if opts.HTTPClient != nil {
		gwOpts = append(gwOpts, gateway.WithHTTPClient(opts.HTTPClient))
	}
	gw := gateway.New(cfg.APIURL, provider, gwOpts...)
	svc := api.New(gw)
	keeper := session.NewKeeper(state, log.Named("session"))

	return &App{
		Config:   cfg,
		Log:      log,
		Storage:  st,
		Store:    state,
		Identity: provider,
		Gateway:  gw,
		API:      svc,
		Keeper:   keeper,
		Auth:     auth.New(provider, svc, state, keeper, log.Named("auth")),
	}, nil
}

// Start resolves the stored session and subscribes to session changes.
func (a *App) Start(ctx context.Context) auth.Result {
	res := a.Auth.Start(ctx)
	if err := a.Keeper.Flush(ctx); err != nil {
		a.Log.Debug("app: flush initial session", zap.Error(err))
	}
	return res
}

// Close stops the keeper, the store and the storage backend, in that order.
func (a *App) Close() error {
	a.Keeper.Close()
	a.Store.Close()
	if err := a.Storage.Close(); err != nil {
		return fmt.Errorf("close storage: %w", err)
	}
	return nil
}
