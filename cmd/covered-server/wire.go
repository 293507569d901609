package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/and161185/covered/internal/config"
	"github.com/and161185/covered/internal/limiter"
	"github.com/and161185/covered/internal/migrate"
	"github.com/and161185/covered/internal/repository"
	"github.com/and161185/covered/internal/repository/memory"
	"github.com/and161185/covered/internal/repository/postgres"
	"github.com/and161185/covered/internal/server/httpapi"
	"github.com/and161185/covered/internal/service"
)

type repos struct {
	accounts   repository.AccountRepository
	tokens     repository.RefreshTokenRepository
	profiles   repository.ProfileRepository
	homes      repository.HomeRepository
	rooms      repository.RoomRepository
	items      repository.ItemRepository
	pushTokens repository.PushTokenRepository
	lim        limiter.Limiter
}

type backend struct {
	handler http.Handler
	close   func()
}

// build opens storage and assembles services and routes.
func build(ctx context.Context, cfg *config.ServerConfig, logger *zap.Logger) (*backend, error) {
	var (
		r       repos
		closeDB = func() {}
	)
	if cfg.Memory {
		db := memory.New()
		r = repos{
			accounts:   memory.NewAccountRepo(db),
			tokens:     memory.NewRefreshTokenRepo(db),
			profiles:   memory.NewProfileRepo(db),
			homes:      memory.NewHomeRepo(db),
			rooms:      memory.NewRoomRepo(db),
			items:      memory.NewItemRepo(db),
			pushTokens: memory.NewPushTokenRepo(db),
			lim:        limiterFor(cfg, nil),
		}
		logger.Warn("in-memory storage: data is lost on exit")
	} else {
		if err := migrate.Up(ctx, cfg.DSN); err != nil {
			return nil, fmt.Errorf("migrate up: %w", err)
		}
		db, err := postgres.New(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		closeDB = db.Close
		r = repos{
			accounts:   postgres.NewAccountRepo(db),
			tokens:     postgres.NewRefreshTokenRepo(db),
			profiles:   postgres.NewProfileRepo(db),
			homes:      postgres.NewHomeRepo(db),
			rooms:      postgres.NewRoomRepo(db),
			items:      postgres.NewItemRepo(db),
			pushTokens: postgres.NewPushTokenRepo(db),
			lim:        limiterFor(cfg, db.Pool),
		}
	}

	key := []byte(cfg.JWTSecret)
	svc := httpapi.Services{
		Profiles:   service.NewProfileService(r.profiles),
		Homes:      service.NewHomeService(r.homes),
		Rooms:      service.NewRoomService(r.rooms),
		Items:      service.NewItemService(r.items),
		PushTokens: service.NewPushTokenService(r.pushTokens),
	}
	if cfg.DevIdentity {
		svc.Identity = service.NewIdentityService(r.accounts, r.tokens, r.lim, service.IdentityOptions{
			SignKey:    key,
			AccessTTL:  cfg.AccessTTL,
			RefreshTTL: cfg.RefreshTTL,
		})
	}

	api := httpapi.New(svc, httpapi.Options{SignKey: key, AnonKey: cfg.AnonKey, Logger: logger.Named("http")})
	return &backend{handler: api.Routes(), close: closeDB}, nil
}
