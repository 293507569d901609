// Command covered-server runs the covered reference backend: the REST API,
// the development identity provider and a gRPC health endpoint.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/and161185/covered/internal/config"
	"github.com/and161185/covered/internal/limiter"
	"github.com/and161185/covered/internal/logging"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

const shutdownTimeout = 5 * time.Second

// main parses configuration, wires storage and starts the HTTP and health servers.
func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	parseFlags(cfg, flag.CommandLine, os.Args[1:])

	logger, err := logging.New(cfg.LogLevel, false)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
		zap.Bool("memory", cfg.Memory),
	)

	if err := cfg.Validate(); err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

// parseFlags overrides environment-derived settings with command-line flags.
func parseFlags(cfg *config.ServerConfig, fs *flag.FlagSet, args []string) {
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	fs.StringVar(&cfg.HealthAddr, "health-addr", cfg.HealthAddr, "gRPC health listen address (empty disables)")
	fs.StringVar(&cfg.DSN, "dsn", cfg.DSN, "PostgreSQL DSN")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "HS256 signing secret (required)")
	fs.StringVar(&cfg.AnonKey, "anon-key", cfg.AnonKey, "apikey required on /auth/v1 (optional)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	fs.DurationVar(&cfg.AccessTTL, "access-ttl", cfg.AccessTTL, "access token TTL")
	fs.DurationVar(&cfg.RefreshTTL, "refresh-ttl", cfg.RefreshTTL, "refresh token TTL")
	fs.BoolVar(&cfg.DevIdentity, "dev-identity", cfg.DevIdentity, "serve the /auth/v1 identity endpoints")
	fs.BoolVar(&cfg.Memory, "memory", cfg.Memory, "keep data in memory instead of PostgreSQL")
	_ = fs.Parse(args)
}

func run(ctx context.Context, cfg *config.ServerConfig, logger *zap.Logger) error {
	b, err := build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           b.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Health
	hs := health.NewServer()
	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, hs)

	errCh := make(chan error, 2)
	if cfg.HealthAddr != "" {
		lis, err := net.Listen("tcp", cfg.HealthAddr)
		if err != nil {
			return fmt.Errorf("listen health: %w", err)
		}
		go func() {
			logger.Info("health listening", zap.String("addr", cfg.HealthAddr))
			errCh <- gs.Serve(lis)
		}()
	}

	lis, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		gs.Stop()
		return fmt.Errorf("listen: %w", err)
	}
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
	case err := <-errCh:
		gs.Stop()
		_ = srv.Close()
		return err
	}

	hs.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	done := make(chan struct{})
	go func() {
		gs.GracefulStop()
		close(done)
	}()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	select {
	case <-done:
	case <-shutdownCtx.Done():
		gs.Stop()
	}
	return nil
}

// limiterFor returns the sign-in limiter for the chosen storage.
func limiterFor(cfg *config.ServerConfig, q limiter.Querier) limiter.Limiter {
	if q == nil {
		return limiter.NewMemory(cfg.LimiterWindow, cfg.LimiterMaxFails, cfg.LimiterBlockFor)
	}
	return limiter.NewPG(q, cfg.LimiterWindow, cfg.LimiterMaxFails, cfg.LimiterBlockFor)
}
