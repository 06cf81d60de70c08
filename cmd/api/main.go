package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TheGringo-ai/FixItFred/internal/app/migrate"
	"github.com/TheGringo-ai/FixItFred/internal/events"
	"github.com/TheGringo-ai/FixItFred/internal/feed"
	httpx "github.com/TheGringo-ai/FixItFred/internal/http"
	"github.com/TheGringo-ai/FixItFred/internal/repository"
	"github.com/TheGringo-ai/FixItFred/internal/repository/memory"
	"github.com/TheGringo-ai/FixItFred/internal/repository/postgres"
	"github.com/TheGringo-ai/FixItFred/internal/repository/redisstore"
	"github.com/TheGringo-ai/FixItFred/internal/service/registry"
	syncsvc "github.com/TheGringo-ai/FixItFred/internal/service/sync"
	"github.com/TheGringo-ai/FixItFred/pkg/config"
	"github.com/TheGringo-ai/FixItFred/pkg/logger"
)

func main() {
	cfg := config.LoadRegistryConfig()
	log := logger.New("registry", logger.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := openStore(ctx, cfg, log)
	defer store.Close()

	hub := events.NewHub()
	reg := registry.New(ctx, store, hub, log, cfg.QuickDeployDelay)

	var syncer httpx.Reconciler
	if addr := strings.TrimSpace(cfg.FeedURL); addr != "" {
		feedClient, err := feed.New(addr)
		if err != nil {
			log.Error("invalid deployment feed url", "error", err)
			os.Exit(1)
		}
		svc := syncsvc.New(reg, feedClient, log, cfg.SyncInterval)
		go svc.Run(ctx)
		syncer = svc
	} else {
		log.Info("no deployment feed configured, reconciliation disabled")
	}

	limiter := httpx.NewMemoryRateLimiter()
	if addr := strings.TrimSpace(cfg.RateLimitRedisAddr); addr != "" {
		redisLimiter, err := httpx.NewRedisRateLimiter(addr, cfg.RateLimitRedisPass, cfg.RateLimitRedisDB, log)
		if err != nil {
			log.Warn("redis rate limiter unavailable", "error", err)
		} else {
			limiter = redisLimiter
		}
	}

	router := httpx.NewRouter(log, reg, syncer, hub, limiter, store.Ping)
	defer router.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("registry server starting", "addr", cfg.Addr)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("registry server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}

// openStore selects the persistence substrate: Redis when configured, then
// Postgres (with migrations ensured), otherwise process memory.
func openStore(ctx context.Context, cfg config.RegistryConfig, log *slog.Logger) repository.RecordStore {
	if addr := strings.TrimSpace(cfg.RedisAddr); addr != "" {
		store, err := redisstore.New(addr, cfg.RedisPassword, cfg.RedisDB, cfg.StorageKeyPrefix, log)
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		log.Info("using redis storage", "addr", addr)
		return store
	}
	if dsn := strings.TrimSpace(cfg.DatabaseURL); dsn != "" {
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			log.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		runner, err := migrate.New(pool, dsn, cfg.MigrationsDir, log)
		if err != nil {
			log.Error("failed to configure migrations", "error", err)
			os.Exit(1)
		}
		if err := runner.Ping(ctx); err != nil {
			log.Error("database ping failed", "error", err)
			os.Exit(1)
		}
		if err := runner.Ensure(ctx); err != nil {
			log.Error("migrations failed", "error", err)
			os.Exit(1)
		}
		log.Info("using postgres storage")
		return postgres.New(pool, log)
	}
	log.Warn("no storage backend configured, registry state is process-local")
	return memory.New()
}
