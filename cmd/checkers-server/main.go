package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/park285/Cheese-Checkers/internal/archive"
	appcfg "github.com/park285/Cheese-Checkers/internal/config"
	"github.com/park285/Cheese-Checkers/internal/httpapi"
	"github.com/park285/Cheese-Checkers/internal/match"
	"github.com/park285/Cheese-Checkers/internal/msgcat"
	"github.com/park285/Cheese-Checkers/internal/obslog"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	// Live game snapshots (optional)
	var store *match.Store
	if cfg.RedisURL != "" {
		store, err = match.NewStore(cfg.RedisURL, cfg.GameTTL)
		if err != nil {
			logger.Fatal("redis init error", zap.Error(err))
		}
	}

	// Finished games: Postgres when configured, memory otherwise
	var arch archive.Store
	if cfg.DatabaseURL != "" {
		repo, err := archive.NewRepository(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("archive repo init error", zap.Error(err))
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = repo.EnsureSchema(ctx)
		cancel()
		if err != nil {
			logger.Fatal("archive schema error", zap.Error(err))
		}
		arch = repo
	} else {
		logger.Warn("archive_memory_fallback")
		arch = archive.NewMemoryStore()
	}

	cat, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		logger.Fatal("message catalog error", zap.Error(err))
	}

	mgr := match.NewManager(match.Options{
		Store:        store,
		Archive:      arch,
		MaxLiveGames: cfg.MaxLiveGames,
	})
	srv := httpapi.New(mgr, cat, cfg.ArchiveListLimit)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(cfg.HTTPAddr) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("shutdown", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("http_serve_error", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := multierr.Combine(srv.Shutdown(ctx), mgr.Close()); err != nil {
		logger.Warn("shutdown_error", zap.Error(err))
	}
}
