// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"notemap/internal/backup"
	"notemap/internal/cache"
	"notemap/internal/config"
	"notemap/internal/database"
	"notemap/internal/handlers"
	"notemap/internal/middleware"
	"notemap/internal/router"
	"notemap/internal/service"
	"notemap/internal/session"
	"notemap/internal/sizing"
	"notemap/internal/storage"
	"notemap/internal/store"
	"notemap/internal/tree"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger
	logger.Info("configuration loaded", "env", cfg.Env, "addr", cfg.Addr())

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return err
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			return err
		}
	}

	// Valkey backs sessions and the layout cache. Development falls back
	// to in-process sessions and no cache when it is not running.
	valkey, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		if !cfg.IsDev() {
			return err
		}
		logger.Warn("valkey unavailable, using in-memory sessions without layout cache", "error", err)
	}
	if valkey != nil {
		defer valkey.Close()
	}

	repo := store.NewRepository(db)
	catalog := newCatalog(cfg, repo, valkey, logger)

	uploader, err := newUploader(cfg)
	if err != nil {
		return err
	}
	if uploader == nil {
		logger.Warn("s3 storage not configured, backups are recorded without snapshot upload")
	}
	backups := backup.New(repo, store.NewBackupStore(db), uploader, logger)

	var sessions session.Manager = session.NewMemoryStore()
	if valkey != nil {
		sessions = session.NewStore(valkey)
	}

	loginLimiter := middleware.NewRateLimiter(10, time.Minute)
	defer loginLimiter.Stop()

	r := router.New(
		sessions,
		handlers.NewAuth(sessions, store.NewUserStore(db)),
		handlers.NewAPI(catalog, backups),
		loginLimiter,
		func(ctx context.Context) error { return db.PingContext(ctx) },
	)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	// Give active requests up to 30 seconds to complete.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}

// newCatalog wires the use-case layer from configuration. valkey may be
// nil, which disables layout caching.
func newCatalog(cfg *config.Config, repo service.Repository, valkey *redis.Client, logger *slog.Logger) *service.Catalog {
	opts := []service.Option{
		service.WithLayoutSeed(cfg.LayoutSeed),
		service.WithLogger(logger),
		service.WithLoaderOptions(
			tree.WithMaxDepth(cfg.TreeMaxDepth),
			tree.WithPageSize(cfg.TreePageSize),
		),
	}
	if valkey != nil {
		opts = append(opts, service.WithCache(cache.NewLayoutCache(valkey, cache.DefaultLayoutTTL)))
	}
	return service.New(repo, sizing.New(cfg.Weights), opts...)
}

// newUploader returns the snapshot uploader, or nil when object storage
// is not configured.
func newUploader(cfg *config.Config) (backup.Uploader, error) {
	client, err := storage.New(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, nil
	}
	return client, nil
}

// openDB connects to PostgreSQL for the maintenance commands.
func (a *app) openDB() (*sql.DB, error) {
	return database.Connect(a.cfg.DSN())
}
