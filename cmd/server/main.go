package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"galaxy-forge/internal/catalog"
	"galaxy-forge/internal/galaxy"
	"galaxy-forge/internal/middleware"
	"galaxy-forge/internal/server"
	"galaxy-forge/internal/shared/config"
	"galaxy-forge/internal/shared/database"
	"galaxy-forge/internal/shared/logger"
	"galaxy-forge/internal/shared/redis"
	"galaxy-forge/internal/shared/telemetry"
	"galaxy-forge/migrations"
)

func main() {
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init()
	log := slog.With("component", "main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log); err != nil {
		log.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
	log.Info("Server stopped")
}

func run(ctx context.Context, log *slog.Logger) error {
	cfg := config.GlobalConfig
	log.Info("Starting galaxy-forge", "environment", cfg.Server.Environment, "port", cfg.Server.Port)

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("Failed to flush traces", "error", err)
		}
	}()

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	var store galaxy.Store
	if db != nil {
		var migrationFS fs.FS = migrations.FS
		if cfg.Database.MigrationsPath != "" {
			migrationFS = os.DirFS(cfg.Database.MigrationsPath)
		}
		if err := db.RunMigrations(ctx, migrationFS); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		store = galaxy.NewRepository(db, slog.With("component", "galaxy_repository"))
	} else {
		store = galaxy.NewMemoryStore()
	}

	rdb, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		// The summary cache is best-effort.
		log.Warn("Redis unavailable, summary cache off", "error", err)
	}
	defer rdb.Close()

	var cache *galaxy.SummaryCache
	if rdb != nil {
		cache = galaxy.NewSummaryCache(rdb.Client, cfg.Redis.SummaryTTL)
	}

	cat, err := loadCatalog(cfg.Generation.CatalogPath)
	if err != nil {
		return err
	}

	pipeline := galaxy.NewPipeline(store, cat)
	service := galaxy.NewService(store, pipeline, cache, galaxy.ConfigFromSettings(cfg.Generation), slog.With("component", "galaxy_service"))

	routes := server.NewRoutes(db, rdb, service, middleware.NewAdminGuard(cfg.Admin), log)
	mux := routes.Setup()

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit)
	handler := middleware.NewCORS(cfg.Frontend).Middleware(rateLimiter.Middleware(mux))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		cat, err := catalog.Default()
		if err != nil {
			return nil, fmt.Errorf("failed to load built-in catalog: %w", err)
		}
		return cat, nil
	}
	cat, err := catalog.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog %s: %w", path, err)
	}
	return cat, nil
}
