package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/rssync/app/api"
	"github.com/lysyi3m/rssync/app/cache"
	"github.com/lysyi3m/rssync/app/cfg"
	"github.com/lysyi3m/rssync/app/database"
	"github.com/lysyi3m/rssync/app/feed"
	"github.com/lysyi3m/rssync/app/logging"
	"github.com/lysyi3m/rssync/app/tasks"
)

func main() {
	if err := run(); err != nil {
		slog.Error("RSSync server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	appCfg, err := cfg.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if appCfg == nil {
		// Help was shown
		return nil
	}

	logCloser, err := logging.Setup(appCfg)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer logCloser.Close()

	slog.Info("Starting RSSync server", "version", cfg.GetVersion())

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	slog.Info("Connected to database", "path", appCfg.DBPath)

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Database migrations applied", "version", version, "dirty", dirty)

	sourceRepo := database.NewSourceRepository(db)
	itemRepo := database.NewItemRepository(db)
	listRepo := database.NewListRepository(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog := feed.NewCatalog(appCfg.CatalogDir)
	if err := catalog.Run(); err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	slog.Info("Catalog loaded", "dir", appCfg.CatalogDir, "sources", catalog.GetSourceCount(), "lists", catalog.GetListCount())

	syncTask := tasks.NewSyncCatalogTask(appCfg.CatalogDir, catalog, sourceRepo, listRepo)
	syncTask.Start()
	if err := syncTask.Execute(ctx); err != nil {
		return fmt.Errorf("failed to sync catalog: %w", err)
	}

	fetcher := feed.NewFetcher(appCfg.FetchTimeout, appCfg.UserAgent, appCfg.StrictTLS,
		feed.NewHostRateLimiter(appCfg.HostInterval))
	if !appCfg.StrictTLS {
		slog.Warn("TLS certificate verification is disabled for feed fetches")
	}

	refresher := tasks.NewRefresher(sourceRepo, itemRepo, fetcher, feed.NewParser(),
		feed.NewImageResolver(), feed.NewContentExtractor(), appCfg.WorkerCount)
	aggregator := feed.NewAggregator(itemRepo, listRepo, feed.NewFilterer())

	var listCache api.ListCache
	if appCfg.RedisAddr != "" {
		redisCache, err := cache.NewCache(ctx, appCfg.RedisAddr)
		if err != nil {
			slog.Warn("Redis unavailable, list caching disabled", "addr", appCfg.RedisAddr, "error", err)
		} else {
			defer redisCache.Close()
			// Catalog changes may have altered list membership.
			if err := redisCache.InvalidateLists(ctx); err != nil {
				slog.Warn("Failed to clear list cache", "error", err)
			}
			listCache = redisCache
		}
	}

	apiHandler := api.NewHandler(sourceRepo, itemRepo, listRepo, aggregator, feed.NewGenerator(),
		refresher, listCache, appCfg.CacheTTL)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // refresh/all runs inside the request
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port, "public_url", appCfg.PublicURL())

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	slog.Info("RSSync server started")

	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case err := <-serverErrChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	slog.Info("RSSync server shutdown complete")
	return nil
}
