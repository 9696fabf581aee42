// Package main is the entrypoint for the PitchLens API server.
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

	"github.com/codezelat/pitchlens/internal/api"
	"github.com/codezelat/pitchlens/internal/api/handler"
	mw "github.com/codezelat/pitchlens/internal/api/middleware"
	"github.com/codezelat/pitchlens/internal/badge"
	"github.com/codezelat/pitchlens/internal/cache"
	"github.com/codezelat/pitchlens/internal/config"
	"github.com/codezelat/pitchlens/internal/export"
	"github.com/codezelat/pitchlens/internal/resolve"
	"github.com/codezelat/pitchlens/internal/scoring"
	"github.com/codezelat/pitchlens/internal/snapshot"
)

const (
	shutdownTimeout = 30 * time.Second
	purgeInterval   = time.Hour
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load config, failing fast on invalid values
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded",
		"env", cfg.Server.Env,
		"snapshot_backend", cfg.Snapshot.Backend,
		"raster_backend", cfg.Badge.RasterBackend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	go a.slot.PurgeLoop(ctx, purgeInterval)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      a.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// app is the wired server: the snapshot slot, optional rate limit counter and
// the HTTP handler built on top of them.
type app struct {
	slot    *snapshot.Slot
	limiter *cache.RedisCache
	handler http.Handler
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}

	// 1. Snapshot slot
	slot, err := snapshot.OpenSlot(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.slot = slot
	slog.Info("snapshot slot opened", "backend", slot.Backend)

	// 2. Rate limit counter: Redis when configured, else an in-process slot that can count
	var counter cache.Counter
	if cfg.Redis.URL != "" {
		rc, err := cache.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("create redis counter: %w", err)
		}
		a.limiter = rc
		counter = rc
	} else if c, ok := slot.Cache.(cache.Counter); ok {
		counter = c
	}

	var rateLimit *mw.RateLimit
	if counter != nil {
		rateLimit = mw.NewRateLimit(counter, cfg.Server.RateLimitPerMin)
		slog.Info("rate limiting enabled", "per_min", cfg.Server.RateLimitPerMin)
	}

	// 3. Scoring client and resolution chain
	client := scoring.NewHTTPClient(cfg.Scoring.BaseURL, cfg.Scoring.Token, cfg.Scoring.Timeout)
	snapshots := snapshot.New(slot, snapshot.WithRetention(cfg.Snapshot.Retention))
	resolver := resolve.New(client, snapshots, resolve.WithHistoryLimit(cfg.Scoring.HistoryLimit))

	// 4. Rendering and publishing
	raster, err := badge.NewRasterizer(cfg.Badge.RasterBackend, badge.WithBrowserTimeout(cfg.Badge.RasterTimeout))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create rasterizer: %w", err)
	}

	var publisher handler.Publisher
	pub, err := export.NewPublisher(ctx, cfg.Publish)
	switch {
	case err == nil:
		publisher = pub
		slog.Info("badge publishing enabled", "bucket", cfg.Publish.Bucket)
	case errors.Is(err, export.ErrPublishDisabled):
	default:
		a.Close()
		return nil, fmt.Errorf("create publisher: %w", err)
	}

	// 5. Router
	analyses := handler.NewAnalyses(resolver, snapshots)
	badges := handler.NewBadges(resolver, snapshots, raster, publisher, cfg.Server.PublicBaseURL)

	a.handler = api.NewRouter(api.Dependencies{
		Auth:      mw.NewAuth(cfg.Publish.KeyHash),
		RateLimit: rateLimit,

		HealthHandler:   handler.NewHealthHandler(client, slot),
		LatestHandler:   analyses.Latest,
		ListHandler:     analyses.List,
		AnalyzeHandler:  analyses.Analyze,
		ClearHandler:    analyses.ClearSnapshot,
		BadgeHandler:    badges.Render,
		DownloadHandler: badges.Download,
		PublishHandler:  badges.Publish,
		ShareHandler:    badges.Share,
	})

	return a, nil
}

func (a *app) Close() {
	if a.limiter != nil {
		if err := a.limiter.Close(); err != nil {
			slog.Warn("closing redis counter", "error", err)
		}
	}
	if a.slot != nil {
		if err := a.slot.Close(); err != nil {
			slog.Warn("closing snapshot slot", "error", err)
		}
	}
}
