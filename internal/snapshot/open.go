package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/codezelat/pitchlens/internal/cache"
	"github.com/codezelat/pitchlens/internal/config"
	"github.com/codezelat/pitchlens/internal/store"
)

// Slot is an opened snapshot backend.
type Slot struct {
	cache.Cache
	Backend string

	closers []func() error
	purger  store.Store
}

// OpenSlot connects the backend named by cfg.Snapshot.Backend. The postgres
// backend also applies pending migrations.
func OpenSlot(ctx context.Context, cfg *config.Config) (*Slot, error) {
	s := &Slot{Backend: cfg.Snapshot.Backend}

	switch cfg.Snapshot.Backend {
	case config.BackendMemory:
		s.Cache = cache.NewMemoryCache()

	case config.BackendSQLite:
		sc, err := cache.OpenSQLite(cfg.Snapshot.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite slot: %w", err)
		}
		s.Cache = sc
		s.closers = append(s.closers, sc.Close)

	case config.BackendRedis:
		rc, err := cache.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("create redis slot: %w", err)
		}
		if err := rc.Ping(ctx); err != nil {
			rc.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		s.Cache = rc
		s.closers = append(s.closers, rc.Close)

	case config.BackendPostgres:
		pool, err := store.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		if err := store.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsDir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		pg := store.NewPostgresStore(pool)
		s.Cache = pg
		s.purger = pg
		s.closers = append(s.closers, func() error { pool.Close(); return nil })

	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.Snapshot.Backend)
	}

	return s, nil
}

// Close releases the backend's connections.
func (s *Slot) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// PurgeLoop deletes expired slots every interval until ctx is done. Only the
// postgres backend needs it; the others expire entries themselves.
func (s *Slot) PurgeLoop(ctx context.Context, interval time.Duration) {
	if s.purger == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.purger.PurgeExpired(ctx)
			if err != nil {
				slog.Warn("snapshot purge failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("expired snapshots purged", "count", n)
			}
		}
	}
}
