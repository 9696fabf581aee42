package store

import (
	"context"
	"time"
)

// Store is the data access interface for slot persistence in Postgres.
// Its method set matches cache.Cache so a Store can back the snapshot cache.
type Store interface {
	Ping(ctx context.Context) error
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, key string) error
	PurgeExpired(ctx context.Context) (int64, error)
}
