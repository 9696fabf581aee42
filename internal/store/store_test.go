package store_test

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/codezelat/pitchlens/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// migrationsDir returns the absolute path to the migrations directory.
func migrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations")
}

// setupTestDB spins up a Postgres container, runs migrations, and returns a pool.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("pitchlens_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	err = store.RunMigrations(connStr, migrationsDir())
	require.NoError(t, err)

	// Running twice must be a no-op.
	require.NoError(t, store.RunMigrations(connStr, migrationsDir()))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	return pool
}

func TestPostgresStore_SetGetRoundtrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.Set(ctx, "pitchlens:lastAnalysis:v1", []byte(`{"score":87}`), 0))

	val, found, err := s.Get(ctx, "pitchlens:lastAnalysis:v1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"score":87}`, string(val))
}

func TestPostgresStore_LastWriteWins(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "slot", []byte("first"), 0))
	require.NoError(t, s.Set(ctx, "slot", []byte("second"), 0))

	val, found, err := s.Get(ctx, "slot")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("second"), val)
}

func TestPostgresStore_GetMissing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))

	val, found, err := s.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, val)
}

func TestPostgresStore_Delete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "slot", []byte("x"), 0))
	require.NoError(t, s.Delete(ctx, "slot"))
	require.NoError(t, s.Delete(ctx, "slot"), "deleting a missing slot is not an error")

	_, found, err := s.Get(ctx, "slot")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPostgresStore_ExpiryAndPurge(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "short", []byte("x"), 500*time.Millisecond))
	require.NoError(t, s.Set(ctx, "forever", []byte("y"), 0))

	time.Sleep(time.Second)

	_, found, err := s.Get(ctx, "short")
	require.NoError(t, err)
	assert.False(t, found)

	n, err := s.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, found, err = s.Get(ctx, "forever")
	require.NoError(t, err)
	assert.True(t, found)
}
