package cache_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/codezelat/pitchlens/internal/cache"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis spins up a Redis container and returns a connected RedisCache + cleanup.
func setupRedis(t *testing.T) *cache.RedisCache {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Terminate(ctx)) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	redisURL := "redis://" + host + ":" + port.Port()
	rc, err := cache.NewRedisCache(redisURL)
	require.NoError(t, err)
	t.Cleanup(func() { rc.Close() })

	return rc
}

func setupSQLite(t *testing.T) *cache.SQLiteCache {
	t.Helper()
	sc, err := cache.OpenSQLite(filepath.Join(t.TempDir(), "nested", "snapshot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sc.Close() })
	return sc
}

// backends returns every Cache that runs without external services.
func backends(t *testing.T) map[string]cache.Cache {
	return map[string]cache.Cache{
		"memory": cache.NewMemoryCache(),
		"sqlite": setupSQLite(t),
	}
}

// --- Contract shared by local backends ---

func TestLocalBackends_Roundtrip(t *testing.T) {
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, c.Ping(ctx))

			require.NoError(t, c.Set(ctx, "test:key", []byte("hello"), 0))
			val, found, err := c.Get(ctx, "test:key")
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, []byte("hello"), val)

			// last write wins
			require.NoError(t, c.Set(ctx, "test:key", []byte("world"), 0))
			val, _, err = c.Get(ctx, "test:key")
			require.NoError(t, err)
			assert.Equal(t, []byte("world"), val)
		})
	}
}

func TestLocalBackends_NotFound(t *testing.T) {
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			val, found, err := c.Get(context.Background(), "nonexistent:key")
			require.NoError(t, err)
			assert.False(t, found)
			assert.Nil(t, val)
		})
	}
}

func TestLocalBackends_Delete(t *testing.T) {
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, c.Set(ctx, "del:key", []byte("bye"), 0))
			require.NoError(t, c.Delete(ctx, "del:key"))

			_, found, err := c.Get(ctx, "del:key")
			require.NoError(t, err)
			assert.False(t, found)

			assert.NoError(t, c.Delete(ctx, "does:not:exist"))
		})
	}
}

func TestLocalBackends_TTLExpiry(t *testing.T) {
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, c.Set(ctx, "expiry:key", []byte("temp"), 50*time.Millisecond))

			_, found, err := c.Get(ctx, "expiry:key")
			require.NoError(t, err)
			assert.True(t, found)

			time.Sleep(80 * time.Millisecond)

			_, found, err = c.Get(ctx, "expiry:key")
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.db")
	ctx := context.Background()

	first, err := cache.OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, first.Close())

	second, err := cache.OpenSQLite(path)
	require.NoError(t, err)
	defer second.Close()

	val, found, err := second.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("v"), val)
}

func TestMemory_IncrWithExpiry(t *testing.T) {
	mc := cache.NewMemoryCache()
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := mc.IncrWithExpiry(ctx, "ratelimit:abc", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := mc.IncrWithExpiry(ctx, "ratelimit:short", 20*time.Millisecond)
	require.NoError(t, err)
	time.Sleep(40 * time.Millisecond)
	got, err := mc.IncrWithExpiry(ctx, "ratelimit:short", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

// --- Redis (integration) ---

func TestRedis_PingAndRoundtrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, rc.Ping(ctx))
	require.NoError(t, rc.Set(ctx, "test:key", []byte("hello"), 10*time.Second))

	val, found, err := rc.Get(ctx, "test:key")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("hello"), val)

	require.NoError(t, rc.Delete(ctx, "test:key"))
	_, found, err = rc.Get(ctx, "test:key")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedis_NoTTLPersists(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, rc.Set(ctx, cache.SnapshotKey(""), []byte(`{"score":1}`), 0))
	time.Sleep(100 * time.Millisecond)

	_, found, err := rc.Get(ctx, cache.SnapshotKey(""))
	require.NoError(t, err)
	assert.True(t, found)
}

func TestRedis_IncrWithExpiry(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()
	key := "ratelimit:test:" + uuid.NewString()[:8]

	for want := int64(1); want <= 3; want++ {
		val, err := rc.IncrWithExpiry(ctx, key, 10*time.Second)
		require.NoError(t, err)
		assert.Equal(t, want, val)
	}
}

func TestRedis_IncrWindowDoesNotSlide(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()
	key := "ratelimit:test:" + uuid.NewString()[:8]

	for i := 0; i < 2; i++ {
		_, err := rc.IncrWithExpiry(ctx, key, time.Second)
		require.NoError(t, err)
		time.Sleep(700 * time.Millisecond)
	}

	val, err := rc.IncrWithExpiry(ctx, key, time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), val, "window must expire one second after the first hit")
}

// --- Key Builders ---

func TestSnapshotKey(t *testing.T) {
	assert.Equal(t, "pitchlens:lastAnalysis:v1", cache.SnapshotKey(""))
	assert.Equal(t, "pitchlens:lastAnalysis:v1:abc123", cache.SnapshotKey("abc123"))
}

func TestRateLimitKey(t *testing.T) {
	assert.Equal(t, "ratelimit:abc123", cache.RateLimitKey("abc123"))
}

func TestOwnerFromToken(t *testing.T) {
	assert.Equal(t, "", cache.OwnerFromToken(""))

	a := cache.OwnerFromToken("token-a")
	assert.Len(t, a, 24)
	assert.Equal(t, a, cache.OwnerFromToken("token-a"), "owner id must be stable")
	assert.NotEqual(t, a, cache.OwnerFromToken("token-b"))
	assert.NotContains(t, a, "token")
}

func TestKeyBuilders_NonColliding(t *testing.T) {
	owner := cache.OwnerFromToken("secret")
	keys := map[string]bool{
		cache.SnapshotKey(""):     true,
		cache.SnapshotKey(owner):  true,
		cache.RateLimitKey(owner): true,
	}
	assert.Len(t, keys, 3, "all keys should be unique")
}
