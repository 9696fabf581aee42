package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Config holds all configuration for PitchLens.
type Config struct {
	Server   ServerConfig
	Scoring  ScoringConfig
	Snapshot SnapshotConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Badge    BadgeConfig
	Publish  PublishConfig
}

type ServerConfig struct {
	Port             int
	Env              string
	PublicBaseURL    string
	RateLimitPerMin  int
	ClipboardBackend string
}

type ScoringConfig struct {
	BaseURL      string
	Token        string
	Timeout      time.Duration
	HistoryLimit int
}

type SnapshotConfig struct {
	Backend   string
	Path      string
	// Retention bounds how long a slot survives in the backing store.
	// Staleness is computed separately at read time.
	Retention time.Duration
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrationsDir   string
}

type RedisConfig struct {
	URL string
}

type BadgeConfig struct {
	RasterBackend string
	RasterTimeout time.Duration
}

type PublishConfig struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	// KeyHash is a bcrypt hash of the shared key that unlocks the publish
	// endpoint. Empty means any identified caller may publish.
	KeyHash   string
}

// Enabled reports whether badge publishing to object storage is configured.
func (p PublishConfig) Enabled() bool {
	return p.Endpoint != "" && p.Bucket != ""
}

const (
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

var validBackends = map[string]bool{
	BackendSQLite:   true,
	BackendRedis:    true,
	BackendPostgres: true,
	BackendMemory:   true,
}

var validRasterBackends = map[string]bool{
	"canvas":  true,
	"browser": true,
}

var validClipboards = map[string]bool{
	"system": true,
	"osc52":  true,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:             envInt("PITCHLENS_PORT", 8080),
			Env:              envString("PITCHLENS_ENV", "development"),
			PublicBaseURL:    envString("PUBLIC_BASE_URL", "https://pitchlens.app"),
			RateLimitPerMin:  envInt("RATE_LIMIT_PER_MIN", 60),
			ClipboardBackend: envString("CLIPBOARD", "system"),
		},
		Scoring: ScoringConfig{
			BaseURL:      strings.TrimRight(os.Getenv("SCORING_BASE_URL"), "/"),
			Token:        os.Getenv("SCORING_TOKEN"),
			Timeout:      envDuration("SCORING_TIMEOUT", 10*time.Second),
			HistoryLimit: envInt("HISTORY_LIMIT", 10),
		},
		Snapshot: SnapshotConfig{
			Backend:   envString("SNAPSHOT_BACKEND", BackendSQLite),
			Path:      envString("SNAPSHOT_PATH", filepath.Join(xdg.CacheHome, "pitchlens", "snapshot.db")),
			Retention: envDuration("SNAPSHOT_RETENTION", 30*24*time.Hour),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
			MigrationsDir:   envString("MIGRATIONS_DIR", "migrations"),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Badge: BadgeConfig{
			RasterBackend: envString("RASTER_BACKEND", "canvas"),
			RasterTimeout: envDuration("RASTER_TIMEOUT", 15*time.Second),
		},
		Publish: PublishConfig{
			Endpoint:  os.Getenv("BADGE_PUBLISH_ENDPOINT"),
			Bucket:    os.Getenv("BADGE_PUBLISH_BUCKET"),
			Region:    envString("BADGE_PUBLISH_REGION", "us-east-1"),
			AccessKey: os.Getenv("BADGE_PUBLISH_ACCESS_KEY"),
			SecretKey: os.Getenv("BADGE_PUBLISH_SECRET_KEY"),
			UseSSL:    envBool("BADGE_PUBLISH_USE_SSL", true),
			KeyHash:   os.Getenv("BADGE_PUBLISH_KEY_HASH"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Scoring.BaseURL == "" {
		return fmt.Errorf("SCORING_BASE_URL is required")
	}
	if !isHTTPURL(c.Scoring.BaseURL) {
		return fmt.Errorf("SCORING_BASE_URL must start with http:// or https://, got %q", c.Scoring.BaseURL)
	}
	if c.Scoring.HistoryLimit <= 0 {
		return fmt.Errorf("HISTORY_LIMIT must be positive, got %d", c.Scoring.HistoryLimit)
	}

	if !validBackends[c.Snapshot.Backend] {
		return fmt.Errorf("SNAPSHOT_BACKEND must be one of sqlite, redis, postgres, memory; got %q", c.Snapshot.Backend)
	}
	if c.Snapshot.Backend == BackendRedis && c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required when SNAPSHOT_BACKEND is redis")
	}
	if c.Snapshot.Backend == BackendPostgres && c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required when SNAPSHOT_BACKEND is postgres")
	}
	if c.Snapshot.Backend == BackendSQLite && c.Snapshot.Path == "" {
		return fmt.Errorf("SNAPSHOT_PATH is required when SNAPSHOT_BACKEND is sqlite")
	}

	if !validRasterBackends[c.Badge.RasterBackend] {
		return fmt.Errorf("RASTER_BACKEND must be one of canvas, browser; got %q", c.Badge.RasterBackend)
	}
	if !validClipboards[c.Server.ClipboardBackend] {
		return fmt.Errorf("CLIPBOARD must be one of system, osc52; got %q", c.Server.ClipboardBackend)
	}
	if !isHTTPURL(c.Server.PublicBaseURL) {
		return fmt.Errorf("PUBLIC_BASE_URL must start with http:// or https://, got %q", c.Server.PublicBaseURL)
	}

	if c.Publish.Endpoint != "" && c.Publish.Bucket == "" {
		return fmt.Errorf("BADGE_PUBLISH_BUCKET is required when BADGE_PUBLISH_ENDPOINT is set")
	}
	if c.Publish.Enabled() && (c.Publish.AccessKey == "" || c.Publish.SecretKey == "") {
		return fmt.Errorf("BADGE_PUBLISH_ACCESS_KEY and BADGE_PUBLISH_SECRET_KEY are required when publishing is enabled")
	}

	return nil
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
