package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Cache    CacheConfig
	Fetch    FetchConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	Snapshot SnapshotConfig
	// FeedsPath is the YAML feed catalog. Empty means search the usual locations.
	FeedsPath string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	HTTPAddr            string
	RateLimitDur        time.Duration
	RefreshInterval     time.Duration
	EnableManualRefresh bool
	RefreshOnceMode     bool
}

// CacheConfig holds feed cache configuration
type CacheConfig struct {
	Backend    string // "memory", "redis" or "sqlite"
	TTL        time.Duration
	RedisAddr  string
	SQLitePath string
	MaxBytes   int // memory backend quota
	MaxRows    int // sqlite backend quota
}

// FetchConfig holds per-feed network settings
type FetchConfig struct {
	Timeout   time.Duration
	RelayURL  string
	UserAgent string
	MaxItems  int
	Retention time.Duration
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
	File  string
}

// SnapshotConfig controls where JSON snapshots are written
type SnapshotConfig struct {
	Dir string
}

// Load parses flags and environment variables to build configuration
func Load() *Config {
	cfg := &Config{}
	loadDotEnv()

	// Define flags with defaults
	httpAddr := flag.String("http", ":8080", "HTTP server address")
	rateLimitDur := flag.Duration("rate-limit", time.Second, "Minimum delay between requests to same host")
	refreshInterval := flag.Duration("refresh-interval", 30*time.Minute, "Background refresh interval (0 disables)")
	manualRefresh := flag.Bool("manual-refresh", false, "Expose POST /api/refresh")
	refreshOnce := flag.Bool("refresh-once", false, "Refresh all feeds, write snapshots and exit")
	cacheTTL := flag.Duration("cache-ttl", time.Hour, "How long a fetched feed is served from cache")
	cacheBackend := flag.String("cache-backend", "memory", "Cache backend: memory, redis or sqlite")
	redisAddr := flag.String("redis-addr", "localhost:6379", "Redis server address")
	sqlitePath := flag.String("sqlite-path", "data/feed-cache.db", "SQLite cache file")
	cacheMaxBytes := flag.Int("cache-max-bytes", 5<<20, "Memory cache quota in bytes (0 = unlimited)")
	cacheMaxRows := flag.Int("cache-max-rows", 0, "SQLite cache quota in entries (0 = unlimited)")
	fetchTimeout := flag.Duration("fetch-timeout", 20*time.Second, "Per-feed request timeout")
	relayURL := flag.String("relay-url", "", "Relay endpoint the feed URL is appended to (empty fetches directly)")
	userAgent := flag.String("user-agent", "NewsFeedAggregator/1.0", "User-Agent sent with feed requests")
	maxItems := flag.Int("max-items", 0, "Maximum items kept per feed (0 = all)")
	retention := flag.Duration("retention", 60*24*time.Hour, "Drop items older than this")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	logFile := flag.String("log-file", "", "Also write logs to this rotated file")
	feedsPath := flag.String("feeds", "", "Path to the YAML feed catalog")
	snapshotDir := flag.String("snapshot-dir", "data", "Directory for JSON snapshots")
	dbEnabled := flag.Bool("db", false, "Persist snapshots to PostgreSQL")
	dbHost := flag.String("db-host", "localhost", "PostgreSQL host")
	dbPort := flag.Int("db-port", 5432, "PostgreSQL port")
	dbUser := flag.String("db-user", "postgres", "PostgreSQL user")
	dbPassword := flag.String("db-password", "postgres", "PostgreSQL password")
	dbName := flag.String("db-name", "newsfeed", "PostgreSQL database name")
	dbSSLMode := flag.String("db-sslmode", "disable", "PostgreSQL SSL mode")

	flag.Parse()

	// Apply environment variable overrides
	setString(httpAddr, "HTTP_ADDR")
	setDuration(rateLimitDur, "RATE_LIMIT")
	setDuration(refreshInterval, "REFRESH_INTERVAL")
	setBool(manualRefresh, "ENABLE_MANUAL_REFRESH")
	setBool(refreshOnce, "REFRESH_ONCE_MODE")
	setDuration(cacheTTL, "CACHE_TTL")
	setString(cacheBackend, "CACHE_BACKEND")
	setString(redisAddr, "REDIS_ADDR")
	setString(sqlitePath, "SQLITE_PATH")
	setInt(cacheMaxBytes, "CACHE_MAX_BYTES")
	setInt(cacheMaxRows, "CACHE_MAX_ROWS")
	setDuration(fetchTimeout, "FETCH_TIMEOUT")
	setString(relayURL, "RELAY_URL")
	setString(userAgent, "USER_AGENT")
	setInt(maxItems, "MAX_ITEMS")
	setDuration(retention, "RETENTION")
	setString(logLevel, "LOG_LEVEL")
	setString(logFile, "LOG_FILE")
	setString(feedsPath, "FEEDS_CONFIG_PATH")
	setString(snapshotDir, "SNAPSHOT_DIR")
	setBool(dbEnabled, "DB_ENABLED")
	setString(dbHost, "DB_HOST")
	setInt(dbPort, "DB_PORT")
	setString(dbUser, "DB_USER")
	setString(dbPassword, "DB_PASSWORD")
	setString(dbName, "DB_NAME")
	setString(dbSSLMode, "DB_SSLMODE")

	// Build config struct
	cfg.Server = ServerConfig{
		HTTPAddr:            *httpAddr,
		RateLimitDur:        *rateLimitDur,
		RefreshInterval:     *refreshInterval,
		EnableManualRefresh: *manualRefresh,
		RefreshOnceMode:     *refreshOnce,
	}

	cfg.Cache = CacheConfig{
		Backend:    strings.ToLower(strings.TrimSpace(*cacheBackend)),
		TTL:        *cacheTTL,
		RedisAddr:  *redisAddr,
		SQLitePath: *sqlitePath,
		MaxBytes:   *cacheMaxBytes,
		MaxRows:    *cacheMaxRows,
	}

	cfg.Fetch = FetchConfig{
		Timeout:   *fetchTimeout,
		RelayURL:  *relayURL,
		UserAgent: *userAgent,
		MaxItems:  *maxItems,
		Retention: *retention,
	}

	cfg.Database = DatabaseConfig{
		Enabled:  *dbEnabled,
		Host:     *dbHost,
		Port:     *dbPort,
		User:     *dbUser,
		Password: *dbPassword,
		Database: *dbName,
		SSLMode:  *dbSSLMode,
	}

	cfg.Logging = LoggingConfig{
		Level: *logLevel,
		File:  *logFile,
	}

	cfg.Snapshot = SnapshotConfig{Dir: *snapshotDir}
	cfg.FeedsPath = *feedsPath

	return cfg
}

// loadDotEnv reads ENV_FILE (default .env) into the environment. Variables that
// are already set win over the file.
func loadDotEnv() {
	path := os.Getenv("ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "config: ignoring %s: %v\n", path, err)
	}
}

// Validate reports settings the application cannot start with.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "memory", "redis", "sqlite":
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %v", c.Fetch.Timeout)
	}
	if c.Fetch.Retention <= 0 {
		return fmt.Errorf("retention must be positive, got %v", c.Fetch.Retention)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// setBool only overrides on a recognised value so an unset variable leaves the flag alone.
func setBool(dst *bool, key string) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "true", "1", "yes":
		*dst = true
	case "false", "0", "no":
		*dst = false
	}
}
