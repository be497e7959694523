package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/johnrirwin/newsfeed/internal/aggregator"
	"github.com/johnrirwin/newsfeed/internal/cache"
	"github.com/johnrirwin/newsfeed/internal/config"
	"github.com/johnrirwin/newsfeed/internal/database"
	"github.com/johnrirwin/newsfeed/internal/httpapi"
	"github.com/johnrirwin/newsfeed/internal/logging"
	"github.com/johnrirwin/newsfeed/internal/models"
	"github.com/johnrirwin/newsfeed/internal/ratelimit"
	"github.com/johnrirwin/newsfeed/internal/snapshot"
	"github.com/johnrirwin/newsfeed/internal/sources"
)

// App holds all application dependencies
type App struct {
	Config     *config.Config
	Logger     *logging.Logger
	Cache      cache.Store
	Catalog    *sources.FeedsConfig
	Aggregator *aggregator.Aggregator
	Snapshots  *snapshot.Store
	HTTPServer *httpapi.Server
	db         *database.DB
	itemStore  *database.FeedItemStore
	closers    []func() error
}

// New creates and initializes a new App instance
func New(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &App{Config: cfg}

	logger, err := logging.NewWithConfig(logging.Config{
		Level: logging.ParseLevel(cfg.Logging.Level),
		File:  cfg.Logging.File,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger = logger

	catalog, err := app.loadCatalog()
	if err != nil {
		return nil, err
	}
	app.Catalog = catalog

	app.Cache = app.initCache()

	limiter := ratelimit.New(cfg.Server.RateLimitDur)
	fetcher := sources.NewFeedFetcher(&http.Client{}, app.Cache, limiter, app.Logger, sources.FetcherConfig{
		Timeout:   cfg.Fetch.Timeout,
		MaxItems:  cfg.Fetch.MaxItems,
		UserAgent: cfg.Fetch.UserAgent,
		RelayURL:  cfg.Fetch.RelayURL,
	})

	app.Aggregator = aggregator.New(fetcher, catalog, app.Logger, aggregator.Options{
		TTL:       cfg.Cache.TTL,
		Retention: cfg.Fetch.Retention,
	})

	app.Snapshots = snapshot.New(cfg.Snapshot.Dir)

	if cfg.Database.Enabled {
		app.initDatabase()
	}

	app.HTTPServer = httpapi.New(app.Aggregator, app.Logger, httpapi.Options{
		EnableManualRefresh: cfg.Server.EnableManualRefresh,
	})

	return app, nil
}

// Run serves the HTTP API and refreshes feeds in the background until ctx is done.
func (a *App) Run(ctx context.Context) error {
	a.Logger.Info("Starting HTTP server", logging.WithField("addr", a.Config.Server.HTTPAddr))

	go a.refreshLoop(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.HTTPServer.Start(a.Config.Server.HTTPAddr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		return nil
	}
}

// Sync runs one batch pass: every category is aggregated, merged with its
// previous snapshot and written back, then the headlines are replaced outright.
// With a database configured the same sets are mirrored into Postgres.
func (a *App) Sync(ctx context.Context) error {
	runID := uuid.NewString()
	a.Logger.Info("Sync starting", logging.WithFields(map[string]interface{}{
		"run":        runID,
		"categories": len(a.Catalog.Categories),
	}))

	var errs []error
	for _, cat := range a.Catalog.Categories {
		if err := ctx.Err(); err != nil {
			return err
		}

		fresh := a.Aggregator.Aggregate(ctx, cat.Feeds, cat.Name)

		previous := a.previous(ctx, cat.Name)
		merged := a.Aggregator.Merge(fresh, previous)
		if err := a.persist(ctx, cat.Name, merged); err != nil {
			errs = append(errs, err)
			continue
		}

		a.Logger.Info("Saved category", logging.WithFields(map[string]interface{}{
			"category": cat.Name,
			"fresh":    len(fresh),
			"count":    len(merged),
		}))
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	headlines := a.Aggregator.Headlines(ctx)
	if err := a.persist(ctx, snapshot.HeadlinesName, headlines); err != nil {
		errs = append(errs, err)
	} else {
		a.Logger.Info("Saved headlines", logging.WithField("count", len(headlines)))
	}

	if a.itemStore != nil {
		cutoff := time.Now().Add(-a.Config.Fetch.Retention)
		removed, err := a.itemStore.DeleteItemsOlderThan(ctx, cutoff)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to prune feed items: %w", err))
		} else if removed > 0 {
			a.Logger.Info("Pruned expired feed items", logging.WithField("count", removed))
		}
	}

	return errors.Join(errs...)
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown(ctx context.Context) error {
	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error("HTTP server shutdown error", logging.WithField("error", err.Error()))
		}
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Error("Close error", logging.WithField("error", err.Error()))
		}
	}

	_ = a.Logger.Sync()
	return nil
}

// previous returns the last saved set of a category: the JSON snapshot, or the
// database rows when no snapshot file exists or it cannot be read.
func (a *App) previous(ctx context.Context, name string) []models.FeedItem {
	if a.Snapshots.Exists(name) {
		items, err := a.Snapshots.Load(name)
		if err == nil {
			return items
		}
		a.Logger.Warn("Ignoring unreadable snapshot", logging.WithFields(map[string]interface{}{
			"category": name,
			"error":    err.Error(),
		}))
	}

	if a.itemStore == nil {
		return []models.FeedItem{}
	}
	items, err := a.itemStore.ListCategory(ctx, name)
	if err != nil {
		a.Logger.Warn("Failed to load stored feed items", logging.WithFields(map[string]interface{}{
			"category": name,
			"error":    err.Error(),
		}))
		return []models.FeedItem{}
	}
	a.Logger.Info("Seeded merge from database", logging.WithFields(map[string]interface{}{
		"category": name,
		"count":    len(items),
	}))
	return items
}

func (a *App) persist(ctx context.Context, name string, items []models.FeedItem) error {
	if err := a.Snapshots.Save(name, items); err != nil {
		a.Logger.Error("Failed to write snapshot", logging.WithFields(map[string]interface{}{
			"category": name,
			"error":    err.Error(),
		}))
		return err
	}

	if a.itemStore == nil {
		return nil
	}
	if err := a.itemStore.ReplaceCategory(ctx, name, items); err != nil {
		a.Logger.Error("Failed to store feed items", logging.WithFields(map[string]interface{}{
			"category": name,
			"error":    err.Error(),
		}))
		return fmt.Errorf("failed to store %s: %w", name, err)
	}
	return nil
}

func (a *App) refreshLoop(ctx context.Context) {
	a.Logger.Info("Pre-fetching feeds in background...")
	if err := a.Aggregator.Refresh(ctx); err != nil {
		a.Logger.Warn("Initial fetch had errors", logging.WithField("error", err.Error()))
	}
	a.Logger.Info("Initial fetch complete")

	if a.Config.Server.RefreshInterval <= 0 {
		return
	}

	ticker := time.NewTicker(a.Config.Server.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.Aggregator.Refresh(ctx); err != nil {
				a.Logger.Warn("Scheduled refresh failed", logging.WithField("error", err.Error()))
			}
		}
	}
}

func (a *App) loadCatalog() (*sources.FeedsConfig, error) {
	// An explicit path must load.
	if a.Config.FeedsPath != "" {
		catalog, err := sources.LoadFeedsConfig(a.Config.FeedsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load feeds config %s: %w", a.Config.FeedsPath, err)
		}
		a.logCatalog(a.Config.FeedsPath, catalog)
		return catalog, nil
	}

	configPath := sources.FindFeedsConfig()
	if configPath == "" {
		a.Logger.Info("No feeds.yaml found, using default sources")
		return sources.DefaultFeedsConfig(), nil
	}

	catalog, err := sources.LoadFeedsConfig(configPath)
	if err != nil {
		a.Logger.Warn("Failed to load feeds config, using defaults", logging.WithFields(map[string]interface{}{
			"path":  configPath,
			"error": err.Error(),
		}))
		return sources.DefaultFeedsConfig(), nil
	}
	a.logCatalog(configPath, catalog)
	return catalog, nil
}

func (a *App) logCatalog(path string, catalog *sources.FeedsConfig) {
	a.Logger.Info("Loaded feeds configuration", logging.WithFields(map[string]interface{}{
		"path":       path,
		"categories": len(catalog.Categories),
	}))
}

func (a *App) initCache() cache.Store {
	cfg := a.Config.Cache

	switch cfg.Backend {
	case "redis":
		a.Logger.Info("Using Redis cache backend", logging.WithField("addr", cfg.RedisAddr))
		store, err := cache.NewRedis(cache.RedisConfig{
			Addr:   cfg.RedisAddr,
			MaxAge: cfg.TTL,
		})
		if err != nil {
			a.Logger.Error("Failed to connect to Redis, falling back to memory cache", logging.WithField("error", err.Error()))
			return a.memoryCache()
		}
		a.closers = append(a.closers, store.Close)
		return store
	case "sqlite":
		store, err := cache.NewSQLite(cache.SQLiteConfig{
			Path:    cfg.SQLitePath,
			MaxRows: cfg.MaxRows,
		})
		if err != nil {
			a.Logger.Error("Failed to open SQLite cache, falling back to memory cache", logging.WithField("error", err.Error()))
			return a.memoryCache()
		}
		a.Logger.Info("Using SQLite cache backend", logging.WithField("path", store.Path()))
		a.closers = append(a.closers, store.Close)
		return store
	default:
		a.Logger.Info("Using in-memory cache backend")
		return a.memoryCache()
	}
}

func (a *App) memoryCache() cache.Store {
	store := cache.NewMemory(cache.MemoryConfig{
		MaxBytes: a.Config.Cache.MaxBytes,
		MaxAge:   a.Config.Cache.TTL,
	})
	a.closers = append(a.closers, func() error {
		store.Stop()
		return nil
	})
	return store
}

func (a *App) initDatabase() {
	dbConfig := database.DefaultConfig()
	dbConfig.Host = a.Config.Database.Host
	dbConfig.Port = a.Config.Database.Port
	dbConfig.User = a.Config.Database.User
	dbConfig.Password = a.Config.Database.Password
	dbConfig.Database = a.Config.Database.Database
	dbConfig.SSLMode = a.Config.Database.SSLMode

	db, err := database.New(dbConfig)
	if err != nil {
		a.Logger.Warn("Failed to connect to PostgreSQL, snapshots stay file-only", logging.WithField("error", err.Error()))
		return
	}

	a.Logger.Info("Connected to PostgreSQL")
	if err := db.Migrate(context.Background()); err != nil {
		a.Logger.Warn("Failed to run migrations, snapshots stay file-only", logging.WithField("error", err.Error()))
		_ = db.Close()
		return
	}

	a.db = db
	a.itemStore = database.NewFeedItemStore(db)
	a.closers = append(a.closers, db.Close)
}
