// Package app wires configuration, the database connection, schema migrations,
// the maintenance scheduler, the settings store and the operational HTTP server
// into a runnable process.
package app

import (
	"context"
	"fmt"

	"github.com/heritagehub/cms/cache"
	"github.com/heritagehub/cms/config"
	"github.com/heritagehub/cms/database/types"
	"github.com/heritagehub/cms/logger"
	"github.com/heritagehub/cms/observability"
	"github.com/heritagehub/cms/scheduler"
	"github.com/heritagehub/cms/server"
	"github.com/heritagehub/cms/settings"
)

// App represents the main application instance.
type App struct {
	cfg       *config.Config
	logger    logger.Logger
	db        Database
	cache     cache.Cache
	settings  *settings.Store
	scheduler *scheduler.Scheduler
	server    ServerRunner
	telemetry observability.Provider
}

// New creates an application from configuration: it opens the database,
// applies migrations and repairs sequences when configured, then builds the server.
func New(cfg *config.Config, log logger.Logger) (*App, error) {
	return NewWithOptions(cfg, log, nil)
}

// NewWithOptions is New with injectable dependencies.
func NewWithOptions(cfg *config.Config, log logger.Logger, opts *Options) (*App, error) {
	opts = opts.withDefaults()
	ctx := context.Background()

	// Providers are installed before the pool opens so pool gauges bind to them.
	telemetry, err := observability.NewProvider(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	a := &App{cfg: cfg, logger: log, telemetry: telemetry}

	db, err := opts.DatabaseConnector(&cfg.Database, log)
	if err != nil {
		a.abort(ctx)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.db = db

	if cfg.Database.Migrate.Auto {
		applied, err := opts.Migrate(ctx, db, log)
		if err != nil {
			a.abort(ctx)
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		log.Info().Int("applied", applied).Str("dialect", db.Dialect().String()).Msg("Database schema up to date")
	}

	if cfg.Database.Sequences.Repair {
		report := db.FixSequences(ctx, opts.Tables)
		if failed := report.Failed(); len(failed) > 0 {
			log.Warn().Int("updated", report.Updated()).Int("failed", len(failed)).Msg("Startup sequence repair completed with failures")
		}
	}

	if cfg.Cache.Enabled {
		c, err := opts.CacheConnector(&cfg.Cache.Redis)
		if err != nil {
			a.abort(ctx)
			return nil, fmt.Errorf("failed to connect to cache: %w", err)
		}
		a.cache = c
		log.Info().Dur("ttl", cfg.Cache.TTL).Msg("Settings cache enabled")
	}
	a.settings = settings.NewStore(db.Querier(), a.cache, cfg.Cache.TTL, log)

	a.scheduler = scheduler.New(log, cfg.Scheduler.Timeout.Shutdown)
	if err := registerJobs(a.scheduler, cfg.Database.Sequences.Schedule, db, opts.Tables, log); err != nil {
		a.abort(ctx)
		return nil, fmt.Errorf("failed to schedule sequence repair: %w", err)
	}

	a.server = opts.Server
	if a.server == nil {
		srv := server.New(cfg, log, db)
		srv.RegisterJobRoutes(a.scheduler)
		a.server = srv
	}

	return a, nil
}

// abort releases whatever NewWithOptions acquired before failing.
func (a *App) abort(ctx context.Context) {
	if a.scheduler != nil {
		_ = a.scheduler.Shutdown()
	}
	if a.cache != nil {
		_ = a.cache.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close database after startup error")
		}
	}
	_ = a.telemetry.Shutdown(ctx)
}

// Querier returns the gateway route handlers query through.
func (a *App) Querier() types.Querier {
	return a.db.Querier()
}

// Settings returns the site settings store.
func (a *App) Settings() *settings.Store {
	return a.settings
}

// Jobs returns the maintenance scheduler.
func (a *App) Jobs() *scheduler.Scheduler {
	return a.scheduler
}
