package app

import (
	"context"

	"github.com/heritagehub/cms/cache"
	"github.com/heritagehub/cms/cache/redis"
	"github.com/heritagehub/cms/config"
	"github.com/heritagehub/cms/logger"
	"github.com/heritagehub/cms/migration"
)

// CacheConnector opens the settings cache when caching is enabled.
type CacheConnector func(*config.RedisConfig) (cache.Cache, error)

// MigrationRunner applies pending schema migrations and returns how many ran.
type MigrationRunner func(ctx context.Context, db Database, log logger.Logger) (int, error)

// Options contains optional dependencies for creating an App instance.
type Options struct {
	DatabaseConnector DatabaseConnector
	Migrate           MigrationRunner
	CacheConnector    CacheConnector
	// Server replaces the HTTP server built from configuration.
	Server ServerRunner
	// Tables is the list handed to sequence repair; defaults to migration.Tables.
	Tables []string
}

func (o *Options) withDefaults() *Options {
	out := Options{}
	if o != nil {
		out = *o
	}
	if out.DatabaseConnector == nil {
		out.DatabaseConnector = defaultConnector
	}
	if out.Migrate == nil {
		out.Migrate = runMigrations
	}
	if out.CacheConnector == nil {
		out.CacheConnector = defaultCacheConnector
	}
	if out.Tables == nil {
		out.Tables = migration.Tables
	}
	return &out
}

func runMigrations(ctx context.Context, db Database, log logger.Logger) (int, error) {
	m, err := migration.New(db.DB(), db.Dialect(), log)
	if err != nil {
		return 0, err
	}
	return m.Up(ctx)
}

func defaultCacheConnector(cfg *config.RedisConfig) (cache.Cache, error) {
	return redis.NewClient(cfg)
}
