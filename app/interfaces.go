package app

import (
	"context"
	"database/sql"

	"github.com/heritagehub/cms/config"
	"github.com/heritagehub/cms/database"
	"github.com/heritagehub/cms/database/types"
	"github.com/heritagehub/cms/logger"
)

// ServerRunner abstracts the HTTP server so tests can inject a controllable one.
type ServerRunner interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// Database is the part of *database.Connection the application lifecycle depends on.
type Database interface {
	Health(ctx context.Context) error
	Dialect() types.Dialect
	Querier() types.Querier
	DB() *sql.DB
	FixSequences(ctx context.Context, tables []string) types.RepairReport
	Close() error
}

var _ Database = (*database.Connection)(nil)

// DatabaseConnector opens the configured database.
type DatabaseConnector func(*config.DatabaseConfig, logger.Logger) (Database, error)

func defaultConnector(cfg *config.DatabaseConfig, log logger.Logger) (Database, error) {
	return database.NewConnection(cfg, log)
}
