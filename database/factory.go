// Package database opens the configured backend and exposes it through the
// dialect-neutral query gateway.
package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/heritagehub/cms/config"
	"github.com/heritagehub/cms/database/internal/tracking"
	"github.com/heritagehub/cms/database/postgresql"
	"github.com/heritagehub/cms/database/sqlite"
	"github.com/heritagehub/cms/database/types"
	"github.com/heritagehub/cms/logger"
)

// ErrUnsupportedDialect is returned for a dialect with no gateway implementation.
var ErrUnsupportedDialect = errors.New("unsupported database dialect")

// Openers are package variables so tests can substitute the driver layer.
var (
	openSQLite   = sqlite.Open
	openPostgres = postgresql.Open
)

// ResolveDialect picks the backend from configuration: a database URL selects
// PostgreSQL, anything else the embedded SQLite database.
func ResolveDialect(cfg *config.DatabaseConfig) types.Dialect {
	if cfg.Networked() {
		return types.Networked
	}
	return types.Embedded
}

// NewGateway returns the dialect strategy for d running over conn.
func NewGateway(d types.Dialect, conn types.Conn) (types.Gateway, error) {
	switch d {
	case types.Embedded:
		return sqlite.New(conn), nil
	case types.Networked:
		return postgresql.New(conn), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDialect, d)
	}
}

// NewConnection resolves the dialect once, opens the pool and returns it
// wrapped with query tracking.
func NewConnection(cfg *config.DatabaseConfig, log logger.Logger) (*Connection, error) {
	dialect := ResolveDialect(cfg)

	var (
		db  *sql.DB
		err error
	)
	switch dialect {
	case types.Networked:
		db, err = openPostgres(cfg, log)
	default:
		db, err = openSQLite(cfg, log)
	}
	if err != nil {
		return nil, err
	}

	conn, err := Wrap(db, dialect, cfg, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return conn, nil
}

// Wrap builds a Connection around an already opened pool. The Connection
// takes ownership of db.
func Wrap(db *sql.DB, dialect types.Dialect, cfg *config.DatabaseConfig, log logger.Logger) (*Connection, error) {
	gw, err := NewGateway(dialect, db)
	if err != nil {
		return nil, err
	}

	tc := &tracking.Context{
		Logger:   log,
		Dialect:  dialect,
		Settings: tracking.NewSettings(cfg),
	}

	return &Connection{
		db:                db,
		dialect:           dialect,
		gateway:           tracking.Wrap(gw, tc),
		log:               log,
		unregisterMetrics: tracking.RegisterPoolMetrics(db, dialect),
	}, nil
}
