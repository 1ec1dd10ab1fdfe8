package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/heritagehub/cms/database/types"
	"github.com/heritagehub/cms/logger"
)

const healthTimeout = 5 * time.Second

// Connection owns the pool for the process and hands out the gateway.
type Connection struct {
	db                *sql.DB
	dialect           types.Dialect
	gateway           types.Gateway
	log               logger.Logger
	unregisterMetrics func()
}

// Querier returns the three-verb surface route handlers use.
func (c *Connection) Querier() types.Querier {
	return c.gateway
}

// Gateway returns the tracked dialect strategy.
func (c *Connection) Gateway() types.Gateway {
	return c.gateway
}

// Dialect returns the dialect resolved at startup.
func (c *Connection) Dialect() types.Dialect {
	return c.dialect
}

// DB exposes the underlying pool for migrations and administrative tasks.
func (c *Connection) DB() *sql.DB {
	return c.db
}

// Health checks database connectivity
func (c *Connection) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	return c.db.PingContext(ctx)
}

// Stats returns database connection statistics
func (c *Connection) Stats() sql.DBStats {
	return c.db.Stats()
}

// FixSequences realigns the id sequences of tables with their data. Each
// table's outcome is logged; failures never stop the pass and are not returned
// as an error.
func (c *Connection) FixSequences(ctx context.Context, tables []string) types.RepairReport {
	report := c.gateway.RepairSequences(ctx, tables)

	log := c.log.WithContext(ctx)
	for _, tr := range report {
		switch tr.Outcome {
		case types.RepairUpdated:
			log.Info().Str("table", tr.Table).Int64("max_id", tr.MaxID).Msg("Sequence realigned")
		case types.RepairFailed:
			log.Error().Err(tr.Err).Str("table", tr.Table).Msg("Sequence repair failed")
		default:
			log.Debug().Str("table", tr.Table).Str("outcome", string(tr.Outcome)).Msg("Sequence repair skipped")
		}
	}

	log.Info().
		Str("dialect", c.dialect.String()).
		Int("tables", len(report)).
		Int("updated", report.Updated()).
		Int("failed", len(report.Failed())).
		Msg("Sequence repair finished")

	return report
}

// Close closes the database connection
func (c *Connection) Close() error {
	c.log.Info().Str("dialect", c.dialect.String()).Msg("Closing database connection")
	if c.unregisterMetrics != nil {
		c.unregisterMetrics()
	}
	return c.db.Close()
}
