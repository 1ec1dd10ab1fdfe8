// Package migration applies the site schema with goose. Each dialect has its
// own embedded set of SQL migrations; both produce the same tables and column
// value shapes.
package migration

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/heritagehub/cms/database/types"
	"github.com/heritagehub/cms/logger"
)

//go:embed sql/sqlite/*.sql sql/postgres/*.sql
var migrations embed.FS

// Tables lists every table the schema creates, in creation order. Sequence
// repair walks this list.
var Tables = []string{
	"users",
	"banners",
	"blogs",
	"events",
	"team_members",
	"gallery",
	"news",
	"projects",
	"memberships",
	"rsvps",
	"contacts",
	"settings",
}

// Status describes one known migration.
type Status struct {
	Version   int64
	Name      string
	Applied   bool
	AppliedAt time.Time
}

// Migrator runs the embedded migrations for one dialect.
type Migrator struct {
	provider *goose.Provider
	dialect  types.Dialect
	log      logger.Logger
}

// New prepares a Migrator for db. It does not touch the database.
func New(db *sql.DB, dialect types.Dialect, log logger.Logger) (*Migrator, error) {
	gooseDialect, dir, err := source(dialect)
	if err != nil {
		return nil, err
	}

	fsys, err := fs.Sub(migrations, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations %s: %w", dir, err)
	}

	provider, err := goose.NewProvider(gooseDialect, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}

	return &Migrator{provider: provider, dialect: dialect, log: log}, nil
}

func source(d types.Dialect) (goose.Dialect, string, error) {
	switch d {
	case types.Embedded:
		return goose.DialectSQLite3, "sql/sqlite", nil
	case types.Networked:
		return goose.DialectPostgres, "sql/postgres", nil
	default:
		return "", "", fmt.Errorf("no migrations for dialect %s", d)
	}
}

// Up applies all pending migrations and returns how many were applied.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	m.log.Info().Str("dialect", m.dialect.String()).Msg("Starting database migrations")

	results, err := m.provider.Up(ctx)
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		m.log.Info().
			Int64("version", r.Source.Version).
			Str("file", r.Source.Path).
			Dur("duration", r.Duration).
			Msg("Applied migration")
	}
	if err != nil {
		return len(results), fmt.Errorf("failed to run migrations: %w", err)
	}

	m.log.Info().Int("applied", len(results)).Msg("Database migrations complete")
	return len(results), nil
}

// Version returns the highest applied migration version, 0 when none.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	v, err := m.provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read migration version: %w", err)
	}
	return v, nil
}

// Status reports every embedded migration and whether it has been applied.
func (m *Migrator) Status(ctx context.Context) ([]Status, error) {
	statuses, err := m.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration status: %w", err)
	}

	out := make([]Status, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, Status{
			Version:   s.Source.Version,
			Name:      s.Source.Path,
			Applied:   s.State == goose.StateApplied,
			AppliedAt: s.AppliedAt,
		})
	}
	return out, nil
}
