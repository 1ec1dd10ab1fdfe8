// Package fixtures opens ready-to-use database connections and builds test data.
package fixtures

import (
	"context"
	"database/sql/driver"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/heritagehub/cms/config"
	"github.com/heritagehub/cms/database"
	"github.com/heritagehub/cms/database/types"
	"github.com/heritagehub/cms/logger"
	"github.com/heritagehub/cms/migration"
	cmstesting "github.com/heritagehub/cms/testing"
)

func quietLogger() logger.Logger {
	return logger.New(cmstesting.TestLoggerLevelDisabled, false)
}

// NewSQLiteConnection opens a private in-memory SQLite database with the site
// schema applied. The connection is closed when the test ends.
func NewSQLiteConnection(tb testing.TB) *database.Connection {
	tb.Helper()

	cfg := &config.DatabaseConfig{SQLite: config.SQLiteConfig{Path: cmstesting.TestSQLiteMemoryPath}}
	conn, err := database.NewConnection(cfg, quietLogger())
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	tb.Cleanup(func() { _ = conn.Close() })

	m, err := migration.New(conn.DB(), conn.Dialect(), quietLogger())
	if err != nil {
		tb.Fatalf("build migrator: %v", err)
	}
	if _, err := m.Up(context.Background()); err != nil {
		tb.Fatalf("migrate sqlite: %v", err)
	}
	return conn
}

// NewPostgresMock returns a networked-dialect connection over go-sqlmock.
// Unmet expectations fail the test when it ends.
func NewPostgresMock(tb testing.TB) (*database.Connection, sqlmock.Sqlmock) {
	tb.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		tb.Fatalf("create sqlmock: %v", err)
	}
	conn, err := database.Wrap(db, types.Networked, &config.DatabaseConfig{URL: cmstesting.TestPostgresURL}, quietLogger())
	if err != nil {
		tb.Fatalf("wrap sqlmock: %v", err)
	}
	tb.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			tb.Errorf("unmet sqlmock expectations: %v", err)
		}
		_ = db.Close()
	})
	return conn, mock
}

// ReturningIDs builds the rows PostgreSQL sends back for INSERT ... RETURNING id.
func ReturningIDs(ids ...int64) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id"})
	for _, id := range ids {
		rows.AddRow(id)
	}
	return rows
}

// NewRows builds sqlmock rows from records sharing the given columns.
func NewRows(columns []string, records ...types.Record) *sqlmock.Rows {
	rows := sqlmock.NewRows(columns)
	for _, r := range records {
		values := make([]driver.Value, len(columns))
		for i, c := range columns {
			values[i] = r[c]
		}
		rows.AddRow(values...)
	}
	return rows
}

// Seed inserts records into table through the gateway and returns the new ids.
// Columns are bound in sorted order so the statement is deterministic.
func Seed(ctx context.Context, q types.Querier, table string, records ...types.Record) ([]int64, error) {
	ids := make([]int64, 0, len(records))
	for _, r := range records {
		cols := make([]string, 0, len(r))
		for c := range r {
			cols = append(cols, c)
		}
		sort.Strings(cols)

		args := make([]any, len(cols))
		for i, c := range cols {
			args[i] = r[c]
		}

		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			table, strings.Join(cols, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "))
		res, err := q.Run(ctx, query, args...)
		if err != nil {
			return ids, fmt.Errorf("seed %s: %w", table, err)
		}
		if id, ok := res.InsertedID(); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
