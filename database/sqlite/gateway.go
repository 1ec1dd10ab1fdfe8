// Package sqlite implements the embedded dialect on top of modernc.org/sqlite.
// Statements use SQLite's native '?' markers and are not rebound.
package sqlite

import (
	"context"

	"github.com/heritagehub/cms/database/internal/placeholder"
	"github.com/heritagehub/cms/database/internal/records"
	"github.com/heritagehub/cms/database/types"
)

// IDColumn is the primary key column every site table uses.
const IDColumn = "id"

// Gateway runs statements against an embedded SQLite database.
type Gateway struct {
	conn types.Conn
}

// New returns a Gateway over conn. The gateway does not own conn.
func New(conn types.Conn) *Gateway {
	return &Gateway{conn: conn}
}

// Dialect returns types.Embedded.
func (g *Gateway) Dialect() types.Dialect {
	return types.Embedded
}

// All returns every row the statement produces.
func (g *Gateway) All(ctx context.Context, query string, args ...any) ([]types.Record, error) {
	rows, err := g.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return records.Collect(rows)
}

// Get returns the first row, or nil when there is none.
func (g *Gateway) Get(ctx context.Context, query string, args ...any) (types.Record, error) {
	rows, err := g.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return records.First(rows)
}

// Run executes a mutating statement. Inserts carry a RETURNING clause so the
// reported id is the row the statement touched; last_insert_rowid goes stale
// when an upsert takes its DO UPDATE branch.
func (g *Gateway) Run(ctx context.Context, query string, args ...any) (types.Result, error) {
	if placeholder.IsInsert(query) {
		rows, err := g.conn.QueryContext(ctx, placeholder.WithReturning(query, IDColumn), args...)
		if err != nil {
			return types.Result{}, err
		}
		return records.Inserted(rows, IDColumn)
	}

	res, err := g.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return types.Result{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return types.Result{}, err
	}
	return types.NewResult(affected), nil
}

// RepairSequences is a no-op: SQLite derives the next rowid from the table
// itself, so there is nothing to realign. Every table is reported as skipped.
func (g *Gateway) RepairSequences(_ context.Context, tables []string) types.RepairReport {
	report := make(types.RepairReport, 0, len(tables))
	for _, t := range tables {
		report = append(report, types.TableRepair{Table: t, Outcome: types.RepairSkippedNoSequence})
	}
	return report
}
