// Package postgresql implements the networked dialect on top of pgx.
//
// Statements are written with '?' markers and rebound to $1..$n before they
// reach the driver. Inserts are executed with a RETURNING clause so the
// generated primary key can be reported without a second round trip.
package postgresql

import (
	"context"

	"github.com/heritagehub/cms/database/internal/placeholder"
	"github.com/heritagehub/cms/database/internal/records"
	"github.com/heritagehub/cms/database/types"
)

// IDColumn is the primary key column every site table uses.
const IDColumn = "id"

// Gateway runs statements against PostgreSQL.
type Gateway struct {
	conn types.Conn
}

// New returns a Gateway over conn. The gateway does not own conn.
func New(conn types.Conn) *Gateway {
	return &Gateway{conn: conn}
}

// Dialect returns types.Networked.
func (g *Gateway) Dialect() types.Dialect {
	return types.Networked
}

// All returns every row the statement produces.
func (g *Gateway) All(ctx context.Context, query string, args ...any) ([]types.Record, error) {
	rows, err := g.conn.QueryContext(ctx, placeholder.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	return records.Collect(rows)
}

// Get returns the first row, or nil when there is none.
func (g *Gateway) Get(ctx context.Context, query string, args ...any) (types.Record, error) {
	rows, err := g.conn.QueryContext(ctx, placeholder.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	return records.First(rows)
}

// Run executes a mutating statement. Inserts report the id of the last row
// they created; other statements report only the affected row count.
func (g *Gateway) Run(ctx context.Context, query string, args ...any) (types.Result, error) {
	query = placeholder.Rebind(query)
	if placeholder.IsInsert(query) {
		return g.insert(ctx, query, args)
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

func (g *Gateway) insert(ctx context.Context, query string, args []any) (types.Result, error) {
	rows, err := g.conn.QueryContext(ctx, placeholder.WithReturning(query, IDColumn), args...)
	if err != nil {
		return types.Result{}, err
	}
	return records.Inserted(rows, IDColumn)
}
