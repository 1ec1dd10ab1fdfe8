package tracking

import (
	"context"
	"database/sql"
	"time"

	"github.com/heritagehub/cms/database/types"
)

const (
	verbAll    = "all"
	verbGet    = "get"
	verbRun    = "run"
	verbRepair = "repair_sequences"
)

// Gateway decorates a dialect gateway with tracking. Results and errors pass
// through untouched.
type Gateway struct {
	next types.Gateway
	tc   *Context
}

// Wrap returns next decorated with tracking.
func Wrap(next types.Gateway, tc *Context) *Gateway {
	return &Gateway{next: next, tc: tc}
}

// Unwrap returns the decorated gateway.
func (g *Gateway) Unwrap() types.Gateway {
	return g.next
}

// Dialect returns the dialect of the decorated gateway.
func (g *Gateway) Dialect() types.Dialect {
	return g.next.Dialect()
}

func (g *Gateway) All(ctx context.Context, query string, args ...any) ([]types.Record, error) {
	start := time.Now()
	rows, err := g.next.All(ctx, query, args...)
	TrackDBOperation(ctx, g.tc, verbAll, query, args, start, int64(len(rows)), err)
	return rows, err
}

func (g *Gateway) Get(ctx context.Context, query string, args ...any) (types.Record, error) {
	start := time.Now()
	row, err := g.next.Get(ctx, query, args...)

	tracked, n := err, int64(0)
	switch {
	case err == nil && row == nil:
		tracked = sql.ErrNoRows
	case row != nil:
		n = 1
	}
	TrackDBOperation(ctx, g.tc, verbGet, query, args, start, n, tracked)
	return row, err
}

func (g *Gateway) Run(ctx context.Context, query string, args ...any) (types.Result, error) {
	start := time.Now()
	res, err := g.next.Run(ctx, query, args...)
	TrackDBOperation(ctx, g.tc, verbRun, query, args, start, res.RowsAffected(), err)
	return res, err
}

// RepairSequences delegates and logs a summary of the pass.
func (g *Gateway) RepairSequences(ctx context.Context, tables []string) types.RepairReport {
	start := time.Now()
	report := g.next.RepairSequences(ctx, tables)

	if g.tc != nil && g.tc.Logger != nil {
		g.tc.Logger.WithContext(ctx).Debug().
			Str("dialect", g.tc.Dialect.String()).
			Str("verb", verbRepair).
			Int("tables", len(tables)).
			Int("updated", report.Updated()).
			Int("failed", len(report.Failed())).
			Dur("duration", time.Since(start)).
			Msg("Sequence repair pass finished")
	}
	return report
}
