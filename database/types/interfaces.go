package types

import (
	"context"
	"database/sql"
)

// Querier is the three-verb surface route handlers use. Statements are written with
// '?' placeholders regardless of the active dialect.
type Querier interface {
	// All returns every row in backend order. No rows yields an empty, non-nil slice.
	All(ctx context.Context, query string, args ...any) ([]Record, error)
	// Get returns the first row, or nil when the statement matched nothing.
	Get(ctx context.Context, query string, args ...any) (Record, error)
	// Run executes a mutating statement.
	Run(ctx context.Context, query string, args ...any) (Result, error)
}

// Conn is the raw pool capability a gateway is handed. *sql.DB satisfies it.
type Conn interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SequenceRepairer realigns auto-increment sequences with the data in each table.
// Failures are reported per table and never abort the pass.
type SequenceRepairer interface {
	RepairSequences(ctx context.Context, tables []string) RepairReport
}

// Gateway is a dialect strategy: the three verbs plus sequence repair.
type Gateway interface {
	Querier
	SequenceRepairer
	Dialect() Dialect
}
