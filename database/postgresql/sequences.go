package postgresql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/heritagehub/cms/database/types"
)

const (
	tableExistsQuery = `SELECT EXISTS (
	SELECT 1 FROM information_schema.tables
	WHERE table_schema = current_schema() AND table_name = $1
)`
	serialSequenceQuery = `SELECT pg_get_serial_sequence($1, $2)`
	setSequenceQuery    = `SELECT setval($1, $2, true)`
)

// RepairSequences sets the serial sequence behind each table's id column to the
// table's current maximum id, so the next generated key is max(id)+1. Missing
// and empty tables are skipped. A failure on one table is recorded in the
// report and the pass moves on to the next.
func (g *Gateway) RepairSequences(ctx context.Context, tables []string) types.RepairReport {
	report := make(types.RepairReport, 0, len(tables))
	for _, table := range tables {
		report = append(report, g.repairTable(ctx, table))
	}
	return report
}

func (g *Gateway) repairTable(ctx context.Context, table string) types.TableRepair {
	tr := types.TableRepair{Table: table}
	fail := func(step string, err error) types.TableRepair {
		tr.Outcome = types.RepairFailed
		tr.Err = fmt.Errorf("%s for table %s: %w", step, table, err)
		return tr
	}

	var exists bool
	if err := g.scalar(ctx, tableExistsQuery, []any{table}, &exists); err != nil {
		return fail("check existence", err)
	}
	if !exists {
		tr.Outcome = types.RepairSkippedMissing
		return tr
	}

	ident := pgx.Identifier{table}.Sanitize()

	var maxID sql.NullInt64
	if err := g.scalar(ctx, fmt.Sprintf("SELECT MAX(%s) FROM %s", IDColumn, ident), nil, &maxID); err != nil {
		return fail("read max id", err)
	}
	if !maxID.Valid {
		tr.Outcome = types.RepairSkippedEmpty
		return tr
	}

	var seq sql.NullString
	if err := g.scalar(ctx, serialSequenceQuery, []any{ident, IDColumn}, &seq); err != nil {
		return fail("resolve sequence", err)
	}
	if !seq.Valid {
		tr.Outcome = types.RepairSkippedNoSequence
		return tr
	}

	var current int64
	if err := g.scalar(ctx, setSequenceQuery, []any{seq.String, maxID.Int64}, &current); err != nil {
		return fail("set sequence", err)
	}

	tr.Outcome = types.RepairUpdated
	tr.MaxID = maxID.Int64
	return tr
}

// scalar runs a single-row, single-column query and scans the value into dest.
func (g *Gateway) scalar(ctx context.Context, query string, args []any, dest any) error {
	rows, err := g.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}
		return sql.ErrNoRows
	}
	if err := rows.Scan(dest); err != nil {
		return err
	}
	return rows.Err()
}
