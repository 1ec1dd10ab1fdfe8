// Package records turns *sql.Rows into dialect-neutral types.Record values.
package records

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/heritagehub/cms/database/types"
)

// Collect reads every row from rows and closes it. The result is never nil.
func Collect(rows *sql.Rows) ([]types.Record, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := make([]types.Record, 0)
	for rows.Next() {
		rec, err := scan(rows, cols)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// First returns the first row, or nil when there are none, and closes rows
// without reading the remainder.
func First(rows *sql.Rows) (types.Record, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	if !rows.Next() {
		return nil, rows.Err()
	}
	return scan(rows, cols)
}

func scan(rows *sql.Rows, cols []string) (types.Record, error) {
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}

	rec := make(types.Record, len(cols))
	for i, col := range cols {
		rec[col] = Normalize(values[i])
	}
	return rec, nil
}

// Normalize maps driver values onto a common set of Go types so the same row reads the
// same under every dialect: integers become int64 and floats float64. Both supported
// drivers deliver text as string, so []byte is binary data and is left alone.
func Normalize(v any) any {
	switch val := v.(type) {
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case float32:
		return float64(val)
	default:
		return v
	}
}

// Int64 converts a column value holding an integer key to int64.
func Int64(v any) (int64, error) {
	switch val := Normalize(v).(type) {
	case int64:
		return val, nil
	case uint64:
		return int64(val), nil
	case float64:
		return int64(val), nil
	case string:
		return strconv.ParseInt(val, 10, 64)
	case []byte:
		return strconv.ParseInt(string(val), 10, 64)
	case nil:
		return 0, fmt.Errorf("records: NULL is not an integer key")
	default:
		return 0, fmt.Errorf("records: unsupported key type %T", v)
	}
}

// Inserted reads the rows an INSERT ... RETURNING produced and closes them.
// Every returned row counts as affected. The id of the last row is reported
// when column is present and holds an integer.
func Inserted(rows *sql.Rows, column string) (types.Result, error) {
	returned, err := Collect(rows)
	if err != nil {
		return types.Result{}, err
	}

	affected := int64(len(returned))
	if affected == 0 {
		return types.NewResult(0), nil
	}

	// A caller-supplied RETURNING clause may not include the key.
	raw, ok := returned[len(returned)-1][column]
	if !ok || raw == nil {
		return types.NewResult(affected), nil
	}
	id, err := Int64(raw)
	if err != nil {
		return types.NewResult(affected), nil
	}
	return types.NewInsertResult(id, affected), nil
}
