package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/heritagehub/cms/database"
	"github.com/heritagehub/cms/database/types"
)

func newQueryCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "query SQL [ARG...]",
		Short: "Run one statement through the query gateway",
		Long: `Run a statement written with '?' placeholders against the configured database.
Row-returning statements (SELECT, WITH, ...) are fetched with All and printed;
anything else is executed with Run and its result reported.

Arguments that parse as integers are bound as integers and 'null' binds NULL;
everything else is bound as text.`,
		Example: `  cms query "SELECT * FROM events WHERE id = ?" 3
  cms query "INSERT INTO contacts (name, email, message) VALUES (?, ?, ?)" Ada ada@example.org Hello`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := args[0]
			params := bindArgs(args[1:])

			return withConnection(cmd, func(_ *runtime, conn *database.Connection) error {
				q := conn.Querier()
				if database.ReturnsRows(query) {
					rows, err := q.All(cmd.Context(), query, params...)
					if err != nil {
						return err
					}
					if asJSON {
						return renderJSON(out(cmd), rows)
					}
					renderRecords(out(cmd), rows)
					return nil
				}

				res, err := q.Run(cmd.Context(), query, params...)
				if err != nil {
					return err
				}
				return renderResult(out(cmd), res, asJSON)
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func bindArgs(raw []string) []any {
	params := make([]any, len(raw))
	for i, s := range raw {
		if strings.EqualFold(s, "null") {
			continue
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			params[i] = n
		} else {
			params[i] = s
		}
	}
	return params
}

// columns returns the union of record keys with id first and the rest sorted.
func columns(rows []types.Record) []string {
	seen := map[string]bool{}
	var cols []string
	for _, r := range rows {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Slice(cols, func(i, j int) bool {
		if cols[i] == "id" || cols[j] == "id" {
			return cols[i] == "id"
		}
		return cols[i] < cols[j]
	})
	return cols
}

func renderRecords(w io.Writer, rows []types.Record) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return
	}

	cols := columns(rows)
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	t.AppendHeader(header)

	for _, r := range rows {
		row := make(table.Row, len(cols))
		for i, c := range cols {
			row[i] = formatValue(r[c])
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(rows))
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderResult(w io.Writer, res types.Result, asJSON bool) error {
	id, ok := res.InsertedID()
	if asJSON {
		payload := map[string]any{"rows_affected": res.RowsAffected()}
		if ok {
			payload["inserted_id"] = id
		}
		return renderJSON(w, payload)
	}

	_, _ = fmt.Fprintf(w, "Rows affected: %d\n", res.RowsAffected())
	if ok {
		_, _ = fmt.Fprintf(w, "Inserted id: %d\n", id)
	}
	return nil
}
