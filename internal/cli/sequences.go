package cli

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/heritagehub/cms/database"
	"github.com/heritagehub/cms/database/types"
	"github.com/heritagehub/cms/migration"
)

func newFixSequencesCommand() *cobra.Command {
	var tables []string

	cmd := &cobra.Command{
		Use:   "fix-sequences",
		Short: "Realign id sequences with the data after a manual load",
		Long: `Sets each table's id sequence so the next generated id is max(id)+1.
Missing and empty tables are skipped. On SQLite this is a no-op.
A failure on one table is reported and the remaining tables are still processed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(tables) == 0 {
				tables = migration.Tables
			}
			return withConnection(cmd, func(_ *runtime, conn *database.Connection) error {
				report := conn.FixSequences(cmd.Context(), tables)
				renderRepairReport(cmd, report)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&tables, "tables", nil, "Comma-separated tables to repair (default: every site table)")
	return cmd
}

func renderRepairReport(cmd *cobra.Command, report types.RepairReport) {
	t := table.NewWriter()
	t.SetOutputMirror(out(cmd))
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Table", "Outcome", "Max ID", "Error"})
	for _, tr := range report {
		maxID, errText := "", ""
		if tr.Outcome == types.RepairUpdated {
			maxID = fmt.Sprint(tr.MaxID)
		}
		if tr.Err != nil {
			errText = tr.Err.Error()
		}
		t.AppendRow(table.Row{tr.Table, strings.ReplaceAll(string(tr.Outcome), "_", " "), maxID, errText})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d updated", report.Updated()), "", fmt.Sprintf("%d failed", len(report.Failed()))})
	t.Render()
}
