package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/heritagehub/cms/database"
	"github.com/heritagehub/cms/migration"
)

func newMigrateCommand() *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withConnection(cmd, func(rt *runtime, conn *database.Connection) error {
				m, err := migration.New(conn.DB(), conn.Dialect(), rt.log)
				if err != nil {
					return err
				}

				if status {
					return renderMigrationStatus(cmd, m)
				}

				applied, err := m.Up(cmd.Context())
				if err != nil {
					return err
				}
				version, err := m.Version(cmd.Context())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out(cmd), "Applied %d migration(s) on %s, schema version %d\n", applied, conn.Dialect(), version)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "Show migration status without applying")
	return cmd
}

func renderMigrationStatus(cmd *cobra.Command, m *migration.Migrator) error {
	statuses, err := m.Status(cmd.Context())
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(out(cmd))
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Version", "Name", "State", "Applied At"})
	for _, s := range statuses {
		state, at := "pending", ""
		if s.Applied {
			state = "applied"
			at = s.AppliedAt.UTC().Format("2006-01-02 15:04:05")
		}
		t.AppendRow(table.Row{s.Version, s.Name, state, at})
	}
	t.Render()
	return nil
}
