package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/heritagehub/cms/cache"
	"github.com/heritagehub/cms/cache/redis"
	"github.com/heritagehub/cms/database"
	"github.com/heritagehub/cms/settings"
)

func newSettingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and change site settings",
		Long: `Manage the key/value site settings. When the cache is enabled, writes
invalidate the cached entries so running servers see them immediately.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get KEY",
		Short: "Print one setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSettings(cmd, func(s *settings.Store) error {
				v, ok, err := s.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("setting %q not found", args[0])
				}
				_, _ = fmt.Fprintln(out(cmd), v)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Create or replace a setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSettings(cmd, func(s *settings.Store) error {
				if err := s.Set(cmd.Context(), args[0], args[1]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out(cmd), "Set %s\n", args[0])
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "delete KEY",
		Aliases: []string{"rm"},
		Short:   "Remove a setting",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSettings(cmd, func(s *settings.Store) error {
				existed, err := s.Delete(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !existed {
					_, _ = fmt.Fprintf(out(cmd), "No setting named %s\n", args[0])
					return nil
				}
				_, _ = fmt.Fprintf(out(cmd), "Deleted %s\n", args[0])
				return nil
			})
		},
	})

	var asJSON bool
	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Print every setting",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSettings(cmd, func(s *settings.Store) error {
				all, err := s.All(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return renderJSON(out(cmd), all)
				}
				keys, err := s.Keys(cmd.Context())
				if err != nil {
					return err
				}

				t := table.NewWriter()
				t.SetOutputMirror(out(cmd))
				t.SetStyle(table.StyleLight)
				t.AppendHeader(table.Row{"Key", "Value"})
				for _, k := range keys {
					t.AppendRow(table.Row{k, all[k]})
				}
				t.Render()
				return nil
			})
		},
	}
	list.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	cmd.AddCommand(list)

	return cmd
}

// withSettings opens the database, and the cache when enabled, for the duration of fn.
func withSettings(cmd *cobra.Command, fn func(s *settings.Store) error) error {
	return withConnection(cmd, func(rt *runtime, conn *database.Connection) error {
		var c cache.Cache
		if rt.cfg.Cache.Enabled {
			client, err := redis.NewClient(&rt.cfg.Cache.Redis)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()
			c = client
		}
		return fn(settings.NewStore(conn.Querier(), c, rt.cfg.Cache.TTL, rt.log))
	})
}
