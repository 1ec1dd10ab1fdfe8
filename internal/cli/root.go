// Package cli provides the command-line interface for the CMS backend.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/heritagehub/cms/config"
	"github.com/heritagehub/cms/database"
	"github.com/heritagehub/cms/logger"
)

// Version information (set at build time).
var (
	Version   = "dev"
	GitCommit = "unknown"
)

type runtimeKey struct{}

// runtime carries what PersistentPreRunE resolved to the subcommands.
type runtime struct {
	cfg *config.Config
	log logger.Logger
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "cms",
		Short: "Heritage Hub CMS backend",
		Long: `Operates the data layer behind the Heritage Hub website.

The database dialect is chosen once from configuration: a database URL selects
PostgreSQL, otherwise the embedded SQLite file is used.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}

			cfg, err := config.LoadWithOptions(config.Options{
				ConfigFile: cfgFile,
				Flags:      cmd.Flags(),
			})
			if err != nil {
				return err
			}

			log := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Pretty)
			cmd.SetContext(context.WithValue(cmd.Context(), runtimeKey{}, &runtime{cfg: cfg, log: log}))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	pf.String("database-url", "", "PostgreSQL connection URL (selects the networked dialect)")
	pf.String("sqlite-path", "", "Path to the SQLite database file")
	pf.String("log-level", "", "Log level (debug|info|warn|error|disabled)")
	pf.Bool("log-pretty", false, "Human-readable console logs")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newFixSequencesCommand())
	rootCmd.AddCommand(newQueryCommand())
	rootCmd.AddCommand(newSettingsCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func runtimeFrom(cmd *cobra.Command) (*runtime, error) {
	rt, ok := cmd.Context().Value(runtimeKey{}).(*runtime)
	if !ok {
		return nil, fmt.Errorf("configuration not loaded for %s", cmd.CommandPath())
	}
	return rt, nil
}

// withConnection opens the configured database for the duration of fn.
func withConnection(cmd *cobra.Command, fn func(rt *runtime, conn *database.Connection) error) error {
	rt, err := runtimeFrom(cmd)
	if err != nil {
		return err
	}

	conn, err := database.NewConnection(&rt.cfg.Database, rt.log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			rt.log.Error().Err(cerr).Msg("Failed to close database")
		}
	}()

	return fn(rt, conn)
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
