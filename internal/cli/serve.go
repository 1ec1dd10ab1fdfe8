package cli

import (
	"github.com/spf13/cobra"

	"github.com/heritagehub/cms/app"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the service with probes and the maintenance scheduler",
		Long: `Open the database, optionally migrate it and realign sequences, start the
maintenance scheduler, then serve the liveness and readiness probes and the
/_sys job API until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := runtimeFrom(cmd)
			if err != nil {
				return err
			}

			a, err := app.New(rt.cfg, rt.log)
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}

	cmd.Flags().String("host", "", "Listen host")
	cmd.Flags().Int("port", 0, "Listen port")
	cmd.Flags().Bool("migrate", false, "Apply schema migrations before serving")
	cmd.Flags().Bool("fix-sequences", false, "Realign id sequences before serving")
	cmd.Flags().String("repair-schedule", "", `Schedule for sequence repair ("6h", "daily 03:30" or cron)`)

	return cmd
}
