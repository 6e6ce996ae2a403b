package main

import (
	"context"
	"encoding/json"
	"io"

	"aptracker/internal/app"
	"aptracker/internal/config"
	"aptracker/internal/lifecycle"
	"aptracker/internal/logger"
	"aptracker/internal/service"

	"github.com/spf13/cobra"
)

var version = "1.0.0"

// options are the persistent flags shared by every subcommand.
type options struct {
	configFile string
	jsonOutput bool
	verbose    bool
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "apctl",
		Short: "Accounts-payable tooling: due dates, forecasts, bulk import and export",
		Long: `apctl runs the AP tracker engines from the command line.

It reads the same configuration as the API server (configs/config.yaml,
configs/.env and environment variables), so forecast, import and export work
against the configured database.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configFile)
			if err != nil {
				return err
			}
			if !opts.verbose {
				cfg.Log.Level = "warn"
			}
			if err := logger.Setup(cfg.Log); err != nil {
				return err
			}
			opts.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", config.DefaultFile, "Configuration file")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log at the configured level instead of warn")

	root.AddCommand(
		newDueDateCmd(opts),
		newForecastCmd(opts),
		newImportCmd(opts),
		newExportCmd(opts),
	)
	return root
}

// cliActor is recorded as created_by for CLI mutations.
var cliActor = service.Actor{Name: "apctl", Role: lifecycle.RoleAPStaff}

// openApp builds the services against the configured backend.
func (o *options) openApp(ctx context.Context) (*app.App, error) {
	return app.New(ctx, o.cfg, logger.WithComponent("apctl"))
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
