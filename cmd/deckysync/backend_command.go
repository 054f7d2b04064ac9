package main

import (
	"github.com/spf13/cobra"

	"deckysync/internal/backend"
)

func newBackendCommand(ctx *commandContext) *cobra.Command {
	var opts backend.Options

	cmd := &cobra.Command{
		Use:   "backend",
		Short: "Run the plugin backend until terminated",
		Long: `Run the plugin backend in the foreground.

The backend loads and migrates the settings document, launches the watchdog,
and serves CLI requests on the runtime socket until it receives SIGINT or
SIGTERM. The plugin host starts it on load.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if socket := ctx.socketFlag; socket != nil && *socket != "" {
				cfg.Watchdog.Socket = *socket
			}
			return backend.Run(cmd.Context(), cfg, opts)
		},
	}

	cmd.Flags().StringVar(&opts.LogLevel, "log-level", "", "Override the configured log level")
	cmd.Flags().BoolVar(&opts.Development, "dev", false, "Include source locations in log lines")
	cmd.Flags().BoolVar(&opts.Stdout, "stdout", true, "Mirror log output to stdout")
	return cmd
}
