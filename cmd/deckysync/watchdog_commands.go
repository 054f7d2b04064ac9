package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"deckysync/internal/ipc"
)

func newWatchdogCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watchdog",
		Short: "Control the Syncthing watchdog",
	}
	cmd.AddCommand(newWatchdogRestartCommand(ctx))
	cmd.AddCommand(newWatchdogStatusCommand(ctx))
	return cmd
}

func newWatchdogRestartCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Terminate every syncthing process and relaunch the watchdog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if err := client.RestartWatchdog(); err != nil {
					return fmt.Errorf("restart watchdog: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Watchdog restarted")
				return nil
			})
		},
	}
}

func newWatchdogStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show what the watchdog PID file reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.WatchdogStatus()
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, status)
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				kind := statusWarn
				if status.Running {
					kind = statusOK
				}
				fmt.Fprintln(out, renderStatusLine("Watchdog", kind, status.Detail, colorize))
				if status.PID > 0 {
					fmt.Fprintln(out, renderStatusLine("PID", statusInfo, fmt.Sprintf("%d", status.PID), colorize))
				}
				fmt.Fprintln(out, renderStatusLine("PID file", statusInfo, status.PIDFile, colorize))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}
