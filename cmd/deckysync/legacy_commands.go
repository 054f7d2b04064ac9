package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"deckysync/internal/ipc"
)

func newLegacyCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "legacy",
		Short: "Drive the pre-watchdog direct syncthing process",
	}
	cmd.AddCommand(newLegacyStateCommand(ctx))
	cmd.AddCommand(newLegacyControlCommand(ctx, true))
	cmd.AddCommand(newLegacyControlCommand(ctx, false))
	cmd.AddCommand(newLegacyLogCommand(ctx))
	return cmd
}

func newLegacyStateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Print stopped, wait, running or failed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				state, err := client.LegacyState()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderStatusLine("Legacy daemon", legacyStateKind(state), stateLabel(state), shouldColorize(out)))
				return nil
			})
		},
	}
}

func newLegacyControlCommand(ctx *commandContext, start bool) *cobra.Command {
	use, short := "stop", "Stop the direct syncthing process"
	if start {
		use, short = "start", "Start syncthing from the configured flatpak"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.LegacyControl(start)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if resp.Message != "" {
					fmt.Fprintln(out, resp.Message)
				}
				fmt.Fprintf(out, "Legacy daemon: %s\n", stateLabel(resp.State))
				return nil
			})
		},
	}
}

func newLegacyLogCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "log",
		Short: "Print the output captured from the direct syncthing process",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				text, err := client.LegacyLog()
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), text)
				return nil
			})
		},
	}
}
