package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"deckysync/internal/daemonctl"
	"deckysync/internal/deps"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the backend, the watchdog and required binaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if socket := ctx.socketFlag; socket != nil && *socket != "" {
				cfg.Watchdog.Socket = *socket
			}
			snap, err := daemonctl.BuildSnapshot(cfg)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, snap)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("System", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, check := range snap.Checks {
				fmt.Fprintln(out, renderStatusLine(check.Label, severityKind(check.Severity), check.Detail, colorize))
			}
			if snap.LegacyState != "" {
				fmt.Fprintln(out, renderStatusLine("Legacy daemon", legacyStateKind(snap.LegacyState), stateLabel(snap.LegacyState), colorize))
			}
			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("Dependencies", colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Name", "Command", "Optional", "Available", "Detail"},
				dependencyRows(snap.Dependencies),
				nil,
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func dependencyRows(statuses []deps.Status) [][]string {
	rows := make([][]string, 0, len(statuses))
	for _, status := range statuses {
		detail := status.Detail
		if status.Available && detail == "" {
			detail = status.Description
		}
		rows = append(rows, []string{status.Name, status.Command, yesNo(status.Optional), yesNo(status.Available), detail})
	}
	return rows
}
