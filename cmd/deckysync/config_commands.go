package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"deckysync/internal/config"
	"deckysync/internal/settings"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and create the backend configuration",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool
	var toStdout bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write the sample configuration",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if toStdout {
				fmt.Fprint(out, config.Sample())
				return nil
			}

			target, err := initTarget(targetPath)
			if err != nil {
				return err
			}
			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("check config path: %w", err)
				}
			}
			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			overrides := config.HostOverrides()
			if len(overrides) == 0 {
				fmt.Fprintln(out, "No DECKY_PLUGIN_* variables are set; the [paths] section will be used as written.")
				return nil
			}
			fmt.Fprintln(out, "The plugin host overrides these [paths] entries:")
			fmt.Fprintln(out, renderKeyValueTable(overrides))
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	cmd.Flags().BoolVar(&toStdout, "stdout", false, "Print the sample instead of writing it")
	return cmd
}

func initTarget(flagValue string) (string, error) {
	target := strings.TrimSpace(flagValue)
	if target == "" {
		path, err := config.DefaultConfigPath()
		if err != nil {
			return "", fmt.Errorf("determine default config path: %w", err)
		}
		return path, nil
	}
	expanded, err := config.ExpandPath(target)
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return expanded, nil
}

// validationReport is the --json form of config validate.
type validationReport struct {
	ConfigPath    string            `json:"config_path"`
	ConfigExists  bool              `json:"config_exists"`
	Paths         map[string]string `json:"paths"`
	HostOverrides map[string]string `json:"host_overrides"`
	Settings      settingsDocument  `json:"settings"`
}

// settingsDocument describes what the backend will do with the settings
// file on its next start.
type settingsDocument struct {
	Version int    `json:"version,omitempty"`
	Outcome string `json:"outcome"`
}

func inspectSettingsDocument(path string) settingsDocument {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return settingsDocument{Outcome: "missing; defaults will be written"}
	}
	if err != nil {
		return settingsDocument{Outcome: fmt.Sprintf("unreadable (%v); defaults will be written", err)}
	}
	version, err := settings.DetectVersion(raw)
	if err != nil {
		return settingsDocument{Outcome: "unrecognised; defaults will replace it"}
	}
	switch version {
	case settings.CurrentVersion:
		return settingsDocument{Version: version, Outcome: "current"}
	case 1:
		return settingsDocument{Version: version, Outcome: "will migrate to version 2 after resetting syncthing processes"}
	default:
		return settingsDocument{Version: version, Outcome: "unsupported version; defaults will replace it"}
	}
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:         "validate",
		Short:       "Validate the configuration and preview the settings document",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(ctx.configPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			paths := [][2]string{
				{"settings", cfg.SettingsPath()},
				{"pid file", cfg.PIDPath()},
				{"watchdog", cfg.WatchdogBinary()},
				{"socket", cfg.SocketPath()},
				{"log dir", cfg.Paths.LogDir},
			}
			overrides := config.HostOverrides()
			doc := inspectSettingsDocument(cfg.SettingsPath())

			if jsonOut {
				return writeJSON(cmd, validationReport{
					ConfigPath:    path,
					ConfigExists:  exists,
					Paths:         pairsToMap(paths),
					HostOverrides: pairsToMap(overrides),
					Settings:      doc,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			fmt.Fprintln(out, renderKeyValueTable(paths))
			for _, override := range overrides {
				fmt.Fprintf(out, "Host override: %s=%s\n", override[0], override[1])
			}
			if doc.Version > 0 {
				fmt.Fprintf(out, "Settings document: version %d, %s\n", doc.Version, doc.Outcome)
			} else {
				fmt.Fprintf(out, "Settings document: %s\n", doc.Outcome)
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func pairsToMap(pairs [][2]string) map[string]string {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		out[pair[0]] = pair[1]
	}
	return out
}
