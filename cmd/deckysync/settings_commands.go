package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"deckysync/internal/ipc"
	"deckysync/internal/settings"
)

var secretKeys = map[string]bool{
	string(settings.KeyAPIKey):        true,
	string(settings.KeyBasicAuthPass): true,
}

func newSettingsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect and edit the plugin settings held by the backend",
	}
	cmd.AddCommand(newSettingsGetCommand(ctx))
	cmd.AddCommand(newSettingsSetCommand(ctx))
	cmd.AddCommand(newSettingsShowCommand(ctx))
	cmd.AddCommand(newSettingsKeysCommand())
	return cmd
}

func newSettingsGetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "get [key]",
		Short: "Print the settings document, or a single key",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				doc, err := client.GetSettings()
				if err != nil {
					return err
				}
				if len(args) == 0 {
					return writeRawJSON(cmd, doc)
				}
				key, err := settings.ParseKey(args[0])
				if err != nil {
					return err
				}
				fields, err := decodeFields(doc)
				if err != nil {
					return err
				}
				value, ok := fields[string(key)]
				if !ok {
					value = json.RawMessage("null")
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(value))
				return nil
			})
		},
	}
}

func newSettingsSetCommand(ctx *commandContext) *cobra.Command {
	var asString bool

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Update one setting",
		Long: `Update one setting and persist the document.

The value is read as JSON when it parses as JSON and as a plain string
otherwise, so "set port 22000" and "set flatpak_name me.kozec.syncthingtk"
both work. Use --string to force a string. Changing mode does not restart
the watchdog; run "deckysync watchdog restart" afterwards.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := settings.ParseKey(args[0])
			if err != nil {
				return err
			}
			raw, err := cliValue(args[1], asString)
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				if err := client.SetSetting(string(key), raw); err != nil {
					if errors.Is(err, settings.ErrInvalidValue) {
						return fmt.Errorf("%w (value %s)", err, raw)
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", key)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asString, "string", false, "Treat the value as a string literal")
	return cmd
}

func newSettingsShowCommand(ctx *commandContext) *cobra.Command {
	var reveal bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the settings as a table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				doc, err := client.GetSettings()
				if err != nil {
					return err
				}
				fields, err := decodeFields(doc)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, fields)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderKeyValueTable(settingsRows(fields, reveal)))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&reveal, "reveal", false, "Show credentials instead of masking them")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newSettingsKeysCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "keys",
		Short:       "List every settable key",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, key := range settings.Keys() {
				fmt.Fprintln(cmd.OutOrStdout(), key)
			}
			return nil
		},
	}
}

func cliValue(arg string, asString bool) (json.RawMessage, error) {
	if !asString && json.Valid([]byte(arg)) {
		return json.RawMessage(arg), nil
	}
	data, err := json.Marshal(arg)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func decodeFields(doc string) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(doc), &fields); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return fields, nil
}

func settingsRows(fields map[string]json.RawMessage, reveal bool) [][2]string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	rows := make([][2]string, 0, len(keys))
	for _, key := range keys {
		value := displayValue(fields[key])
		if secretKeys[key] && !reveal && value != "" {
			value = strings.Repeat("*", 8)
		}
		rows = append(rows, [2]string{key, value})
	}
	return rows
}

func displayValue(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	return string(raw)
}
