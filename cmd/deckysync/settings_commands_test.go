package main

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"deckysync/internal/daemonctl"
	"deckysync/internal/settings"
)

func TestSettingsSetAndGet(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"settings", "set", "port", "22000"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("settings set: %v", err)
	}
	requireContains(t, out, "Updated port")

	out, _, err = runCLI(t, []string{"settings", "get", "port"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("settings get: %v", err)
	}
	if strings.TrimSpace(out) != "22000" {
		t.Fatalf("unexpected port output %q", out)
	}

	data, err := os.ReadFile(env.cfg.SettingsPath())
	if err != nil {
		t.Fatalf("read settings: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode settings: %v", err)
	}
	if doc["port"] != float64(22000) {
		t.Fatalf("persisted port %#v", doc["port"])
	}
}

func TestSettingsSetPlainString(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"settings", "set", "flatpak_name", "me.kozec.syncthingtk"}, env.socketPath, env.configPath); err != nil {
		t.Fatalf("settings set: %v", err)
	}
	if _, _, err := runCLI(t, []string{"settings", "set", "--string", "api_key", "12345"}, env.socketPath, env.configPath); err != nil {
		t.Fatalf("settings set --string: %v", err)
	}
	got := env.components.Plugin.Settings()
	if got.FlatpakName != "me.kozec.syncthingtk" || got.APIKey != "12345" {
		t.Fatalf("unexpected settings %+v", got)
	}
}

func TestSettingsSetRejectsUnknownKey(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"settings", "set", "bogusField", "1"}, env.socketPath, env.configPath)
	if !errors.Is(err, settings.ErrUnknownSetting) {
		t.Fatalf("expected ErrUnknownSetting, got %v", err)
	}
	_, _, err = runCLI(t, []string{"settings", "set", "mode", "docker"}, env.socketPath, env.configPath)
	if !errors.Is(err, settings.ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
}

func TestSettingsShowMasksCredentials(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"settings", "set", "basic_auth_pass", "hunter2"}, env.socketPath, env.configPath); err != nil {
		t.Fatalf("settings set: %v", err)
	}

	out, _, err := runCLI(t, []string{"settings", "show"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("settings show: %v", err)
	}
	if strings.Contains(out, "hunter2") {
		t.Fatalf("credential leaked into table:\n%s", out)
	}
	requireContains(t, out, "basic_auth_pass")

	out, _, err = runCLI(t, []string{"settings", "show", "--reveal"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("settings show --reveal: %v", err)
	}
	requireContains(t, out, "hunter2")
}

func TestSettingsWithoutBackend(t *testing.T) {
	env := setupCLITestEnv(t)
	env.server.Close()

	_, _, err := runCLI(t, []string{"settings", "get"}, env.socketPath, env.configPath)
	if !errors.Is(err, daemonctl.ErrBackendNotRunning) {
		t.Fatalf("expected ErrBackendNotRunning, got %v", err)
	}
}

func TestCLIValue(t *testing.T) {
	cases := map[string]string{
		"22000":    "22000",
		"true":     "true",
		"abc.def":  `"abc.def"`,
		`"quoted"`: `"quoted"`,
	}
	for in, want := range cases {
		got, err := cliValue(in, false)
		if err != nil || string(got) != want {
			t.Fatalf("cliValue(%q) = %s, %v; want %s", in, got, err, want)
		}
	}
	if got, _ := cliValue("22000", true); string(got) != `"22000"` {
		t.Fatalf("forced string = %s", got)
	}
}
