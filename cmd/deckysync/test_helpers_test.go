package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"deckysync/internal/backend"
	"deckysync/internal/config"
	"deckysync/internal/ipc"
	"deckysync/internal/logging"
	"deckysync/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	components *backend.Components
	server     *ipc.Server
	socketPath string
	configPath string
}

func clearHostEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DECKY_PLUGIN_SETTINGS_DIR", "DECKY_PLUGIN_RUNTIME_DIR", "DECKY_PLUGIN_LOG_DIR", "DECKY_PLUGIN_DIR"} {
		t.Setenv(key, "")
	}
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	clearHostEnv(t)

	cfg := testsupport.NewConfig(t,
		testsupport.WithWatchdogScript("exit 0\n"),
		testsupport.WithStubbedBinaries("pkill", "flatpak"),
	)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	components := backend.Wire(cfg, logging.NewNop())
	components.Plugin.Init(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	socketPath := filepath.Join(cfg.Paths.RuntimeDir, "cli.sock")
	srv, err := ipc.NewServer(ctx, socketPath, components.Plugin, logging.NewNop())
	if err != nil {
		cancel()
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping CLI IPC test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	t.Cleanup(func() {
		cancel()
		srv.Close()
		components.Plugin.Unload()
	})

	return &cliTestEnv{
		cfg:        cfg,
		components: components,
		server:     srv,
		socketPath: socketPath,
		configPath: configPath,
	}
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if socket != "" {
		flags = append(flags, "--socket", socket)
	}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nsettings_dir = %q\nruntime_dir = %q\nlog_dir = %q\nplugin_dir = %q\n\n[process]\nreset_grace = 0\nlegacy_stop_timeout = 1\n",
		cfg.Paths.SettingsDir,
		cfg.Paths.RuntimeDir,
		cfg.Paths.LogDir,
		cfg.Paths.PluginDir,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
