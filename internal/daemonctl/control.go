// Package daemonctl is the CLI side of the backend: it reaches a running
// backend over IPC and assembles offline diagnostics when none is reachable.
package daemonctl

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"deckysync/internal/config"
	"deckysync/internal/deps"
	"deckysync/internal/ipc"
	"deckysync/internal/watchdog"
)

// ErrBackendNotRunning indicates backend IPC is unavailable.
var ErrBackendNotRunning = errors.New("backend not running")

// Connect dials the backend socket, mapping absent or refused sockets to
// ErrBackendNotRunning.
func Connect(socketPath string) (*ipc.Client, error) {
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if isBackendUnavailable(err) {
			return nil, fmt.Errorf("%w (socket %s)", ErrBackendNotRunning, socketPath)
		}
		return nil, err
	}
	return client, nil
}

// WaitForClient waits for IPC socket availability and returns a connected client.
func WaitForClient(socketPath string, timeout time.Duration) (*ipc.Client, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		client, err := ipc.Dial(socketPath)
		if err == nil {
			return client, nil
		}
		lastErr = err
		time.Sleep(200 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for backend")
	}
	return nil, fmt.Errorf("backend unreachable: %w", lastErr)
}

// StatusLine is one row of a diagnostic report.
type StatusLine struct {
	Label    string `json:"label"`
	Severity string `json:"severity"`
	Detail   string `json:"detail"`
}

// Snapshot is the doctor report.
type Snapshot struct {
	BackendRunning bool            `json:"backend_running"`
	Watchdog       watchdog.Status `json:"watchdog"`
	LegacyState    string          `json:"legacy_state,omitempty"`
	Dependencies   []deps.Status   `json:"dependencies"`
	Checks         []StatusLine    `json:"checks"`
}

// BuildSnapshot collects backend status over IPC and falls back to local
// probes when the backend is offline.
func BuildSnapshot(cfg *config.Config) (*Snapshot, error) {
	if cfg == nil {
		return nil, errors.New("configuration not available")
	}
	snap := &Snapshot{Dependencies: deps.CheckBinaries(deps.Requirements(cfg))}

	client, err := ipc.Dial(cfg.SocketPath())
	if err == nil {
		defer client.Close()
		snap.BackendRunning = true
		if status, statusErr := client.WatchdogStatus(); statusErr == nil {
			snap.Watchdog = status
		}
		if state, stateErr := client.LegacyState(); stateErr == nil {
			snap.LegacyState = state
		}
	}
	if !snap.BackendRunning {
		snap.Watchdog = watchdog.NewLauncher(launchPaths(cfg), nil, nil).Probe()
	}
	snap.Checks = buildChecks(cfg, snap)
	return snap, nil
}

func launchPaths(cfg *config.Config) watchdog.Paths {
	return watchdog.Paths{
		Binary:   cfg.WatchdogBinary(),
		Settings: cfg.SettingsPath(),
		PIDFile:  cfg.PIDPath(),
		LogDir:   cfg.Paths.LogDir,
	}
}

func buildChecks(cfg *config.Config, snap *Snapshot) []StatusLine {
	lines := make([]StatusLine, 0, 5)
	if snap.BackendRunning {
		lines = append(lines, StatusLine{Label: "Backend", Severity: "ok", Detail: "Running"})
	} else {
		lines = append(lines, StatusLine{Label: "Backend", Severity: "warn", Detail: "Not running (reload the plugin or run `deckysync backend`)"})
	}
	if snap.Watchdog.Running {
		lines = append(lines, StatusLine{Label: "Watchdog", Severity: "ok", Detail: fmt.Sprintf("Running (pid %d)", snap.Watchdog.PID)})
	} else {
		lines = append(lines, StatusLine{Label: "Watchdog", Severity: "warn", Detail: snap.Watchdog.Detail})
	}
	lines = append(lines, fileCheck("Settings", cfg.SettingsPath()))
	lines = append(lines, dirCheck("Logs", cfg.Paths.LogDir))
	if deps.ResetToolAvailable(snap.Dependencies) {
		lines = append(lines, StatusLine{Label: "Process reset", Severity: "ok", Detail: "Available"})
	} else {
		lines = append(lines, StatusLine{Label: "Process reset", Severity: "error", Detail: "Neither pkill nor killall found"})
	}
	return lines
}

func fileCheck(label, path string) StatusLine {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return StatusLine{Label: label, Severity: "info", Detail: "Not created yet (" + path + ")"}
	case err != nil:
		return StatusLine{Label: label, Severity: "error", Detail: err.Error()}
	case info.IsDir():
		return StatusLine{Label: label, Severity: "error", Detail: path + " is a directory"}
	}
	return StatusLine{Label: label, Severity: "ok", Detail: path}
}

func dirCheck(label, dir string) StatusLine {
	probe, err := os.CreateTemp(dir, ".deckysync-probe-*")
	if err != nil {
		return StatusLine{Label: label, Severity: "error", Detail: fmt.Sprintf("%s not writable", filepath.Clean(dir))}
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return StatusLine{Label: label, Severity: "ok", Detail: dir}
}

func isBackendUnavailable(err error) bool {
	return os.IsNotExist(err) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, syscall.ENOENT) ||
		errors.Is(err, syscall.ECONNREFUSED)
}
