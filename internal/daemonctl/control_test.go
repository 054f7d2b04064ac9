package daemonctl_test

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"deckysync/internal/daemonctl"
	"deckysync/internal/testsupport"
)

func TestConnectWithoutBackend(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := daemonctl.Connect(cfg.SocketPath()); !errors.Is(err, daemonctl.ErrBackendNotRunning) {
		t.Fatalf("expected ErrBackendNotRunning, got %v", err)
	}
}

func TestBuildSnapshotOffline(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithWatchdogScript("exit 0\n"),
		testsupport.WithStubbedBinaries("pkill"),
	)
	t.Setenv("PATH", filepath.Join(testsupport.BaseDir(cfg), "bin"))

	snap, err := daemonctl.BuildSnapshot(cfg)
	if err != nil {
		t.Fatalf("BuildSnapshot: %v", err)
	}
	if snap.BackendRunning {
		t.Fatal("backend reported running without a socket")
	}
	if snap.Watchdog.Running {
		t.Fatalf("watchdog reported running without a pid file: %+v", snap.Watchdog)
	}
	severities := map[string]string{}
	for _, line := range snap.Checks {
		severities[line.Label] = line.Severity
	}
	if severities["Process reset"] != "ok" {
		t.Fatalf("pkill stub not detected: %+v", snap.Checks)
	}
	if severities["Settings"] != "info" || severities["Logs"] != "ok" {
		t.Fatalf("unexpected checks %+v", snap.Checks)
	}
}

func TestBuildSnapshotReadsPIDFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := os.WriteFile(cfg.PIDPath(), []byte(strconv.Itoa(1<<22+12345)), 0o644); err != nil {
		t.Fatal(err)
	}
	snap, err := daemonctl.BuildSnapshot(cfg)
	if err != nil {
		t.Fatalf("BuildSnapshot: %v", err)
	}
	if snap.Watchdog.Running || snap.Watchdog.PID == 0 {
		t.Fatalf("stale pid should be read but not running: %+v", snap.Watchdog)
	}
}
