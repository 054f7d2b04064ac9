package deps

import (
	"os"
	"path/filepath"
	"testing"

	"deckysync/internal/testsupport"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	notExec := filepath.Join(binDir, "plain")
	if err := os.WriteFile(notExec, script, 0o644); err != nil {
		t.Fatalf("write plain: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Plain", Command: notExec},
		{Name: "Empty", Command: " "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}

	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}

	if results[2].Available {
		t.Fatalf("non-executable file reported available")
	}
	if results[3].Available || results[3].Detail != "command not configured" {
		t.Fatalf("unexpected empty command status %#v", results[3])
	}
}

func TestRequirementsReportResetTool(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithWatchdogScript("exit 0\n"),
		testsupport.WithStubbedBinaries("killall"),
	)
	t.Setenv("PATH", filepath.Join(testsupport.BaseDir(cfg), "bin"))

	results := CheckBinaries(Requirements(cfg))
	if !results[0].Available {
		t.Fatalf("watchdog binary not detected: %#v", results[0])
	}
	if !ResetToolAvailable(results) {
		t.Fatalf("killall should satisfy the reset tool check: %#v", results)
	}
}
