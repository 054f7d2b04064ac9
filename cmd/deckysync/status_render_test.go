package main

import (
	"fmt"
	"strings"
	"testing"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Watchdog", statusError, "Not running", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Watchdog:", "[ERROR] Not running")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Watchdog", statusOK, "Running", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestLegacyStateLabels(t *testing.T) {
	cases := map[string]struct {
		label string
		kind  statusKind
	}{
		"stopped": {"Stopped", statusInfo},
		"wait":    {"Wait", statusWarn},
		"running": {"Running", statusOK},
		"failed":  {"Failed", statusError},
	}
	for state, want := range cases {
		if got := stateLabel(state); got != want.label {
			t.Fatalf("stateLabel(%q) = %q, want %q", state, got, want.label)
		}
		if got := legacyStateKind(state); got != want.kind {
			t.Fatalf("legacyStateKind(%q) = %d, want %d", state, got, want.kind)
		}
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	var sb strings.Builder
	if shouldColorize(&sb) {
		t.Fatal("builder should never be colorized")
	}
}
