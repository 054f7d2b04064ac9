package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func decodeRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	return record
}

func TestSessionIDStampedOnEveryRecord(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newSessionIDHandler(slog.NewJSONHandler(&buf, nil), "run-1")).With("component", "plugin")

	logger.Info("settings loaded")

	record := decodeRecord(t, &buf)
	if record[FieldSessionID] != "run-1" || record["component"] != "plugin" {
		t.Fatalf("unexpected record %v", record)
	}
}

func TestStampSurvivesGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newSessionIDHandler(slog.NewJSONHandler(&buf, nil), "run-2")).WithGroup("watchdog")

	logger.Info("spawned", "pid", 42)

	record := decodeRecord(t, &buf)
	group, ok := record["watchdog"].(map[string]any)
	if !ok {
		t.Fatalf("expected watchdog group, got %v", record)
	}
	if group[FieldSessionID] != "run-2" || group["pid"] != float64(42) {
		t.Fatalf("unexpected group %v", group)
	}
}

func TestStampHandlerEdgeCases(t *testing.T) {
	if newStampHandler(nil, slog.String("k", "v")) != slog.DiscardHandler {
		t.Fatal("expected discard handler for nil base")
	}
	base := slog.NewJSONHandler(&bytes.Buffer{}, nil)
	if newStampHandler(base) != slog.Handler(base) {
		t.Fatal("expected base handler when no stamp attrs are given")
	}
}
