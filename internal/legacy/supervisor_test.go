package legacy_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"deckysync/internal/legacy"
	"deckysync/internal/logging"
	"deckysync/internal/testsupport"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newSupervisor(t *testing.T, script string) (*legacy.Supervisor, *fakeClock) {
	t.Helper()
	dir := t.TempDir()
	binary := filepath.Join(dir, "flatpak")
	testsupport.WriteScript(t, binary, script)
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	sup := legacy.New(legacy.Options{
		Binary:      binary,
		StartGrace:  30 * time.Second,
		StopTimeout: 200 * time.Millisecond,
		LogDir:      dir,
		Now:         clock.Now,
		Logger:      logging.NewNop(),
	})
	t.Cleanup(sup.Unload)
	return sup, clock
}

func waitForState(t *testing.T, sup *legacy.Supervisor, want legacy.State) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if sup.State() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("state %s never reached, last %s", want, sup.State())
}

func TestStateTransitions(t *testing.T) {
	sup, clock := newSupervisor(t, "echo \"args: $*\"\nexec sleep 30\n")

	if got := sup.State(); got != legacy.StateStopped {
		t.Fatalf("initial state %s", got)
	}
	if err := sup.Start(context.Background(), "me.kozec.syncthingtk"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := sup.State(); got != legacy.StateWait {
		t.Fatalf("expected wait right after start, got %s", got)
	}

	clock.Advance(29 * time.Second)
	if got := sup.State(); got != legacy.StateWait {
		t.Fatalf("expected wait inside grace, got %s", got)
	}
	clock.Advance(2 * time.Second)
	if got := sup.State(); got != legacy.StateRunning {
		t.Fatalf("expected running after grace, got %s", got)
	}

	if err := sup.Start(context.Background(), "me.kozec.syncthingtk"); !errors.Is(err, legacy.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}

	sup.Stop()
	if got := sup.State(); got != legacy.StateStopped {
		t.Fatalf("expected stopped after Stop, got %s", got)
	}
}

func TestStartCommandLineAndLog(t *testing.T) {
	sup, _ := newSupervisor(t, "echo \"args: $*\"\nexec sleep 30\n")
	if err := sup.Start(context.Background(), "me.kozec.syncthingtk"); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	var out string
	for time.Now().Before(deadline) {
		var err error
		out, err = sup.Log()
		if err != nil {
			t.Fatalf("Log: %v", err)
		}
		if out != "" {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	want := "args: run --command=syncthing me.kozec.syncthingtk --no-browser"
	if strings.TrimSpace(out) != want {
		t.Fatalf("unexpected log %q", out)
	}
}

func TestExitedProcessIsFailed(t *testing.T) {
	sup, clock := newSupervisor(t, "echo boom >&2\nexit 3\n")
	if err := sup.Start(context.Background(), "x"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitForState(t, sup, legacy.StateFailed)

	clock.Advance(time.Hour)
	if got := sup.State(); got != legacy.StateFailed {
		t.Fatalf("failed must not turn into running, got %s", got)
	}
	out, err := sup.Log()
	if err != nil || strings.TrimSpace(out) != "boom" {
		t.Fatalf("stderr not captured: %q, %v", out, err)
	}
	if err := sup.Start(context.Background(), "x"); err != nil {
		t.Fatalf("restart after failure: %v", err)
	}
}

func TestStopKillsStubbornProcess(t *testing.T) {
	sup, _ := newSupervisor(t, "trap '' TERM\nwhile true; do sleep 0.1; done\n")
	if err := sup.Start(context.Background(), "x"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		sup.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not escalate to SIGKILL")
	}
	if got := sup.State(); got != legacy.StateStopped {
		t.Fatalf("expected stopped, got %s", got)
	}
}

func TestStopWhenStoppedIsNoop(t *testing.T) {
	sup, _ := newSupervisor(t, "exit 0\n")
	sup.Stop()
	sup.Unload()
	if out, err := sup.Log(); err != nil || out != "" {
		t.Fatalf("expected empty log, got %q, %v", out, err)
	}
}

func TestStateStrings(t *testing.T) {
	cases := map[legacy.State]string{
		legacy.StateStopped: "stopped",
		legacy.StateWait:    "wait",
		legacy.StateRunning: "running",
		legacy.StateFailed:  "failed",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Fatalf("State(%d).String() = %q, want %q", int(state), got, want)
		}
	}
}
