// Package legacy supervises a Syncthing flatpak directly from the backend.
// It predates the watchdog and is kept for hosts still driving the old UI.
//
// The observable state is never stored. It is derived on every read from the
// process handle, whether that process has exited, and how long ago it started.
package legacy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"deckysync/internal/logging"
	"deckysync/internal/procenv"
)

// ErrAlreadyRunning is returned by Start while a daemon is waiting or running.
var ErrAlreadyRunning = errors.New("legacy daemon already running")

const (
	DefaultStartGrace  = 30 * time.Second
	DefaultStopTimeout = 5 * time.Second
)

// State is the derived lifecycle of the supervised daemon.
type State int

const (
	StateStopped State = iota
	StateWait
	StateRunning
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateWait:
		return "wait"
	case StateRunning:
		return "running"
	case StateFailed:
		return "failed"
	default:
		return "stopped"
	}
}

// Options configures a Supervisor. Zero values select the defaults.
type Options struct {
	Binary      string
	StartGrace  time.Duration
	StopTimeout time.Duration
	LogDir      string
	Now         func() time.Time
	Logger      *slog.Logger
}

type process struct {
	cmd       *exec.Cmd
	done      chan struct{}
	startedAt time.Time
}

func (p *process) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Supervisor owns at most one direct daemon process.
type Supervisor struct {
	mu          sync.Mutex
	proc        *process
	sink        *os.File
	binary      string
	startGrace  time.Duration
	stopTimeout time.Duration
	logDir      string
	now         func() time.Time
	logger      *slog.Logger
}

// New returns a stopped supervisor.
func New(opts Options) *Supervisor {
	s := &Supervisor{
		binary:      opts.Binary,
		startGrace:  opts.StartGrace,
		stopTimeout: opts.StopTimeout,
		logDir:      opts.LogDir,
		now:         opts.Now,
		logger:      logging.NewComponentLogger(opts.Logger, "legacy"),
	}
	if s.binary == "" {
		s.binary = "flatpak"
	}
	if s.startGrace <= 0 {
		s.startGrace = DefaultStartGrace
	}
	if s.stopTimeout <= 0 {
		s.stopTimeout = DefaultStopTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// State derives the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Supervisor) stateLocked() State {
	switch {
	case s.proc == nil:
		return StateStopped
	case s.proc.exited():
		return StateFailed
	case s.now().Sub(s.proc.startedAt) < s.startGrace:
		return StateWait
	default:
		return StateRunning
	}
}

// Start spawns syncthing from the named flatpak with output captured in a
// fresh log sink. A failed or stopped daemon may be started again.
func (s *Supervisor) Start(ctx context.Context, flatpakName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.stateLocked() {
	case StateWait, StateRunning:
		return ErrAlreadyRunning
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.resetSinkLocked(); err != nil {
		return err
	}

	cmd := exec.Command(s.binary, "run", "--command=syncthing", flatpakName, "--no-browser")
	cmd.Env = procenv.Current(os.Environ())
	cmd.Stdout = s.sink
	cmd.Stderr = s.sink
	if err := cmd.Start(); err != nil {
		s.proc = nil
		return fmt.Errorf("start legacy daemon: %w", err)
	}

	proc := &process{cmd: cmd, done: make(chan struct{}), startedAt: s.now()}
	go func() {
		err := cmd.Wait()
		close(proc.done)
		s.logger.Info("legacy daemon exited",
			logging.Int(logging.FieldPID, cmd.Process.Pid),
			logging.Any("result", err),
		)
	}()
	s.proc = proc
	s.logger.Info("legacy daemon started",
		logging.Int(logging.FieldPID, cmd.Process.Pid),
		logging.String("flatpak", flatpakName),
		logging.String(logging.FieldEventType, "legacy_started"),
	)
	return nil
}

// Stop terminates the daemon, escalating to SIGKILL after the stop timeout.
// The handle is cleared first so State reports stopped immediately.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	proc := s.proc
	s.proc = nil
	s.mu.Unlock()

	if proc == nil || proc.exited() {
		return
	}
	pid := proc.cmd.Process.Pid
	if err := proc.cmd.Process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		logging.WarnWithContext(s.logger, "legacy daemon terminate failed", "legacy_stop_failed",
			logging.Int(logging.FieldPID, pid),
			logging.Error(err),
		)
	}
	timer := time.NewTimer(s.stopTimeout)
	defer timer.Stop()
	select {
	case <-proc.done:
		return
	case <-timer.C:
	}
	s.logger.Info("legacy daemon ignored SIGTERM; killing", logging.Int(logging.FieldPID, pid))
	if err := proc.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		logging.WarnWithContext(s.logger, "legacy daemon kill failed", "legacy_kill_failed",
			logging.Int(logging.FieldPID, pid),
			logging.Error(err),
			logging.String(logging.FieldImpact, "a syncthing process may be left running"),
		)
		return
	}
	<-proc.done
}

// Unload stops the daemon and releases the log sink.
func (s *Supervisor) Unload() {
	s.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseSinkLocked()
}

// Log returns everything the daemon has written to the current sink.
func (s *Supervisor) Log() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sink == nil {
		return "", nil
	}
	data, err := os.ReadFile(s.sink.Name())
	if err != nil {
		return "", fmt.Errorf("read legacy log: %w", err)
	}
	return string(data), nil
}

func (s *Supervisor) resetSinkLocked() error {
	s.releaseSinkLocked()
	sink, err := os.CreateTemp(s.logDir, "decky-syncthing-*.log")
	if err != nil {
		return fmt.Errorf("create legacy log: %w", err)
	}
	s.sink = sink
	return nil
}

func (s *Supervisor) releaseSinkLocked() {
	if s.sink == nil {
		return
	}
	_ = s.sink.Close()
	_ = os.Remove(s.sink.Name())
	s.sink = nil
}
