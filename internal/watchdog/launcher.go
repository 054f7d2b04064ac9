// Package watchdog starts the out-of-process supervisor that owns the
// Syncthing lifecycle. The backend only spawns it; the watchdog itself decides
// whether another instance already holds the PID file.
package watchdog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"deckysync/internal/logging"
	"deckysync/internal/procenv"
	"deckysync/internal/settings"
)

// Paths are the positional arguments the watchdog expects.
type Paths struct {
	Binary   string
	Settings string
	PIDFile  string
	LogDir   string
}

// Launcher starts the watchdog binary detached from the backend.
type Launcher struct {
	paths  Paths
	reset  settings.Resetter
	env    func() []string
	logger *slog.Logger
}

// NewLauncher returns a launcher. reset runs before every Restart.
func NewLauncher(paths Paths, reset settings.Resetter, logger *slog.Logger) *Launcher {
	return &Launcher{
		paths:  paths,
		reset:  reset,
		env:    os.Environ,
		logger: logging.NewComponentLogger(logger, "watchdog"),
	}
}

// SetEnv replaces the base environment handed to the watchdog before patching.
func (l *Launcher) SetEnv(fn func() []string) {
	if fn != nil {
		l.env = fn
	}
}

// Paths returns the launch arguments.
func (l *Launcher) Paths() Paths {
	return l.paths
}

// Args returns the argv used to start the watchdog.
func (l *Launcher) Args() []string {
	return []string{l.paths.Binary, l.paths.Settings, l.paths.PIDFile, l.paths.LogDir}
}

// Launch spawns the watchdog and returns once the OS has started it. A second
// instance exits on its own when it finds a live PID file, so Launch does not
// check for one.
func (l *Launcher) Launch() error {
	if strings.TrimSpace(l.paths.Binary) == "" {
		return fmt.Errorf("launch watchdog: binary path is empty")
	}
	argv := l.Args()
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = procenv.Current(l.env())
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	// Nil stdio is connected to the null device.
	cmd.Stdin, cmd.Stdout, cmd.Stderr = nil, nil, nil
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch watchdog: %w", err)
	}
	pid := cmd.Process.Pid
	l.logger.Info("watchdog launched",
		logging.Int(logging.FieldPID, pid),
		logging.String("binary", l.paths.Binary),
		logging.String(logging.FieldEventType, "watchdog_launched"),
	)
	go func() {
		err := cmd.Wait()
		l.logger.Debug("watchdog process exited", logging.Int(logging.FieldPID, pid), logging.Any("result", err))
	}()
	return nil
}

// Restart terminates the daemon family, waits out the reset grace, and
// launches a fresh watchdog.
func (l *Launcher) Restart(ctx context.Context) error {
	l.logger.Info("restarting watchdog", logging.String(logging.FieldEventType, "watchdog_restart"))
	if l.reset != nil {
		l.reset.ResetAll(ctx)
	}
	return l.Launch()
}
