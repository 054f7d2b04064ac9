// Package procreset terminates every process of the daemon family before the
// supervisor takes over, so no orphan from an earlier layout holds the ports.
package procreset

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"

	"deckysync/internal/logging"
	"deckysync/internal/procenv"
)

// DefaultGrace is the quiet period after the kill tool is started.
const DefaultGrace = 2 * time.Second

// Option customizes a Resetter.
type Option func(*Resetter)

// Resetter signals every process whose name matches the family.
type Resetter struct {
	family   string
	grace    time.Duration
	lookPath func(string) (string, error)
	env      func() []string
	logger   *slog.Logger
}

// WithGrace overrides the post-signal wait.
func WithGrace(d time.Duration) Option {
	return func(r *Resetter) {
		if d >= 0 {
			r.grace = d
		}
	}
}

// WithLookPath replaces binary resolution, mainly for tests.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(r *Resetter) {
		if fn != nil {
			r.lookPath = fn
		}
	}
}

// WithEnv replaces the base environment the kill tool inherits before patching.
func WithEnv(fn func() []string) Option {
	return func(r *Resetter) {
		if fn != nil {
			r.env = fn
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resetter) {
		r.logger = logger
	}
}

// New returns a Resetter for processes named like family.
func New(family string, opts ...Option) *Resetter {
	r := &Resetter{
		family:   family,
		grace:    DefaultGrace,
		lookPath: exec.LookPath,
		env:      os.Environ,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "procreset")
	return r
}

// ResetAll starts pkill, or killall when pkill is absent, against the family
// and then waits out the grace window. Failures are logged and never returned;
// ctx only shortens the wait.
func (r *Resetter) ResetAll(ctx context.Context) {
	name, args, ok := r.command()
	if !ok {
		logging.WarnWithContext(r.logger, "no process kill tool available; skipping reset", "process_reset_unavailable",
			logging.String("family", r.family),
			logging.String(logging.FieldImpact, "stale daemon processes may keep running"),
			logging.String(logging.FieldErrorHint, "install procps (pkill) or psmisc (killall)"),
		)
	} else {
		r.spawn(name, args)
	}

	if r.grace <= 0 {
		return
	}
	timer := time.NewTimer(r.grace)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (r *Resetter) command() (string, []string, bool) {
	if path, err := r.lookPath("pkill"); err == nil {
		return path, []string{r.family}, true
	}
	if path, err := r.lookPath("killall"); err == nil {
		return path, []string{"-r", ".*" + r.family + ".*"}, true
	}
	return "", nil, false
}

func (r *Resetter) spawn(name string, args []string) {
	cmd := exec.Command(name, args...)
	cmd.Env = procenv.Current(r.env())
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		logging.WarnWithContext(r.logger, "process reset failed to start", "process_reset_failed",
			logging.String("command", name),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale daemon processes may keep running"),
		)
		return
	}
	r.logger.Debug("process reset started",
		logging.String("command", name),
		logging.Any("args", args),
		logging.Int(logging.FieldPID, cmd.Process.Pid),
	)
	go func() {
		// pkill exits 1 when nothing matched; that is not a failure here.
		err := cmd.Wait()
		r.logger.Debug("process reset finished", logging.String("command", name), logging.Any("result", err))
	}()
}
