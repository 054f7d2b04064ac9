package watchdog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// Status describes what the PID file says about the watchdog.
type Status struct {
	PIDFile string `json:"pid_file"`
	PID     int    `json:"pid"`
	Running bool   `json:"running"`
	Detail  string `json:"detail"`
}

// Probe reports whether a live watchdog holds the PID file. It is diagnostic
// only and never influences Launch.
func (l *Launcher) Probe() Status {
	return probePIDFile(l.paths.PIDFile, filepath.Base(l.paths.Binary))
}

func probePIDFile(pidPath, exeName string) Status {
	status := Status{PIDFile: pidPath}
	pid, err := readPID(pidPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			status.Detail = "pid file missing"
		} else {
			status.Detail = err.Error()
		}
		return status
	}
	status.PID = pid

	if err := unix.Kill(pid, 0); err != nil && !errors.Is(err, unix.EPERM) {
		status.Detail = fmt.Sprintf("process %d not alive", pid)
		return status
	}
	if exe, err := os.Readlink(fmt.Sprintf("/proc/%d/exe", pid)); err == nil && exeName != "" {
		if filepath.Base(strings.TrimSuffix(exe, " (deleted)")) != exeName {
			status.Detail = fmt.Sprintf("pid %d belongs to %s", pid, filepath.Base(exe))
			return status
		}
	}
	status.Running = true
	status.Detail = "running"
	return status
}

func readPID(pidPath string) (int, error) {
	data, err := os.ReadFile(pidPath)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("pid file %s malformed", pidPath)
	}
	return pid, nil
}
