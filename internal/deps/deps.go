package deps

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"deckysync/internal/config"
)

// Requirement defines an external binary the backend relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// Requirements lists the binaries used by process reset, the watchdog launch,
// and the legacy supervisor. pkill and killall are interchangeable, so each is
// optional on its own.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{Name: "Watchdog", Command: cfg.WatchdogBinary(), Description: "Supervises Syncthing"},
		{Name: "pkill", Command: "pkill", Description: "Process reset (preferred)", Optional: true},
		{Name: "killall", Command: "killall", Description: "Process reset (fallback)", Optional: true},
		{Name: "Flatpak", Command: "flatpak", Description: "Legacy direct launch", Optional: true},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if strings.Contains(cmd, "/") {
			if err := checkExecutable(cmd); err != nil {
				status.Available = false
				status.Detail = err.Error()
				results = append(results, status)
				continue
			}
			status.Available = true
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// ResetToolAvailable reports whether either kill tool is present.
func ResetToolAvailable(statuses []Status) bool {
	for _, status := range statuses {
		if (status.Name == "pkill" || status.Name == "killall") && status.Available {
			return true
		}
	}
	return false
}

func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("binary %q not found", path)
	}
	if info.IsDir() {
		return fmt.Errorf("%q is a directory", path)
	}
	if info.Mode().Perm()&0o111 == 0 {
		return fmt.Errorf("%q is not executable", path)
	}
	return nil
}
