package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the directories injected by the plugin host.
type Paths struct {
	SettingsDir string `toml:"settings_dir"`
	RuntimeDir  string `toml:"runtime_dir"`
	LogDir      string `toml:"log_dir"`
	PluginDir   string `toml:"plugin_dir"`
}

// Watchdog names the files exchanged with the watchdog process. Relative
// values are resolved against the matching Paths directory.
type Watchdog struct {
	Binary       string `toml:"binary"`
	SettingsFile string `toml:"settings_file"`
	PIDFile      string `toml:"pid_file"`
	Socket       string `toml:"socket"`
}

// Process contains process-control timings, in seconds.
type Process struct {
	FamilyName        string `toml:"family_name"`
	ResetGrace        int    `toml:"reset_grace"`
	LegacyStartGrace  int    `toml:"legacy_start_grace"`
	LegacyStopTimeout int    `toml:"legacy_stop_timeout"`
	KeepAliveInterval int    `toml:"keep_alive_interval"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for the deckysync backend.
type Config struct {
	Paths    Paths    `toml:"paths"`
	Watchdog Watchdog `toml:"watchdog"`
	Process  Process  `toml:"process"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/deckysync/config.toml")
}

// Load locates, parses, and validates a configuration file. A missing file is
// not an error; defaults and host environment values are used instead.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if strings.TrimSpace(path) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", false, err
		}
		path = defaultPath
	}
	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %q is a directory", expanded)
	}
	return expanded, true, nil
}

// EnsureDirectories creates the directories the backend writes into. The
// plugin directory is owned by the host and is never created here.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.SettingsDir, c.Paths.RuntimeDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SettingsPath returns the persisted settings document shared with the watchdog.
func (c *Config) SettingsPath() string {
	return resolveIn(c.Paths.SettingsDir, c.Watchdog.SettingsFile)
}

// PIDPath returns the watchdog PID file location.
func (c *Config) PIDPath() string {
	return resolveIn(c.Paths.RuntimeDir, c.Watchdog.PIDFile)
}

// WatchdogBinary returns the watchdog executable shipped with the plugin.
func (c *Config) WatchdogBinary() string {
	return resolveIn(c.Paths.PluginDir, c.Watchdog.Binary)
}

// SocketPath returns the backend IPC socket location.
func (c *Config) SocketPath() string {
	return resolveIn(c.Paths.RuntimeDir, c.Watchdog.Socket)
}

// ResetGrace is the quiet period observed after a process reset.
func (c *Config) ResetGrace() time.Duration {
	return time.Duration(c.Process.ResetGrace) * time.Second
}

// LegacyStartGrace is how long a freshly started legacy daemon reports "wait".
func (c *Config) LegacyStartGrace() time.Duration {
	return time.Duration(c.Process.LegacyStartGrace) * time.Second
}

// LegacyStopTimeout bounds the graceful stop of the legacy daemon before SIGKILL.
func (c *Config) LegacyStopTimeout() time.Duration {
	return time.Duration(c.Process.LegacyStopTimeout) * time.Second
}

// KeepAliveInterval is the tick of the idle loop holding the backend open.
func (c *Config) KeepAliveInterval() time.Duration {
	return time.Duration(c.Process.KeepAliveInterval) * time.Second
}

func resolveIn(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// Sample returns the commented sample configuration.
func Sample() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
