package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.applyHostEnvironment()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeWatchdog()
	c.normalizeProcess()
	c.normalizeLogging()
	return nil
}

// applyHostEnvironment lets the plugin host override the directory layout.
func (c *Config) applyHostEnvironment() {
	for env, target := range map[string]*string{
		envSettingsDir: &c.Paths.SettingsDir,
		envRuntimeDir:  &c.Paths.RuntimeDir,
		envLogDir:      &c.Paths.LogDir,
		envPluginDir:   &c.Paths.PluginDir,
	} {
		if value, ok := os.LookupEnv(env); ok && strings.TrimSpace(value) != "" {
			*target = strings.TrimSpace(value)
		}
	}
}

// HostOverrides returns the DECKY_PLUGIN_* variables currently set, sorted by
// name, as name/value pairs. These win over the TOML [paths] section.
func HostOverrides() [][2]string {
	var out [][2]string
	for _, env := range []string{envPluginDir, envLogDir, envRuntimeDir, envSettingsDir} {
		if value, ok := os.LookupEnv(env); ok && strings.TrimSpace(value) != "" {
			out = append(out, [2]string{env, strings.TrimSpace(value)})
		}
	}
	return out
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.SettingsDir) == "" {
		c.Paths.SettingsDir = defaultSettingsDir
	}
	if c.Paths.SettingsDir, err = expandPath(c.Paths.SettingsDir); err != nil {
		return fmt.Errorf("paths.settings_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.RuntimeDir) == "" {
		c.Paths.RuntimeDir = defaultRuntimeDir
	}
	if c.Paths.RuntimeDir, err = expandPath(c.Paths.RuntimeDir); err != nil {
		return fmt.Errorf("paths.runtime_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.PluginDir) == "" {
		c.Paths.PluginDir = defaultPluginDir
	}
	if c.Paths.PluginDir, err = expandPath(c.Paths.PluginDir); err != nil {
		return fmt.Errorf("paths.plugin_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeWatchdog() {
	c.Watchdog.Binary = strings.TrimSpace(c.Watchdog.Binary)
	if c.Watchdog.Binary == "" {
		c.Watchdog.Binary = defaultWatchdogBinary
	}
	c.Watchdog.SettingsFile = strings.TrimSpace(c.Watchdog.SettingsFile)
	if c.Watchdog.SettingsFile == "" {
		c.Watchdog.SettingsFile = defaultSettingsFile
	}
	c.Watchdog.PIDFile = strings.TrimSpace(c.Watchdog.PIDFile)
	if c.Watchdog.PIDFile == "" {
		c.Watchdog.PIDFile = defaultPIDFile
	}
	c.Watchdog.Socket = strings.TrimSpace(c.Watchdog.Socket)
	if c.Watchdog.Socket == "" {
		c.Watchdog.Socket = defaultSocketFile
	}
}

func (c *Config) normalizeProcess() {
	c.Process.FamilyName = strings.TrimSpace(c.Process.FamilyName)
	if c.Process.FamilyName == "" {
		c.Process.FamilyName = defaultFamilyName
	}
	if c.Process.KeepAliveInterval <= 0 {
		c.Process.KeepAliveInterval = defaultKeepAliveInterval
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}
