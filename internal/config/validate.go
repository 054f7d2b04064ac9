package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateProcess(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateProcess() error {
	if strings.ContainsAny(c.Process.FamilyName, " \t\n") {
		return fmt.Errorf("process.family_name must be a single word, got %q", c.Process.FamilyName)
	}
	if c.Process.ResetGrace < 0 {
		return errors.New("process.reset_grace must be zero or positive")
	}
	if c.Process.LegacyStartGrace < 0 {
		return errors.New("process.legacy_start_grace must be zero or positive")
	}
	if c.Process.LegacyStopTimeout <= 0 {
		return errors.New("process.legacy_stop_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be zero or positive")
	}
	return nil
}
