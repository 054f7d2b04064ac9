// Package plugin is the request surface the plugin host and its UI call into.
// It owns the in-memory settings and routes lifecycle requests to the watchdog
// launcher and the legacy supervisor.
package plugin

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"deckysync/internal/legacy"
	"deckysync/internal/logging"
	"deckysync/internal/settings"
	"deckysync/internal/watchdog"
)

// SettingsStore persists the settings document.
type SettingsStore interface {
	Load(ctx context.Context) settings.Settings
	Save(settings.Settings) error
}

// Launcher starts and restarts the watchdog.
type Launcher interface {
	Launch() error
	Restart(ctx context.Context) error
	Probe() watchdog.Status
}

// Legacy is the direct daemon supervisor used by the pre-watchdog UI.
type Legacy interface {
	State() legacy.State
	Start(ctx context.Context, flatpakName string) error
	Stop()
	Unload()
	Log() (string, error)
}

// Plugin holds the backend state for one plugin process.
type Plugin struct {
	mu        sync.Mutex
	settings  settings.Settings
	store     SettingsStore
	launcher  Launcher
	legacy    Legacy
	keepAlive time.Duration
	logger    *slog.Logger
}

// New wires a plugin. keepAlive is the tick of the idle loop run by Main.
func New(store SettingsStore, launcher Launcher, legacySup Legacy, keepAlive time.Duration, logger *slog.Logger) *Plugin {
	if keepAlive <= 0 {
		keepAlive = time.Second
	}
	return &Plugin{
		settings:  settings.Default(),
		store:     store,
		launcher:  launcher,
		legacy:    legacySup,
		keepAlive: keepAlive,
		logger:    logging.NewComponentLogger(logger, "plugin"),
	}
}

// Init loads (and migrates) settings and launches the watchdog. A launch
// failure is logged; the backend keeps serving requests.
func (p *Plugin) Init(ctx context.Context) {
	loaded := p.store.Load(ctx)
	p.mu.Lock()
	p.settings = loaded
	p.mu.Unlock()

	p.logger.Info("settings loaded",
		logging.String("mode", string(loaded.Mode)),
		logging.String("is_setup", loaded.IsSetup.String()),
	)
	if err := p.launcher.Launch(); err != nil {
		logging.WarnWithContext(p.logger, "watchdog launch failed", "watchdog_launch_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "verify the watchdog binary is installed and executable"),
			logging.String(logging.FieldImpact, "syncthing is not supervised until the watchdog is restarted"),
		)
	}
}

// Main runs Init and then idles until ctx is cancelled.
func (p *Plugin) Main(ctx context.Context) error {
	p.Init(ctx)
	ticker := time.NewTicker(p.keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Settings returns a copy of the in-memory settings.
func (p *Plugin) Settings() settings.Settings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settings.Clone()
}

// SettingsJSON returns the in-memory settings in their persisted form,
// credentials included.
func (p *Plugin) SettingsJSON() (string, error) {
	data, err := settings.Encode(p.Settings())
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SetSetting updates one key and persists the whole document. Unknown keys and
// values of the wrong type are rejected before anything is written. Changing
// the mode does not restart the watchdog.
func (p *Plugin) SetSetting(name string, raw json.RawMessage) error {
	key, err := settings.ParseKey(name)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	next, err := settings.Apply(p.settings, key, raw)
	if err != nil {
		return err
	}
	if err := p.store.Save(next); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	p.settings = next
	p.logger.Info("setting updated", logging.String("key", string(key)))
	return nil
}

// RestartWatchdog resets the daemon family and relaunches the watchdog. The
// settings lock is not held, so other requests proceed during the grace wait.
// A spawn failure is logged and never reaches the caller; WatchdogStatus shows
// whether a watchdog ended up holding the PID file.
func (p *Plugin) RestartWatchdog(ctx context.Context) {
	if err := p.launcher.Restart(ctx); err != nil {
		logging.WarnWithContext(p.logger, "watchdog restart failed", "watchdog_restart_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "verify the watchdog binary is installed and executable"),
			logging.String(logging.FieldImpact, "syncthing is not supervised until the next restart"),
		)
		return
	}
	p.logger.Info("watchdog restarted", logging.String(logging.FieldEventType, "watchdog_restarted"))
}

// WatchdogStatus reports what the PID file says about the watchdog.
func (p *Plugin) WatchdogStatus() watchdog.Status {
	return p.launcher.Probe()
}

// LegacyState returns stopped, wait, running or failed.
func (p *Plugin) LegacyState() string {
	return p.legacy.State().String()
}

// LegacyStart starts the direct daemon for the configured flatpak.
func (p *Plugin) LegacyStart(ctx context.Context) error {
	name := p.Settings().FlatpakName
	return p.legacy.Start(ctx, name)
}

// LegacyStop stops the direct daemon.
func (p *Plugin) LegacyStop() {
	p.legacy.Stop()
}

// LegacyLog returns the direct daemon output.
func (p *Plugin) LegacyLog() (string, error) {
	return p.legacy.Log()
}

// Unload releases everything the plugin owns. The watchdog is left running.
func (p *Plugin) Unload() {
	p.legacy.Unload()
	p.logger.Info("plugin unloaded")
}
