// Package backend assembles the plugin backend process: logging, the settings
// store, the watchdog launcher, the legacy supervisor, and the IPC server.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"deckysync/internal/config"
	"deckysync/internal/deps"
	"deckysync/internal/ipc"
	"deckysync/internal/legacy"
	"deckysync/internal/logging"
	"deckysync/internal/logs"
	"deckysync/internal/plugin"
	"deckysync/internal/procreset"
	"deckysync/internal/settings"
	"deckysync/internal/watchdog"
)

// Options configures backend runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	// Stdout mirrors log output to stdout, which the plugin host captures.
	Stdout bool
}

// Components is the wired object graph of one backend process.
type Components struct {
	Store    *settings.Store
	Resetter *procreset.Resetter
	Launcher *watchdog.Launcher
	Legacy   *legacy.Supervisor
	Plugin   *plugin.Plugin
}

// Wire builds the backend components from cfg.
func Wire(cfg *config.Config, logger *slog.Logger) *Components {
	resetter := procreset.New(cfg.Process.FamilyName,
		procreset.WithGrace(cfg.ResetGrace()),
		procreset.WithLogger(logger),
	)
	store := settings.NewStore(cfg.SettingsPath(), resetter, logger)
	launcher := watchdog.NewLauncher(watchdog.Paths{
		Binary:   cfg.WatchdogBinary(),
		Settings: cfg.SettingsPath(),
		PIDFile:  cfg.PIDPath(),
		LogDir:   cfg.Paths.LogDir,
	}, resetter, logger)
	legacySup := legacy.New(legacy.Options{
		StartGrace:  cfg.LegacyStartGrace(),
		StopTimeout: cfg.LegacyStopTimeout(),
		LogDir:      cfg.Paths.RuntimeDir,
		Logger:      logger,
	})
	return &Components{
		Store:    store,
		Resetter: resetter,
		Launcher: launcher,
		Legacy:   legacySup,
		Plugin:   plugin.New(store, launcher, legacySup, cfg.KeepAliveInterval(), logger),
	}
}

// Run starts the backend and blocks until the host terminates it.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("deckysync-%s.log", runID))
	sessionID := uuid.NewString()

	outputs := []string{logPath}
	if opts.Stdout {
		outputs = append([]string{"stdout"}, outputs...)
	}
	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: outputs,
		Development: opts.Development,
		SessionID:   sessionID,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update %s link: %v\n", logs.CurrentName, err)
	}
	if pruned := logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "deckysync-*.log", Exclude: []string{logPath}},
	); pruned > 0 {
		logger.Info("old backend logs pruned", logging.Int("count", pruned))
	}
	logger.Info("backend starting",
		logging.String(logging.FieldEventType, "backend_start"),
		logging.String("settings_path", cfg.SettingsPath()),
		logging.String("watchdog_binary", cfg.WatchdogBinary()),
	)
	logDependencySnapshot(logger, cfg)

	components := Wire(cfg, logger)

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), components.Plugin, logger)
	if err != nil {
		// The host talks to the plugin directly; the socket only serves the CLI.
		logging.WarnWithContext(logger, "IPC server unavailable", "ipc_start_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "deckysync CLI commands cannot reach this backend"),
			logging.String(logging.FieldErrorHint, "check permissions on the plugin runtime directory"),
		)
	} else {
		ipcServer.Serve()
	}
	// Unload first so the legacy daemon is stopped even if closing the socket
	// is slow.
	defer func() {
		components.Plugin.Unload()
		if ipcServer != nil {
			ipcServer.Close()
		}
	}()

	if err := components.Plugin.Main(signalCtx); err != nil {
		return err
	}
	logger.Info("backend shutting down", logging.String(logging.FieldEventType, "backend_stop"))
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, logs.CurrentName)
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	statuses := deps.CheckBinaries(deps.Requirements(cfg))
	attrs := []logging.Attr{logging.String(logging.FieldEventType, "dependency_snapshot")}
	for _, status := range statuses {
		attrs = append(attrs, logging.Bool(status.Name+"_available", status.Available))
	}
	logger.Info("dependency snapshot", logging.Args(attrs...)...)
	if !deps.ResetToolAvailable(statuses) {
		logging.WarnWithContext(logger, "neither pkill nor killall found", "reset_tool_missing",
			logging.String(logging.FieldImpact, "restarts cannot terminate stale syncthing processes"),
			logging.String(logging.FieldErrorHint, "install procps or psmisc"),
		)
	}
}
