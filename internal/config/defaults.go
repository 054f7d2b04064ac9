package config

const (
	defaultSettingsDir       = "~/homebrew/settings/decky-syncthing"
	defaultRuntimeDir        = "~/homebrew/data/decky-syncthing"
	defaultLogDir            = "~/homebrew/logs/decky-syncthing"
	defaultPluginDir         = "~/homebrew/plugins/decky-syncthing"
	defaultSettingsFile      = "decky-syncthing.json"
	defaultPIDFile           = "watchdog.pid"
	defaultWatchdogBinary    = "bin/decky-syncthing-watchdog"
	defaultSocketFile        = "deckysync.sock"
	defaultFamilyName        = "syncthing"
	defaultResetGrace        = 2
	defaultLegacyStartGrace  = 30
	defaultLegacyStopTimeout = 5
	defaultKeepAliveInterval = 1
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLogRetentionDays  = 14
)

const (
	envSettingsDir = "DECKY_PLUGIN_SETTINGS_DIR"
	envRuntimeDir  = "DECKY_PLUGIN_RUNTIME_DIR"
	envLogDir      = "DECKY_PLUGIN_LOG_DIR"
	envPluginDir   = "DECKY_PLUGIN_DIR"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			SettingsDir: defaultSettingsDir,
			RuntimeDir:  defaultRuntimeDir,
			LogDir:      defaultLogDir,
			PluginDir:   defaultPluginDir,
		},
		Watchdog: Watchdog{
			Binary:       defaultWatchdogBinary,
			SettingsFile: defaultSettingsFile,
			PIDFile:      defaultPIDFile,
			Socket:       defaultSocketFile,
		},
		Process: Process{
			FamilyName:        defaultFamilyName,
			ResetGrace:        defaultResetGrace,
			LegacyStartGrace:  defaultLegacyStartGrace,
			LegacyStopTimeout: defaultLegacyStopTimeout,
			KeepAliveInterval: defaultKeepAliveInterval,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
