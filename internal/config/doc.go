// Package config loads, normalizes, and validates deckysync backend configuration.
//
// The plugin host injects four directories (settings, runtime, log, and plugin
// installation) through DECKY_PLUGIN_* environment variables. Those values win
// over anything in the optional TOML file, which otherwise only tunes logging
// and the process-control timings used by the reset, launch, and legacy
// supervision code.
//
// Always obtain paths through this package so the watchdog receives the same
// settings file, PID file, and log directory on every launch.
package config
