// Package logging assembles the slog loggers used by the deckysync backend and CLI.
//
// It owns the console and JSON handlers and writes to stdout plus the per-run
// log file. Old run logs are pruned by CleanupOldLogs. Warnings about
// best-effort process control go through WarnWithContext so each one names
// its event type and the user-facing impact.
package logging
