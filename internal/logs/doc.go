// Package logs reads the backend's own log files for the CLI.
//
// The backend writes one file per run and points deckysync.log at the newest.
// Tailing resolves that pointer once, so a follow session stays on the run it
// started with.
package logs
