// Package main hosts the deckysync entrypoint and command graph.
//
// The backend subcommand is what the plugin host starts. Every other command
// is a thin client translating terminal invocations into IPC calls against a
// running backend, or local diagnostics when none is reachable.
package main
