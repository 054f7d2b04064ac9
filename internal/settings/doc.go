// Package settings owns the persisted decky-syncthing settings document.
//
// The document is a single JSON file written only by the plugin backend and
// read by both the backend and the independent watchdog. Store loads it
// (never failing outward: anything unreadable becomes the compiled default,
// persisted immediately), migrates older schema versions forward, and saves
// whole documents through a temp file and rename.
//
// Writes coming from the UI go through ParseKey and Apply, which accept only
// the documented value shapes for each key.
package settings
