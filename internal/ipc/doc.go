// Package ipc exposes the plugin backend over JSON-RPC on a Unix domain socket
// and ships the matching client used by the CLI.
//
// Settings rejections cross the wire as error strings. The client maps them
// back onto the settings sentinels so callers can keep using errors.Is.
package ipc
