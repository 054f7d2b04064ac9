// Package procenv builds the environment handed to processes the backend spawns.
//
// The plugin host injects its own bundled libraries through LD_LIBRARY_PATH and
// may run without a session bus address. Children are system tools or the
// watchdog, so the host library path is cleared and the per-user bus filled in.
package procenv

import (
	"fmt"
	"strings"

	"golang.org/x/sys/unix"
)

const (
	libraryPathKey = "LD_LIBRARY_PATH"
	busAddressKey  = "DBUS_SESSION_BUS_ADDRESS"
)

// Patched returns a copy of base with LD_LIBRARY_PATH emptied and
// DBUS_SESSION_BUS_ADDRESS set for uid when base does not carry one.
func Patched(base []string, uid int) []string {
	env := make([]string, 0, len(base)+2)
	hasBus := false
	for _, entry := range base {
		key, _, _ := strings.Cut(entry, "=")
		switch key {
		case libraryPathKey:
			continue
		case busAddressKey:
			hasBus = true
		}
		env = append(env, entry)
	}
	env = append(env, libraryPathKey+"=")
	if !hasBus {
		env = append(env, busAddressKey+"="+BusAddress(uid))
	}
	return env
}

// Current patches base for the real uid of this process.
func Current(base []string) []string {
	return Patched(base, unix.Getuid())
}

// BusAddress is the systemd per-user session bus socket for uid.
func BusAddress(uid int) string {
	return fmt.Sprintf("unix:path=/run/user/%d/bus", uid)
}

// Lookup returns the value for key in env and whether it was present.
func Lookup(env []string, key string) (string, bool) {
	for i := len(env) - 1; i >= 0; i-- {
		k, v, ok := strings.Cut(env[i], "=")
		if ok && k == key {
			return v, true
		}
	}
	return "", false
}
