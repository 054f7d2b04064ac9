package procenv

import "testing"

func TestPatchedClearsLibraryPathAndAddsBus(t *testing.T) {
	base := []string{"HOME=/home/deck", "LD_LIBRARY_PATH=/opt/decky/lib", "PATH=/usr/bin"}
	env := Patched(base, 1000)

	if v, ok := Lookup(env, "LD_LIBRARY_PATH"); !ok || v != "" {
		t.Fatalf("expected empty LD_LIBRARY_PATH, got %q (present=%v)", v, ok)
	}
	if v, _ := Lookup(env, "DBUS_SESSION_BUS_ADDRESS"); v != "unix:path=/run/user/1000/bus" {
		t.Fatalf("unexpected bus address %q", v)
	}
	if v, _ := Lookup(env, "HOME"); v != "/home/deck" {
		t.Fatalf("HOME lost: %q", v)
	}
	count := 0
	for _, entry := range env {
		if len(entry) >= len("LD_LIBRARY_PATH=") && entry[:len("LD_LIBRARY_PATH=")] == "LD_LIBRARY_PATH=" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected one LD_LIBRARY_PATH entry, got %d", count)
	}
	if base[1] != "LD_LIBRARY_PATH=/opt/decky/lib" {
		t.Fatalf("base environment was modified")
	}
}

func TestPatchedKeepsExistingBus(t *testing.T) {
	env := Patched([]string{"DBUS_SESSION_BUS_ADDRESS=unix:path=/tmp/bus"}, 1000)
	if v, _ := Lookup(env, "DBUS_SESSION_BUS_ADDRESS"); v != "unix:path=/tmp/bus" {
		t.Fatalf("existing bus address replaced: %q", v)
	}
}
