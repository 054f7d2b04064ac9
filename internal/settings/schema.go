package settings

import (
	"encoding/json"
	"fmt"
)

// CurrentVersion is the schema version produced by Default and by migration.
const CurrentVersion = 2

// Mode selects how the watchdog launches Syncthing.
type Mode string

const (
	ModeSystemd       Mode = "systemd"
	ModeSystemdSystem Mode = "systemd_system"
	ModeFlatpak       Mode = "flatpak"
)

func (m Mode) valid() bool {
	switch m {
	case ModeSystemd, ModeSystemdSystem, ModeFlatpak:
		return true
	}
	return false
}

func (m *Mode) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("mode: %w", err)
	}
	if !Mode(raw).valid() {
		return fmt.Errorf("mode: unsupported value %q", raw)
	}
	*m = Mode(raw)
	return nil
}

// Autostart selects when the watchdog starts Syncthing on its own.
type Autostart string

const (
	AutostartNo        Autostart = "no"
	AutostartBoot      Autostart = "boot"
	AutostartGamescope Autostart = "gamescope"
)

func (a Autostart) valid() bool {
	switch a {
	case AutostartNo, AutostartBoot, AutostartGamescope:
		return true
	}
	return false
}

func (a *Autostart) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("autostart: %w", err)
	}
	if !Autostart(raw).valid() {
		return fmt.Errorf("autostart: unsupported value %q", raw)
	}
	*a = Autostart(raw)
	return nil
}

// Settings is the current (version 2) schema.
type Settings struct {
	ConfigVersion        int       `json:"config_version"`
	Mode                 Mode      `json:"mode"`
	ServiceName          string    `json:"service_name"`
	FlatpakName          string    `json:"flatpak_name"`
	FlatpakBinary        string    `json:"flatpak_binary"`
	Autostart            Autostart `json:"autostart"`
	KeepRunningOnDesktop bool      `json:"keep_running_on_desktop"`
	Port                 uint16    `json:"port"`
	APIKey               string    `json:"api_key"`
	BasicAuthUser        string    `json:"basic_auth_user"`
	BasicAuthPass        string    `json:"basic_auth_pass"`
	// IsSetup gates whether the watchdog may run Syncthing at all.
	IsSetup SetupState `json:"is_setup"`
	// WizardForceFlatpakConfigFor makes the setup wizard look for the Syncthing
	// config of the named Flatpak even outside flatpak mode.
	WizardForceFlatpakConfigFor *string `json:"_wizard_force_flatpak_config_for,omitempty"`
}

var settingsKeys = []string{
	"config_version", "mode", "service_name", "flatpak_name", "flatpak_binary",
	"autostart", "keep_running_on_desktop", "port", "api_key", "basic_auth_user",
	"basic_auth_pass", "is_setup",
}

// Clone returns a deep copy safe to mutate.
func (s Settings) Clone() Settings {
	if s.WizardForceFlatpakConfigFor != nil {
		v := *s.WizardForceFlatpakConfigFor
		s.WizardForceFlatpakConfigFor = &v
	}
	return s
}

// V1 is the original flatpak-only schema.
type V1 struct {
	ConfigVersion        int    `json:"config_version"`
	Autostart            bool   `json:"autostart"`
	FlatpakName          string `json:"flatpak_name"`
	Port                 uint16 `json:"port"`
	APIKey               string `json:"api_key"`
	BasicAuthUser        string `json:"basic_auth_user"`
	BasicAuthPass        string `json:"basic_auth_pass"`
	KeepRunningOnDesktop bool   `json:"keep_running_on_desktop"`
}

var v1Keys = []string{
	"config_version", "autostart", "flatpak_name", "port", "api_key",
	"basic_auth_user", "basic_auth_pass", "keep_running_on_desktop",
}
