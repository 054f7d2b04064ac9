package settings_test

import (
	"encoding/json"
	"errors"
	"testing"

	"deckysync/internal/settings"
)

func TestParseKeyRejectsUnknown(t *testing.T) {
	if _, err := settings.ParseKey("bogusField"); !errors.Is(err, settings.ErrUnknownSetting) {
		t.Fatalf("expected ErrUnknownSetting, got %v", err)
	}
	key, err := settings.ParseKey("port")
	if err != nil || key != settings.KeyPort {
		t.Fatalf("ParseKey(port) = %q, %v", key, err)
	}
}

func TestApplyCoercesValues(t *testing.T) {
	cases := []struct {
		key   settings.Key
		raw   string
		check func(settings.Settings) bool
	}{
		{settings.KeyPort, `"22000"`, func(s settings.Settings) bool { return s.Port == 22000 }},
		{settings.KeyPort, `22000`, func(s settings.Settings) bool { return s.Port == 22000 }},
		{settings.KeyKeepRunningOnDesktop, `"true"`, func(s settings.Settings) bool { return s.KeepRunningOnDesktop }},
		{settings.KeyKeepRunningOnDesktop, `true`, func(s settings.Settings) bool { return s.KeepRunningOnDesktop }},
		{settings.KeyMode, `"flatpak"`, func(s settings.Settings) bool { return s.Mode == settings.ModeFlatpak }},
		{settings.KeyAutostart, `"boot"`, func(s settings.Settings) bool { return s.Autostart == settings.AutostartBoot }},
		{settings.KeyIsSetup, `"migratingV2"`, func(s settings.Settings) bool { return s.IsSetup == settings.SetupMigratingV2 }},
		{settings.KeyIsSetup, `"true"`, func(s settings.Settings) bool { return s.IsSetup == settings.SetupComplete }},
		{settings.KeyIsSetup, `true`, func(s settings.Settings) bool { return s.IsSetup == settings.SetupComplete }},
		{settings.KeyAPIKey, `"abc"`, func(s settings.Settings) bool { return s.APIKey == "abc" }},
		{settings.KeyWizardForceFlatpakConfigFor, `"x.y"`, func(s settings.Settings) bool {
			return s.WizardForceFlatpakConfigFor != nil && *s.WizardForceFlatpakConfigFor == "x.y"
		}},
		{settings.KeyConfigVersion, `2`, func(s settings.Settings) bool { return s.ConfigVersion == 2 }},
	}
	for _, tc := range cases {
		t.Run(string(tc.key)+"="+tc.raw, func(t *testing.T) {
			got, err := settings.Apply(settings.Default(), tc.key, json.RawMessage(tc.raw))
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if !tc.check(got) {
				t.Fatalf("unexpected result %+v", got)
			}
		})
	}
}

func TestApplyRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		key settings.Key
		raw string
	}{
		{settings.KeyPort, `"abc"`},
		{settings.KeyPort, `70000`},
		{settings.KeyPort, `-1`},
		{settings.KeyPort, `8.5`},
		{settings.KeyMode, `"docker"`},
		{settings.KeyAutostart, `false`},
		{settings.KeyKeepRunningOnDesktop, `"yes"`},
		{settings.KeyAPIKey, `5`},
		{settings.KeyIsSetup, `"done"`},
		{settings.KeyConfigVersion, `1`},
	}
	for _, tc := range cases {
		t.Run(string(tc.key)+"="+tc.raw, func(t *testing.T) {
			base := settings.Default()
			got, err := settings.Apply(base, tc.key, json.RawMessage(tc.raw))
			if !errors.Is(err, settings.ErrInvalidValue) {
				t.Fatalf("expected ErrInvalidValue, got %v", err)
			}
			if got != base {
				t.Fatalf("failed apply must return the input unchanged")
			}
		})
	}
}

func TestApplyClearsWizardField(t *testing.T) {
	name := "x.y"
	base := settings.Default()
	base.WizardForceFlatpakConfigFor = &name
	got, err := settings.Apply(base, settings.KeyWizardForceFlatpakConfigFor, json.RawMessage(`null`))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got.WizardForceFlatpakConfigFor != nil {
		t.Fatalf("expected wizard field cleared")
	}
	if base.WizardForceFlatpakConfigFor == nil {
		t.Fatalf("input was mutated")
	}
}

func TestValueReturnsPersistedForm(t *testing.T) {
	s := settings.Default()
	s.IsSetup = settings.SetupMigratingV2
	raw, err := settings.Value(s, settings.KeyIsSetup)
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if string(raw) != `"migratingV2"` {
		t.Fatalf("unexpected value %s", raw)
	}
	raw, err = settings.Value(s, settings.KeyWizardForceFlatpakConfigFor)
	if err != nil || string(raw) != "null" {
		t.Fatalf("unset wizard field = %s, %v", raw, err)
	}
}

func TestKeysCoverSchema(t *testing.T) {
	if got := len(settings.Keys()); got != 13 {
		t.Fatalf("expected 13 keys, got %d", got)
	}
}
