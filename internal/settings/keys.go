package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

var (
	// ErrUnknownSetting is returned for a key that is not part of the schema.
	ErrUnknownSetting = errors.New("unknown setting")
	// ErrInvalidValue is returned when a value cannot be coerced to the key's type.
	ErrInvalidValue = errors.New("invalid value")
)

// Key names one settings field by its persisted name.
type Key string

const (
	KeyConfigVersion               Key = "config_version"
	KeyMode                        Key = "mode"
	KeyServiceName                 Key = "service_name"
	KeyFlatpakName                 Key = "flatpak_name"
	KeyFlatpakBinary               Key = "flatpak_binary"
	KeyAutostart                   Key = "autostart"
	KeyKeepRunningOnDesktop        Key = "keep_running_on_desktop"
	KeyPort                        Key = "port"
	KeyAPIKey                      Key = "api_key"
	KeyBasicAuthUser               Key = "basic_auth_user"
	KeyBasicAuthPass               Key = "basic_auth_pass"
	KeyIsSetup                     Key = "is_setup"
	KeyWizardForceFlatpakConfigFor Key = "_wizard_force_flatpak_config_for"
)

type applyFunc func(s *Settings, raw json.RawMessage) error

var keyAppliers = map[Key]applyFunc{
	KeyConfigVersion: func(s *Settings, raw json.RawMessage) error {
		version, err := decodeInt(raw)
		if err != nil {
			return err
		}
		if version != CurrentVersion {
			return fmt.Errorf("config_version must be %d", CurrentVersion)
		}
		s.ConfigVersion = version
		return nil
	},
	KeyMode: func(s *Settings, raw json.RawMessage) error {
		return json.Unmarshal(raw, &s.Mode)
	},
	KeyServiceName:   stringField(func(s *Settings) *string { return &s.ServiceName }),
	KeyFlatpakName:   stringField(func(s *Settings) *string { return &s.FlatpakName }),
	KeyFlatpakBinary: stringField(func(s *Settings) *string { return &s.FlatpakBinary }),
	KeyAutostart: func(s *Settings, raw json.RawMessage) error {
		return json.Unmarshal(raw, &s.Autostart)
	},
	KeyKeepRunningOnDesktop: func(s *Settings, raw json.RawMessage) error {
		value, err := decodeBool(raw)
		if err != nil {
			return err
		}
		s.KeepRunningOnDesktop = value
		return nil
	},
	KeyPort: func(s *Settings, raw json.RawMessage) error {
		port, err := decodeInt(raw)
		if err != nil {
			return err
		}
		if port < 0 || port > 65535 {
			return fmt.Errorf("port %d out of range", port)
		}
		s.Port = uint16(port)
		return nil
	},
	KeyAPIKey:        stringField(func(s *Settings) *string { return &s.APIKey }),
	KeyBasicAuthUser: stringField(func(s *Settings) *string { return &s.BasicAuthUser }),
	KeyBasicAuthPass: stringField(func(s *Settings) *string { return &s.BasicAuthPass }),
	KeyIsSetup: func(s *Settings, raw json.RawMessage) error {
		var text string
		if json.Unmarshal(raw, &text) == nil {
			switch text {
			case "true":
				s.IsSetup = SetupComplete
				return nil
			case "false":
				s.IsSetup = SetupPending
				return nil
			}
		}
		return json.Unmarshal(raw, &s.IsSetup)
	},
	KeyWizardForceFlatpakConfigFor: func(s *Settings, raw json.RawMessage) error {
		if isNull(raw) {
			s.WizardForceFlatpakConfigFor = nil
			return nil
		}
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			return errors.New("expected a string or null")
		}
		s.WizardForceFlatpakConfigFor = &value
		return nil
	},
}

// Keys lists every settable key in sorted order.
func Keys() []Key {
	keys := make([]Key, 0, len(keyAppliers))
	for key := range keyAppliers {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// ParseKey validates name against the schema.
func ParseKey(name string) (Key, error) {
	key := Key(name)
	if _, ok := keyAppliers[key]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSetting, name)
	}
	return key, nil
}

// Apply returns a copy of s with key set to the decoded raw value. s itself is
// never modified, so a failed update leaves the caller's state intact.
func Apply(s Settings, key Key, raw json.RawMessage) (Settings, error) {
	apply, ok := keyAppliers[key]
	if !ok {
		return s, fmt.Errorf("%w: %q", ErrUnknownSetting, string(key))
	}
	next := s.Clone()
	if err := apply(&next, raw); err != nil {
		return s, fmt.Errorf("%w: %s: %v", ErrInvalidValue, key, err)
	}
	return next, nil
}

// Value returns the field for key in its persisted JSON form.
func Value(s Settings, key Key) (json.RawMessage, error) {
	if _, ok := keyAppliers[key]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSetting, string(key))
	}
	data, err := Encode(s)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	if value, ok := fields[string(key)]; ok {
		return value, nil
	}
	return json.RawMessage("null"), nil
}

func stringField(field func(*Settings) *string) applyFunc {
	return func(s *Settings, raw json.RawMessage) error {
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			return errors.New("expected a string")
		}
		*field(s) = value
		return nil
	}
}

// decodeBool accepts a JSON boolean or its string spelling.
func decodeBool(raw json.RawMessage) (bool, error) {
	var value bool
	if err := json.Unmarshal(raw, &value); err == nil {
		return value, nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		switch text {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return false, errors.New("expected a boolean")
}

// decodeInt accepts a JSON integer or a decimal string such as "22000".
func decodeInt(raw json.RawMessage) (int, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return 0, errors.New("expected an integer")
	}
	switch v := value.(type) {
	case json.Number:
		if n, ok := integralNumber(v); ok {
			return n, nil
		}
		return 0, fmt.Errorf("expected an integer, got %s", v)
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("expected an integer, got %q", v)
		}
		return n, nil
	default:
		return 0, errors.New("expected an integer")
	}
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
