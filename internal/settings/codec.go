package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

var (
	// ErrCorrupt marks a document that cannot be decoded into a known schema.
	ErrCorrupt = errors.New("settings document corrupt")
	// ErrUnsupportedVersion marks a missing or unrecognized config_version.
	ErrUnsupportedVersion = errors.New("unsupported settings version")
)

// Encode is the single serializer for the persisted document.
func Encode(s Settings) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	return data, nil
}

// DetectVersion reads config_version before anything else in the document is trusted.
func DetectVersion(raw []byte) (int, error) {
	var probe struct {
		ConfigVersion *json.Number `json:"config_version"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if probe.ConfigVersion == nil {
		return 0, fmt.Errorf("%w: config_version missing", ErrUnsupportedVersion)
	}
	version, ok := integralNumber(*probe.ConfigVersion)
	if !ok {
		return 0, fmt.Errorf("%w: config_version %q", ErrUnsupportedVersion, probe.ConfigVersion.String())
	}
	return version, nil
}

// integralNumber accepts 2, 2.0 and 2e0 alike. Writers other than Encode
// may emit whole numbers in float form.
func integralNumber(n json.Number) (int, bool) {
	if v, err := n.Int64(); err == nil {
		return int(v), true
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func decodeV1(raw []byte) (V1, error) {
	var doc V1
	if err := decodeStrict(raw, v1Keys, &doc); err != nil {
		return V1{}, err
	}
	return doc, nil
}

func decodeV2(raw []byte) (Settings, error) {
	var doc Settings
	if err := decodeStrict(raw, settingsKeys, &doc); err != nil {
		return Settings{}, err
	}
	return doc, nil
}

// decodeStrict refuses documents missing any required key so a half-written
// or hand-edited file is never accepted with zero values filled in.
func decodeStrict(raw []byte, required []string, dst any) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	for _, key := range required {
		value, ok := fields[key]
		if !ok {
			return fmt.Errorf("%w: missing %s", ErrCorrupt, key)
		}
		if string(value) == "null" {
			return fmt.Errorf("%w: %s is null", ErrCorrupt, key)
		}
	}
	if value, ok := fields["config_version"]; ok {
		if version, ok := integralNumber(json.Number(value)); ok && string(value) != strconv.Itoa(version) {
			fields["config_version"] = json.RawMessage(strconv.Itoa(version))
			canonical, err := json.Marshal(fields)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrCorrupt, err)
			}
			raw = canonical
		}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return nil
}
