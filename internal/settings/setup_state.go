package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SetupState is the tri-state is_setup field: false, true, or "migratingV2".
type SetupState int

const (
	SetupPending SetupState = iota
	SetupComplete
	// SetupMigratingV2 is a UI hint after a V1 upgrade. It does not block launching.
	SetupMigratingV2
)

const migratingV2Literal = "migratingV2"

func (s SetupState) String() string {
	switch s {
	case SetupComplete:
		return "true"
	case SetupMigratingV2:
		return migratingV2Literal
	default:
		return "false"
	}
}

func (s SetupState) MarshalJSON() ([]byte, error) {
	switch s {
	case SetupPending:
		return []byte("false"), nil
	case SetupComplete:
		return []byte("true"), nil
	case SetupMigratingV2:
		return json.Marshal(migratingV2Literal)
	default:
		return nil, fmt.Errorf("is_setup: invalid state %d", int(s))
	}
}

func (s *SetupState) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "false":
		*s = SetupPending
		return nil
	case "true":
		*s = SetupComplete
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("is_setup: %w", err)
	}
	if raw != migratingV2Literal {
		return fmt.Errorf("is_setup: unsupported value %q", raw)
	}
	*s = SetupMigratingV2
	return nil
}
