package ipc

import (
	"encoding/json"

	"deckysync/internal/watchdog"
)

// ServiceName is the RPC service registered by the server.
const ServiceName = "DeckySync"

// GetSettingsRequest is the payload for GetSettings.
type GetSettingsRequest struct{}

// GetSettingsResponse carries the persisted-form settings document.
type GetSettingsResponse struct {
	JSON string `json:"json"`
}

// SetSettingRequest updates a single key.
type SetSettingRequest struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

// SetSettingResponse acknowledges a SetSetting call.
type SetSettingResponse struct {
	Updated bool `json:"updated"`
}

// RestartWatchdogRequest is the payload for RestartWatchdog.
type RestartWatchdogRequest struct{}

// RestartWatchdogResponse acknowledges a restart.
type RestartWatchdogResponse struct {
	Restarted bool `json:"restarted"`
}

// WatchdogStatusRequest is the payload for WatchdogStatus.
type WatchdogStatusRequest struct{}

// WatchdogStatusResponse mirrors the PID file probe.
type WatchdogStatusResponse struct {
	Status watchdog.Status `json:"status"`
}

// LegacyStateRequest is the payload for LegacyState.
type LegacyStateRequest struct{}

// LegacyStateResponse reports the derived legacy state.
type LegacyStateResponse struct {
	State string `json:"state"`
}

// LegacyControlRequest starts or stops the legacy daemon.
type LegacyControlRequest struct {
	Start bool `json:"start"`
}

// LegacyControlResponse reports the state after the request.
type LegacyControlResponse struct {
	State   string `json:"state"`
	Message string `json:"message,omitempty"`
}

// LegacyLogRequest is the payload for LegacyLog.
type LegacyLogRequest struct{}

// LegacyLogResponse carries the legacy daemon output.
type LegacyLogResponse struct {
	Log string `json:"log"`
}
