package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"strings"
	"time"

	"deckysync/internal/settings"
	"deckysync/internal/watchdog"
)

// Client provides RPC access to the backend.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) call(method string, req, resp any) error {
	return c.client.Call(ServiceName+"."+method, req, resp)
}

// GetSettings returns the settings document held by the backend.
func (c *Client) GetSettings() (string, error) {
	var resp GetSettingsResponse
	if err := c.call("GetSettings", GetSettingsRequest{}, &resp); err != nil {
		return "", err
	}
	return resp.JSON, nil
}

// SetSetting updates one key. Rejections wrap settings.ErrUnknownSetting or
// settings.ErrInvalidValue.
func (c *Client) SetSetting(name string, value json.RawMessage) error {
	var resp SetSettingResponse
	if err := c.call("SetSetting", SetSettingRequest{Name: name, Value: value}, &resp); err != nil {
		return settingsError(err)
	}
	return nil
}

// RestartWatchdog resets the daemon family and relaunches the watchdog. It
// blocks for the reset grace window.
func (c *Client) RestartWatchdog() error {
	var resp RestartWatchdogResponse
	return c.call("RestartWatchdog", RestartWatchdogRequest{}, &resp)
}

// WatchdogStatus returns the backend's view of the watchdog PID file.
func (c *Client) WatchdogStatus() (watchdog.Status, error) {
	var resp WatchdogStatusResponse
	if err := c.call("WatchdogStatus", WatchdogStatusRequest{}, &resp); err != nil {
		return watchdog.Status{}, err
	}
	return resp.Status, nil
}

// LegacyState returns the derived legacy daemon state.
func (c *Client) LegacyState() (string, error) {
	var resp LegacyStateResponse
	if err := c.call("LegacyState", LegacyStateRequest{}, &resp); err != nil {
		return "", err
	}
	return resp.State, nil
}

// LegacyControl starts or stops the legacy daemon.
func (c *Client) LegacyControl(start bool) (*LegacyControlResponse, error) {
	var resp LegacyControlResponse
	if err := c.call("LegacyControl", LegacyControlRequest{Start: start}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LegacyLog returns the legacy daemon output.
func (c *Client) LegacyLog() (string, error) {
	var resp LegacyLogResponse
	if err := c.call("LegacyLog", LegacyLogRequest{}, &resp); err != nil {
		return "", err
	}
	return resp.Log, nil
}

func settingsError(err error) error {
	var serverErr rpc.ServerError
	if !errors.As(err, &serverErr) {
		return err
	}
	msg := string(serverErr)
	for _, sentinel := range []error{settings.ErrUnknownSetting, settings.ErrInvalidValue} {
		if strings.HasPrefix(msg, sentinel.Error()) {
			rest := strings.TrimPrefix(strings.TrimPrefix(msg, sentinel.Error()), ": ")
			return fmt.Errorf("%w: %s", sentinel, rest)
		}
	}
	return err
}
