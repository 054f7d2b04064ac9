package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"deckysync/internal/legacy"
	"deckysync/internal/logging"
	"deckysync/internal/watchdog"
)

// Backend is the request surface served over the socket.
type Backend interface {
	SettingsJSON() (string, error)
	SetSetting(name string, raw json.RawMessage) error
	RestartWatchdog(ctx context.Context)
	WatchdogStatus() watchdog.Status
	LegacyState() string
	LegacyStart(ctx context.Context) error
	LegacyStop()
	LegacyLog() (string, error)
}

// Server exposes the backend via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	conns     map[net.Conn]struct{}
	closeOnce sync.Once
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, backend Backend, logger *slog.Logger) (*Server, error) {
	if backend == nil {
		return nil, errors.New("ipc server requires a backend")
	}
	logger = logging.NewComponentLogger(logger, "ipc")

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	rpcServer := rpc.NewServer()
	srv := &service{backend: backend, logger: logger, ctx: serverCtx}
	if err := rpcServer.RegisterName(ServiceName, srv); err != nil {
		cancel()
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	return &Server{
		path:      path,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
		conns:     make(map[net.Conn]struct{}),
	}, nil
}

// Path returns the socket location.
func (s *Server) Path() string {
	return s.path
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "check socket permissions and reload the plugin if needed"))
				continue
			}
			if !s.track(conn) {
				_ = conn.Close()
				return
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				defer s.untrack(c)
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// track registers an accepted connection. It reports false once Close has
// started so late connections are dropped instead of leaking.
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns == nil {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns != nil {
		delete(s.conns, conn)
	}
}

// Close stops the server, hangs up on connected clients and removes the
// socket file. Safe to call more than once.
func (s *Server) Close() {
	s.closeOnce.Do(s.shutdown)
}

func (s *Server) shutdown() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.mu.Lock()
	open := s.conns
	s.conns = nil
	s.mu.Unlock()
	for conn := range open {
		_ = conn.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		logging.WarnWithContext(s.logger, "failed to remove socket", "ipc_socket_cleanup_failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale IPC socket may confuse CLI clients"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually"))
	}
}

type service struct {
	backend Backend
	logger  *slog.Logger
	ctx     context.Context
}

func (s *service) GetSettings(_ GetSettingsRequest, resp *GetSettingsResponse) error {
	text, err := s.backend.SettingsJSON()
	if err != nil {
		return err
	}
	resp.JSON = text
	return nil
}

func (s *service) SetSetting(req SetSettingRequest, resp *SetSettingResponse) error {
	s.logger.Debug("set setting requested", logging.String("key", req.Name))
	if len(req.Value) == 0 {
		req.Value = json.RawMessage("null")
	}
	if err := s.backend.SetSetting(req.Name, req.Value); err != nil {
		return err
	}
	resp.Updated = true
	return nil
}

func (s *service) RestartWatchdog(_ RestartWatchdogRequest, resp *RestartWatchdogResponse) error {
	s.logger.Info("watchdog restart requested via IPC", logging.String(logging.FieldEventType, "watchdog_restart_requested"))
	s.backend.RestartWatchdog(s.ctx)
	resp.Restarted = true
	return nil
}

func (s *service) WatchdogStatus(_ WatchdogStatusRequest, resp *WatchdogStatusResponse) error {
	resp.Status = s.backend.WatchdogStatus()
	return nil
}

func (s *service) LegacyState(_ LegacyStateRequest, resp *LegacyStateResponse) error {
	resp.State = s.backend.LegacyState()
	return nil
}

func (s *service) LegacyControl(req LegacyControlRequest, resp *LegacyControlResponse) error {
	if req.Start {
		if err := s.backend.LegacyStart(s.ctx); err != nil {
			if !errors.Is(err, legacy.ErrAlreadyRunning) {
				return err
			}
			resp.Message = err.Error()
		}
	} else {
		s.backend.LegacyStop()
	}
	resp.State = s.backend.LegacyState()
	return nil
}

func (s *service) LegacyLog(_ LegacyLogRequest, resp *LegacyLogResponse) error {
	text, err := s.backend.LegacyLog()
	if err != nil {
		return err
	}
	resp.Log = text
	return nil
}
