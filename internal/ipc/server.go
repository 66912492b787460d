package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/1broseidon/dragmask/internal/config"
	"github.com/1broseidon/dragmask/internal/draggable"
	"github.com/1broseidon/dragmask/internal/platform"
	"github.com/1broseidon/dragmask/internal/runtimepath"
)

// readTimeout bounds how long a connection may take to deliver its request.
const readTimeout = 5 * time.Second

// Server handles IPC requests from content sources and routes every region
// update through one compositor, so passes for a window never interleave.
type Server struct {
	socketPath   string
	configPath   string
	listener     net.Listener
	cfg          *config.Config
	cfgMu        sync.RWMutex
	compositor   *draggable.Compositor
	backend      platform.Backend
	logger       *slog.Logger
	startTime    time.Time
	shuttingDown bool
	shutdownMu   sync.Mutex
	conns        sync.WaitGroup
	open         map[net.Conn]struct{}
	onConfig     func(*config.Config)

	passes  atomic.Uint64
	applied atomic.Uint64
	skipped atomic.Uint64
	failed  atomic.Uint64
}

// NewServer creates a new IPC server listening on the runtime socket path.
// configPath is re-read on RELOAD.
func NewServer(cfg *config.Config, configPath string, backend platform.Backend, logger *slog.Logger) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		socketPath: socketPath,
		configPath: configPath,
		cfg:        cfg,
		backend:    backend,
		logger:     logger,
		startTime:  time.Now(),
		open:       make(map[net.Conn]struct{}),
	}
	s.compositor = draggable.NewCompositor(draggable.WithTracer(s))
	return s, nil
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	log.Printf("IPC server listening on %s", s.socketPath)

	// Accept connections
	go s.acceptLoop()

	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			log.Printf("IPC accept error: %v", err)
			continue
		}

		s.conns.Add(1)
		s.track(conn)
		go func() {
			defer s.conns.Done()
			defer s.untrack(conn)
			s.handleConnection(conn)
		}()
	}
}

// track registers an accepted connection. Once shutdown has begun, reads
// on it fail immediately.
func (s *Server) track(conn net.Conn) {
	s.shutdownMu.Lock()
	defer s.shutdownMu.Unlock()
	s.open[conn] = struct{}{}
	if s.shuttingDown {
		conn.SetReadDeadline(time.Now())
	}
}

func (s *Server) untrack(conn net.Conn) {
	s.shutdownMu.Lock()
	delete(s.open, conn)
	s.shutdownMu.Unlock()
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	// A client that never sends its request line must not pin the handler.
	conn.SetReadDeadline(time.Now().Add(readTimeout))

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		log.Printf("IPC read error: %v", err)
		return
	}

	// Parse request
	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	// Handle command
	resp := s.handleCommand(req)

	// Send response
	respData, err := resp.Marshal()
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandReload:
		return s.handleReload()
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandUpdateRegions:
		return s.handleUpdateRegions(req.Payload)
	case CommandGetRegion:
		return s.handleGetRegion(req.Payload)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

// handleReload reloads the configuration
func (s *Server) handleReload() *Response {
	log.Println("IPC: Received RELOAD command")

	res, err := config.LoadFromPath(s.configPath)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}
	s.UpdateConfig(res.Config)

	log.Println("IPC: Config reloaded successfully")

	resp, _ := NewOKResponse(nil)
	return resp
}

// handleGetStatus returns current daemon status
func (s *Server) handleGetStatus() *Response {
	status := StatusData{
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
		Passes:        s.passes.Load(),
		Applied:       s.applied.Load(),
		Skipped:       s.skipped.Load(),
		Failed:        s.failed.Load(),
		TraceRegions:  s.GetConfig().TraceRegions,
	}

	resp, _ := NewOKResponse(status)
	return resp
}

// handleUpdateRegions composes one content-layer update and installs it.
// A bad window id is not an error for the sender: the pass is simply
// skipped, the same as for a framed window.
func (s *Server) handleUpdateRegions(payload json.RawMessage) *Response {
	var req UpdateRegionsPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid update payload: %v", err))
	}
	if req.WindowID == 0 {
		return NewErrorResponse("window_id is required")
	}

	win, err := s.backend.Window(platform.WindowID(req.WindowID))
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to resolve window: %v", err))
	}

	res := s.compositor.Update(win, req.Entries)
	if k, ok := win.(draggable.Keyed); ok && res.Outcome == draggable.OutcomeInvalid {
		s.compositor.Forget(k.Key())
	}
	data := UpdateRegionsData{
		Outcome: res.Outcome,
		Rects:   res.Mask.Rects(),
	}
	if res.Err != nil {
		data.Error = res.Err.Error()
	}

	resp, _ := NewOKResponse(data)
	return resp
}

func (s *Server) handleGetRegion(payload json.RawMessage) *Response {
	var req GetRegionPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid region payload: %v", err))
	}
	if req.WindowID == 0 {
		return NewErrorResponse("window_id is required")
	}

	win, err := s.backend.Window(platform.WindowID(req.WindowID))
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to resolve window: %v", err))
	}

	data := RegionData{WindowID: req.WindowID, Framed: win.HasNativeFrame()}
	mask, err := win.DraggableRegion()
	switch {
	case errors.Is(err, draggable.ErrNoRegion):
	case err != nil:
		return NewErrorResponse(fmt.Sprintf("Failed to read region: %v", err))
	default:
		data.Installed = true
		data.Rects = mask.Rects()
	}

	resp, _ := NewOKResponse(data)
	return resp
}

// Trace records pass statistics and forwards the pass to the slog tracer,
// honoring the current trace_regions setting.
func (s *Server) Trace(p draggable.Pass) {
	s.passes.Add(1)
	switch p.Result.Outcome {
	case draggable.OutcomeApplied:
		s.applied.Add(1)
	case draggable.OutcomeFailed:
		s.failed.Add(1)
	default:
		s.skipped.Add(1)
	}

	draggable.SlogTracer{
		Logger:  s.logger,
		Verbose: s.GetConfig().TraceRegions,
	}.Trace(p)
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server and waits for in-flight
// requests to finish.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	// Unblock handlers still waiting for a request; ones already running a
	// command finish and write their response.
	for conn := range s.open {
		conn.SetReadDeadline(time.Now())
	}
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	s.conns.Wait()
	os.Remove(s.socketPath)
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// GetConfig returns the current config (thread-safe)
func (s *Server) GetConfig() *config.Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

// UpdateConfig updates the config (thread-safe) and passes it to the
// OnConfigChange hook.
func (s *Server) UpdateConfig(cfg *config.Config) {
	s.cfgMu.Lock()
	s.cfg = cfg
	hook := s.onConfig
	s.cfgMu.Unlock()

	if hook != nil {
		hook(cfg)
	}
}

// OnConfigChange registers fn to run after every config update, including
// RELOAD requests.
func (s *Server) OnConfigChange(fn func(*config.Config)) {
	s.cfgMu.Lock()
	defer s.cfgMu.Unlock()
	s.onConfig = fn
}
