package ipc

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/windlayer/matcher/internal/layout"
	"github.com/windlayer/matcher/internal/state"
)

// Server handles control-plane requests from matcherctl, grounded on the
// teacher's internal/ipc.Server (same accept-loop/line-framing shape),
// retargeted to read the matcher's Store and Topology instead of a
// tiling.Tiler.
type Server struct {
	socketPath string
	listener   net.Listener
	store      *state.Store
	topo       layout.Topology
	reload     func() error
	startTime  time.Time
	log        *slog.Logger

	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a server bound to the default socket path. reload is
// invoked on a RELOAD command; it is the host's responsibility to swap in
// the newly loaded policyconfig.Effective.
func NewServer(store *state.Store, topo layout.Topology, reload func() error, log *slog.Logger) (*Server, error) {
	socketPath, err := SocketPath()
	if err != nil {
		return nil, fmt.Errorf("ipc: resolve socket path: %w", err)
	}
	os.Remove(socketPath)

	if log == nil {
		log = slog.Default()
	}

	return &Server{
		socketPath: socketPath,
		store:      store,
		topo:       topo,
		reload:     reload,
		startTime:  time.Now(),
		log:        log,
	}, nil
}

// Start begins listening for connections; Accept runs in a goroutine.
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("ipc: create socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("ipc: set socket permissions: %w", err)
	}

	s.log.Info("ipc server listening", "socket", s.socketPath)
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			down := s.shuttingDown
			s.shutdownMu.Unlock()
			if down {
				return
			}
			s.log.Warn("ipc accept error", "error", err)
			continue
		}
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.log.Warn("ipc read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)
	respData, err := resp.Marshal()
	if err != nil {
		s.log.Warn("ipc marshal response failed", "error", err)
		return
	}
	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.log.Warn("ipc write response failed", "error", err)
	}
}

func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandReload:
		return s.handleReload()
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandDumpState:
		return s.handleDumpState()
	case CommandGetMonitors:
		return s.handleGetMonitors()
	default:
		return NewErrorResponse(fmt.Sprintf("unknown command: %s", req.Command))
	}
}

func (s *Server) handleReload() *Response {
	if s.reload != nil {
		if err := s.reload(); err != nil {
			return NewErrorResponse(fmt.Sprintf("reload failed: %v", err))
		}
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleGetStatus() *Response {
	s.store.RLock()
	defer s.store.RUnlock()

	slots := s.store.Slots()
	tracked := 0
	for _, slot := range slots {
		if slot.Occupied.Bound {
			tracked++
		}
	}

	status := StatusData{
		TrackedWindows: tracked,
		UptimeSeconds:  int64(time.Since(s.startTime).Seconds()),
		DaemonRunning:  true,
	}
	resp, _ := NewOKResponse(status)
	return resp
}

func (s *Server) handleDumpState() *Response {
	s.store.RLock()
	defer s.store.RUnlock()

	slots := s.store.Slots()
	views := make([]SlotView, 0, len(slots))
	for _, slot := range slots {
		views = append(views, SlotView{
			WMClass:             slot.Identity.WMClass,
			Title:               slot.Identity.Title,
			Bound:               slot.Occupied.Bound,
			WindowID:            uint32(slot.Occupied.ID),
			ConnectorPreference: slot.ConnectorPreference,
			ConfigCount:         len(slot.Configs),
			Seen:                slot.Seen,
		})
	}
	resp, _ := NewOKResponse(StateData{Slots: views})
	return resp
}

func (s *Server) handleGetMonitors() *Response {
	connectors := s.topo.AvailableConnectors()
	infos := make([]MonitorInfo, 0, len(connectors))
	for _, c := range connectors {
		idx, ok := s.topo.MonitorForConnector(c)
		if !ok {
			continue
		}
		geom, ok := s.topo.MonitorGeometry(idx)
		if !ok {
			continue
		}
		infos = append(infos, MonitorInfo{
			Index: idx, Connector: c,
			X: geom.X, Y: geom.Y, Width: geom.Width, Height: geom.Height,
		})
	}
	resp, _ := NewOKResponse(MonitorsData{Monitors: infos})
	return resp
}

func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}
