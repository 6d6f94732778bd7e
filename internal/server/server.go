package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/doudar/swiftcontrol/internal/gatt"
	"github.com/doudar/swiftcontrol/internal/logging"
	"github.com/doudar/swiftcontrol/internal/monitor"
)

// DefaultPort is the TCP port Zwift expects a TNP peripheral to listen on.
const DefaultPort = 36867

// DefaultMaxClients is the default concurrent session cap. A KICKR BIKE
// serves a single app at a time.
const DefaultMaxClients = 1

// Config holds the TCP server configuration.
type Config struct {
	// Host is the listen address; empty means all interfaces (dual-stack).
	Host string
	// Port is the TCP listen port.
	Port int
	// MaxClients caps concurrent sessions; connections beyond the cap are
	// accepted and immediately closed.
	MaxClients int
}

// Server accepts TNP connections and binds each to a Session.
type Server struct {
	config   Config
	mirror   *gatt.Mirror
	hub      *monitor.Hub
	listener net.Listener

	mu       sync.Mutex
	sessions map[string]*Session
	nextID   uint64

	wg sync.WaitGroup
}

// New creates a server. hub may be nil to disable frame monitoring. A zero
// Port selects DefaultPort and a zero MaxClients selects DefaultMaxClients.
func New(mirror *gatt.Mirror, hub *monitor.Hub, config Config) *Server {
	if config.Port == 0 {
		config.Port = DefaultPort
	}
	if config.MaxClients == 0 {
		config.MaxClients = DefaultMaxClients
	}
	return &Server{
		config:   config,
		mirror:   mirror,
		hub:      hub,
		sessions: make(map[string]*Session),
	}
}

// ListenAndServe binds the listen socket and accepts connections until the
// context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	logging.Info("TNP server listening",
		zap.String("addr", listener.Addr().String()),
		zap.Int("max_clients", s.config.MaxClients),
	)

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.shutdown()
				return nil
			}
			logging.Error("Failed to accept connection", zap.Error(err))
			continue
		}
		s.handleConn(conn)
	}
}

// Addr returns the bound listen address, or nil before ListenAndServe has
// bound the listener.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) handleConn(conn net.Conn) {
	s.mu.Lock()
	if len(s.sessions) >= s.config.MaxClients {
		s.mu.Unlock()
		logging.Warn("Client cap reached, rejecting connection",
			zap.String("remote_addr", conn.RemoteAddr().String()),
			zap.Int("max_clients", s.config.MaxClients),
		)
		_ = conn.Close()
		return
	}
	s.nextID++
	id := fmt.Sprintf("tcp-%d", s.nextID)
	sess := newSession(id, conn, s.mirror, s.hub)
	s.sessions[id] = sess
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		sess.run()
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
	}()
}

// shutdown closes every live session and waits for their goroutines.
func (s *Server) shutdown() {
	s.mu.Lock()
	for _, sess := range s.sessions {
		sess.close()
	}
	s.mu.Unlock()
	s.wg.Wait()
	logging.Info("TNP server stopped")
}
