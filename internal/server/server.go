package server

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/rigidsim/internal/config"
	"github.com/zeusync/rigidsim/internal/core/observability/log"
	"github.com/zeusync/rigidsim/internal/simulation"
	"github.com/zeusync/rigidsim/pkg/concurrent"
)

const (
	shutdownTimeout = 5 * time.Second
	// maxParallelCloses bounds the goroutines closing clients on Stop.
	maxParallelCloses = 64
)

// FrameSource is the simulation side of the server.
type FrameSource interface {
	Latest() simulation.Frame
	Stats() simulation.Stats
	Subscribe(buffer int) (string, <-chan simulation.Frame, error)
	Unsubscribe(id string) error
}

// Server streams simulation frames to websocket clients and serves the
// latest frame over plain HTTP.
type Server struct {
	source   FrameSource
	config   config.ServerConfig
	logger   log.Log
	upgrader websocket.Upgrader

	httpServer *http.Server
	listener   net.Listener

	// Client management
	clients     sync.Map // map[string]*ClientSession
	clientCount int64    // atomic

	// Server state
	running int32 // atomic bool
	closed  int32 // atomic bool

	serveErr chan error
}

// ClientSession is one connected stream client.
type ClientSession struct {
	ID          string
	Conn        *websocket.Conn
	ConnectedAt time.Time

	stop sync.Once
}

// Stats contains server statistics
type Stats struct {
	ClientCount int64 `json:"client_count"`
	Running     bool  `json:"running"`
}

// NewServer creates a server for source. The configuration must be valid.
func NewServer(cfg config.ServerConfig, source FrameSource, logger log.Log) (*Server, error) {
	if source == nil {
		return nil, ErrNilSource
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Nop()
	}

	s := &Server{
		source: source,
		config: cfg,
		logger: logger.With(log.String("component", "server")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
	s.httpServer = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(_ context.Context) error {
	if atomic.LoadInt32(&s.closed) == 1 {
		return ErrServerClosed
	}
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return ErrServerAlreadyRunning
	}

	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		atomic.StoreInt32(&s.running, 0)
		s.logger.Error("Failed to create listener", log.Error(err))
		return fmt.Errorf("%w: %v", ErrListenerFailed, err)
	}
	s.listener = ln
	s.serveErr = make(chan error, 1)

	go func() {
		err := s.httpServer.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server failed", log.Error(err))
			s.serveErr <- err
		}
		close(s.serveErr)
	}()

	s.logger.Info("Server listening",
		log.String("addr", ln.Addr().String()),
		log.String("stream_path", s.config.StreamPath))
	return nil
}

// Serve starts the server and blocks until ctx is done or serving fails, then
// shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-s.serveErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Stop(shutdownCtx); err != nil && !errors.Is(err, ErrServerNotRunning) {
		return errors.Join(serveErr, err)
	}
	return serveErr
}

// Addr is the bound listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop stops accepting requests and disconnects every stream client.
func (s *Server) Stop(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.running, 1, 0) {
		return ErrServerNotRunning
	}

	s.logger.Info("Stopping server")
	err := s.httpServer.Shutdown(ctx)

	// Hijacked websocket connections are not tracked by http.Server.
	var sessions []*ClientSession
	s.clients.Range(func(_, value any) bool {
		sessions = append(sessions, value.(*ClientSession))
		return true
	})
	deadline := time.Now().Add(s.config.WriteTimeout)
	_ = concurrent.EachLimit(slices.Values(sessions), maxParallelCloses, func(session *ClientSession) error {
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
		_ = session.Conn.WriteControl(websocket.CloseMessage, msg, deadline)
		return session.Conn.Close()
	})

	s.logger.Info("Server stopped", log.Int("disconnected_clients", len(sessions)))
	return err
}

// Close closes the server and releases all resources
func (s *Server) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil
	}
	if atomic.LoadInt32(&s.running) == 1 {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Stop(ctx)
	}
	return nil
}

// GetStats returns server statistics
func (s *Server) GetStats() Stats {
	return Stats{
		ClientCount: atomic.LoadInt64(&s.clientCount),
		Running:     atomic.LoadInt32(&s.running) == 1,
	}
}

// Clients lists the IDs of the connected stream clients.
func (s *Server) Clients() []string {
	ids := make(map[string]struct{})
	s.clients.Range(func(key, _ any) bool {
		ids[key.(string)] = struct{}{}
		return true
	})
	return slices.Sorted(maps.Keys(ids))
}
