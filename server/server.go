package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wricardo/trivia-rooms/game/registry"
	"github.com/wricardo/trivia-rooms/game/room"
	"github.com/wricardo/trivia-rooms/protocol"
	"github.com/wricardo/trivia-rooms/transport/tcp"
	"github.com/wricardo/trivia-rooms/transport/websocket"
)

var ErrServerClosed = errors.New("server closed")

// Server accepts client connections and routes them between rooms. Its
// lock guards only the live connection set and is never held together with
// a room lock.
type Server struct {
	rooms  *registry.Registry
	logger *slog.Logger

	mu        sync.Mutex
	handlers  map[string]*Handler
	clientIDs map[string]*Handler
	listeners map[net.Listener]struct{}
	closed    bool
	wg        sync.WaitGroup
}

// New creates a session server over a room registry.
func New(rooms *registry.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		rooms:     rooms,
		logger:    logger,
		handlers:  make(map[string]*Handler),
		clientIDs: make(map[string]*Handler),
		listeners: make(map[net.Listener]struct{}),
	}
}

// Serve accepts TCP connections until ctx is cancelled or the server shuts
// down. Each connection is handled on its own goroutine.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ln.Close()
		return ErrServerClosed
	}
	s.listeners[ln] = struct{}{}
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()
	defer func() {
		s.mu.Lock()
		delete(s.listeners, ln)
		s.mu.Unlock()
	}()

	s.logger.Info("accepting game connections", "addr", ln.Addr().String())

	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || s.isClosed() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				backoff = min(max(backoff*2, 5*time.Millisecond), time.Second)
				s.logger.Warn("accept failed, retrying", "error", err, "backoff", backoff)
				time.Sleep(backoff)
				continue
			}
			return err
		}
		backoff = 0

		go s.ServeConn(tcp.NewConn(conn))
	}
}

// HandleWebSocket upgrades the request and serves it as a game connection.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Upgrade(w, r)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	s.ServeConn(conn)
}

// ServeConn runs a handler for conn and blocks until the connection ends.
func (s *Server) ServeConn(conn protocol.Conn) {
	h := newHandler(s, conn)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.handlers[h.id] = h
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	h.logger.Debug("connection opened")
	go h.writePump()
	h.readLoop()
}

// CreateRoom creates a game room with the default preset.
func (s *Server) CreateRoom(name string) (room.Room, error) {
	return s.rooms.Create(name, "")
}

// GetRoom looks a room up by name.
func (s *Server) GetRoom(name string) (room.Room, error) {
	return s.rooms.Get(name)
}

// Lobby returns the default room.
func (s *Server) Lobby() room.Room {
	return s.rooms.Lobby()
}

// RemoveClient drops a handler from the live set and from its room. The
// handler's outbound queue is closed first, so nothing broadcast after
// removal begins reaches the client.
func (s *Server) RemoveClient(h *Handler) {
	h.stop()

	s.mu.Lock()
	delete(s.handlers, h.id)
	if h.clientKey != "" && s.clientIDs[h.clientKey] == h {
		delete(s.clientIDs, h.clientKey)
	}
	s.mu.Unlock()

	h.leaveRoom()
	h.logger.Debug("connection removed")
}

// ConnectionCount returns the number of live connections.
func (s *Server) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers)
}

// Shutdown stops accepting connections, closes every live connection and
// waits for their handlers to finish or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	for ln := range s.listeners {
		ln.Close()
	}
	handlers := make([]*Handler, 0, len(s.handlers))
	for _, h := range s.handlers {
		handlers = append(handlers, h)
	}
	s.mu.Unlock()

	for _, h := range handlers {
		h.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// claimClientID reserves a client identifier for h. Identifiers are
// case-insensitive.
func (s *Server) claimClientID(h *Handler, id string) bool {
	key := strings.ToLower(id)

	s.mu.Lock()
	defer s.mu.Unlock()

	if owner, ok := s.clientIDs[key]; ok && owner != h {
		return false
	}
	s.clientIDs[key] = h
	h.clientKey = key
	return true
}

func newConnID() string {
	return uuid.New().String()
}
