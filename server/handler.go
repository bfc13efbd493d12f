package server

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/wricardo/trivia-rooms/game/registry"
	"github.com/wricardo/trivia-rooms/game/room"
	"github.com/wricardo/trivia-rooms/game/trivia"
	"github.com/wricardo/trivia-rooms/protocol"
	"github.com/wricardo/trivia-rooms/transport/websocket"
)

// sendQueueSize bounds the outbound queue of a connection. A client that
// falls this far behind is disconnected.
const sendQueueSize = 256

type pinger interface {
	Ping() error
}

type addresser interface {
	RemoteAddr() string
}

// Handler serves one client connection. Reads and dispatch happen on the
// connection goroutine; writes are drained by a single writer goroutine so
// rooms can Send from any goroutine without blocking.
type Handler struct {
	id     string
	server *Server
	conn   protocol.Conn
	logger *slog.Logger

	send      chan protocol.Payload
	done      chan struct{}
	stopOnce  sync.Once
	closeOnce sync.Once

	// mu guards session and room. It is taken before any room lock.
	mu        sync.Mutex
	session   *room.Session
	room      room.Room
	clientKey string
}

func newHandler(s *Server, conn protocol.Conn) *Handler {
	id := newConnID()
	logger := s.logger.With("conn_id", id)
	if a, ok := conn.(addresser); ok {
		logger = logger.With("remote", a.RemoteAddr())
	}

	return &Handler{
		id:     id,
		server: s,
		conn:   conn,
		logger: logger,
		send:   make(chan protocol.Payload, sendQueueSize),
		done:   make(chan struct{}),
	}
}

// ID returns the connection identifier.
func (h *Handler) ID() string {
	return h.id
}

// Send enqueues a payload for the client. It never blocks: once the handler
// is closing the payload is dropped, and a full queue disconnects the
// client.
func (h *Handler) Send(p protocol.Payload) {
	select {
	case <-h.done:
		return
	default:
	}

	select {
	case h.send <- p:
	case <-h.done:
	default:
		h.logger.Warn("send queue full, disconnecting client", "type", p.Type)
		go h.Close()
	}
}

// Close tears the connection down and unregisters the handler exactly once.
func (h *Handler) Close() {
	h.closeOnce.Do(func() {
		h.server.RemoveClient(h)
		if err := h.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			h.logger.Debug("error closing connection", "error", err)
		}
	})
}

func (h *Handler) stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Handler) leaveRoom() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.room != nil && h.session != nil {
		h.room.Leave(h.session)
		h.logger.Info("client disconnected", "room", h.room.Name())
	}
	h.room = nil
}

func (h *Handler) readLoop() {
	defer h.Close()

	for {
		p, err := h.conn.ReadPayload()
		if err != nil {
			if protocol.IsProtocolError(err) {
				h.logger.Warn("dropping invalid payload", "type", p.Type, "error", err)
				h.Send(protocol.NewNotification("Protocol error: %v", err))
				continue
			}
			if !isClosedError(err) {
				h.logger.Warn("read failed", "error", err)
			}
			return
		}

		h.dispatch(p)
	}
}

func (h *Handler) writePump() {
	var (
		ping <-chan time.Time
		pp   pinger
	)
	if p, ok := h.conn.(pinger); ok {
		ticker := time.NewTicker(websocket.PingPeriod)
		defer ticker.Stop()
		ping, pp = ticker.C, p
	}

	for {
		select {
		case <-h.done:
			return

		case p := <-h.send:
			if err := h.conn.WritePayload(p); err != nil {
				if !isClosedError(err) {
					h.logger.Warn("write failed", "type", p.Type, "error", err)
				}
				h.Close()
				return
			}

		case <-ping:
			if err := pp.Ping(); err != nil {
				h.logger.Debug("ping failed", "error", err)
				h.Close()
				return
			}
		}
	}
}

func (h *Handler) dispatch(p protocol.Payload) {
	h.mu.Lock()
	defer h.mu.Unlock()

	select {
	case <-h.done:
		return
	default:
	}

	if h.session != nil && h.room == nil {
		return
	}
	if h.session == nil && p.Type != protocol.Connect {
		h.notify("Send CONNECT before %s", p.Type)
		return
	}

	switch p.Type {
	case protocol.Connect:
		h.handleConnectLocked(p)
	case protocol.CreateRoom:
		h.handleCreateRoomLocked(p)
	case protocol.JoinRoom:
		h.moveLocked(p.Room, false)
	case protocol.JoinRoomAsSpectator:
		h.moveLocked(p.Room, true)
	case protocol.Ready:
		h.report(h.room.Ready(h.session, p.Categories))
	case protocol.SelectedCategories:
		h.report(h.room.SelectCategories(h.session, p.Categories))
	case protocol.AwayStatus:
		h.room.SetAway(h.session, *p.Away)
	case protocol.Answer:
		h.report(h.room.Answer(h.session, p.Answer))
	case protocol.Notification:
		h.logger.Debug("ignoring client notification", "message", p.Message)
	case protocol.StartGame, protocol.QuestionType, protocol.Points, protocol.Time, protocol.ResetPoints:
		h.logger.Warn("client sent a server-only payload", "type", p.Type)
		h.notify("Protocol error: %s is sent by the server only", p.Type)
	default:
		h.logger.Warn("unhandled payload type", "type", p.Type)
		h.notify("Protocol error: %v: %q", protocol.ErrUnknownType, p.Type)
	}
}

func (h *Handler) handleConnectLocked(p protocol.Payload) {
	if h.session != nil {
		h.notify("Already connected as %s", h.session.ID())
		return
	}

	if !h.server.claimClientID(h, p.ClientID) {
		h.notify("Client id %s is already in use", p.ClientID)
		return
	}

	h.session = room.NewSession(p.ClientID, h)
	h.logger = h.logger.With("client_id", p.ClientID)
	h.logger.Info("client connected")

	lobby := h.server.Lobby()
	if err := lobby.Join(h.session, false); err != nil {
		h.logger.Error("failed to join lobby", "error", err)
		return
	}
	h.room = lobby
}

func (h *Handler) handleCreateRoomLocked(p protocol.Payload) {
	created, err := h.server.CreateRoom(p.Room)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrRoomAlreadyExists):
			h.notify("Room %s already exists", p.Room)
		case errors.Is(err, registry.ErrInvalidRoomName):
			h.notify("Invalid room name %q", p.Room)
		default:
			h.logger.Error("failed to create room", "room", p.Room, "error", err)
			h.notify("Could not create room %s", p.Room)
		}
		return
	}

	h.notify("Created room %s", created.Name())
	h.enterLocked(created, false)
}

func (h *Handler) moveLocked(name string, spectator bool) {
	target, err := h.server.GetRoom(name)
	if err != nil {
		h.notify("Room %s not found", name)
		return
	}
	h.enterLocked(target, spectator)
}

// enterLocked moves the session from its current room into target. If the
// target refuses the session it falls back to the Lobby.
func (h *Handler) enterLocked(target room.Room, spectator bool) {
	// Re-entering the current room must not reset answers or scores.
	if h.room == target {
		h.notify("You are already in %s", target.Name())
		return
	}

	if h.room != nil {
		h.room.Leave(h.session)
	}

	if err := target.Join(h.session, spectator); err != nil {
		h.logger.Warn("join failed", "room", target.Name(), "error", err)
		h.notify("Could not join %s: %v", target.Name(), err)
		target = h.server.Lobby()
		if err := target.Join(h.session, false); err != nil {
			h.logger.Error("failed to join lobby", "error", err)
			h.room = nil
			return
		}
	}

	h.room = target
	h.logger.Debug("moved to room", "room", target.Name(), "spectator", spectator)
}

func (h *Handler) report(err error) {
	if err == nil {
		return
	}
	h.logger.Debug("request rejected", "error", err)
	h.Send(protocol.NewNotification("%s", describe(err)))
}

func (h *Handler) notify(format string, args ...any) {
	h.Send(protocol.NewNotification(format, args...))
}

// describe turns a rejected request into the message shown to the client.
func describe(err error) string {
	switch {
	case errors.Is(err, room.ErrNotGameRoom):
		return "Join or create a game room first"
	case errors.Is(err, room.ErrSpectator):
		return "Spectators cannot play"
	case errors.Is(err, room.ErrAlreadyReady):
		return "You are already ready"
	case errors.Is(err, room.ErrNotAcceptingReady):
		return "The room is not waiting for players to get ready"
	case errors.Is(err, room.ErrNoActiveQuestion):
		return "There is no active question"
	case errors.Is(err, room.ErrAlreadyAnswered):
		return "You already answered this question"
	case errors.Is(err, trivia.ErrInvalidAnswer):
		return "Invalid answer: " + err.Error()
	case errors.Is(err, room.ErrNotMember):
		return "You are not a member of this room"
	default:
		return err.Error()
	}
}

func isClosedError(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		websocket.IsClosed(err)
}
