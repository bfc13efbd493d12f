package room

import "github.com/wricardo/trivia-rooms/protocol"

// Sender delivers a payload to one client. Implementations must not block;
// rooms call Send while holding their lock.
type Sender interface {
	Send(p protocol.Payload)
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(p protocol.Payload)

func (f SenderFunc) Send(p protocol.Payload) { f(p) }

// Session is one connected client as seen by rooms. It is created when the
// client sends CONNECT and belongs to at most one room at a time. Score and
// away are guarded by the lock of the room currently holding the session.
type Session struct {
	id    string
	out   Sender
	score int
	away  bool
}

// NewSession creates a session for a client identifier.
func NewSession(id string, out Sender) *Session {
	return &Session{id: id, out: out}
}

// ID returns the client-declared identifier.
func (s *Session) ID() string {
	return s.id
}

func (s *Session) send(p protocol.Payload) {
	if s.out != nil {
		s.out.Send(p)
	}
}
