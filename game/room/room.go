package room

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/wricardo/trivia-rooms/protocol"
)

var (
	ErrNotGameRoom       = errors.New("not a game room")
	ErrNotMember         = errors.New("not a member of this room")
	ErrSpectator         = errors.New("spectators cannot play")
	ErrAlreadyReady      = errors.New("already marked ready")
	ErrNotAcceptingReady = errors.New("room is not waiting for ready signals")
	ErrNoActiveQuestion  = errors.New("no active question")
	ErrAlreadyAnswered   = errors.New("already answered this round")
	ErrRoomClosed        = errors.New("room is closed")
)

// Room is a named container of client sessions.
type Room interface {
	Name() string
	// Join adds a session. Spectators receive broadcasts but never play.
	Join(s *Session, spectator bool) error
	// Leave removes a session; it is a no-op when s is not in the room.
	Leave(s *Session)
	Ready(s *Session, categories []string) error
	SelectCategories(s *Session, categories []string) error
	Answer(s *Session, letter string) error
	SetAway(s *Session, away bool)
	// Len returns the number of members and spectators.
	Len() int
	Info() Info
	Close()
}

// MemberInfo is the public view of one member.
type MemberInfo struct {
	ID       string `json:"id"`
	Score    int    `json:"score"`
	Ready    bool   `json:"ready"`
	Answered bool   `json:"answered"`
	Away     bool   `json:"away"`
}

// Info is a snapshot of a room. It never carries the correct option.
type Info struct {
	Name        string                 `json:"name"`
	Game        bool                   `json:"game"`
	Preset      string                 `json:"preset,omitempty"`
	State       string                 `json:"state"`
	Members     []MemberInfo           `json:"members"`
	Spectators  []string               `json:"spectators,omitempty"`
	Round       int                    `json:"round"`
	Rounds      int                    `json:"rounds,omitempty"`
	Question    *protocol.QuestionBody `json:"question,omitempty"`
	RemainingMS int64                  `json:"remaining_ms,omitempty"`
	Categories  []string               `json:"categories,omitempty"`
}

// base holds membership shared by every room kind. All fields are guarded
// by mu.
type base struct {
	mu      sync.Mutex
	name    string
	members []*Session
	logger  *slog.Logger
}

func newBase(name string, logger *slog.Logger) base {
	if logger == nil {
		logger = slog.Default()
	}
	return base{name: name, logger: logger.With("room", name)}
}

func (b *base) Name() string {
	return b.name
}

func (b *base) indexLocked(list []*Session, s *Session) int {
	for i, m := range list {
		if m == s {
			return i
		}
	}
	return -1
}

func (b *base) isMemberLocked(s *Session) bool {
	return b.indexLocked(b.members, s) >= 0
}

func (b *base) removeMemberLocked(s *Session) bool {
	i := b.indexLocked(b.members, s)
	if i < 0 {
		return false
	}
	b.members = append(b.members[:i], b.members[i+1:]...)
	return true
}

func (b *base) broadcastMembersLocked(p protocol.Payload) {
	for _, m := range b.members {
		m.send(p)
	}
}

// Lobby is the default room. It only tracks membership.
type Lobby struct {
	base
	welcome string
}

// NewLobby creates the default room. welcome may contain %s for the client
// identifier.
func NewLobby(name, welcome string, logger *slog.Logger) *Lobby {
	return &Lobby{base: newBase(name, logger), welcome: welcome}
}

func (l *Lobby) Join(s *Session, _ bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.isMemberLocked(s) {
		return nil
	}
	l.members = append(l.members, s)
	s.score = 0

	if l.welcome != "" {
		s.send(protocol.NewNotification(l.welcome, s.id))
	}
	l.logger.Debug("client joined", "client_id", s.id, "members", len(l.members))
	return nil
}

func (l *Lobby) Leave(s *Session) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.removeMemberLocked(s) {
		l.logger.Debug("client left", "client_id", s.id, "members", len(l.members))
	}
}

// The Lobby runs no game: ready, category and answer requests are refused
// with ErrNotGameRoom.
func (l *Lobby) Ready(*Session, []string) error            { return ErrNotGameRoom }
func (l *Lobby) SelectCategories(*Session, []string) error { return ErrNotGameRoom }
func (l *Lobby) Answer(*Session, string) error             { return ErrNotGameRoom }

func (l *Lobby) SetAway(s *Session, away bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.away = away
}

func (l *Lobby) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.members)
}

func (l *Lobby) Info() Info {
	l.mu.Lock()
	defer l.mu.Unlock()

	info := Info{Name: l.name, State: "LOBBY", Members: make([]MemberInfo, 0, len(l.members))}
	for _, m := range l.members {
		info.Members = append(info.Members, MemberInfo{ID: m.id, Away: m.away})
	}
	return info
}

// Close is a no-op; the Lobby has no timer.
func (l *Lobby) Close() {}
