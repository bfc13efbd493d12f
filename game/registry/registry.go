package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/trivia-rooms/game/questions"
	"github.com/wricardo/trivia-rooms/game/room"
	"github.com/wricardo/trivia-rooms/game/trivia"
)

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomAlreadyExists = errors.New("room already exists")
	ErrInvalidRoomName   = errors.New("invalid room name")
	ErrUnknownPreset     = errors.New("unknown preset")
	ErrRoomNotEmpty      = errors.New("room is not empty")
	ErrLobbyProtected    = errors.New("the lobby cannot be removed")
)

// LobbyName is the room every client lands in after CONNECT.
const LobbyName = "Lobby"

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 _.-]{0,63}$`)

// Presets resolves rule presets by id.
type Presets interface {
	LoadConfig(name string) (*trivia.Settings, error)
	GetDefault() *trivia.Settings
}

type entry struct {
	room      *room.GameRoom
	preset    string
	createdAt time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithPersistence stores room definitions so they can be restored.
func WithPersistence(p RoomPersistence) Option {
	return func(r *Registry) { r.persistence = p }
}

// WithRoomOptions applies options to every game room the registry creates.
func WithRoomOptions(opts ...room.Option) Option {
	return func(r *Registry) { r.roomOpts = append(r.roomOpts, opts...) }
}

// Registry owns every room of the server. Its lock is never held while a
// room lock is taken.
type Registry struct {
	lobby       *room.Lobby
	rooms       map[string]*entry
	presets     Presets
	source      questions.Source
	persistence RoomPersistence
	roomOpts    []room.Option
	logger      *slog.Logger
	mu          sync.RWMutex
}

// New creates a registry with an empty Lobby. presets may be nil, in which
// case every room uses trivia.DefaultSettings.
func New(presets Presets, source questions.Source, logger *slog.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	welcome := trivia.DefaultSettings().Messages.Welcome
	if presets != nil {
		if def := presets.GetDefault(); def != nil && def.Messages.Welcome != "" {
			welcome = def.Messages.Welcome
		}
	}

	r := &Registry{
		lobby:   room.NewLobby(LobbyName, welcome, logger),
		rooms:   make(map[string]*entry),
		presets: presets,
		source:  source,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Lobby returns the default room.
func (r *Registry) Lobby() *room.Lobby {
	return r.lobby
}

// Create atomically registers a new game room. Names are unique regardless
// of case.
func (r *Registry) Create(name, preset string) (room.Room, error) {
	name = strings.TrimSpace(name)
	if !validName.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRoomName, name)
	}
	if strings.EqualFold(name, LobbyName) {
		return nil, ErrRoomAlreadyExists
	}

	settings, err := r.resolve(preset)
	if err != nil {
		return nil, err
	}

	created, err := r.insert(name, preset, settings, time.Now())
	if err != nil {
		return nil, err
	}

	if r.persistence != nil {
		def := RoomDefinition{Name: name, Preset: preset, CreatedAt: created.createdAt}
		if err := r.persistence.Save(def); err != nil {
			r.logger.Warn("failed to persist room", "room", name, "error", err)
		}
	}

	r.logger.Info("room created", "room", name, "preset", created.room.Info().Preset)
	return created.room, nil
}

// Get returns a room by name (case-insensitive), including the Lobby.
func (r *Registry) Get(name string) (room.Room, error) {
	if strings.EqualFold(strings.TrimSpace(name), LobbyName) {
		return r.lobby, nil
	}

	r.mu.RLock()
	e, ok := r.rooms[strings.ToLower(strings.TrimSpace(name))]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrRoomNotFound
	}
	return e.room, nil
}

// List returns the Lobby followed by game rooms sorted by name.
func (r *Registry) List() []room.Room {
	r.mu.RLock()
	games := make([]*room.GameRoom, 0, len(r.rooms))
	for _, e := range r.rooms {
		games = append(games, e.room)
	}
	r.mu.RUnlock()

	sort.Slice(games, func(i, j int) bool {
		return strings.ToLower(games[i].Name()) < strings.ToLower(games[j].Name())
	})

	result := make([]room.Room, 0, len(games)+1)
	result = append(result, r.lobby)
	for _, g := range games {
		result = append(result, g)
	}
	return result
}

// Delete removes an empty game room and its persisted definition.
func (r *Registry) Delete(name string) error {
	if strings.EqualFold(strings.TrimSpace(name), LobbyName) {
		return ErrLobbyProtected
	}

	key := strings.ToLower(strings.TrimSpace(name))
	r.mu.RLock()
	e, ok := r.rooms[key]
	r.mu.RUnlock()
	if !ok {
		return ErrRoomNotFound
	}

	if !e.room.CloseIfEmpty() {
		return ErrRoomNotEmpty
	}

	r.mu.Lock()
	if current, ok := r.rooms[key]; ok && current == e {
		delete(r.rooms, key)
	}
	r.mu.Unlock()

	if r.persistence != nil {
		if err := r.persistence.Delete(e.room.Name()); err != nil {
			return fmt.Errorf("failed to delete persisted room: %w", err)
		}
	}

	r.logger.Info("room deleted", "room", e.room.Name())
	return nil
}

// Count returns the number of rooms including the Lobby.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms) + 1
}

// LoadPersisted recreates rooms from stored definitions. Rooms that already
// exist or whose preset no longer resolves are skipped.
func (r *Registry) LoadPersisted() (int, error) {
	if r.persistence == nil {
		return 0, nil
	}

	defs, err := r.persistence.ListAll()
	if err != nil {
		return 0, fmt.Errorf("failed to list persisted rooms: %w", err)
	}

	loaded := 0
	for _, def := range defs {
		settings, err := r.resolve(def.Preset)
		if err != nil {
			r.logger.Warn("skipping persisted room", "room", def.Name, "error", err)
			continue
		}
		if _, err := r.insert(def.Name, def.Preset, settings, def.CreatedAt); err != nil {
			if !errors.Is(err, ErrRoomAlreadyExists) {
				r.logger.Warn("skipping persisted room", "room", def.Name, "error", err)
			}
			continue
		}
		loaded++
	}

	if loaded > 0 {
		r.logger.Info("restored persisted rooms", "count", loaded)
	}
	return loaded, nil
}

// Close stops the timers of every game room.
func (r *Registry) Close() {
	r.mu.Lock()
	rooms := make([]*room.GameRoom, 0, len(r.rooms))
	for _, e := range r.rooms {
		rooms = append(rooms, e.room)
	}
	r.mu.Unlock()

	for _, g := range rooms {
		g.Close()
	}
}

// insert builds the room outside the registry lock, since building it
// loads the question pool, and publishes it only if the name is still free.
func (r *Registry) insert(name, preset string, settings trivia.Settings, createdAt time.Time) (*entry, error) {
	key := strings.ToLower(name)

	r.mu.RLock()
	_, exists := r.rooms[key]
	r.mu.RUnlock()
	if exists {
		return nil, ErrRoomAlreadyExists
	}

	opts := append([]room.Option{}, r.roomOpts...)
	if preset != "" {
		opts = append(opts, room.WithPreset(preset))
	}

	e := &entry{
		room:      room.NewGameRoom(name, settings, r.source, r.logger, opts...),
		preset:    preset,
		createdAt: createdAt,
	}

	r.mu.Lock()
	if _, exists := r.rooms[key]; exists {
		r.mu.Unlock()
		e.room.Close()
		return nil, ErrRoomAlreadyExists
	}
	r.rooms[key] = e
	r.mu.Unlock()

	return e, nil
}

func (r *Registry) resolve(preset string) (trivia.Settings, error) {
	if r.presets == nil {
		if preset != "" {
			return trivia.Settings{}, fmt.Errorf("%w: %q", ErrUnknownPreset, preset)
		}
		return trivia.DefaultSettings(), nil
	}

	if preset == "" {
		if def := r.presets.GetDefault(); def != nil {
			return *def, nil
		}
		return trivia.DefaultSettings(), nil
	}

	settings, err := r.presets.LoadConfig(preset)
	if err != nil {
		return trivia.Settings{}, fmt.Errorf("%w: %q: %v", ErrUnknownPreset, preset, err)
	}
	return *settings, nil
}
