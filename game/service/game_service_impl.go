package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wricardo/trivia-rooms/game/registry"
	"github.com/wricardo/trivia-rooms/game/trivia"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	rooms      RoomRegistry
	configs    ConfigManager
	categories CategorySource
	conns      ConnectionCounter
	startedAt  time.Time
}

// NewGameService creates a new game service instance. categories and conns
// may be nil.
func NewGameService(rooms RoomRegistry, configs ConfigManager, categories CategorySource, conns ConnectionCounter) GameService {
	return &gameServiceImpl{
		rooms:      rooms,
		configs:    configs,
		categories: categories,
		conns:      conns,
		startedAt:  time.Now(),
	}
}

// CreateRoom creates a new game room
func (s *gameServiceImpl) CreateRoom(ctx context.Context, name, preset string) (*RoomInfo, error) {
	created, err := s.rooms.Create(name, preset)
	if err != nil {
		// Provide helpful error message with available options
		if errors.Is(err, registry.ErrUnknownPreset) && s.configs != nil {
			if available, listErr := s.configs.ListConfigs(); listErr == nil && len(available) > 0 {
				var ids []string
				for _, cfg := range available {
					ids = append(ids, cfg.ConfigID)
				}
				return nil, fmt.Errorf("%w. Available presets: %v", err, ids)
			}
		}
		return nil, err
	}

	info := created.Info()
	return &info, nil
}

// GetRoom retrieves a room snapshot
func (s *gameServiceImpl) GetRoom(ctx context.Context, name string) (*RoomInfo, error) {
	rm, err := s.rooms.Get(name)
	if err != nil {
		return nil, err
	}

	info := rm.Info()
	return &info, nil
}

// ListRooms returns snapshots of every room, Lobby first
func (s *gameServiceImpl) ListRooms(ctx context.Context) ([]*RoomInfo, error) {
	rooms := s.rooms.List()
	result := make([]*RoomInfo, 0, len(rooms))
	for _, rm := range rooms {
		info := rm.Info()
		result = append(result, &info)
	}
	return result, nil
}

// DeleteRoom removes an empty game room
func (s *gameServiceImpl) DeleteRoom(ctx context.Context, name string) error {
	return s.rooms.Delete(name)
}

// ListConfigs returns all available rule presets
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	if s.configs == nil {
		return []*ConfigInfo{}, nil
	}
	return s.configs.ListConfigs()
}

// LoadConfig loads a rule preset
func (s *gameServiceImpl) LoadConfig(ctx context.Context, name string) (*trivia.Settings, error) {
	if s.configs == nil {
		def := trivia.DefaultSettings()
		return &def, nil
	}
	if name == "" {
		return s.configs.GetDefault(), nil
	}
	return s.configs.LoadConfig(name)
}

// ListCategories returns the question categories players can select
func (s *gameServiceImpl) ListCategories(ctx context.Context) ([]string, error) {
	if s.categories == nil {
		return []string{}, nil
	}
	cats, err := s.categories.Categories()
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	if cats == nil {
		cats = []string{}
	}
	return cats, nil
}

// Stats summarizes rooms and connections
func (s *gameServiceImpl) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{Uptime: int64(time.Since(s.startedAt).Seconds())}
	for _, rm := range s.rooms.List() {
		info := rm.Info()
		stats.Rooms++
		if info.Game {
			stats.Players += len(info.Members)
			if info.State != "LOBBY_IDLE" && info.State != "READY_CHECK" {
				stats.ActiveGames++
			}
		}
		stats.Spectators += len(info.Spectators)
	}
	if s.conns != nil {
		stats.Connections = s.conns.ConnectionCount()
	}
	return stats, nil
}
