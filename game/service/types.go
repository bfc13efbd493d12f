package service

import (
	"github.com/wricardo/trivia-rooms/game/room"
	"github.com/wricardo/trivia-rooms/game/trivia"
)

// RoomInfo is the public snapshot of a room
type RoomInfo = room.Info

// ConfigInfo provides information about a rule preset
type ConfigInfo struct {
	Filename         string        `json:"filename"`
	ConfigID         string        `json:"config_id"` // The identifier to use for room creation
	Name             string        `json:"name"`      // Display name
	Description      string        `json:"description"`
	RoundDuration    string        `json:"round_duration"`
	RoundsPerSession int           `json:"rounds_per_session"`
	CountdownTicks   int           `json:"countdown_ticks"`
	Tiers            []trivia.Tier `json:"tiers"`
	SlowPoints       int           `json:"slow_points"`
}

// NewConfigInfo summarizes a preset
func NewConfigInfo(filename, id string, s *trivia.Settings) *ConfigInfo {
	return &ConfigInfo{
		Filename:         filename,
		ConfigID:         id,
		Name:             s.Name,
		Description:      s.Description,
		RoundDuration:    s.RoundDuration.Std().String(),
		RoundsPerSession: s.RoundsPerSession,
		CountdownTicks:   s.CountdownTicks,
		Tiers:            append([]trivia.Tier(nil), s.Tiers...),
		SlowPoints:       s.SlowPoints,
	}
}

// Stats is a point-in-time summary of the server
type Stats struct {
	Rooms       int   `json:"rooms"`
	ActiveGames int   `json:"active_games"`
	Players     int   `json:"players"`
	Spectators  int   `json:"spectators"`
	Connections int   `json:"connections"`
	Uptime      int64 `json:"uptime_seconds"`
}
