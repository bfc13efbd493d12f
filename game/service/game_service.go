package service

import (
	"context"

	"github.com/wricardo/trivia-rooms/game/room"
	"github.com/wricardo/trivia-rooms/game/trivia"
)

// GameService defines the administrative operations of the trivia server
type GameService interface {
	// Room Management
	CreateRoom(ctx context.Context, name, preset string) (*RoomInfo, error)
	GetRoom(ctx context.Context, name string) (*RoomInfo, error)
	ListRooms(ctx context.Context) ([]*RoomInfo, error)
	DeleteRoom(ctx context.Context, name string) error

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, name string) (*trivia.Settings, error)

	// Questions
	ListCategories(ctx context.Context) ([]string, error)

	Stats(ctx context.Context) (*Stats, error)
}

// RoomRegistry defines room storage operations
type RoomRegistry interface {
	Create(name, preset string) (room.Room, error)
	Get(name string) (room.Room, error)
	List() []room.Room
	Delete(name string) error
	Count() int
}

// ConfigManager handles rule preset loading
type ConfigManager interface {
	LoadConfig(name string) (*trivia.Settings, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *trivia.Settings
}

// CategorySource lists the question categories that can be selected
type CategorySource interface {
	Categories() ([]string, error)
}

// ConnectionCounter reports live client connections
type ConnectionCounter interface {
	ConnectionCount() int
}
