package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RoomPersistence stores room definitions so rooms survive restarts. Only
// the definition is stored; scores and round state are never persisted.
type RoomPersistence interface {
	Save(def RoomDefinition) error
	Delete(name string) error
	ListAll() ([]RoomDefinition, error)
}

// RoomDefinition is the persisted form of a game room.
type RoomDefinition struct {
	Name      string    `json:"name"`
	Preset    string    `json:"preset,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FilePersistence implements RoomPersistence with one JSON file per room
type FilePersistence struct {
	roomsDir string
}

// NewFilePersistence creates a new file-based room persistence layer
func NewFilePersistence(roomsDir string) (*FilePersistence, error) {
	if err := os.MkdirAll(roomsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create rooms directory: %w", err)
	}
	return &FilePersistence{roomsDir: roomsDir}, nil
}

// Save writes a room definition to disk
func (fp *FilePersistence) Save(def RoomDefinition) error {
	data, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal room definition: %w", err)
	}

	if err := os.WriteFile(fp.path(def.Name), data, 0644); err != nil {
		return fmt.Errorf("failed to write room file: %w", err)
	}
	return nil
}

// Delete removes a room definition
func (fp *FilePersistence) Delete(name string) error {
	err := os.Remove(fp.path(name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove room file: %w", err)
	}
	return nil
}

// ListAll returns every stored room definition. Unreadable files are
// skipped.
func (fp *FilePersistence) ListAll() ([]RoomDefinition, error) {
	entries, err := os.ReadDir(fp.roomsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read rooms directory: %w", err)
	}

	var defs []RoomDefinition
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(fp.roomsDir, entry.Name()))
		if err != nil {
			continue
		}
		var def RoomDefinition
		if err := json.Unmarshal(data, &def); err != nil || def.Name == "" {
			continue
		}
		defs = append(defs, def)
	}

	return defs, nil
}

func (fp *FilePersistence) path(name string) string {
	return filepath.Join(fp.roomsDir, fmt.Sprintf("%s.json", strings.ToLower(name)))
}
