package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/trivia-rooms/game/service"
	"github.com/wricardo/trivia-rooms/game/trivia"
)

var (
	ErrConfigNotFound = errors.New("configuration not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// DefaultPreset is the preset used when a room is created without one.
const DefaultPreset = "classic"

// Manager handles rule preset loading and caching
type Manager struct {
	configDir     string
	defaultConfig *trivia.Settings
	configs       map[string]*trivia.Settings
	mu            sync.RWMutex
}

// NewManager creates a new configuration manager
func NewManager(configDir string) (*Manager, error) {
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*trivia.Settings),
	}

	def := m.resolveDefault()
	m.mu.Lock()
	m.defaultConfig = def
	m.mu.Unlock()

	return m, nil
}

// LoadConfig loads a preset by name
func (m *Manager) LoadConfig(name string) (*trivia.Settings, error) {
	name = presetID(name)

	m.mu.RLock()
	if settings, exists := m.configs[name]; exists {
		m.mu.RUnlock()
		return settings, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if settings, exists := m.configs[name]; exists {
		return settings, nil
	}

	data, err := os.ReadFile(m.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var settings trivia.Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	settings = settings.WithDefaults()

	if err := trivia.ValidateSettings(&settings); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	m.configs[name] = &settings
	return &settings, nil
}

// ListConfigs returns information about all valid presets
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var configs []*service.ConfigInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		id := presetID(entry.Name())
		settings, err := m.LoadConfig(id)
		if err != nil {
			continue
		}

		configs = append(configs, service.NewConfigInfo(entry.Name(), id, settings))
	}

	sort.Slice(configs, func(i, j int) bool { return configs[i].ConfigID < configs[j].ConfigID })
	return configs, nil
}

// GetDefault returns the default preset
func (m *Manager) GetDefault() *trivia.Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// SetDefault sets the default preset by name
func (m *Manager) SetDefault(name string) error {
	settings, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultConfig = settings
	return nil
}

// RefreshCache drops cached presets and re-resolves the default
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	m.configs = make(map[string]*trivia.Settings)
	m.mu.Unlock()

	def := m.resolveDefault()
	m.mu.Lock()
	m.defaultConfig = def
	m.mu.Unlock()
}

// SaveConfig validates and writes a preset to disk
func (m *Manager) SaveConfig(name string, settings *trivia.Settings) error {
	if err := trivia.ValidateSettings(settings); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	id := presetID(name)
	if err := os.WriteFile(m.path(id), data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.mu.Lock()
	m.configs[id] = settings
	m.mu.Unlock()

	return nil
}

// resolveDefault picks classic, then the first valid preset, then the
// built-in rules.
func (m *Manager) resolveDefault() *trivia.Settings {
	if settings, err := m.LoadConfig(DefaultPreset); err == nil {
		return settings
	}

	configs, err := m.ListConfigs()
	if err == nil && len(configs) > 0 {
		if settings, err := m.LoadConfig(configs[0].ConfigID); err == nil {
			return settings
		}
	}

	def := trivia.DefaultSettings()
	return &def
}

func (m *Manager) path(id string) string {
	return filepath.Join(m.configDir, filepath.Base(id)+".json")
}

func presetID(name string) string {
	return strings.TrimSuffix(name, ".json")
}
