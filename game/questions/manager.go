package questions

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/trivia-rooms/game/trivia"
)

var ErrBankNotFound = errors.New("question bank not found")

// Source supplies the question pool of a game room. Load is called when a
// room is created and whenever its pool runs dry.
type Source interface {
	Load() ([]trivia.Question, error)
}

// Static is a fixed in-memory Source.
type Static []trivia.Question

func (s Static) Load() ([]trivia.Question, error) {
	return append([]trivia.Question(nil), s...), nil
}

// BankInfo describes one question bank file.
type BankInfo struct {
	Filename   string   `json:"filename"`
	Questions  int      `json:"questions"`
	Skipped    int      `json:"skipped"`
	Categories []string `json:"categories"`
}

type bank struct {
	modTime   time.Time
	questions []trivia.Question
	issues    []Issue
}

// Manager loads question banks (*.txt and *.json) from a directory and
// caches them until the file changes.
type Manager struct {
	dir    string
	logger *slog.Logger
	banks  map[string]*bank
	mu     sync.RWMutex
}

// NewManager creates a new question bank manager
func NewManager(dir string, logger *slog.Logger) (*Manager, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, fmt.Errorf("questions directory does not exist: %s", dir)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		dir:    dir,
		logger: logger,
		banks:  make(map[string]*bank),
	}, nil
}

// Load returns every valid question in the directory. Files are re-read
// when they changed since the last load.
func (m *Manager) Load() ([]trivia.Question, error) {
	files, err := m.files()
	if err != nil {
		return nil, err
	}

	var all []trivia.Question
	for _, name := range files {
		b, err := m.loadBank(name)
		if err != nil {
			m.logger.Warn("skipping question bank", "file", name, "error", err)
			continue
		}
		all = append(all, b.questions...)
	}

	return all, nil
}

// LoadBank returns the questions of a single bank file.
func (m *Manager) LoadBank(name string) ([]trivia.Question, error) {
	b, err := m.loadBank(name)
	if err != nil {
		return nil, err
	}
	return append([]trivia.Question(nil), b.questions...), nil
}

// ListBanks returns information about all available banks
func (m *Manager) ListBanks() ([]*BankInfo, error) {
	files, err := m.files()
	if err != nil {
		return nil, err
	}

	var infos []*BankInfo
	for _, name := range files {
		b, err := m.loadBank(name)
		if err != nil {
			continue
		}
		infos = append(infos, &BankInfo{
			Filename:   name,
			Questions:  len(b.questions),
			Skipped:    len(b.issues),
			Categories: trivia.Categories(b.questions),
		})
	}

	return infos, nil
}

// Categories returns the distinct categories across all banks.
func (m *Manager) Categories() ([]string, error) {
	qs, err := m.Load()
	if err != nil {
		return nil, err
	}
	return trivia.Categories(qs), nil
}

// RefreshCache drops all cached banks
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.banks = make(map[string]*bank)
}

func (m *Manager) files() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read questions directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".txt", ".json":
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *Manager) loadBank(name string) (*bank, error) {
	path := filepath.Join(m.dir, filepath.Base(name))

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBankNotFound
		}
		return nil, fmt.Errorf("failed to stat question bank: %w", err)
	}

	m.mu.RLock()
	cached, ok := m.banks[name]
	m.mu.RUnlock()
	if ok && cached.modTime.Equal(info.ModTime()) {
		return cached, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read question bank: %w", err)
	}

	var (
		qs     []trivia.Question
		issues []Issue
	)
	if strings.EqualFold(filepath.Ext(name), ".json") {
		qs, issues, err = ParseJSON(data, name)
	} else {
		qs, issues, err = ParseText(bytes.NewReader(data), name)
	}
	if err != nil {
		return nil, err
	}

	for _, issue := range issues {
		m.logger.Warn("skipped malformed question", "issue", issue.String())
	}
	m.logger.Debug("loaded question bank", "file", name, "questions", len(qs), "skipped", len(issues))

	b := &bank{modTime: info.ModTime(), questions: qs, issues: issues}
	m.mu.Lock()
	m.banks[name] = b
	m.mu.Unlock()

	return b, nil
}
