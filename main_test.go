package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/trivia-rooms/transport/mcp"
)

func TestConstants(t *testing.T) {
	assert.Equal(t, "1.0.0", Version)
	assert.Equal(t, "Trivia Rooms Server", AppName)
}

func TestFlagDefaults(t *testing.T) {
	assert.Greater(t, *port, 0)
	assert.LessOrEqual(t, *port, 65535)
	assert.Equal(t, 8080, *httpPort)
	assert.NotEmpty(t, *host)
	assert.NotEmpty(t, *configDir)
	assert.NotEmpty(t, *questionsDir)
	assert.Equal(t, "classic", *preset)
}

func TestGetPortDefault(t *testing.T) {
	t.Setenv("TRIVIA_PORT", "")
	assert.Equal(t, 12345, getPortDefault())

	t.Setenv("TRIVIA_PORT", "4000")
	assert.Equal(t, 4000, getPortDefault())

	t.Setenv("TRIVIA_PORT", "not-a-port")
	assert.Equal(t, 12345, getPortDefault())
}

func TestGetConfigDirDefault(t *testing.T) {
	t.Setenv("CONFIG_DIR", "")
	assert.Equal(t, "configs", getConfigDirDefault())

	t.Setenv("CONFIG_DIR", "/etc/trivia")
	assert.Equal(t, "/etc/trivia", getConfigDirDefault())
}

// withFlags points the directory flags at temporary directories for one test.
func withFlags(t *testing.T, configs, questions, rooms, presetName string) {
	t.Helper()
	oldConfig, oldQuestions, oldRooms, oldPreset := *configDir, *questionsDir, *roomsDir, *preset
	*configDir, *questionsDir, *roomsDir, *preset = configs, questions, rooms, presetName
	t.Cleanup(func() {
		*configDir, *questionsDir, *roomsDir, *preset = oldConfig, oldQuestions, oldRooms, oldPreset
	})
}

func TestInitializeServices(t *testing.T) {
	questionsPath := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(questionsPath, "q.txt"),
		[]byte("2+2?;Math;3,4;4\n"), 0644))

	withFlags(t, "configs", questionsPath, filepath.Join(t.TempDir(), "rooms"), "classic")

	svcs, err := initializeServices(newLogger(&bytes.Buffer{}, false))
	require.NoError(t, err)
	t.Cleanup(svcs.rooms.Close)

	require.NotNil(t, svcs.game)
	require.NotNil(t, svcs.api)
	assert.Equal(t, "classic", svcs.configs.GetDefault().Name)

	categories, err := svcs.questions.Categories()
	require.NoError(t, err)
	assert.Equal(t, []string{"Math"}, categories)
}

func TestInitializeServices_PresetSelection(t *testing.T) {
	questionsPath := t.TempDir()

	t.Run("known preset", func(t *testing.T) {
		withFlags(t, "configs", questionsPath, "", "blitz")
		svcs, err := initializeServices(newLogger(&bytes.Buffer{}, false))
		require.NoError(t, err)
		t.Cleanup(svcs.rooms.Close)
		assert.Equal(t, "blitz", svcs.configs.GetDefault().Name)
	})

	t.Run("unknown preset", func(t *testing.T) {
		withFlags(t, "configs", questionsPath, "", "nope")
		_, err := initializeServices(newLogger(&bytes.Buffer{}, false))
		assert.Error(t, err)
	})

	t.Run("missing classic falls back to built-in rules", func(t *testing.T) {
		withFlags(t, t.TempDir(), questionsPath, "", "classic")
		svcs, err := initializeServices(newLogger(&bytes.Buffer{}, false))
		require.NoError(t, err)
		t.Cleanup(svcs.rooms.Close)
		assert.Equal(t, 5, svcs.configs.GetDefault().RoundsPerSession)
	})
}

func TestInitializeServices_InvalidDirs(t *testing.T) {
	t.Run("config dir", func(t *testing.T) {
		withFlags(t, "/non/existent/path", t.TempDir(), "", "classic")
		_, err := initializeServices(newLogger(&bytes.Buffer{}, false))
		assert.ErrorContains(t, err, "config manager")
	})

	t.Run("questions dir", func(t *testing.T) {
		withFlags(t, "configs", "/non/existent/path", "", "classic")
		_, err := initializeServices(newLogger(&bytes.Buffer{}, false))
		assert.ErrorContains(t, err, "question manager")
	})
}

func TestMCPHandler_RejectsGet(t *testing.T) {
	handler := mcpHandler(mcp.NewClient("http://127.0.0.1:1"))

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/mcp", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMCPHandler_ListTools(t *testing.T) {
	handler := mcpHandler(mcp.NewClient("http://127.0.0.1:1"))

	body := `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewBufferString(body)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "list_rooms")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, false)
	logger.Debug("hidden")
	logger.Info("shown", "room", "Trivia1")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "Trivia1")
}
