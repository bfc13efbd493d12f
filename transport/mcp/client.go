package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/trivia-rooms/game/service"
	"github.com/wricardo/trivia-rooms/game/trivia"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Trivia Rooms",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Trivia Rooms - MCP Admin Interface

This is a thin client that proxies all requests to the REST API server.
Players connect over TCP or WebSocket; these tools observe and manage rooms.

AVAILABLE TOOLS:
- list_rooms: List rooms with their state and member counts
- get_room: Members, scores and the active question of a room
- create_room: Create a game room with an optional rule preset
- delete_room: Remove an empty game room
- list_configs: List rule presets
- list_categories: List question categories
- server_stats: Room, player and connection counts
- game_rules: How a trivia session is played and scored`),
	)

	c.registerTools()
}

func roomNameProperty() map[string]any {
	return map[string]any{
		"type":        "string",
		"description": "Room name (case-insensitive)",
	}
}

func noArguments() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: map[string]any{},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_rooms",
		Description: "List every room, Lobby first",
		InputSchema: noArguments(),
	}, c.handleListRooms)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_room",
		Description: "Get members, scores, state and the active question of a room",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"name": roomNameProperty()},
			Required:   []string{"name"},
		},
	}, c.handleGetRoom)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_room",
		Description: "Create a new game room",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"name": roomNameProperty(),
				"preset": map[string]any{
					"type":        "string",
					"description": "Rule preset id from list_configs (optional)",
				},
			},
			Required: []string{"name"},
		},
	}, c.handleCreateRoom)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "delete_room",
		Description: "Delete an empty game room. The Lobby cannot be deleted.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{"name": roomNameProperty()},
			Required:   []string{"name"},
		},
	}, c.handleDeleteRoom)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available rule presets",
		InputSchema: noArguments(),
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_categories",
		Description: "List the question categories players can select",
		InputSchema: noArguments(),
	}, c.handleListCategories)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "server_stats",
		Description: "Get room, player and connection counts",
		InputSchema: noArguments(),
	}, c.handleStats)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_rules",
		Description: "Explain how a trivia session is played and scored",
		InputSchema: noArguments(),
	}, c.handleGameRules)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func stringArg(request mcp.CallToolRequest, key string) string {
	args, _ := request.Params.Arguments.(map[string]any)
	v, _ := args[key].(string)
	return strings.TrimSpace(v)
}

func roomPath(name string) string {
	return "/api/rooms/" + url.PathEscape(name)
}

// Tool handlers

func (c *Client) handleListRooms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count int                `json:"count"`
		Rooms []service.RoomInfo `json:"rooms"`
	}

	if err := c.apiCall(ctx, "GET", "/api/rooms", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Rooms (%d):\n\n", response.Count)
	for _, r := range response.Rooms {
		fmt.Fprintf(&b, "- %s [%s] members=%d", r.Name, r.State, len(r.Members))
		if len(r.Spectators) > 0 {
			fmt.Fprintf(&b, " spectators=%d", len(r.Spectators))
		}
		if r.Preset != "" {
			fmt.Fprintf(&b, " preset=%s", r.Preset)
		}
		b.WriteString("\n")
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := stringArg(request, "name")
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}

	var info service.RoomInfo
	if err := c.apiCall(ctx, "GET", roomPath(name), nil, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRoomInfo(&info)), nil
}

func (c *Client) handleCreateRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := stringArg(request, "name")
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}

	body := map[string]string{"name": name}
	if preset := stringArg(request, "preset"); preset != "" {
		body["preset"] = preset
	}

	var info service.RoomInfo
	if err := c.apiCall(ctx, "POST", "/api/rooms", body, &info); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created room: %s\nState: %s\n", info.Name, info.State)
	if info.Preset != "" {
		result += fmt.Sprintf("Preset: %s\n", info.Preset)
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleDeleteRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := stringArg(request, "name")
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}

	var response struct {
		Message string `json:"message"`
	}
	if err := c.apiCall(ctx, "DELETE", roomPath(name), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(response.Message), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Presets:\n\n")
	for _, cfg := range configs {
		fmt.Fprintf(&b, "• %s (%s)\n  %s\n  Rounds: %d x %s, Tiers: %s\n\n",
			cfg.ConfigID, cfg.Name, cfg.Description, cfg.RoundsPerSession, cfg.RoundDuration, formatTiers(cfg.Tiers, cfg.SlowPoints))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleListCategories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Categories []string `json:"categories"`
	}
	if err := c.apiCall(ctx, "GET", "/api/categories", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(response.Categories) == 0 {
		return mcp.NewToolResultText("No categories available"), nil
	}
	return mcp.NewToolResultText("Categories: " + strings.Join(response.Categories, ", ")), nil
}

func (c *Client) handleStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var stats service.Stats
	if err := c.apiCall(ctx, "GET", "/api/stats", nil, &stats); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Rooms: %d\nActive games: %d\nPlayers: %d\nSpectators: %d\nConnections: %d\nUptime: %s\n",
		stats.Rooms, stats.ActiveGames, stats.Players, stats.Spectators, stats.Connections,
		time.Duration(stats.Uptime)*time.Second)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGameRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rules := `Trivia Rooms - How a Session Works

ROOMS:
• Every client lands in the Lobby after CONNECT
• CREATE_ROOM creates a game room and moves the creator into it
• JOIN_ROOM moves a client between rooms; JOIN_ROOM_AS_SPECTATOR watches without playing

SESSION FLOW:
1. READY_CHECK: every member sends READY (optionally with categories)
2. COUNTDOWN: a short countdown is broadcast, then START_GAME
3. ROUND_ACTIVE: a question is drawn without replacement; TIME ticks every second
4. Members answer with a single letter (A, B, C...); one answer per round
5. The round ends when everyone answered or the time runs out
6. Scores are broadcast and the correct answer is announced
7. After the last round final scores are broadcast, scores reset to 0 and the room waits for READY again

SCORING (classic preset):
• Correct within 5s: 20 points
• Correct within 15s: 10 points
• Correct after 15s: 5 points
• Wrong answers score nothing

AWAY STATUS:
• Away members skip questions and get the current question back when they return

Use list_configs to see the rules of every preset.`

	return mcp.NewToolResultText(rules), nil
}

// Formatting helpers

func formatRoomInfo(info *service.RoomInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Room: %s\nState: %s\n", info.Name, info.State)
	if info.Preset != "" {
		fmt.Fprintf(&b, "Preset: %s\n", info.Preset)
	}
	if info.Rounds > 0 {
		fmt.Fprintf(&b, "Round: %d/%d\n", info.Round, info.Rounds)
	}

	fmt.Fprintf(&b, "\nMembers (%d):\n", len(info.Members))
	for _, m := range info.Members {
		var flags []string
		if m.Ready {
			flags = append(flags, "ready")
		}
		if m.Answered {
			flags = append(flags, "answered")
		}
		if m.Away {
			flags = append(flags, "away")
		}
		fmt.Fprintf(&b, "- %s: %d points", m.ID, m.Score)
		if len(flags) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(flags, ", "))
		}
		b.WriteString("\n")
	}

	if len(info.Spectators) > 0 {
		fmt.Fprintf(&b, "\nSpectators: %s\n", strings.Join(info.Spectators, ", "))
	}
	if len(info.Categories) > 0 {
		fmt.Fprintf(&b, "Categories: %s\n", strings.Join(info.Categories, ", "))
	}

	if q := info.Question; q != nil {
		fmt.Fprintf(&b, "\nQuestion: %s\n", q.Text)
		for i, opt := range q.Options {
			fmt.Fprintf(&b, "  %c) %s\n", 'A'+i, opt)
		}
		fmt.Fprintf(&b, "Time left: %s\n", time.Duration(info.RemainingMS)*time.Millisecond)
	}

	return b.String()
}

func formatTiers(tiers []trivia.Tier, slow int) string {
	parts := make([]string, 0, len(tiers)+1)
	for _, t := range tiers {
		parts = append(parts, fmt.Sprintf("≤%s→%d", t.Within.Std(), t.Points))
	}
	parts = append(parts, fmt.Sprintf("slower→%d", slow))
	return strings.Join(parts, ", ")
}
