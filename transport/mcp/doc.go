// Package mcp exposes the admin surface of the trivia server as Model
// Context Protocol tools.
//
// The client is a thin proxy: every tool calls the REST API, so the same
// tools work against the in-process server or a remote one.
//
// MCP Tools:
//   - list_rooms: List rooms with state and member counts
//   - get_room: Members, scores and active question of one room
//   - create_room: Create a game room with an optional preset
//   - delete_room: Remove an empty game room
//   - list_configs: List rule presets
//   - list_categories: List question categories
//   - server_stats: Room, player and connection counts
//   - game_rules: Session flow and scoring
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: the /mcp endpoint of the main HTTP server
package mcp
