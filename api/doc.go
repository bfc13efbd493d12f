// Package api provides the HTTP REST admin API of the trivia server.
//
// Endpoints:
//
// Rooms:
//   - GET /api/rooms - List rooms, Lobby first
//   - POST /api/rooms - Create a game room ({"name": "...", "preset": "..."})
//   - GET /api/rooms/{name} - Room snapshot (members, state, active question)
//   - DELETE /api/rooms/{name} - Remove an empty game room
//
// Configuration:
//   - GET /api/configs - List rule presets
//   - GET /api/configs/{name} - Full rule preset
//
// Other:
//   - GET /api/categories - Question categories players can select
//   - GET /api/stats - Room, player and connection counts
//   - GET /api/health - Liveness check
//   - GET /ws - WebSocket game connection (same payloads as the TCP port)
//
// Errors are returned as JSON with an HTTP status derived from the error:
//
//	{
//	  "error": "room not found"
//	}
//
// Room snapshots never include the correct option of the active question.
package api
