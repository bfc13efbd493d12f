// Package registry keeps the rooms of a server.
//
// The Lobby always exists and cannot be deleted. Game rooms are created by
// name with an optional rule preset; names are unique regardless of case.
// Empty game rooms may be deleted, which stops their timer.
//
// With a RoomPersistence configured, room definitions (name, preset and
// creation time) are written to disk and restored by LoadPersisted. Scores
// are never persisted.
package registry
