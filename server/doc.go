// Package server is the session server: it accepts client connections over
// TCP or WebSocket, runs one Handler per connection and routes clients
// between the rooms of a registry.
//
// Every connection starts outside any room. After a CONNECT payload the
// client lands in the Lobby and may create or join game rooms. Rooms send
// to clients through Handler.Send, which only enqueues; a dedicated writer
// goroutine per connection serializes writes.
package server
