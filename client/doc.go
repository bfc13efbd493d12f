// Package client is a Go client for the trivia session server. Each command
// of the client surface maps to one outbound payload; inbound payloads are
// delivered on the Events channel.
package client
