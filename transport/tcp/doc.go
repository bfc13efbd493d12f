// Package tcp implements protocol.Conn over a raw TCP stream.
//
// Each payload is framed as a 4-byte big-endian length followed by the JSON
// encoding of the payload, at most protocol.MaxFrameSize bytes.
package tcp
