// Package protocol defines the envelope exchanged between trivia clients and
// the session server.
//
// Every message is a Payload: a sender id, a human readable message and a
// PayloadType discriminant, plus the body fields that belong to that type.
// The set of types is closed; Validate rejects anything outside it with
// ErrUnknownType and bodies that do not match their type with ErrMalformed.
//
// Framing:
//
// Payloads are JSON documents. Over WebSocket each payload is one text
// message. Over raw TCP each payload is prefixed by its length as a 4-byte
// big-endian integer (see WriteFrame and ReadFrame).
//
// Direction:
//
//   - Client to server: CONNECT, CREATE_ROOM, JOIN_ROOM,
//     JOIN_ROOM_AS_SPECTATOR, READY, SELECTED_CATEGORIES, AWAY_STATUS, ANSWER
//   - Server to client: START_GAME, QUESTION, POINTS, TIME, NOTIFICATION,
//     RESET_POINTS, SELECTED_CATEGORIES
package protocol
