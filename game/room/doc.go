// Package room implements rooms and the round state machine of game rooms.
//
// A Lobby only tracks membership. A GameRoom cycles through
//
//	LOBBY_IDLE -> READY_CHECK -> COUNTDOWN -> ROUND_ACTIVE -> ROUND_GRADING
//	           -> ROUND_ACTIVE | SESSION_COMPLETE -> READY_CHECK
//
// Locking:
//
// Each room has exactly one mutex. Every transition, whether triggered by a
// client or by the timer, runs as one critical section. Payloads are handed
// to Session senders while the lock is held; senders only enqueue, so the
// order of room events seen by a client is the order they happened in.
//
// Timer:
//
// A GameRoom owns a single goroutine and time.Timer for its lifetime.
// Transitions set the next due time under the lock and the goroutine checks
// it again under the lock before acting, so a round ends once even when a
// tick races with the last answer.
package room
