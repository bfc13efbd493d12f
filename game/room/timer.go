package room

import (
	"context"
	"time"
)

// The room owns a single timer for its whole lifetime. Transitions arm or
// disarm it under the room lock by setting nextTick; the goroutine only
// learns about changes through rearm and always re-validates under the lock,
// so a tick that fires after a disarm is a no-op.

func (r *GameRoom) run(ctx context.Context) {
	defer close(r.done)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-r.rearm:
			r.mu.Lock()
			armed, next := r.armed, r.nextTick
			r.mu.Unlock()

			timer.Stop()
			if armed {
				timer.Reset(max(next.Sub(r.now()), 0))
			}

		case <-timer.C:
			if wait, ok := r.tick(); ok {
				timer.Reset(wait)
			}
		}
	}
}

// tick processes a due tick and returns how long to wait for the next one.
func (r *GameRoom) tick() (time.Duration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.armed {
		return 0, false
	}
	now := r.now()
	if now.Before(r.nextTick) {
		return r.nextTick.Sub(now), true
	}

	switch r.state {
	case Countdown:
		r.countdownTickLocked()
	case RoundActive:
		r.roundTickLocked()
	default:
		r.armed = false
	}

	if !r.armed {
		return 0, false
	}
	return max(r.nextTick.Sub(r.now()), 0), true
}

func (r *GameRoom) armLocked(d time.Duration) {
	r.rescheduleLocked(r.now().Add(d))
}

func (r *GameRoom) rescheduleLocked(at time.Time) {
	if r.closed {
		return
	}
	r.armed = true
	r.nextTick = at
	select {
	case r.rearm <- struct{}{}:
	default:
	}
}

func (r *GameRoom) disarmLocked() {
	r.armed = false
}
