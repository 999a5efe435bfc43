package game

import (
	"context"
	"log"
	"time"

	"github.com/promptfall/promptfall/internal"
)

// =============================================================================
// PHASE TIMER
// =============================================================================

// StartPhaseTimer arms the room's phase clock. Any previously armed clock
// is cancelled first. onExpire runs on its own goroutine once the full
// duration elapses; a cancelled clock never fires it.
func StartPhaseTimer(room *internal.Room, duration time.Duration, onExpire func()) {
	room.Mu.Lock()
	startPhaseTimerLocked(room, duration, onExpire)
	room.Mu.Unlock()
}

// CancelPhaseTimer stops the room's clock without firing its callback.
func CancelPhaseTimer(room *internal.Room) {
	room.Mu.Lock()
	cancelPhaseTimerLocked(room)
	room.Mu.Unlock()
}

// startPhaseTimerLocked is the lock-held core of StartPhaseTimer. Phase
// transitions and early advance call it directly so that validating room
// state and arming the clock happen in one critical section.
func startPhaseTimerLocked(room *internal.Room, duration time.Duration, onExpire func()) {
	cancelPhaseTimerLocked(room)

	ctx, cancel := context.WithTimeout(room.Context, duration)
	deadline := time.Now().Add(duration)
	room.Timer = &internal.GameTimer{
		StartTime:     time.Now(),
		Duration:      duration,
		TimeRemaining: duration,
		IsActive:      true,
		Context:       ctx,
		Cancel:        cancel,
	}
	room.Deadline = deadline

	go runPhaseTimer(room, ctx, deadline, onExpire)
}

// cancelPhaseTimerLocked tears down the armed clock, if any. The ticker
// goroutine sees the context close and exits without firing.
func cancelPhaseTimerLocked(room *internal.Room) {
	if room.Timer != nil {
		if room.Timer.Cancel != nil {
			room.Timer.Cancel()
		}
		room.Timer.IsActive = false
	}
	room.Deadline = time.Time{}
}

// runPhaseTimer ticks once a second so clients can render a countdown,
// then hands off to onExpire when the deadline passes.
func runPhaseTimer(room *internal.Room, ctx context.Context, deadline time.Time, onExpire func()) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			remaining := time.Until(deadline)
			if remaining < 0 {
				remaining = 0
			}

			room.Mu.Lock()
			phase := room.Phase
			// A newer clock may own the room by now; only touch our own state.
			if room.Timer != nil && room.Timer.Context == ctx {
				room.Timer.TimeRemaining = remaining
			}
			room.Mu.Unlock()

			BroadcastTimerUpdate(room, remaining, phase)

		case <-ctx.Done():
			if ctx.Err() != context.DeadlineExceeded {
				// Cancelled or replaced, nothing to fire.
				return
			}

			room.Mu.Lock()
			phase := room.Phase
			if room.Timer != nil && room.Timer.Context == ctx {
				room.Timer.IsActive = false
				room.Timer.TimeRemaining = 0
			}
			room.Mu.Unlock()

			log.Printf("[runPhaseTimer] room=%s: %s deadline reached", room.Code, phase)
			BroadcastTimerUpdate(room, 0, phase)
			go onExpire()
			return
		}
	}
}
