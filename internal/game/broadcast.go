package game

import (
	"log"
	"time"

	"github.com/promptfall/promptfall/internal"
)

// =============================================================================
// ROOM BROADCASTS
// =============================================================================

// SafeBroadcastToRoom sends msg to every connected player in the room.
// The roster is snapshotted under the room lock and writes happen outside
// it, so a slow socket never stalls the room.
func SafeBroadcastToRoom(room *internal.Room, msg any) {
	room.Mu.RLock()
	players := make([]*internal.Player, 0, len(room.Players))
	for _, player := range room.Players {
		if player.IsConnected {
			players = append(players, player)
		}
	}
	room.Mu.RUnlock()

	success := 0
	for _, player := range players {
		if err := player.SafeWriteJSON(msg); err != nil {
			log.Printf("[SafeBroadcastToRoom] room=%s player=%s: write failed: %v", room.Code, player.Id, err)
			continue
		}
		success++
	}

	if success < len(players) {
		log.Printf("[SafeBroadcastToRoom] room=%s: delivered to %d/%d players", room.Code, success, len(players))
	}
}

// SafeBroadcastToRoomExcept behaves like SafeBroadcastToRoom but skips one
// player, typically the originator of the event.
func SafeBroadcastToRoomExcept(room *internal.Room, excludeId string, msg any) {
	room.Mu.RLock()
	players := make([]*internal.Player, 0, len(room.Players))
	for _, player := range room.Players {
		if player.Id != excludeId && player.IsConnected {
			players = append(players, player)
		}
	}
	room.Mu.RUnlock()

	for _, player := range players {
		if err := player.SafeWriteJSON(msg); err != nil {
			log.Printf("[SafeBroadcastToRoomExcept] room=%s player=%s: write failed: %v", room.Code, player.Id, err)
		}
	}
}

// BroadcastTimerUpdate pushes the countdown to everyone in the room.
func BroadcastTimerUpdate(room *internal.Room, remaining time.Duration, phase internal.GamePhase) {
	msg := internal.Message[internal.TimerUpdateData]{
		Type: "timer_update",
		Data: internal.TimerUpdateData{
			TimeRemaining: remaining.Milliseconds(),
			Phase:         phase,
			IsActive:      remaining > 0,
		},
	}
	SafeBroadcastToRoom(room, msg)
}

// BroadcastRoomSnapshot sends the full phase-filtered room view to every
// connected player. Used after any change a client must re-render from.
func BroadcastRoomSnapshot(room *internal.Room) {
	room.Mu.RLock()
	snapshot := room.Snapshot()
	room.Mu.RUnlock()

	msg := internal.Message[internal.RoomSnapshot]{
		Type: "room_snapshot",
		Data: snapshot,
	}
	SafeBroadcastToRoom(room, msg)
}

// BroadcastPhaseChange announces a phase transition. Deadline is zero for
// phases without a clock.
func BroadcastPhaseChange(room *internal.Room, phase internal.GamePhase, roundNumber int, deadline time.Time) {
	var deadlineMs int64
	if !deadline.IsZero() {
		deadlineMs = deadline.UnixMilli()
	}
	msg := internal.Message[internal.PhaseChangedData]{
		Type: "phase_changed",
		Data: internal.PhaseChangedData{
			Phase:       phase,
			RoundNumber: roundNumber,
			DeadlineMs:  deadlineMs,
		},
	}
	SafeBroadcastToRoom(room, msg)
}
