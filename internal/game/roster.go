package game

import (
	"fmt"
	"log"
	"slices"
	"time"

	"github.com/promptfall/promptfall/internal"
)

// =============================================================================
// ROSTER MANAGEMENT
// =============================================================================

// CreateRoom opens a fresh room and seats the creator in it.
func (s *Service) CreateRoom(player *internal.Player, displayName, roomName string) *internal.Room {
	if displayName == "" {
		displayName = "Player"
	}
	if roomName == "" {
		roomName = fmt.Sprintf("%s's room", displayName)
	}

	room := s.Rooms.Create(roomName)
	// A brand-new lobby cannot refuse its creator.
	if _, err := s.JoinRoom(player, room.Code, displayName); err != nil {
		log.Printf("[CreateRoom] room=%s: creator join failed: %v", room.Code, err)
	}
	return room
}

// JoinRoom seats a new player in the room's lobby. Joining is lobby-only;
// a room mid-round rejects newcomers rather than dropping them into a
// challenge they never saw.
func (s *Service) JoinRoom(player *internal.Player, code, displayName string) (*internal.Room, error) {
	room, err := s.Rooms.Get(code)
	if err != nil {
		return nil, err
	}

	room.Mu.Lock()
	switch {
	case room.Phase == internal.PhaseClosed:
		room.Mu.Unlock()
		return nil, internal.ErrRoomNotFound
	case room.Phase != internal.PhaseLobby:
		room.Mu.Unlock()
		return nil, internal.ErrGameInProgress
	case len(room.Players) >= internal.MaxPlayersPerRoom:
		room.Mu.Unlock()
		return nil, internal.ErrRoomFull
	}

	if displayName == "" {
		displayName = "Player"
	}
	player.DisplayName = dedupeNameLocked(room, displayName, player.Id)
	player.Room = room
	player.IsConnected = true
	player.JoinedAt = time.Now()
	room.Players[player.Id] = player
	room.JoinOrder = append(room.JoinOrder, player.Id)
	name := player.DisplayName
	count := len(room.Players)
	room.Mu.Unlock()

	log.Printf("[JoinRoom] room=%s player=%s name=%q joined (%d/%d)", code, player.Id, name, count, internal.MaxPlayersPerRoom)

	SafeBroadcastToRoomExcept(room, player.Id, internal.Message[internal.PlayerJoinedData]{
		Type: "player_joined",
		Data: internal.PlayerJoinedData{
			PlayerId:    player.Id,
			DisplayName: name,
			PlayerCount: count,
		},
	})
	BroadcastRoomSnapshot(room)
	return room, nil
}

// Reconnect reattaches a dropped player's fresh socket to their existing
// roster seat, keeping score and submissions. Fails with
// ErrPlayerNotInRoom once the grace window has evicted them.
func (s *Service) Reconnect(conn internal.Conn, code, playerId string) (*internal.Room, *internal.Player, error) {
	room, err := s.Rooms.Get(code)
	if err != nil {
		return nil, nil, err
	}

	room.Mu.Lock()
	player, ok := room.Players[playerId]
	if !ok {
		room.Mu.Unlock()
		return nil, nil, internal.ErrPlayerNotInRoom
	}
	if player.GraceTimer != nil {
		player.GraceTimer.Stop()
		player.GraceTimer = nil
	}
	player.AttachConn(conn)
	player.IsConnected = true
	room.Mu.Unlock()

	log.Printf("[Reconnect] room=%s player=%s reattached", code, playerId)
	BroadcastRoomSnapshot(room)
	return room, player, nil
}

// LeaveRoom removes the player immediately. Leaving is deliberate, so no
// grace window applies and their seat frees up right away.
func (s *Service) LeaveRoom(player *internal.Player) {
	room := player.Room
	if room == nil {
		return
	}
	s.removePlayer(room, player, "left")
}

// MarkDisconnected handles a dropped socket: the player keeps their seat
// for the grace window so a flaky network does not cost them the game.
// conn identifies the socket that dropped; a stale drop after a reconnect
// is ignored.
func (s *Service) MarkDisconnected(player *internal.Player, conn internal.Conn) {
	room := player.Room
	if room == nil {
		player.DetachConn()
		return
	}

	room.Mu.Lock()
	if _, ok := room.Players[player.Id]; !ok {
		room.Mu.Unlock()
		player.DetachConn()
		return
	}
	if !player.ConnIs(conn) {
		room.Mu.Unlock()
		return
	}
	player.DetachConn()
	player.IsConnected = false
	if player.GraceTimer != nil {
		player.GraceTimer.Stop()
	}
	player.GraceTimer = time.AfterFunc(internal.GraceWindow, func() {
		s.evictAfterGrace(room, player)
	})
	phase := room.Phase
	room.Mu.Unlock()

	log.Printf("[MarkDisconnected] room=%s player=%s: grace window %v armed", room.Code, player.Id, internal.GraceWindow)

	BroadcastRoomSnapshot(room)
	if phase == internal.PhaseChallenge || phase == internal.PhaseVoting {
		s.maybeAdvanceEarly(room)
	}
}

// evictAfterGrace fires when a disconnected player's grace window runs
// out. A reconnect in the meantime stands the eviction down.
func (s *Service) evictAfterGrace(room *internal.Room, player *internal.Player) {
	room.Mu.Lock()
	current, ok := room.Players[player.Id]
	if !ok || current != player || player.IsConnected {
		room.Mu.Unlock()
		return
	}
	player.GraceTimer = nil
	room.Mu.Unlock()

	log.Printf("[evictAfterGrace] room=%s player=%s: grace window expired", room.Code, player.Id)
	s.removePlayer(room, player, "timeout")
}

// RenamePlayer updates the display name between rounds. Renaming mid
// round would detach names from the responses on screen.
func (s *Service) RenamePlayer(player *internal.Player, name string) error {
	if name == "" {
		name = "Player"
	}

	room := player.Room
	if room == nil {
		player.DisplayName = name
		return nil
	}

	room.Mu.Lock()
	if room.Phase != internal.PhaseLobby && room.Phase != internal.PhaseResults {
		room.Mu.Unlock()
		return internal.ErrInvalidPhaseForAction
	}
	player.DisplayName = dedupeNameLocked(room, name, player.Id)
	room.Mu.Unlock()

	BroadcastRoomSnapshot(room)
	return nil
}

// removePlayer pulls the player out of the roster and scrubs their round
// entries. Votes cast for them stay behind; the scorer skips votes whose
// target is gone. Closes the room when the last seat empties.
func (s *Service) removePlayer(room *internal.Room, player *internal.Player, reason string) {
	room.Mu.Lock()
	if _, ok := room.Players[player.Id]; !ok {
		room.Mu.Unlock()
		return
	}
	if player.GraceTimer != nil {
		player.GraceTimer.Stop()
		player.GraceTimer = nil
	}
	delete(room.Players, player.Id)
	room.JoinOrder = slices.DeleteFunc(room.JoinOrder, func(id string) bool {
		return id == player.Id
	})
	delete(room.Responses, player.Id)
	delete(room.Votes, player.Id)
	player.Room = nil
	name := player.DisplayName
	count := len(room.Players)
	phase := room.Phase
	room.Mu.Unlock()

	log.Printf("[removePlayer] room=%s player=%s reason=%s (%d remain)", room.Code, player.Id, reason, count)

	if count == 0 {
		s.CloseRoom(room)
		return
	}

	SafeBroadcastToRoom(room, internal.Message[internal.PlayerLeftData]{
		Type: "player_left",
		Data: internal.PlayerLeftData{
			PlayerId:    player.Id,
			DisplayName: name,
			PlayerCount: count,
			Reason:      reason,
		},
	})
	BroadcastRoomSnapshot(room)

	// The departure may have been the last submission or vote holding the
	// phase open.
	if phase == internal.PhaseChallenge || phase == internal.PhaseVoting {
		s.maybeAdvanceEarly(room)
	}
}

// CloseRoom tears the room down: clock cancelled, roster notified, code
// released back to the directory. Sockets stay open so players can join
// another room on the same connection.
func (s *Service) CloseRoom(room *internal.Room) {
	room.Mu.Lock()
	if room.Phase == internal.PhaseClosed {
		room.Mu.Unlock()
		return
	}
	cancelPhaseTimerLocked(room)
	room.Phase = internal.PhaseClosed
	room.PhaseSeq++
	players := make([]*internal.Player, 0, len(room.Players))
	for _, player := range room.Players {
		if player.GraceTimer != nil {
			player.GraceTimer.Stop()
			player.GraceTimer = nil
		}
		player.Room = nil
		players = append(players, player)
	}
	room.Players = make(map[string]*internal.Player)
	room.JoinOrder = nil
	room.Mu.Unlock()

	msg := internal.Message[internal.RoomClosedData]{
		Type: "room_closed",
		Data: internal.RoomClosedData{Code: room.Code},
	}
	for _, player := range players {
		if err := player.SafeWriteJSON(msg); err != nil && err != internal.ErrNoConnection {
			log.Printf("[CloseRoom] room=%s player=%s: close notice failed: %v", room.Code, player.Id, err)
		}
	}

	if room.Cancel != nil {
		room.Cancel()
	}
	s.Rooms.Remove(room.Code)
	log.Printf("[CloseRoom] room=%s closed", room.Code)
}

// dedupeNameLocked keeps display names unique within a room by suffixing
// a counter, so votes and results stay attributable. Caller holds room.Mu.
func dedupeNameLocked(room *internal.Room, base, excludeId string) string {
	taken := func(name string) bool {
		for id, player := range room.Players {
			if id != excludeId && player.DisplayName == name {
				return true
			}
		}
		return false
	}

	if !taken(base) {
		return base
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s (%d)", base, i)
		if !taken(candidate) {
			return candidate
		}
	}
}
