package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/promptfall/promptfall/internal"
	"github.com/promptfall/promptfall/internal/game"
)

// =============================================================================
// WEBSOCKET GATEWAY
// =============================================================================

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// session binds one socket to one player and, once joined, one room. The
// read loop is the session's only writer, so it needs no locking.
type session struct {
	conn   *websocket.Conn
	player *internal.Player
	room   *internal.Room
}

// HandleWebSocket upgrades the connection, hands the client its player
// identity, and runs the session's read loop until the socket drops.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade failed: ", err)
		return
	}

	player := &internal.Player{
		Id:          uuid.NewString(),
		Conn:        conn,
		IsConnected: true,
		JoinedAt:    time.Now(),
	}
	sess := &session{conn: conn, player: player}

	if err := player.SafeWriteJSON(internal.Message[internal.ConnectedData]{
		Type: "connected",
		Data: internal.ConnectedData{PlayerId: player.Id},
	}); err != nil {
		log.Printf("[HandleWebSocket] player=%s: greeting failed: %v", player.Id, err)
		conn.Close()
		return
	}

	log.Printf("[HandleWebSocket] player=%s connected", player.Id)
	s.readLoop(sess)
}

func (s *Server) readLoop(sess *session) {
	defer func() {
		if sess.room != nil {
			s.game.MarkDisconnected(sess.player, sess.conn)
		}
		sess.conn.Close()
		log.Printf("[readLoop] player=%s: session ended", sess.player.Id)
	}()

	for {
		_, raw, err := sess.conn.ReadMessage()
		if err != nil {
			log.Printf("[readLoop] player=%s: read error: %v", sess.player.Id, err)
			break
		}

		// A malformed frame costs one rejection, not the connection.
		var msg internal.Message[json.RawMessage]
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.reject(sess, "bad_payload", "message is not valid JSON")
			continue
		}
		s.dispatch(sess, msg)
	}
}

func (s *Server) dispatch(sess *session, msg internal.Message[json.RawMessage]) {
	switch msg.Type {
	case "create_room":
		var data internal.CreateRoomData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			s.reject(sess, "bad_payload", "create_room: malformed data")
			return
		}
		s.handleCreateRoom(sess, data)

	case "join_room":
		var data internal.JoinRoomData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			s.reject(sess, "bad_payload", "join_room: malformed data")
			return
		}
		s.handleJoinRoom(sess, data)

	case "leave_room":
		s.handleLeaveRoom(sess)

	case "set_name":
		var data internal.SetNameData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			s.reject(sess, "bad_payload", "set_name: malformed data")
			return
		}
		if err := s.game.RenamePlayer(sess.player, data.DisplayName); err != nil {
			s.reject(sess, reasonForError(err), err.Error())
		}

	case "start_game":
		if room := s.requireRoom(sess); room != nil {
			if err := s.game.StartGame(room); err != nil {
				s.reject(sess, reasonForError(err), err.Error())
			}
		}

	case "submit_response":
		var data internal.SubmitResponseData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			s.reject(sess, "bad_payload", "submit_response: malformed data")
			return
		}
		if room := s.requireRoom(sess); room != nil {
			if err := s.game.SubmitResponse(room, sess.player, data.Text); err != nil {
				s.reject(sess, reasonForError(err), err.Error())
			}
		}

	case "generate_draft":
		s.handleGenerateDraft(sess)

	case "cast_vote":
		var data internal.CastVoteData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			s.reject(sess, "bad_payload", "cast_vote: malformed data")
			return
		}
		if room := s.requireRoom(sess); room != nil {
			if err := s.game.CastVote(room, sess.player, data.TargetPlayerId); err != nil {
				s.reject(sess, reasonForError(err), err.Error())
			}
		}

	case "continue_game":
		if room := s.requireRoom(sess); room != nil {
			if err := s.game.ContinueGame(room); err != nil {
				s.reject(sess, reasonForError(err), err.Error())
			}
		}

	case "end_game":
		if room := s.requireRoom(sess); room != nil {
			if err := s.game.EndGame(room); err != nil {
				s.reject(sess, reasonForError(err), err.Error())
			}
		}

	case "list_rooms":
		s.handleListRooms(sess)

	default:
		s.reject(sess, "unknown_type", msg.Type)
	}
}

// =============================================================================
// INTENT HANDLERS
// =============================================================================

func (s *Server) handleCreateRoom(sess *session, data internal.CreateRoomData) {
	// One room per session; creating while seated implies leaving first.
	if sess.room != nil {
		s.game.LeaveRoom(sess.player)
		sess.room = nil
	}

	sess.room = s.game.CreateRoom(sess.player, data.DisplayName, data.RoomName)
	s.sendRoomJoined(sess)
}

func (s *Server) handleJoinRoom(sess *session, data internal.JoinRoomData) {
	if sess.room != nil {
		s.game.LeaveRoom(sess.player)
		sess.room = nil
	}

	// A rejoin id reclaims the old seat with its score. Past the grace
	// window the seat is gone and the join falls through to a fresh one.
	if data.PlayerId != "" {
		room, player, err := s.game.Reconnect(sess.conn, data.Code, data.PlayerId)
		switch {
		case err == nil:
			sess.room = room
			sess.player = player
			s.sendRoomJoined(sess)
			return
		case !errors.Is(err, internal.ErrPlayerNotInRoom) && !errors.Is(err, internal.ErrRoomNotFound):
			s.reject(sess, reasonForError(err), err.Error())
			return
		}
	}

	room, err := s.game.JoinRoom(sess.player, data.Code, data.DisplayName)
	if err != nil {
		s.reject(sess, reasonForError(err), err.Error())
		return
	}
	sess.room = room
	s.sendRoomJoined(sess)
}

func (s *Server) handleLeaveRoom(sess *session) {
	if sess.room == nil {
		s.reject(sess, "not_in_room", "leave_room")
		return
	}
	s.game.LeaveRoom(sess.player)
	sess.room = nil
}

// handleGenerateDraft produces a response suggestion for the requester
// only. The model call runs off the read loop; a draft that outlives its
// phase is dropped rather than delivered into the wrong round.
func (s *Server) handleGenerateDraft(sess *session) {
	room := s.requireRoom(sess)
	if room == nil {
		return
	}

	room.Mu.RLock()
	phase := room.Phase
	seq := room.PhaseSeq
	var prompt string
	if room.Challenge != nil {
		prompt = room.Challenge.Text
	}
	room.Mu.RUnlock()

	if phase != internal.PhaseChallenge || prompt == "" {
		s.reject(sess, "invalid_phase", "drafting is only open during the challenge phase")
		return
	}

	player := sess.player
	go func() {
		text, source := s.draftText(prompt)

		room.Mu.RLock()
		stale := room.Phase != internal.PhaseChallenge || room.PhaseSeq != seq
		room.Mu.RUnlock()
		if stale {
			log.Printf("[handleGenerateDraft] room=%s player=%s: draft arrived late, dropped", room.Code, player.Id)
			return
		}

		if err := player.SafeWriteJSON(internal.Message[internal.DraftReadyData]{
			Type: "draft_ready",
			Data: internal.DraftReadyData{Text: text, Source: source},
		}); err != nil {
			log.Printf("[handleGenerateDraft] room=%s player=%s: %v", room.Code, player.Id, err)
		}
	}()
}

// draftText asks the generator within the draft budget and falls back to
// a canned line when it is absent, errors, or runs long.
func (s *Server) draftText(prompt string) (text, source string) {
	if s.drafts == nil {
		return game.FallbackDraft(), "fallback"
	}

	ctx, cancel := context.WithTimeout(context.Background(), internal.DraftBudget)
	defer cancel()

	draft, err := s.drafts.Draft(ctx, prompt)
	if err != nil {
		log.Printf("[draftText] generator failed: %v", err)
		return game.FallbackDraft(), "fallback"
	}
	return draft, "ai"
}

func (s *Server) handleListRooms(sess *session) {
	rooms := s.game.Rooms.OpenRooms()
	if err := sess.player.SafeWriteJSON(internal.Message[internal.RoomListData]{
		Type: "room_list",
		Data: internal.RoomListData{Rooms: rooms},
	}); err != nil {
		log.Printf("[handleListRooms] player=%s: %v", sess.player.Id, err)
	}
}

// =============================================================================
// SESSION HELPERS
// =============================================================================

func (s *Server) requireRoom(sess *session) *internal.Room {
	if sess.room == nil {
		s.reject(sess, "not_in_room", "join a room first")
		return nil
	}
	return sess.room
}

func (s *Server) sendRoomJoined(sess *session) {
	sess.room.Mu.RLock()
	snapshot := sess.room.Snapshot()
	sess.room.Mu.RUnlock()

	if err := sess.player.SafeWriteJSON(internal.Message[internal.RoomJoinedData]{
		Type: "room_joined",
		Data: internal.RoomJoinedData{PlayerId: sess.player.Id, Room: snapshot},
	}); err != nil {
		log.Printf("[sendRoomJoined] room=%s player=%s: %v", sess.room.Code, sess.player.Id, err)
	}
}

func (s *Server) reject(sess *session, reason, detail string) {
	if err := sess.player.SafeWriteJSON(internal.Message[internal.ActionRejectedData]{
		Type: "action_rejected",
		Data: internal.ActionRejectedData{Reason: reason, Detail: detail},
	}); err != nil {
		log.Printf("[reject] player=%s: %v", sess.player.Id, err)
	}
}

func reasonForError(err error) string {
	switch {
	case errors.Is(err, internal.ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, internal.ErrRoomFull):
		return "room_full"
	case errors.Is(err, internal.ErrGameInProgress):
		return "game_in_progress"
	case errors.Is(err, internal.ErrInvalidPhaseForAction):
		return "invalid_phase"
	case errors.Is(err, internal.ErrDuplicateSubmission):
		return "already_submitted"
	case errors.Is(err, internal.ErrEmptySubmission):
		return "empty_response"
	case errors.Is(err, internal.ErrDuplicateVote):
		return "already_voted"
	case errors.Is(err, internal.ErrSelfVote):
		return "self_vote"
	case errors.Is(err, internal.ErrInvalidVoteTarget):
		return "invalid_vote_target"
	case errors.Is(err, internal.ErrPlayerNotInRoom):
		return "not_in_room"
	case errors.Is(err, internal.ErrNotEnoughPlayers):
		return "not_enough_players"
	case errors.Is(err, internal.ErrStartInProgress):
		return "start_in_progress"
	default:
		return "internal_error"
	}
}
