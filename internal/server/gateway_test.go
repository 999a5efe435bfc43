package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptfall/promptfall/internal"
)

func dialTestSocket(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil drains frames until one of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, want string) internal.Message[json.RawMessage] {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg internal.Message[json.RawMessage]
		require.NoError(t, conn.ReadJSON(&msg), "waiting for %q", want)
		if msg.Type == want {
			return msg
		}
	}
}

func connect(t *testing.T, srv *httptest.Server) (*websocket.Conn, string) {
	t.Helper()
	conn := dialTestSocket(t, srv)
	greeting := readUntil(t, conn, "connected")
	var data internal.ConnectedData
	require.NoError(t, json.Unmarshal(greeting.Data, &data))
	require.NotEmpty(t, data.PlayerId)
	return conn, data.PlayerId
}

func createRoom(t *testing.T, conn *websocket.Conn, displayName, roomName string) internal.RoomJoinedData {
	t.Helper()
	require.NoError(t, conn.WriteJSON(internal.Message[internal.CreateRoomData]{
		Type: "create_room",
		Data: internal.CreateRoomData{DisplayName: displayName, RoomName: roomName},
	}))
	joined := readUntil(t, conn, "room_joined")
	var data internal.RoomJoinedData
	require.NoError(t, json.Unmarshal(joined.Data, &data))
	return data
}

func TestWebSocket_CreateRoom(t *testing.T) {
	s := newTestServer(nil)
	srv := httptest.NewServer(s.RegisterRoutes())
	defer srv.Close()

	conn, playerId := connect(t, srv)
	data := createRoom(t, conn, "Ana", "test room")

	assert.Equal(t, playerId, data.PlayerId)
	assert.Equal(t, "test room", data.Room.Name)
	assert.Equal(t, internal.PhaseLobby, data.Room.Phase)
	require.Len(t, data.Room.Players, 1)
	assert.Equal(t, "Ana", data.Room.Players[0].DisplayName)
}

func TestWebSocket_SecondPlayerJoins(t *testing.T) {
	s := newTestServer(nil)
	srv := httptest.NewServer(s.RegisterRoutes())
	defer srv.Close()

	host, _ := connect(t, srv)
	room := createRoom(t, host, "Ana", "test room")

	guest, _ := connect(t, srv)
	require.NoError(t, guest.WriteJSON(internal.Message[internal.JoinRoomData]{
		Type: "join_room",
		Data: internal.JoinRoomData{Code: room.Room.Code, DisplayName: "Ben"},
	}))

	joined := readUntil(t, guest, "room_joined")
	var data internal.RoomJoinedData
	require.NoError(t, json.Unmarshal(joined.Data, &data))
	assert.Len(t, data.Room.Players, 2)

	notice := readUntil(t, host, "player_joined")
	var joinedData internal.PlayerJoinedData
	require.NoError(t, json.Unmarshal(notice.Data, &joinedData))
	assert.Equal(t, "Ben", joinedData.DisplayName)
	assert.Equal(t, 2, joinedData.PlayerCount)
}

func TestWebSocket_JoinUnknownRoomRejected(t *testing.T) {
	s := newTestServer(nil)
	srv := httptest.NewServer(s.RegisterRoutes())
	defer srv.Close()

	conn, _ := connect(t, srv)
	require.NoError(t, conn.WriteJSON(internal.Message[internal.JoinRoomData]{
		Type: "join_room",
		Data: internal.JoinRoomData{Code: "NOSUCH", DisplayName: "Ana"},
	}))

	rejected := readUntil(t, conn, "action_rejected")
	var data internal.ActionRejectedData
	require.NoError(t, json.Unmarshal(rejected.Data, &data))
	assert.Equal(t, "room_not_found", data.Reason)
}

func TestWebSocket_UnknownTypeRejected(t *testing.T) {
	s := newTestServer(nil)
	srv := httptest.NewServer(s.RegisterRoutes())
	defer srv.Close()

	conn, _ := connect(t, srv)
	require.NoError(t, conn.WriteJSON(internal.Message[struct{}]{Type: "bogus"}))

	rejected := readUntil(t, conn, "action_rejected")
	var data internal.ActionRejectedData
	require.NoError(t, json.Unmarshal(rejected.Data, &data))
	assert.Equal(t, "unknown_type", data.Reason)
}

func TestWebSocket_MalformedFrameKeepsTheSessionAlive(t *testing.T) {
	s := newTestServer(nil)
	srv := httptest.NewServer(s.RegisterRoutes())
	defer srv.Close()

	conn, _ := connect(t, srv)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))

	rejected := readUntil(t, conn, "action_rejected")
	var data internal.ActionRejectedData
	require.NoError(t, json.Unmarshal(rejected.Data, &data))
	assert.Equal(t, "bad_payload", data.Reason)

	// The session still works.
	room := createRoom(t, conn, "Ana", "still here")
	assert.Equal(t, "still here", room.Room.Name)
}

func TestWebSocket_ActionsOutsideARoomRejected(t *testing.T) {
	s := newTestServer(nil)
	srv := httptest.NewServer(s.RegisterRoutes())
	defer srv.Close()

	conn, _ := connect(t, srv)
	require.NoError(t, conn.WriteJSON(internal.Message[struct{}]{Type: "start_game"}))

	rejected := readUntil(t, conn, "action_rejected")
	var data internal.ActionRejectedData
	require.NoError(t, json.Unmarshal(rejected.Data, &data))
	assert.Equal(t, "not_in_room", data.Reason)
}

func TestWebSocket_ListRooms(t *testing.T) {
	s := newTestServer(nil)
	srv := httptest.NewServer(s.RegisterRoutes())
	defer srv.Close()

	host, _ := connect(t, srv)
	room := createRoom(t, host, "Ana", "open lobby")

	browser, _ := connect(t, srv)
	require.NoError(t, browser.WriteJSON(internal.Message[struct{}]{Type: "list_rooms"}))

	listing := readUntil(t, browser, "room_list")
	var data internal.RoomListData
	require.NoError(t, json.Unmarshal(listing.Data, &data))
	require.Len(t, data.Rooms, 1)
	assert.Equal(t, room.Room.Code, data.Rooms[0].Code)
}

func TestWebSocket_FullRoundOverTheWire(t *testing.T) {
	s := newTestServer(nil)
	srv := httptest.NewServer(s.RegisterRoutes())
	defer srv.Close()

	host, hostId := connect(t, srv)
	room := createRoom(t, host, "Ana", "game night")

	guest, guestId := connect(t, srv)
	require.NoError(t, guest.WriteJSON(internal.Message[internal.JoinRoomData]{
		Type: "join_room",
		Data: internal.JoinRoomData{Code: room.Room.Code, DisplayName: "Ben"},
	}))
	readUntil(t, guest, "room_joined")

	require.NoError(t, host.WriteJSON(internal.Message[struct{}]{Type: "start_game"}))

	change := readUntil(t, guest, "phase_changed")
	var phase internal.PhaseChangedData
	require.NoError(t, json.Unmarshal(change.Data, &phase))
	assert.Equal(t, internal.PhaseChallenge, phase.Phase)
	assert.Equal(t, 1, phase.RoundNumber)
	assert.Positive(t, phase.DeadlineMs)

	// Drafting is open during the challenge; no generator is wired, so
	// the canned pool answers.
	require.NoError(t, host.WriteJSON(internal.Message[struct{}]{Type: "generate_draft"}))
	draft := readUntil(t, host, "draft_ready")
	var draftData internal.DraftReadyData
	require.NoError(t, json.Unmarshal(draft.Data, &draftData))
	assert.Equal(t, "fallback", draftData.Source)
	assert.NotEmpty(t, draftData.Text)

	require.NoError(t, host.WriteJSON(internal.Message[internal.SubmitResponseData]{
		Type: "submit_response",
		Data: internal.SubmitResponseData{Text: "a tale of two sockets"},
	}))
	require.NoError(t, guest.WriteJSON(internal.Message[internal.SubmitResponseData]{
		Type: "submit_response",
		Data: internal.SubmitResponseData{Text: "an ode to latency"},
	}))

	// Both submissions in; the short grace beat closes the phase.
	voting := readUntil(t, host, "phase_changed")
	require.NoError(t, json.Unmarshal(voting.Data, &phase))
	for phase.Phase != internal.PhaseVoting {
		voting = readUntil(t, host, "phase_changed")
		require.NoError(t, json.Unmarshal(voting.Data, &phase))
	}

	require.NoError(t, host.WriteJSON(internal.Message[internal.CastVoteData]{
		Type: "cast_vote",
		Data: internal.CastVoteData{TargetPlayerId: guestId},
	}))
	require.NoError(t, guest.WriteJSON(internal.Message[internal.CastVoteData]{
		Type: "cast_vote",
		Data: internal.CastVoteData{TargetPlayerId: hostId},
	}))

	results := readUntil(t, guest, "phase_changed")
	require.NoError(t, json.Unmarshal(results.Data, &phase))
	for phase.Phase != internal.PhaseResults {
		results = readUntil(t, guest, "phase_changed")
		require.NoError(t, json.Unmarshal(results.Data, &phase))
	}

	snapshot := readUntil(t, guest, "room_snapshot")
	var snap internal.RoomSnapshot
	require.NoError(t, json.Unmarshal(snapshot.Data, &snap))
	require.Len(t, snap.Results, 2)
	assert.Equal(t, 1, snap.Results[0].VoteCount)
}

func TestWebSocket_ReconnectReclaimsTheSeat(t *testing.T) {
	s := newTestServer(nil)
	srv := httptest.NewServer(s.RegisterRoutes())
	defer srv.Close()

	host, hostId := connect(t, srv)
	room := createRoom(t, host, "Ana", "flaky wifi")

	guest, _ := connect(t, srv)
	require.NoError(t, guest.WriteJSON(internal.Message[internal.JoinRoomData]{
		Type: "join_room",
		Data: internal.JoinRoomData{Code: room.Room.Code, DisplayName: "Ben"},
	}))
	readUntil(t, guest, "room_joined")

	// The host's socket drops; the seat survives on the grace window.
	host.Close()

	replacement, _ := connect(t, srv)
	require.NoError(t, replacement.WriteJSON(internal.Message[internal.JoinRoomData]{
		Type: "join_room",
		Data: internal.JoinRoomData{Code: room.Room.Code, PlayerId: hostId},
	}))

	joined := readUntil(t, replacement, "room_joined")
	var data internal.RoomJoinedData
	require.NoError(t, json.Unmarshal(joined.Data, &data))
	assert.Equal(t, hostId, data.PlayerId)
	assert.Len(t, data.Room.Players, 2)
}
