package game

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/promptfall/promptfall/internal"
)

// fakeConn records every frame written to it, standing in for a websocket
// connection.
type fakeConn struct {
	mu     sync.Mutex
	frames []any
	closed bool
}

func (c *fakeConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, v)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

// messages re-decodes the recorded frames through JSON, the same shape a
// real client would see them in.
func (c *fakeConn) messages() []internal.Message[json.RawMessage] {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]internal.Message[json.RawMessage], 0, len(c.frames))
	for _, frame := range c.frames {
		raw, err := json.Marshal(frame)
		if err != nil {
			continue
		}
		var msg internal.Message[json.RawMessage]
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		out = append(out, msg)
	}
	return out
}

func (c *fakeConn) sawType(msgType string) bool {
	for _, msg := range c.messages() {
		if msg.Type == msgType {
			return true
		}
	}
	return false
}

func newTestPlayer(id string) (*internal.Player, *fakeConn) {
	conn := &fakeConn{}
	player := &internal.Player{
		Id:          id,
		Conn:        conn,
		IsConnected: true,
		JoinedAt:    time.Now(),
	}
	return player, conn
}

// stubSource serves a fixed challenge, or a fixed error.
type stubSource struct {
	challenge internal.Challenge
	err       error
}

func (s *stubSource) Next(_ context.Context, roundNumber int) (internal.Challenge, error) {
	if s.err != nil {
		return internal.Challenge{}, s.err
	}
	challenge := s.challenge
	challenge.RoundNumber = roundNumber
	return challenge, nil
}

// recordingArchiver captures every round handed to it.
type recordingArchiver struct {
	mu      sync.Mutex
	records []RoundRecord
}

func (a *recordingArchiver) RecordRound(_ context.Context, record RoundRecord) error {
	a.mu.Lock()
	a.records = append(a.records, record)
	a.mu.Unlock()
	return nil
}

func (a *recordingArchiver) recorded() []RoundRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]RoundRecord(nil), a.records...)
}

func newTestService() *Service {
	source := &stubSource{
		challenge: internal.Challenge{Text: "test prompt", Category: "Test", TimeLimit: 30},
	}
	return NewService(NewDirectory(), source, nil)
}

// newRoomWithPlayers seats the named players in a fresh room and tears
// the room down when the test ends.
func newRoomWithPlayers(t *testing.T, svc *Service, names ...string) (*internal.Room, []*internal.Player, []*fakeConn) {
	t.Helper()
	require.NotEmpty(t, names)

	players := make([]*internal.Player, len(names))
	conns := make([]*fakeConn, len(names))
	for i := range names {
		players[i], conns[i] = newTestPlayer(fmt.Sprintf("player-%d", i+1))
	}

	room := svc.CreateRoom(players[0], names[0], "test room")
	for i := 1; i < len(names); i++ {
		_, err := svc.JoinRoom(players[i], room.Code, names[i])
		require.NoError(t, err)
	}

	t.Cleanup(func() { svc.CloseRoom(room) })
	return room, players, conns
}

// playToVoting starts a round, submits the given texts (empty string
// skips that player), and moves the room into the voting phase.
func playToVoting(t *testing.T, svc *Service, room *internal.Room, players []*internal.Player, texts ...string) {
	t.Helper()
	require.NoError(t, svc.StartGame(room))

	for i, text := range texts {
		if text == "" {
			continue
		}
		require.NoError(t, svc.SubmitResponse(room, players[i], text))
	}

	svc.beginVoting(room, seqOf(room))
	require.Equal(t, internal.PhaseVoting, phaseOf(room))
}

func phaseOf(room *internal.Room) internal.GamePhase {
	room.Mu.RLock()
	defer room.Mu.RUnlock()
	return room.Phase
}

func seqOf(room *internal.Room) int64 {
	room.Mu.RLock()
	defer room.Mu.RUnlock()
	return room.PhaseSeq
}
