package game

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptfall/promptfall/internal"
)

func TestDirectory_CreateAndGet(t *testing.T) {
	dir := NewDirectory()

	room := dir.Create("friday night")
	require.NotNil(t, room)
	assert.Len(t, room.Code, roomCodeLength)
	assert.Equal(t, internal.PhaseLobby, room.Phase)
	assert.NotNil(t, room.Players)
	assert.NotNil(t, room.Context)

	got, err := dir.Get(room.Code)
	require.NoError(t, err)
	assert.Same(t, room, got)

	_, err = dir.Get("NOSUCH")
	assert.ErrorIs(t, err, internal.ErrRoomNotFound)
}

func TestDirectory_Remove(t *testing.T) {
	dir := NewDirectory()
	room := dir.Create("short lived")

	dir.Remove(room.Code)

	_, err := dir.Get(room.Code)
	assert.ErrorIs(t, err, internal.ErrRoomNotFound)
}

func TestDirectory_RetriesCodeCollisions(t *testing.T) {
	dir := NewDirectory()
	codes := []string{"AAAAAA", "AAAAAA", "BBBBBB"}
	calls := 0
	dir.genCode = func(int) string {
		code := codes[calls]
		calls++
		return code
	}

	first := dir.Create("one")
	assert.Equal(t, "AAAAAA", first.Code)

	second := dir.Create("two")
	assert.Equal(t, "BBBBBB", second.Code)
	assert.Equal(t, 3, calls)
}

func TestDirectory_PanicsWhenCodesNeverFree(t *testing.T) {
	dir := NewDirectory()
	dir.genCode = func(int) string { return "AAAAAA" }

	dir.Create("one")
	assert.Panics(t, func() { dir.Create("two") })
}

func TestDirectory_OpenRoomsListsJoinableLobbies(t *testing.T) {
	dir := NewDirectory()

	lobbyA := dir.Create("zeta lounge")
	lobbyB := dir.Create("alpha den")

	playing := dir.Create("mid game")
	playing.Mu.Lock()
	playing.Phase = internal.PhaseChallenge
	playing.Mu.Unlock()

	full := dir.Create("packed")
	full.Mu.Lock()
	for i := 0; i < internal.MaxPlayersPerRoom; i++ {
		id := fmt.Sprintf("p%d", i)
		full.Players[id] = &internal.Player{Id: id}
	}
	full.Mu.Unlock()

	open := dir.OpenRooms()

	require.Len(t, open, 2)
	wantCodes := []string{lobbyA.Code, lobbyB.Code}
	slices.Sort(wantCodes)
	assert.Equal(t, wantCodes[0], open[0].Code)
	assert.Equal(t, wantCodes[1], open[1].Code)
	assert.Equal(t, internal.MaxPlayersPerRoom, open[0].MaxPlayers)
	assert.Zero(t, open[0].PlayerCount)
}
