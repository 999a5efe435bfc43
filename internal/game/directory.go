package game

import (
	"context"
	"log"
	"slices"
	"strings"
	"sync"

	"github.com/promptfall/promptfall/internal"
	"github.com/promptfall/promptfall/internal/utils"
)

// =============================================================================
// ROOM DIRECTORY
// =============================================================================

const (
	roomCodeLength = 6
	codeRetryLimit = 32
)

// Directory owns the code -> room mapping. One per server process, owned
// by the top-level composition and injected where needed; rooms never
// reach each other through it.
type Directory struct {
	mu    sync.RWMutex
	rooms map[string]*internal.Room

	// genCode is swappable so collision handling is testable.
	genCode func(int) string
}

func NewDirectory() *Directory {
	return &Directory{
		rooms:   make(map[string]*internal.Room),
		genCode: utils.GenerateCode,
	}
}

// Create allocates a room under a fresh unique code.
func (d *Directory) Create(name string) *internal.Room {
	d.mu.Lock()
	defer d.mu.Unlock()

	var code string
	for i := 0; i < codeRetryLimit; i++ {
		candidate := d.genCode(roomCodeLength)
		if _, taken := d.rooms[candidate]; !taken {
			code = candidate
			break
		}
	}
	if code == "" {
		// 32^6 code space; exhausting the retries means the generator is broken
		log.Panicf("[Create] no unique room code after %d attempts", codeRetryLimit)
	}

	ctx, cancel := context.WithCancel(context.Background())
	room := &internal.Room{
		Code:      code,
		Name:      name,
		Phase:     internal.PhaseLobby,
		Players:   make(map[string]*internal.Player),
		JoinOrder: make([]string, 0),
		Responses: make(map[string]*internal.PlayerResponse),
		Votes:     make(map[string]string),
		Timer:     &internal.GameTimer{IsActive: false},
		Context:   ctx,
		Cancel:    cancel,
	}
	d.rooms[code] = room

	log.Printf("[Create] room=%s name=%q created", code, name)
	return room
}

func (d *Directory) Get(code string) (*internal.Room, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	room, ok := d.rooms[code]
	if !ok {
		return nil, internal.ErrRoomNotFound
	}
	return room, nil
}

func (d *Directory) Remove(code string) {
	d.mu.Lock()
	delete(d.rooms, code)
	d.mu.Unlock()
}

// OpenRooms lists lobby-phase rooms with a free seat for the room
// browser. Sorted by code so the listing is stable across calls.
func (d *Directory) OpenRooms() []internal.RoomSummary {
	d.mu.RLock()
	defer d.mu.RUnlock()

	open := make([]internal.RoomSummary, 0, len(d.rooms))
	for _, room := range d.rooms {
		room.Mu.RLock()
		if room.Phase == internal.PhaseLobby && len(room.Players) < internal.MaxPlayersPerRoom {
			open = append(open, internal.RoomSummary{
				Code:        room.Code,
				Name:        room.Name,
				PlayerCount: len(room.Players),
				MaxPlayers:  internal.MaxPlayersPerRoom,
			})
		}
		room.Mu.RUnlock()
	}

	slices.SortFunc(open, func(a, b internal.RoomSummary) int {
		return strings.Compare(a.Code, b.Code)
	})
	return open
}
