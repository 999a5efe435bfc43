package internal

import (
	"errors"
	"sync"
	"time"
)

var ErrNoConnection = errors.New("player has no live connection")

// Conn is the write side of a player's connection. *websocket.Conn
// satisfies it; tests substitute a recorder.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

type Player struct {
	Id          string `json:"id"`
	Conn        Conn   `json:"-"`
	Room        *Room  `json:"-"` // Avoid circular reference in JSON
	DisplayName string `json:"display_name"`
	Score       int    `json:"score"`

	IsConnected bool      `json:"is_connected"`
	JoinedAt    time.Time `json:"joined_at"`

	// GraceTimer evicts the player if a disconnect outlives the grace
	// window. Armed on drop, stopped on reconnect.
	GraceTimer *time.Timer `json:"-"`

	Mu sync.Mutex `json:"-"`
}

// PlayerSnapshot is the roster view broadcast to clients. HasSubmitted
// and HasVoted are derived from the room's round collections.
type PlayerSnapshot struct {
	Id           string `json:"id"`
	DisplayName  string `json:"display_name"`
	Score        int    `json:"score"`
	IsConnected  bool   `json:"is_connected"`
	HasSubmitted bool   `json:"has_submitted"`
	HasVoted     bool   `json:"has_voted"`
}

// SafeWriteJSON serializes writes so broadcasts from different
// goroutines never interleave frames on one connection.
func (p *Player) SafeWriteJSON(v any) error {
	p.Mu.Lock()
	defer p.Mu.Unlock()
	if p.Conn == nil {
		return ErrNoConnection
	}
	return p.Conn.WriteJSON(v)
}

// AttachConn swaps the live connection in, under the same mutex
// SafeWriteJSON holds while writing.
func (p *Player) AttachConn(conn Conn) {
	p.Mu.Lock()
	p.Conn = conn
	p.Mu.Unlock()
}

// DetachConn clears the connection so late broadcasts fail fast instead
// of writing into a closed socket.
func (p *Player) DetachConn() {
	p.Mu.Lock()
	p.Conn = nil
	p.Mu.Unlock()
}

// ConnIs reports whether conn is still the player's live connection.
// Lets a drop handler for an old socket stand down after a reconnect has
// already swapped a new one in.
func (p *Player) ConnIs(conn Conn) bool {
	p.Mu.Lock()
	defer p.Mu.Unlock()
	return p.Conn == conn
}
