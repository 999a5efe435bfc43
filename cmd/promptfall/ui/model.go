package ui

import (
	"encoding/json"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/promptfall/promptfall/internal"
	"github.com/promptfall/promptfall/internal/client"
)

type screen int

const (
	screenMenu screen = iota
	screenBrowse
	screenRoom
)

// inputMode says what the text being typed is for.
type inputMode int

const (
	modeNone inputMode = iota
	modeName
	modeRoomName
	modeJoinCode
	modeResponse
)

type Model struct {
	client *client.Client

	screen screen
	mode   inputMode
	input  string

	displayName string
	playerId    string

	room  internal.RoomSnapshot
	rooms []internal.RoomSummary

	// submitted and voted mirror the server's view of this player,
	// refreshed from every room snapshot.
	submitted bool
	voted     bool

	timeLeftMs int64
	status     string
	fatal      string

	width  int
	height int
}

func NewModel(c *client.Client) Model {
	return Model{
		client: c,
		screen: screenMenu,
		mode:   modeNone,
		status: "welcome to promptfall",
	}
}

func (m Model) Init() tea.Cmd {
	return waitForServerEvent(m.client)
}

// serverEventMsg carries one decoded frame from the server stream.
type serverEventMsg struct {
	event internal.Message[json.RawMessage]
}

// connClosedMsg means the server stream ended.
type connClosedMsg struct{}

// sendFailedMsg reports a failed outbound intent.
type sendFailedMsg struct {
	err error
}
