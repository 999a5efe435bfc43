package ui

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/promptfall/promptfall/internal"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case serverEventMsg:
		return m.handleServerEvent(msg)
	case connClosedMsg:
		m.fatal = "connection to the server was lost"
		return m, tea.Quit
	case sendFailedMsg:
		m.status = "send failed: " + msg.err.Error()
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}
	return m, nil
}

// =============================================================================
// SERVER EVENTS
// =============================================================================

func (m Model) handleServerEvent(msg serverEventMsg) (tea.Model, tea.Cmd) {
	event := msg.event

	switch event.Type {
	case "connected":
		var data internal.ConnectedData
		if err := json.Unmarshal(event.Data, &data); err == nil {
			m.playerId = data.PlayerId
		}

	case "room_joined":
		var data internal.RoomJoinedData
		if err := json.Unmarshal(event.Data, &data); err == nil {
			m.playerId = data.PlayerId
			m.room = data.Room
			m.screen = screenRoom
			m.mode = modeNone
			m.input = ""
			m.syncSelf()
			m.status = "in room " + m.room.Code
		}

	case "room_snapshot":
		var snap internal.RoomSnapshot
		if err := json.Unmarshal(event.Data, &snap); err == nil {
			m.room = snap
			m.syncSelf()
		}

	case "phase_changed":
		var data internal.PhaseChangedData
		if err := json.Unmarshal(event.Data, &data); err == nil {
			m.applyPhase(data)
		}

	case "timer_update":
		var data internal.TimerUpdateData
		if err := json.Unmarshal(event.Data, &data); err == nil {
			m.timeLeftMs = data.TimeRemaining
		}

	case "player_joined":
		var data internal.PlayerJoinedData
		if err := json.Unmarshal(event.Data, &data); err == nil {
			m.status = data.DisplayName + " joined"
		}

	case "player_left":
		var data internal.PlayerLeftData
		if err := json.Unmarshal(event.Data, &data); err == nil {
			m.status = data.DisplayName + " left"
			if data.Reason == "timeout" {
				m.status = data.DisplayName + " timed out"
			}
		}

	case "draft_ready":
		var data internal.DraftReadyData
		if err := json.Unmarshal(event.Data, &data); err == nil {
			if m.room.Phase == internal.PhaseChallenge && !m.submitted {
				m.input = data.Text
				m.mode = modeResponse
				m.status = "draft ready (" + data.Source + "), edit and enter to submit"
			}
		}

	case "action_rejected":
		var data internal.ActionRejectedData
		if err := json.Unmarshal(event.Data, &data); err == nil {
			m.status = "rejected: " + data.Reason
			if data.Detail != "" {
				m.status += " (" + data.Detail + ")"
			}
		}

	case "room_closed":
		m.screen = screenMenu
		m.mode = modeNone
		m.input = ""
		m.room = internal.RoomSnapshot{}
		m.status = "the room closed"

	case "room_list":
		var data internal.RoomListData
		if err := json.Unmarshal(event.Data, &data); err == nil {
			m.rooms = data.Rooms
			m.screen = screenBrowse
			m.status = fmt.Sprintf("%d open room(s)", len(m.rooms))
		}
	}

	return m, waitForServerEvent(m.client)
}

// syncSelf refreshes this player's flags from the latest snapshot.
func (m *Model) syncSelf() {
	for _, player := range m.room.Players {
		if player.Id == m.playerId {
			m.submitted = player.HasSubmitted
			m.voted = player.HasVoted
			return
		}
	}
}

func (m *Model) applyPhase(data internal.PhaseChangedData) {
	m.room.Phase = data.Phase
	m.room.RoundNumber = data.RoundNumber

	switch data.Phase {
	case internal.PhaseChallenge:
		m.input = ""
		m.mode = modeResponse
		m.submitted = false
		m.voted = false
		m.status = fmt.Sprintf("round %d: write your response (tab for a draft)", data.RoundNumber)
	case internal.PhaseVoting:
		m.input = ""
		m.mode = modeNone
		m.status = "vote: press the number of your favorite response"
	case internal.PhaseResults:
		m.mode = modeNone
		m.timeLeftMs = 0
		m.status = "results are in. enter: next round, e: end game"
	case internal.PhaseLobby:
		m.mode = modeNone
		m.timeLeftMs = 0
		m.status = "back in the lobby"
	}
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.screen {
	case screenMenu:
		return m.handleMenuKey(key)
	case screenBrowse:
		return m.handleBrowseKey(key)
	case screenRoom:
		return m.handleRoomKey(key)
	}
	return m, nil
}

func (m Model) handleMenuKey(key string) (tea.Model, tea.Cmd) {
	if m.mode == modeNone {
		switch key {
		case "q":
			return m, tea.Quit
		case "n":
			m.mode = modeName
			m.input = m.displayName
			m.status = "type your name, enter to confirm"
		case "c":
			m.mode = modeRoomName
			m.input = ""
			m.status = "name your room, enter to create"
		case "j":
			m.mode = modeJoinCode
			m.input = ""
			m.status = "type the room code, enter to join"
		case "b":
			return m, sendIntent(m.client.ListRooms)
		}
		return m, nil
	}

	switch key {
	case "enter":
		return m.confirmMenuInput()
	case "esc":
		m.mode = modeNone
		m.input = ""
	case "backspace":
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
	default:
		if len(key) == 1 {
			m.input += key
		}
	}
	return m, nil
}

func (m Model) confirmMenuInput() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.input)
	mode := m.mode
	m.mode = modeNone
	m.input = ""

	switch mode {
	case modeName:
		m.displayName = value
		m.status = "name set"
		return m, nil
	case modeRoomName:
		name, roomName := m.displayName, value
		return m, sendIntent(func() error { return m.client.CreateRoom(name, roomName) })
	case modeJoinCode:
		code := strings.ToUpper(value)
		name := m.displayName
		return m, sendIntent(func() error { return m.client.JoinRoom(code, name, "") })
	}
	return m, nil
}

func (m Model) handleBrowseKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "esc", "q":
		m.screen = screenMenu
		return m, nil
	case "r":
		return m, sendIntent(m.client.ListRooms)
	}

	if idx, err := strconv.Atoi(key); err == nil && idx >= 1 && idx <= len(m.rooms) {
		code := m.rooms[idx-1].Code
		name := m.displayName
		return m, sendIntent(func() error { return m.client.JoinRoom(code, name, "") })
	}
	return m, nil
}

func (m Model) handleRoomKey(key string) (tea.Model, tea.Cmd) {
	if m.mode == modeName {
		return m.handleRenameKey(key)
	}

	if key == "esc" {
		m.screen = screenMenu
		m.mode = modeNone
		m.input = ""
		m.room = internal.RoomSnapshot{}
		m.status = "left the room"
		return m, sendIntent(m.client.LeaveRoom)
	}

	switch m.room.Phase {
	case internal.PhaseLobby:
		switch key {
		case "s":
			return m, sendIntent(m.client.StartGame)
		case "n":
			m.mode = modeName
			m.input = m.displayName
			m.status = "type a new name, enter to confirm"
		}

	case internal.PhaseChallenge:
		if m.submitted {
			return m, nil
		}
		switch key {
		case "enter":
			text := strings.TrimSpace(m.input)
			if text == "" {
				m.status = "write something first"
				return m, nil
			}
			m.input = ""
			return m, sendIntent(func() error { return m.client.SubmitResponse(text) })
		case "tab":
			m.status = "drafting..."
			return m, sendIntent(m.client.GenerateDraft)
		case "backspace":
			if len(m.input) > 0 {
				m.input = m.input[:len(m.input)-1]
			}
		default:
			if len(key) == 1 {
				m.input += key
			}
		}

	case internal.PhaseVoting:
		if m.voted {
			return m, nil
		}
		if idx, err := strconv.Atoi(key); err == nil && idx >= 1 && idx <= len(m.room.Responses) {
			choice := m.room.Responses[idx-1]
			if choice.PlayerId == m.playerId {
				m.status = "you cannot vote for your own response"
				return m, nil
			}
			target := choice.PlayerId
			return m, sendIntent(func() error { return m.client.CastVote(target) })
		}

	case internal.PhaseResults:
		switch key {
		case "enter":
			return m, sendIntent(m.client.ContinueGame)
		case "e":
			return m, sendIntent(m.client.EndGame)
		}
	}
	return m, nil
}

func (m Model) handleRenameKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "enter":
		name := strings.TrimSpace(m.input)
		m.mode = modeNone
		m.input = ""
		if name == "" {
			return m, nil
		}
		m.displayName = name
		return m, sendIntent(func() error { return m.client.SetName(name) })
	case "esc":
		m.mode = modeNone
		m.input = ""
	case "backspace":
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
	default:
		if len(key) == 1 {
			m.input += key
		}
	}
	return m, nil
}
