package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/promptfall/promptfall/internal"
)

func (m Model) View() string {
	if m.fatal != "" {
		return "\n  " + m.fatal + "\n"
	}

	switch m.screen {
	case screenBrowse:
		return m.viewBrowse()
	case screenRoom:
		return m.viewRoom()
	default:
		return m.viewMenu()
	}
}

func (m Model) viewMenu() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true).
		Padding(1, 0, 1, 2)

	hintStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("7")).
		PaddingLeft(2)

	var b strings.Builder
	b.WriteString(titleStyle.Render("PROMPTFALL"))
	b.WriteString("\n")

	name := m.displayName
	if name == "" {
		name = "(not set)"
	}
	b.WriteString(hintStyle.Render("name: "+name) + "\n\n")
	b.WriteString(hintStyle.Render("n  set your name") + "\n")
	b.WriteString(hintStyle.Render("c  create a room") + "\n")
	b.WriteString(hintStyle.Render("j  join by code") + "\n")
	b.WriteString(hintStyle.Render("b  browse open rooms") + "\n")
	b.WriteString(hintStyle.Render("q  quit") + "\n")

	if m.mode != modeNone {
		label := ""
		switch m.mode {
		case modeName:
			label = "your name"
		case modeRoomName:
			label = "room name"
		case modeJoinCode:
			label = "room code"
		}
		b.WriteString("\n" + m.renderInputBox(label))
	}

	b.WriteString("\n" + m.renderStatus())
	return b.String()
}

func (m Model) viewBrowse() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true).
		Padding(1, 0, 1, 2)

	rowStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("7")).
		PaddingLeft(2)

	var b strings.Builder
	b.WriteString(titleStyle.Render("OPEN ROOMS"))
	b.WriteString("\n")

	if len(m.rooms) == 0 {
		b.WriteString(rowStyle.Render("no open rooms right now") + "\n")
	}
	for i, room := range m.rooms {
		line := fmt.Sprintf("%d) %s  %s  %d/%d", i+1, room.Code, room.Name, room.PlayerCount, room.MaxPlayers)
		b.WriteString(rowStyle.Render(line) + "\n")
	}

	b.WriteString("\n" + rowStyle.Render("number: join, r: refresh, esc: back") + "\n")
	b.WriteString("\n" + m.renderStatus())
	return b.String()
}

func (m Model) viewRoom() string {
	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true).
		PaddingLeft(1)

	panelStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(0, 1)

	header := fmt.Sprintf("%s  %s  [%s]", m.room.Code, m.room.Name, m.room.Phase)
	if m.room.RoundNumber > 0 {
		header += fmt.Sprintf("  round %d", m.room.RoundNumber)
	}
	if m.timeLeftMs > 0 {
		header += fmt.Sprintf("  %ds", (m.timeLeftMs+999)/1000)
	}

	roster := panelStyle.Render(m.renderRoster())
	phase := panelStyle.Render(m.renderPhase())

	var b strings.Builder
	b.WriteString("\n" + headerStyle.Render(header) + "\n")
	b.WriteString(roster + "\n")
	b.WriteString(phase + "\n")
	b.WriteString(m.renderStatus())
	return b.String()
}

// =============================================================================
// PANELS
// =============================================================================

func (m Model) renderRoster() string {
	selfStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	var b strings.Builder
	for i, player := range m.room.Players {
		marker := "○"
		if player.IsConnected {
			marker = "●"
		}

		mark := ""
		switch m.room.Phase {
		case internal.PhaseChallenge:
			if player.HasSubmitted {
				mark = " ✓"
			}
		case internal.PhaseVoting:
			if player.HasVoted {
				mark = " ✓"
			}
		}

		line := fmt.Sprintf("%s %-16s %3d pts%s", marker, player.DisplayName, player.Score, mark)
		if player.Id == m.playerId {
			line = selfStyle.Render(line + "  (you)")
		}
		b.WriteString(line)
		if i < len(m.room.Players)-1 {
			b.WriteString("\n")
		}
	}
	if len(m.room.Players) == 0 {
		b.WriteString("nobody here")
	}
	return b.String()
}

func (m Model) renderPhase() string {
	promptStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11")).
		Bold(true)

	dimStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8"))

	var b strings.Builder

	switch m.room.Phase {
	case internal.PhaseLobby:
		b.WriteString(fmt.Sprintf("%d player(s) in the lobby\n", len(m.room.Players)))
		if m.mode == modeName {
			b.WriteString(m.renderInputBox("new name") + "\n")
		}
		b.WriteString(dimStyle.Render("s: start game, n: rename, esc: leave"))

	case internal.PhaseChallenge:
		if m.room.Challenge != nil {
			b.WriteString(promptStyle.Render(m.room.Challenge.Text) + "\n")
			b.WriteString(dimStyle.Render(m.room.Challenge.Category) + "\n\n")
		}
		if m.submitted {
			b.WriteString(fmt.Sprintf("submitted, waiting on the others (%d/%d in)", m.room.ResponsesSubmitted, len(m.room.Players)))
		} else {
			b.WriteString(m.renderInputBox("your response"))
			b.WriteString("\n" + dimStyle.Render("enter: submit, tab: ai draft"))
		}

	case internal.PhaseVoting:
		if m.room.Challenge != nil {
			b.WriteString(dimStyle.Render(m.room.Challenge.Text) + "\n\n")
		}
		for i, response := range m.room.Responses {
			line := fmt.Sprintf("%d) %s\n   %s", i+1, response.PlayerName, response.Text)
			if response.PlayerId == m.playerId {
				line += dimStyle.Render("  (yours)")
			}
			b.WriteString(line + "\n")
		}
		if m.voted {
			b.WriteString(fmt.Sprintf("\nvoted (%d/%d in)", m.room.VotesCast, len(m.room.Players)))
		} else {
			b.WriteString("\n" + dimStyle.Render("press a number to vote"))
		}

	case internal.PhaseResults:
		for _, result := range m.room.Results {
			b.WriteString(fmt.Sprintf("%d. %-16s %d vote(s)  %d pts total\n", result.Rank, result.PlayerName, result.VoteCount, result.TotalScore))
		}
		b.WriteString(dimStyle.Render("enter: next round, e: end game"))

	default:
		b.WriteString("...")
	}
	return b.String()
}

// =============================================================================
// SHARED PIECES
// =============================================================================

func (m Model) renderInputBox(label string) string {
	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("7")).
		PaddingLeft(1)

	width := m.width - 6
	if width < 20 {
		width = 20
	}

	inputStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(0, 1).
		Width(width)

	return labelStyle.Render(label) + "\n" + inputStyle.Render(m.input+"│")
}

func (m Model) renderStatus() string {
	statusStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11")).
		PaddingLeft(1)

	if m.status == "" {
		return ""
	}
	return statusStyle.Render(m.status) + "\n"
}
