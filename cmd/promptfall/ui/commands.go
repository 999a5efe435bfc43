package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/promptfall/promptfall/internal/client"
)

// waitForServerEvent hands the next server event to Update. Re-issued
// after every event so the stream keeps flowing through the program.
func waitForServerEvent(c *client.Client) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-c.Events
		if !ok {
			return connClosedMsg{}
		}
		return serverEventMsg{event: event}
	}
}

// sendIntent runs one client call off the update loop.
func sendIntent(send func() error) tea.Cmd {
	return func() tea.Msg {
		if err := send(); err != nil {
			return sendFailedMsg{err: err}
		}
		return nil
	}
}
