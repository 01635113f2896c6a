package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// clockTick returns a tea.Cmd that sends a tick every second.
func clockTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return clockTickMsg(t)
	})
}
