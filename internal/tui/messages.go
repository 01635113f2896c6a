package tui

import (
	"time"

	"github.com/perron-board/perron/internal/board"
	"github.com/perron-board/perron/internal/search"
)

// clockTickMsg is sent every second to update the clock and countdown.
type clockTickMsg time.Time

// entryMsg carries a station's board entry from the scheduler.
type entryMsg struct {
	entry board.Entry
}

// sessionMsg carries a search session snapshot from the coordinator.
type sessionMsg struct {
	session search.Session
}
