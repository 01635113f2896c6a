package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/perron-board/perron/internal/board"
	"github.com/perron-board/perron/internal/search"
)

// Update handles all messages and key events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case entryMsg:
		return m.handleEntry(msg.entry)

	case sessionMsg:
		return m.handleSession(msg.session)

	case clockTickMsg:
		m.now = time.Time(msg)
		return m, clockTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Pass remaining messages to textinput when focused
	if m.focus == focusSearch && m.editable() {
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleEntry(e board.Entry) (tea.Model, tea.Cmd) {
	// Late entries for removed stations are ignored
	if m.registry == nil || !m.registry.Contains(e.Station.ID) {
		return m, nil
	}
	if len(m.stations) != m.registry.Len() {
		m.reloadStations()
	}

	m.entries[e.Station.ID] = e
	if e.State != board.Loading {
		m.lastUpdate = e.UpdatedAt
	}
	return m, nil
}

func (m Model) handleSession(s search.Session) (tea.Model, tea.Cmd) {
	m.session = s
	if m.candidateCursor >= len(s.Candidates) {
		m.candidateCursor = 0
	}
	if s.Results() != search.ResultsList && m.focus == focusResults {
		m.focus = focusSearch
		m.searchInput.Focus()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keys
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	}

	if !m.editable() {
		switch msg.String() {
		case "q", "esc":
			return m, tea.Quit
		case "r":
			m.scheduler.RefreshAll(m.ctx)
		}
		return m, nil
	}

	switch m.focus {
	case focusSearch:
		return m.handleSearchKeys(msg)
	case focusResults:
		return m.handleResultKeys(msg)
	case focusStations:
		return m.handleStationKeys(msg)
	}

	return m, nil
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if m.session.CanConfirm() {
			return m.confirm()
		}
		if m.session.Results() == search.ResultsList {
			m.focus = focusResults
			m.candidateCursor = 0
			m.searchInput.Blur()
		}
		return m, nil

	case "down":
		if m.session.Results() == search.ResultsList {
			m.focus = focusResults
			m.candidateCursor = 0
			m.searchInput.Blur()
		}
		return m, nil

	case "esc":
		if m.session.Results() != search.ResultsHidden {
			m.search.Dismiss()
			m.session = m.search.Session()
			return m, nil
		}
		m.searchInput.SetValue("")
		m.search.Keystroke("")
		m.session = m.search.Session()
		return m, nil

	case "tab", "shift+tab":
		m.focus = focusStations
		m.searchInput.Blur()
		return m, nil
	}

	// Forward to textinput and report the new text as a keystroke
	before := m.searchInput.Value()
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if after := m.searchInput.Value(); after != before {
		m.search.Keystroke(after)
		m.session = m.search.Session()
		m.status = ""
	}
	return m, cmd
}

func (m Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	candidates := m.session.Candidates

	switch msg.String() {
	case "up", "k":
		if m.candidateCursor > 0 {
			m.candidateCursor--
			return m, nil
		}
		m.focus = focusSearch
		m.searchInput.Focus()
		return m, nil

	case "down", "j":
		if m.candidateCursor < len(candidates)-1 {
			m.candidateCursor++
		}
		return m, nil

	case "enter", " ":
		if m.candidateCursor < len(candidates) {
			st := candidates[m.candidateCursor].Station
			m.search.Select(st)
			m.session = m.search.Session()
			m.searchInput.SetValue(st.Name)
			m.searchInput.CursorEnd()
		}
		m.focus = focusSearch
		m.searchInput.Focus()
		return m, nil

	case "esc":
		m.search.Dismiss()
		m.session = m.search.Session()
		m.focus = focusSearch
		m.searchInput.Focus()
		return m, nil

	case "q":
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) handleStationKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "tab", "shift+tab", "/", "esc":
		m.focus = focusSearch
		m.searchInput.Focus()
		return m, nil

	case "up", "k":
		if m.stationCursor > 0 {
			m.stationCursor--
		}
		return m, nil

	case "down", "j":
		if m.stationCursor < len(m.stations)-1 {
			m.stationCursor++
		}
		return m, nil

	case "d", "x", "delete", "backspace":
		return m.removeSelected()

	case "r":
		m.scheduler.RefreshAll(m.ctx)
		m.status = "Refreshing all stations"
		return m, nil
	}

	return m, nil
}

// confirm adds the selected station and starts its first refresh.
func (m Model) confirm() (tea.Model, tea.Cmd) {
	st, ok := m.search.Confirm()
	m.session = m.search.Session()
	if !ok {
		if m.session.Selected != nil {
			m.status = m.session.Selected.Name + " is already on the board"
		}
		return m, nil
	}

	m.searchInput.SetValue("")
	m.reloadStations()
	m.stationCursor = len(m.stations) - 1
	m.status = "Added " + st.Name
	m.scheduler.Refresh(m.ctx, st)
	return m, nil
}

func (m Model) removeSelected() (tea.Model, tea.Cmd) {
	if m.stationCursor >= len(m.stations) {
		return m, nil
	}
	st := m.stations[m.stationCursor]

	if _, err := m.registry.Remove(st.ID); err != nil {
		m.status = "Removed " + st.Name + " (not saved: " + err.Error() + ")"
	} else {
		m.status = "Removed " + st.Name
	}
	delete(m.entries, st.ID)
	m.reloadStations()
	return m, nil
}
