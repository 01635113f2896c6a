package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/perron-board/perron/internal/board"
	"github.com/perron-board/perron/internal/models"
	"github.com/perron-board/perron/internal/registry"
	"github.com/perron-board/perron/internal/search"
)

type focusPanel int

const (
	focusSearch focusPanel = iota
	focusResults
	focusStations
)

// Config wires the model to the engine.
type Config struct {
	// Context bounds refreshes started from the UI
	Context   context.Context
	Registry  *registry.Registry
	Scheduler *board.Scheduler
	// Search is nil on a kiosk board
	Search   *search.Coordinator
	Kiosk    bool
	Location *time.Location
}

// Model is the root Bubble Tea model for the TUI.
type Model struct {
	ctx       context.Context
	registry  *registry.Registry
	scheduler *board.Scheduler
	search    *search.Coordinator
	kiosk     bool
	location  *time.Location

	width  int
	height int
	now    time.Time

	searchInput textinput.Model
	spinner     spinner.Model
	focus       focusPanel

	// Search results
	session         search.Session
	candidateCursor int

	// Registered stations and their boards
	stations      []models.Station
	entries       map[string]board.Entry
	stationCursor int
	lastUpdate    time.Time

	// One-line feedback after add/remove
	status string
}

// New creates a new TUI model.
func New(cfg Config) Model {
	ti := textinput.New()
	ti.Placeholder = "Search for a station..."
	ti.CharLimit = 100
	ti.Width = 40

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styleLoading

	focus := focusStations
	if !cfg.Kiosk && cfg.Search != nil {
		ti.Focus()
		focus = focusSearch
	}

	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}

	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}

	m := Model{
		ctx:         ctx,
		registry:    cfg.Registry,
		scheduler:   cfg.Scheduler,
		search:      cfg.Search,
		kiosk:       cfg.Kiosk,
		location:    loc,
		now:         time.Now(),
		searchInput: ti,
		spinner:     sp,
		focus:       focus,
		entries:     make(map[string]board.Entry),
	}
	m.reloadStations()
	return m
}

// editable reports whether stations can be searched, added and removed.
func (m Model) editable() bool {
	return !m.kiosk && m.search != nil
}

// reloadStations copies the registry and the known board entries.
func (m *Model) reloadStations() {
	if m.registry == nil {
		return
	}
	m.stations = m.registry.All()

	known := make(map[string]bool, len(m.stations))
	for _, st := range m.stations {
		known[st.ID] = true
	}
	for id := range m.entries {
		if !known[id] {
			delete(m.entries, id)
		}
	}

	if m.stationCursor >= len(m.stations) {
		m.stationCursor = len(m.stations) - 1
	}
	if m.stationCursor < 0 {
		m.stationCursor = 0
	}
}

// entry returns the board entry for a station, Loading if none arrived yet.
func (m Model) entry(st models.Station) board.Entry {
	if e, ok := m.entries[st.ID]; ok {
		return e
	}
	return board.Entry{Station: st, State: board.Loading}
}

// nextRefresh returns the time left until the next scheduled refresh.
func (m Model) nextRefresh() time.Duration {
	if m.scheduler == nil || m.lastUpdate.IsZero() {
		return 0
	}
	left := m.scheduler.Interval() - m.now.Sub(m.lastUpdate)
	if left < 0 {
		return 0
	}
	return left
}

// Init returns the initial commands.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, clockTick()}
	if m.editable() {
		cmds = append(cmds, textinput.Blink)
	}
	return tea.Batch(cmds...)
}
