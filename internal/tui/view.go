package tui

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/perron-board/perron/internal/board"
	"github.com/perron-board/perron/internal/output"
	"github.com/perron-board/perron/internal/search"
)

// View renders the entire TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	if m.kiosk {
		return m.renderKiosk()
	}

	// Layout: header + search bar + results + stations + status bar
	header := renderHeader()
	statusBar := m.renderStatusBar()
	parts := []string{header}

	if m.editable() {
		parts = append(parts, m.renderSearchBar())
		if results := m.renderResults(); results != "" {
			parts = append(parts, results)
		}
	}

	used := lipgloss.Height(statusBar)
	for _, p := range parts {
		used += lipgloss.Height(p)
	}
	panelHeight := m.height - used
	if panelHeight < 3 {
		panelHeight = 3
	}

	border := stylePanelNormal
	if m.focus == focusStations {
		border = stylePanelFocused
	}
	panel := border.
		Width(m.width - 2).
		Height(panelHeight - 2).
		Render(m.renderStations(m.width-4, panelHeight-2))

	parts = append(parts, panel, statusBar)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderHeader renders the brand name and tagline.
func renderHeader() string {
	logo := "" +
		" ___  ___ _ _ _ _ ___ _ _ \n" +
		"| . \\/ ._> '_> '_> . \\ ' |\n" +
		"|  _/\\___|_| |_| \\___/_|_|\n" +
		"|_|                       "

	styledLogo := styleLogo.Render(logo)
	tagline := styleMuted.Render("departures from transport.opendata.ch")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, styledLogo, "  ", tagline)
}

// renderSearchBar renders the search input at the top.
func (m Model) renderSearchBar() string {
	border := stylePanelNormal
	if m.focus == focusSearch {
		border = stylePanelFocused
	}

	label := styleHeader.Render("Search: ")
	content := label + m.searchInput.View()
	if m.session.State == search.Pending {
		content += " " + m.spinner.View()
	}

	return border.Width(m.width - 2).Render(content)
}

// renderResults renders the candidate list below the search bar, or
// nothing when results are hidden.
func (m Model) renderResults() string {
	var body string
	switch m.session.Results() {
	case search.ResultsHidden:
		return ""
	case search.ResultsError:
		body = styleError.Render(" Error searching stations")
	case search.ResultsEmpty:
		body = styleMuted.Render(" No stations found")
	case search.ResultsList:
		body = m.renderCandidates(m.width - 4)
	}

	border := stylePanelNormal
	if m.focus == focusResults {
		border = stylePanelFocused
	}
	return border.Width(m.width - 2).Render(body)
}

const maxCandidates = 8

func (m Model) renderCandidates(width int) string {
	candidates := m.session.Candidates
	start, end := visibleRange(m.candidateCursor, len(candidates), maxCandidates)

	var b strings.Builder
	for i := start; i < end; i++ {
		c := candidates[i]
		line := truncate(c.Name, width-24)
		if c.Coordinate != nil {
			line += "  " + styleMuted.Render(output.FormatCoordinate(c.Coordinate))
		}
		if m.registry != nil && m.registry.Contains(c.ID) {
			line += "  " + styleMuted.Render("(added)")
		}

		if i == m.candidateCursor && m.focus == focusResults {
			b.WriteString(styleSelected.Render(" > ") + line)
		} else {
			b.WriteString("   " + line)
		}
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderStations renders one card per registered station.
func (m Model) renderStations(width, height int) string {
	title := styleHeader.Render("STATIONS")
	if len(m.stations) == 0 {
		return title + "\n" + styleMuted.Render(" "+output.MsgNoStations)
	}

	// Each card: name line, rows, blank separator
	cardHeight := m.rowLimit() + 2
	maxVisible := (height - 2) / cardHeight
	if maxVisible < 1 {
		maxVisible = 1
	}
	start, end := visibleRange(m.stationCursor, len(m.stations), maxVisible)

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")

	for i := start; i < end; i++ {
		selected := i == m.stationCursor && m.focus == focusStations
		b.WriteString(m.renderCard(m.entry(m.stations[i]), width, selected))
		if i < end-1 {
			b.WriteString("\n\n")
		}
	}

	if footer := m.renderFooter(); footer != "" {
		b.WriteString("\n\n")
		b.WriteString(footer)
	}

	return b.String()
}

func (m Model) rowLimit() int {
	if m.scheduler == nil {
		return board.DefaultLimit
	}
	return m.scheduler.Limit()
}

// renderCard renders a station name followed by its departures or a
// state message.
func (m Model) renderCard(e board.Entry, width int, selected bool) string {
	name := truncate(e.Station.Name, width-4)
	var b strings.Builder
	if selected {
		b.WriteString(styleSelected.Render(" > " + name))
	} else {
		b.WriteString("   " + styleHeader.Render(name))
	}

	switch {
	case e.State == board.Loading && len(e.Rows) == 0:
		b.WriteString("\n   " + m.spinner.View() + styleLoading.Render(output.MsgLoading))
		return b.String()
	case e.State == board.Failed:
		b.WriteString("\n   " + styleError.Render(output.MsgError))
		return b.String()
	case e.Empty():
		b.WriteString("\n   " + styleMuted.Render(output.MsgEmpty))
		return b.String()
	}

	for _, row := range e.Rows {
		b.WriteString("\n   ")
		b.WriteString(m.renderRow(row, width-3))
	}
	return b.String()
}

// renderRow renders a single departure: time, delay, line, destination
// and platform.
func (m Model) renderRow(row board.Row, width int) string {
	timeStr := output.FormatTime(row.Scheduled, m.location)

	delay := "       "
	if d := row.DelayMinutes(); d > 0 {
		delay = styleDelay.Render(fmt.Sprintf("%-7s", fmt.Sprintf("+%d min", d)))
	}

	line := lineStyle(row.Class).Render(fmt.Sprintf("%-6s", truncate(row.Line(), 6)))
	platform := stylePlatform.Render("Pl. " + output.PlatformLabel(&row.Departure))

	// time + sp + delay + sp + line + sp + sp + "Pl. xxx"
	fixed := 5 + 1 + 7 + 1 + 6 + 2 + 8
	room := width - fixed
	if room < 10 {
		room = 10
	}
	dest := fmt.Sprintf("%-*s", room, truncate(row.Destination, room))

	return fmt.Sprintf("%s %s %s  %s%s",
		styleTime.Render(timeStr),
		delay,
		line,
		dest,
		platform,
	)
}

// renderFooter renders the refresh interval and a countdown.
func (m Model) renderFooter() string {
	if m.scheduler == nil {
		return ""
	}
	text := fmt.Sprintf("Auto-refreshes every %d seconds", int(m.scheduler.Interval()/time.Second))
	if left := m.nextRefresh(); left > 0 {
		text += fmt.Sprintf(" (next in %ds)", int(left.Round(time.Second)/time.Second))
	}
	return styleMuted.Render(" " + text)
}

// renderStatusBar renders context-aware keyboard hints at the bottom.
func (m Model) renderStatusBar() string {
	var hints string
	switch {
	case !m.editable():
		hints = "r:refresh  q:quit"
	case m.focus == focusSearch:
		hints = "Type to search  Enter:add  Down:results  Tab:stations  Esc:clear  Ctrl+C:quit"
	case m.focus == focusResults:
		hints = "j/k:navigate  Enter:select  Esc:close  q:quit"
	case m.focus == focusStations:
		hints = "j/k:navigate  d:remove  r:refresh  Tab:search  q:quit"
	}

	if m.status != "" {
		hints = m.status + "  |  " + hints
	}
	return styleStatusBar.Width(m.width).Render(" " + hints)
}

// Kiosk column widths
const (
	kioskTimeWidth     = 5
	kioskLineWidth     = 8
	kioskPlatformWidth = 8
)

// renderKiosk renders the large read-only board.
func (m Model) renderKiosk() string {
	var b strings.Builder

	clock := styleTime.Render(m.now.In(m.location).Format("15:04:05"))
	title := styleLogo.Render("DEPARTURES")
	gap := m.width - lipgloss.Width(title) - lipgloss.Width(clock) - 2
	if gap < 1 {
		gap = 1
	}
	b.WriteString(" " + title + strings.Repeat(" ", gap) + clock + "\n")

	if len(m.stations) == 0 {
		b.WriteString("\n " + styleMuted.Render(output.MsgNoStations))
		return b.String()
	}

	for _, st := range m.stations {
		e := m.entry(st)
		b.WriteString("\n")
		b.WriteString(styleKioskTitle.Render(strings.ToUpper(st.Name)))
		b.WriteString("\n")

		switch {
		case e.State == board.Loading && len(e.Rows) == 0:
			b.WriteString(" " + m.spinner.View() + styleLoading.Render(output.MsgLoading) + "\n")
			continue
		case e.State == board.Failed:
			b.WriteString(" " + styleError.Render(output.MsgError) + "\n")
			continue
		case e.Empty():
			b.WriteString(" " + styleMuted.Render(output.MsgEmpty) + "\n")
			continue
		}

		destWidth := m.width - kioskTimeWidth - kioskLineWidth - kioskPlatformWidth - 5
		if destWidth < 10 {
			destWidth = 10
		}

		heading := fmt.Sprintf(" %-*s %-*s %-*s %s",
			kioskTimeWidth, "Time",
			kioskLineWidth, "Train",
			destWidth, "Destination",
			"Platform")
		b.WriteString(styleKioskColumns.Render(heading) + "\n")

		for _, row := range e.Rows {
			timeStr := output.FormatTime(row.Scheduled, m.location)
			line := lineStyle(row.Class).Render(fmt.Sprintf("%-*s", kioskLineWidth, truncate(row.Line(), kioskLineWidth)))
			dest := fmt.Sprintf("%-*s", destWidth, truncate(row.Destination, destWidth))
			platform := stylePlatform.Render(output.PlatformLabel(&row.Departure))

			b.WriteString(fmt.Sprintf(" %s %s %s %s", styleTime.Render(timeStr), line, dest, platform))
			if d := row.DelayMinutes(); d > 0 {
				b.WriteString(" " + styleDelay.Render(fmt.Sprintf("+%d min", d)))
			}
			b.WriteString("\n")
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// visibleRange calculates the start and end indices for a scrollable list.
func visibleRange(cursor, total, maxVisible int) (int, int) {
	if total <= maxVisible {
		return 0, total
	}

	start := cursor - maxVisible/2
	if start < 0 {
		start = 0
	}
	end := start + maxVisible
	if end > total {
		end = total
		start = end - maxVisible
		if start < 0 {
			start = 0
		}
	}
	return start, end
}

// truncate shortens s to width runes, marking the cut with "…".
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	if width == 1 {
		return string(runes[:1])
	}
	return string(runes[:width-1]) + "…"
}
