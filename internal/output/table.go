package output

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/perron-board/perron/internal/board"
	"github.com/perron-board/perron/internal/models"
)

// Messages shown in place of a station's rows
const (
	MsgNoStations = "No stations added yet. Search and add a station above."
	MsgLoading    = "Loading departures..."
	MsgError      = "Error loading departures"
	MsgEmpty      = "No departures found"
)

// TableOptions configures the table output
type TableOptions struct {
	Colors   *Colors
	Kiosk    bool
	Location *time.Location
	// Width bounds kiosk rows; zero means DefaultWidth
	Width int
}

func (o TableOptions) colors() *Colors {
	if o.Colors == nil {
		return NewColors(ColorNever)
	}
	return o.Colors
}

// FormatTime formats a departure time as HH:MM in loc
func FormatTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "--:--"
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format("15:04")
}

// PlatformLabel returns the platform to show, or "-" when unknown
func PlatformLabel(dep *models.Departure) string {
	if p := dep.EffectivePlatform(); p != "" {
		return p
	}
	return "-"
}

// RenderBoard renders every station's board in order
func RenderBoard(w io.Writer, entries []board.Entry, opts TableOptions) {
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, MsgNoStations)
		return
	}

	c := opts.colors()
	for i, e := range entries {
		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}
		if opts.Kiosk {
			_, _ = fmt.Fprintln(w, c.Header("%s", strings.ToUpper(e.Station.Name)))
		} else {
			_, _ = fmt.Fprintln(w, c.Header("%s", e.Station.Name))
		}
		RenderEntry(w, e, opts)
	}
}

// RenderEntry renders one station's rows or the message for its state
func RenderEntry(w io.Writer, e board.Entry, opts TableOptions) {
	c := opts.colors()

	switch {
	case e.State == board.Failed:
		_, _ = fmt.Fprintf(w, "  %s\n", c.Error(MsgError))
		return
	case e.State == board.Loading && len(e.Rows) == 0:
		_, _ = fmt.Fprintf(w, "  %s\n", c.Muted(MsgLoading))
		return
	case e.Empty():
		_, _ = fmt.Fprintf(w, "  %s\n", c.Muted(MsgEmpty))
		return
	}

	if opts.Kiosk {
		renderKioskRows(w, e.Rows, opts)
		return
	}

	for i := range e.Rows {
		row := &e.Rows[i]

		delay := c.FormatDelay(row.DelayMinutes())
		if delay != "" {
			delay = " " + delay
		}

		_, _ = fmt.Fprintf(w, "  %s%s  %s  %s  %s\n",
			c.Time(FormatTime(row.Scheduled, opts.Location)),
			delay,
			c.FormatLine(row.Class, pad(row.Line(), 7)),
			c.Dest("%s", row.Destination),
			c.Platform("Pl. %s", PlatformLabel(&row.Departure)),
		)
	}
}

func renderKioskRows(w io.Writer, rows []board.Row, opts TableOptions) {
	c := opts.colors()

	width := opts.Width
	if width <= 0 {
		width = DefaultWidth
	}
	// time+delay, line and platform take fixed columns, destination gets the rest
	const timeCol, lineCol, platCol = 14, 8, 8
	destCol := width - timeCol - lineCol - platCol - 6
	if destCol < 12 {
		destCol = 12
	}

	_, _ = fmt.Fprintf(w, "  %s  %s  %s  %s\n",
		c.Muted(pad("Time", timeCol)),
		c.Muted(pad("Train", lineCol)),
		c.Muted(pad("Destination", destCol)),
		c.Muted("Platform"),
	)

	for i := range rows {
		row := &rows[i]

		when := FormatTime(row.Scheduled, opts.Location)
		timeCell := c.Time(when)
		if d := row.DelayMinutes(); d > 0 {
			plain := fmt.Sprintf("+%d min", d)
			timeCell += " " + c.FormatDelay(d) + strings.Repeat(" ", max(0, timeCol-len(when)-1-len(plain)))
		} else {
			timeCell += strings.Repeat(" ", max(0, timeCol-len(when)))
		}

		_, _ = fmt.Fprintf(w, "  %s  %s  %s  %s\n",
			timeCell,
			c.FormatLine(row.Class, pad(truncate(row.Line(), lineCol), lineCol)),
			c.Dest("%s", pad(truncate(row.Destination, destCol), destCol)),
			c.Platform("%s", PlatformLabel(&row.Departure)),
		)
	}
}

// RenderCandidates renders station search results
func RenderCandidates(w io.Writer, candidates []models.Candidate, opts TableOptions) {
	if len(candidates) == 0 {
		_, _ = fmt.Fprintln(w, "No stations found.")
		return
	}

	c := opts.colors()

	_, _ = fmt.Fprintln(w, c.Header("Found stations:"))
	_, _ = fmt.Fprintln(w)

	for _, cand := range candidates {
		_, _ = fmt.Fprintf(w, "  %s\n", c.Header("%s", cand.Name))
		_, _ = fmt.Fprintf(w, "    %s %s\n", c.Muted("ID:"), cand.ID)
		if cand.Coordinate != nil {
			_, _ = fmt.Fprintf(w, "    %s %s\n", c.Muted("At:"), FormatCoordinate(cand.Coordinate))
		}
		_, _ = fmt.Fprintf(w, "    %s perron stations add %s\n", c.Muted("Use:"), cand.ID)
		_, _ = fmt.Fprintln(w)
	}
}

// RenderStations renders the registered stations
func RenderStations(w io.Writer, stations []models.Station, opts TableOptions) {
	if len(stations) == 0 {
		_, _ = fmt.Fprintln(w, MsgNoStations)
		return
	}

	c := opts.colors()
	for i, st := range stations {
		_, _ = fmt.Fprintf(w, "%2d. %s  %s\n", i+1, pad(st.Name, 28), c.Muted(st.ID))
	}
}

// FormatCoordinate formats a coordinate the way the lookup returns it
func FormatCoordinate(c *models.Coordinate) string {
	if c == nil {
		return ""
	}
	return fmt.Sprintf("%g, %g", c.X, c.Y)
}

func pad(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	r := []rune(s)
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}
