package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/perron-board/perron/internal/classify"
)

// Colors matching output/colors.go
var (
	colorCyan   = lipgloss.Color("6")  // focus
	colorYellow = lipgloss.Color("3")  // platforms, loading
	colorRed    = lipgloss.Color("1")  // delays, errors, trains
	colorGreen  = lipgloss.Color("2")  // trams
	colorBlue   = lipgloss.Color("4")  // buses
	colorWhite  = lipgloss.Color("15") // times, text
	colorGray   = lipgloss.Color("8")  // muted text
)

// Text styles
var (
	styleTime     = lipgloss.NewStyle().Foreground(colorWhite).Bold(true)
	styleDelay    = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	stylePlatform = lipgloss.NewStyle().Foreground(colorYellow)
	styleMuted    = lipgloss.NewStyle().Foreground(colorGray)
	styleHeader   = lipgloss.NewStyle().Foreground(colorWhite).Bold(true)
)

// Transport mode styles, used when a line has no brand color
var (
	styleBus   = lipgloss.NewStyle().Foreground(colorBlue).Bold(true)
	styleTram  = lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
	styleTrain = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
)

// Panel border styles
var (
	stylePanelFocused = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorCyan)

	stylePanelNormal = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorGray)
)

// Selected item in a list
var styleSelected = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)

// Kiosk station title bar
var styleKioskTitle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("0")).
	Background(colorWhite).
	Bold(true).
	Padding(0, 1)

// Kiosk column headings
var styleKioskColumns = lipgloss.NewStyle().
	Foreground(colorGray).
	Underline(true)

// Status bar at the bottom
var styleStatusBar = lipgloss.NewStyle().
	Foreground(colorGray).
	Background(lipgloss.Color("0"))

// Loading indicator
var styleLoading = lipgloss.NewStyle().Foreground(colorYellow).Italic(true)

// Error text
var styleError = lipgloss.NewStyle().Foreground(colorRed)

// Logo/brand style
var styleLogo = lipgloss.NewStyle().Foreground(colorRed).Bold(true)

// lineStyle returns the style for a line label: its brand color if it has
// one, otherwise the color of its transport mode
func lineStyle(class classify.Class) lipgloss.Style {
	if class.HasColor() {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(class.Color)).Bold(true)
	}
	switch class.Mode {
	case classify.ModeBus:
		return styleBus
	case classify.ModeTram:
		return styleTram
	default:
		return styleTrain
	}
}
