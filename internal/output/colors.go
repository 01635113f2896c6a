package output

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/perron-board/perron/internal/classify"
)

// ColorMode represents the color output mode
type ColorMode int

const (
	// ColorAuto enables colors if output is a TTY
	ColorAuto ColorMode = iota
	// ColorAlways forces colors on
	ColorAlways
	// ColorNever disables colors
	ColorNever
)

type sprintf func(format string, a ...interface{}) string

// Colors holds the color functions for different output types
type Colors struct {
	Time     sprintf
	Delay    sprintf
	Platform sprintf
	Dest     sprintf
	Error    sprintf
	Header   sprintf
	Muted    sprintf
	Bus      sprintf
	Tram     sprintf
	Train    sprintf

	// brand renders hex line colors; nil when colors are off
	brand *lipgloss.Renderer
}

// NewColors creates a new Colors instance based on the color mode
func NewColors(mode ColorMode) *Colors {
	useColors := false
	switch mode {
	case ColorAlways:
		useColors = true
		color.NoColor = false
	case ColorNever:
		useColors = false
	case ColorAuto:
		useColors = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	}

	if !useColors {
		noColor := func(format string, a ...interface{}) string {
			if len(a) == 0 {
				return format
			}
			return fmt.Sprintf(format, a...)
		}
		return &Colors{
			Time:     noColor,
			Delay:    noColor,
			Platform: noColor,
			Dest:     noColor,
			Error:    noColor,
			Header:   noColor,
			Muted:    noColor,
			Bus:      noColor,
			Tram:     noColor,
			Train:    noColor,
		}
	}

	brand := lipgloss.NewRenderer(os.Stdout)
	brand.SetColorProfile(termenv.TrueColor)

	return &Colors{
		Time:     color.New(color.FgWhite, color.Bold).SprintfFunc(),
		Delay:    color.New(color.FgRed, color.Bold).SprintfFunc(),
		Platform: color.New(color.FgYellow).SprintfFunc(),
		Dest:     color.New(color.FgWhite).SprintfFunc(),
		Error:    color.New(color.FgRed).SprintfFunc(),
		Header:   color.New(color.FgWhite, color.Bold).SprintfFunc(),
		Muted:    color.New(color.FgHiBlack).SprintfFunc(),
		Bus:      color.New(color.FgBlue, color.Bold).SprintfFunc(),
		Tram:     color.New(color.FgGreen, color.Bold).SprintfFunc(),
		Train:    color.New(color.FgRed, color.Bold).SprintfFunc(),
		brand:    brand,
	}
}

// FormatDelay returns "+N min" for a positive delay and "" otherwise
func (c *Colors) FormatDelay(delay int) string {
	if delay <= 0 {
		return ""
	}
	return c.Delay("+%d min", delay)
}

// FormatLine colors a line label by its brand color, falling back to the
// color of its transport mode
func (c *Colors) FormatLine(class classify.Class, label string) string {
	if class.HasColor() && c.brand != nil {
		return c.brand.NewStyle().
			Foreground(lipgloss.Color(class.Color)).
			Bold(true).
			Render(label)
	}

	switch class.Mode {
	case classify.ModeBus:
		return c.Bus("%s", label)
	case classify.ModeTram:
		return c.Tram("%s", label)
	default:
		return c.Train("%s", label)
	}
}

// ParseColorMode parses a color mode string
func ParseColorMode(s string) ColorMode {
	switch s {
	case "always":
		return ColorAlways
	case "never":
		return ColorNever
	default:
		return ColorAuto
	}
}
