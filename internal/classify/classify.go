// Package classify maps a line's transport category and number to the
// transport mode and brand color shown on the board.
package classify

import "strings"

// Mode is the visual transport bucket of a line
type Mode string

const (
	ModeBus   Mode = "bus"
	ModeTram  Mode = "tram"
	ModeTrain Mode = "train"
)

// Class is the result of classifying a line. Color is a hex string, empty
// when the line has no brand color.
type Class struct {
	Mode  Mode   `json:"mode"`
	Color string `json:"color,omitempty"`
}

// HasColor reports whether the line has a brand color
func (c Class) HasColor() bool {
	return c.Color != ""
}

// busCategories are operator codes the service uses for buses
var busCategories = map[string]bool{
	"b":   true,
	"bvb": true,
	"nfb": true,
}

// longDistanceCategories are rail products without a per-line color
var longDistanceCategories = map[string]bool{
	"ic":  true,
	"ir":  true,
	"ice": true,
	"re":  true,
	"ec":  true,
}

// tramColors follows the official VBZ network map 2025. Shared colors are
// intentional.
var tramColors = map[string]string{
	"2":  "#ed1c24", // red
	"3":  "#00ac4f", // dark green
	"4":  "#49479d", // dark blue / violet
	"5":  "#956438", // brown
	"6":  "#d99f4f", // golden
	"7":  "#231f20", // black
	"8":  "#a6ce39", // light green
	"9":  "#49479d", // same as 4
	"10": "#ee3897", // pink
	"11": "#00ac4f", // same as 3
	"12": "#7ad0e2", // light blue
	"13": "#ffd503", // yellow
	"14": "#00aeef", // sky blue
	"15": "#ed1c24", // same as 2
	"17": "#9e1762", // plum
	"20": "#9e1762", // same as 17
	"50": "#000000", // temporary line
	"51": "#000000", // temporary line
}

// sbahnColors follows the official ZVV network map
var sbahnColors = map[string]string{
	"2":  "#7DC242",
	"3":  "#587AC2",
	"4":  "#EE7267",
	"5":  "#64A8CA",
	"6":  "#734B89",
	"7":  "#FBB402",
	"8":  "#62198F",
	"9":  "#069A5D",
	"10": "#FBCF02",
	"11": "#CCAAFF",
	"12": "#EF0503",
	"13": "#BA8C53",
	"14": "#AC6547",
	"15": "#BB9977",
	"16": "#4FAD82",
	"17": "#0F89AB",
	"18": "#EE1C23",
	"19": "#F08513",
	"20": "#C44F97",
	"21": "#A3CCEE",
	"23": "#A1C854",
	"24": "#BA8C53", // same as S13
	"25": "#B80E80",
	"26": "#0F89AB", // same as S17
	"29": "#069A5D", // same as S9
	"30": "#0B5A9C",
	"33": "#7C93CE",
	"35": "#ACBCE7",
	"36": "#D181B5",
	"40": "#B793C9",
	"41": "#F2B49B",
	"42": "#9A6B31",
}

// Classify returns the mode and optional color for a line. The category is
// matched case-insensitively; the line number is trimmed and matched
// literally, so "09" and "9" are different lines.
func Classify(category, lineNumber string) Class {
	cat := strings.ToLower(category)
	line := strings.TrimSpace(lineNumber)

	switch {
	case strings.Contains(cat, "bus") || busCategories[cat]:
		return Class{Mode: ModeBus}
	case strings.Contains(cat, "tram") || cat == "t":
		return Class{Mode: ModeTram, Color: tramColors[line]}
	case cat == "s":
		return Class{Mode: ModeTrain, Color: sbahnColors[line]}
	case longDistanceCategories[cat]:
		return Class{Mode: ModeTrain}
	default:
		return Class{Mode: ModeTrain}
	}
}
