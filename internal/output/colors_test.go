package output

import (
	"testing"

	"github.com/fatih/color"
	"github.com/perron-board/perron/internal/classify"
	"github.com/perron-board/perron/internal/testutil"
)

func TestParseColorMode(t *testing.T) {
	tests := []struct {
		input string
		want  ColorMode
	}{
		{"always", ColorAlways},
		{"never", ColorNever},
		{"auto", ColorAuto},
		{"", ColorAuto},
		{"invalid", ColorAuto},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			testutil.AssertEqual(t, ParseColorMode(tt.input), tt.want)
		})
	}
}

func TestNewColors_NeverMode(t *testing.T) {
	oldNoColor := color.NoColor
	defer func() { color.NoColor = oldNoColor }()
	color.NoColor = true

	c := NewColors(ColorNever)

	testutil.AssertEqual(t, c.Time("15:04"), "15:04")
	testutil.AssertEqual(t, c.Platform("7"), "7")
	testutil.AssertEqual(t, c.Dest("Uster"), "Uster")
	testutil.AssertEqual(t, c.Error("failed"), "failed")
	testutil.AssertEqual(t, c.Header("Zürich HB"), "Zürich HB")
	testutil.AssertEqual(t, c.Muted("8503000"), "8503000")
	testutil.AssertEqual(t, c.Bus("%s", "B 31"), "B 31")
}

func TestNewColors_AlwaysMode(t *testing.T) {
	oldNoColor := color.NoColor
	defer func() { color.NoColor = oldNoColor }()

	c := NewColors(ColorAlways)

	result := c.Time("15:04")
	testutil.AssertContains(t, result, "\033[")
	testutil.AssertContains(t, result, "15:04")
}

func TestFormatDelay(t *testing.T) {
	c := NewColors(ColorNever)

	testutil.AssertEqual(t, c.FormatDelay(0), "")
	testutil.AssertEqual(t, c.FormatDelay(-3), "")
	testutil.AssertEqual(t, c.FormatDelay(2), "+2 min")
	testutil.AssertEqual(t, c.FormatDelay(15), "+15 min")
}

func TestFormatLine_NoColor(t *testing.T) {
	c := NewColors(ColorNever)

	got := c.FormatLine(classify.Classify("T", "2"), "T 2")
	testutil.AssertEqual(t, got, "T 2")
}

func TestFormatLine_BrandColor(t *testing.T) {
	oldNoColor := color.NoColor
	defer func() { color.NoColor = oldNoColor }()

	c := NewColors(ColorAlways)

	// #ed1c24 is 237,28,36
	got := c.FormatLine(classify.Classify("T", "2"), "T 2")
	testutil.AssertContains(t, got, "T 2")
	testutil.AssertContains(t, got, "237;28;36")
}

func TestFormatLine_ModeFallback(t *testing.T) {
	oldNoColor := color.NoColor
	defer func() { color.NoColor = oldNoColor }()

	c := NewColors(ColorAlways)

	got := c.FormatLine(classify.Classify("B", "31"), "B 31")
	testutil.AssertContains(t, got, "B 31")
	testutil.AssertContains(t, got, "\033[")
	testutil.AssertNotContains(t, got, "38;2;")
}
