package output

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ColorScheme defines the colors used for the fields of a snapshot line
type ColorScheme struct {
	Element *color.Color
	Label   *color.Color
	Rate    *color.Color
	Mean    *color.Color
	CPULow  *color.Color
	CPUWarn *color.Color
	CPUHigh *color.Color
	Total   *color.Color
}

// DefaultColorScheme returns the default color scheme
func DefaultColorScheme() *ColorScheme {
	return &ColorScheme{
		Element: color.New(color.FgMagenta, color.Bold),
		Label:   color.New(color.Faint),
		Rate:    color.New(color.FgCyan, color.Bold),
		Mean:    color.New(color.FgBlue),
		CPULow:  color.New(color.FgGreen),
		CPUWarn: color.New(color.FgYellow, color.Bold),
		CPUHigh: color.New(color.FgRed, color.Bold),
		Total:   color.New(color.FgWhite),
	}
}

// NoColorScheme returns a color scheme with all colors disabled
func NoColorScheme() *ColorScheme {
	scheme := DefaultColorScheme()
	for _, c := range scheme.all() {
		c.DisableColor()
	}
	return scheme
}

// ForcedColorScheme returns the default scheme with colors enabled even when
// the writer is not a terminal
func ForcedColorScheme() *ColorScheme {
	scheme := DefaultColorScheme()
	for _, c := range scheme.all() {
		c.EnableColor()
	}
	return scheme
}

func (s *ColorScheme) all() []*color.Color {
	return []*color.Color{s.Element, s.Label, s.Rate, s.Mean, s.CPULow, s.CPUWarn, s.CPUHigh, s.Total}
}

// CPU picks the color for a load percentage
func (s *ColorScheme) CPU(load uint32) *color.Color {
	switch {
	case load >= 90:
		return s.CPUHigh
	case load >= 70:
		return s.CPUWarn
	default:
		return s.CPULow
	}
}

// UseColors reports whether w should receive ANSI colors: it must be a
// terminal and NO_COLOR must not be set.
func UseColors(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
