// Package lipgloss renders diffs as styled terminal output using lipgloss.
package lipgloss

import "github.com/fwojciec/diffmod"

// Theme is a named set of colors for styled output.
type Theme struct {
	palette diffmod.Palette
}

// NewTheme creates a theme from a palette.
func NewTheme(p diffmod.Palette) *Theme {
	return &Theme{palette: p}
}

// Palette returns the theme's colors.
func (t *Theme) Palette() diffmod.Palette {
	return t.palette
}

// DefaultTheme returns a dark theme loosely based on One Dark.
func DefaultTheme() *Theme {
	return NewTheme(diffmod.Palette{
		Background: "#282c34",
		Foreground: "#abb2bf",
		Added:      "#98c379",
		Removed:    "#e06c75",
		AddedBg:    "#2b3a2b",
		RemovedBg:  "#3f2d2f",
		FileHeader: "#e5c07b",
		HunkHeader: "#56b6c2",
		Muted:      "#5c6370",
		Keyword:    "#c678dd",
		String:     "#98c379",
		Number:     "#d19a66",
		Comment:    "#5c6370",
		Operator:   "#56b6c2",
		Function:   "#61afef",
		Builtin:    "#e5c07b",
		Name:       "#e06c75",
	})
}

// TestTheme returns a theme with simple, distinct colors for tests.
func TestTheme() *Theme {
	return NewTheme(diffmod.Palette{
		Background: "#000000",
		Foreground: "#ffffff",
		Added:      "#00ff00",
		Removed:    "#ff0000",
		AddedBg:    "#003300",
		RemovedBg:  "#330000",
		FileHeader: "#ffff00",
		HunkHeader: "#00ffff",
		Muted:      "#808080",
		Keyword:    "#ff00ff",
		String:     "#00ff01",
		Number:     "#ff8000",
		Comment:    "#808081",
		Operator:   "#00fffe",
		Function:   "#0000ff",
		Builtin:    "#ffff01",
		Name:       "#ff0001",
	})
}

// ThemeByName returns the theme with the given name.
func ThemeByName(name string) (*Theme, bool) {
	switch name {
	case "", "default", "dark":
		return DefaultTheme(), true
	case "test":
		return TestTheme(), true
	default:
		return nil, false
	}
}
