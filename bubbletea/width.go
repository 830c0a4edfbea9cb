package bubbletea

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// tabWidth is the standard terminal tab stop interval.
const tabWidth = 8

// DisplayWidth calculates the display width of a string, correctly handling
// tab characters which expand to the next 8-column boundary.
// This fixes the issue where lipgloss.Width returns 0 for tabs.
func DisplayWidth(s string) int {
	return displayWidthFrom(s, 0)
}

// displayWidthFrom calculates the display width of a string starting from
// a given column position. Tab expansion depends on the current column.
func displayWidthFrom(s string, startCol int) int {
	col := startCol
	for _, r := range s {
		if r == '\t' {
			col = nextTabStop(col)
		} else {
			col += lipgloss.Width(string(r))
		}
	}
	return col
}

func nextTabStop(col int) int {
	return ((col / tabWidth) + 1) * tabWidth
}

// ExpandTabs replaces tabs with spaces up to the next tab stop. startCol is
// the column the string begins at, which is 1 for diff lines after their
// marker.
func ExpandTabs(s string, startCol int) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var sb strings.Builder
	col := startCol
	for _, r := range s {
		if r == '\t' {
			next := nextTabStop(col)
			sb.WriteString(strings.Repeat(" ", next-col))
			col = next
			continue
		}
		sb.WriteRune(r)
		col += lipgloss.Width(string(r))
	}
	return sb.String()
}
