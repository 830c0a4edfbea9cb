// Package bubbletea provides a terminal pager for diffs.
package bubbletea

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// statusHeight is the number of rows below the viewport.
const statusHeight = 1

// Model is a pager over pre-rendered diff output. fileStarts holds the line
// index at which each file begins and drives file navigation.
type Model struct {
	viewport    viewport.Model
	content     string
	fileStarts  []int
	ready       bool
	width       int
	statusStyle lipgloss.Style
}

// NewModel creates a pager showing content.
func NewModel(content string, fileStarts []int) Model {
	return Model{
		content:     strings.TrimSuffix(content, "\n"),
		fileStarts:  fileStarts,
		statusStyle: lipgloss.NewStyle().Reverse(true),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		height := max(msg.Height-statusHeight, 1)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.viewport.SetContent(m.content)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
		if !m.ready {
			return m, nil
		}
		switch msg.String() {
		case "n":
			m.viewport.SetYOffset(m.nextFile())
			return m, nil
		case "N", "p":
			m.viewport.SetYOffset(m.prevFile())
			return m, nil
		case "g", "home":
			m.viewport.GotoTop()
			return m, nil
		case "G", "end":
			m.viewport.GotoBottom()
			return m, nil
		}
	}

	if !m.ready {
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) nextFile() int {
	for _, s := range m.fileStarts {
		if s > m.viewport.YOffset {
			return s
		}
	}
	return m.viewport.YOffset
}

func (m Model) prevFile() int {
	prev := 0
	for _, s := range m.fileStarts {
		if s >= m.viewport.YOffset {
			break
		}
		prev = s
	}
	return prev
}

// Offset returns the index of the first visible line.
func (m Model) Offset() int {
	return m.viewport.YOffset
}

// CurrentFile returns the 1-based index of the file at the top of the
// viewport, or 0 if there are no files.
func (m Model) CurrentFile() int {
	cur := 0
	for i, s := range m.fileStarts {
		if s > m.viewport.YOffset {
			break
		}
		cur = i + 1
	}
	return cur
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "\n  Loading..."
	}
	return m.viewport.View() + "\n" + m.statusLine()
}

func (m Model) statusLine() string {
	left := fmt.Sprintf(" file %d/%d", m.CurrentFile(), len(m.fileStarts))
	right := fmt.Sprintf("%3.f%% ", m.viewport.ScrollPercent()*100)
	gap := max(m.width-DisplayWidth(left)-DisplayWidth(right), 1)
	return m.statusStyle.Render(left + strings.Repeat(" ", gap) + right)
}
