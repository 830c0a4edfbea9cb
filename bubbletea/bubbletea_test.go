package bubbletea_test

import (
	"io"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/diffmod"
	"github.com/fwojciec/diffmod/bubbletea"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"
)

// trueColorRenderer creates a lipgloss renderer that outputs true colors
// without touching global state.
func trueColorRenderer() *lipgloss.Renderer {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.TrueColor)
	return r
}

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// sampleDiff returns a two-file diff; the second file indents with a tab.
func sampleDiff(t *testing.T, buf *diffmod.Buffer) *diffmod.Diff {
	t.Helper()
	opts := diffmod.DefaultOptions()
	b := diffmod.NewDiffBuilder(opts)
	for _, f := range []struct{ name, old, new string }{
		{"a.txt", "one\ntwo\n", "one\n2\n"},
		{"b.go", "package b\n", "package b\n\n\tx := 1\n"},
	} {
		n := diffmod.NewFileName(f.name)
		file, err := diffmod.DiffFile(buf, n, n, buf.InsertString(f.old), buf.InsertString(f.new), opts)
		require.NoError(t, err)
		b.AddFile(file)
	}
	return b.Build()
}

// update applies msg and returns the resulting Model.
func update(t *testing.T, m tea.Model, msg tea.Msg) (bubbletea.Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	got, ok := next.(bubbletea.Model)
	require.True(t, ok, "unexpected model type %T", next)
	return got, cmd
}
