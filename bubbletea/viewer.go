package bubbletea

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/diffmod"
	dv "github.com/fwojciec/diffmod/lipgloss"
)

// Compile-time interface verification.
var _ diffmod.Viewer = (*Viewer)(nil)

// Viewer shows a diff in a full-screen pager.
type Viewer struct {
	// WriterOptions configure the styled rendering of the diff.
	WriterOptions []dv.Option
	// ProgramOptions are passed to tea.NewProgram after the defaults.
	ProgramOptions []tea.ProgramOption
}

// NewViewer creates a Viewer.
func NewViewer(opts ...dv.Option) *Viewer {
	return &Viewer{WriterOptions: opts}
}

// Render renders d into a pager model without running it.
func (v *Viewer) Render(buf *diffmod.Buffer, d *diffmod.Diff) (Model, error) {
	var out strings.Builder
	opts := append([]dv.Option{dv.WithContentTransform(func(s string) string {
		return ExpandTabs(s, 1)
	})}, v.WriterOptions...)
	w := dv.NewWriter(&out, opts...)
	if err := diffmod.Render(buf, d, w); err != nil {
		return Model{}, fmt.Errorf("render: %w", err)
	}
	return NewModel(out.String(), w.FileStarts()), nil
}

// View implements diffmod.Viewer. It blocks until the user quits or ctx is
// done.
func (v *Viewer) View(ctx context.Context, buf *diffmod.Buffer, d *diffmod.Diff) error {
	m, err := v.Render(buf, d)
	if err != nil {
		return err
	}
	opts := append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, v.ProgramOptions...)
	if _, err := tea.NewProgram(m, opts...).Run(); err != nil {
		return fmt.Errorf("pager: %w", err)
	}
	return nil
}
