package lipgloss

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/diffmod"
)

// Compile-time interface verification.
var _ diffmod.Writer = (*Writer)(nil)

// Writer renders a diff as ANSI-styled lines and records the LineClass of
// every line it writes.
type Writer struct {
	out       io.Writer
	renderer  *lipgloss.Renderer
	theme     *Theme
	tokenizer diffmod.Tokenizer
	detector  diffmod.LanguageDetector
	transform func(string) string

	styles     styles
	language   string
	classes    []diffmod.LineClass
	fileStarts []int
}

type styles struct {
	fileHeader lipgloss.Style
	hunkHeader lipgloss.Style
	context    lipgloss.Style
	added      lipgloss.Style
	removed    lipgloss.Style
	noNewline  lipgloss.Style
}

// Option configures a Writer.
type Option func(*Writer)

// WithRenderer sets the lipgloss renderer, which decides the color profile.
// The default renderer detects it from the output.
func WithRenderer(r *lipgloss.Renderer) Option {
	return func(w *Writer) { w.renderer = r }
}

// WithTheme sets the color theme.
func WithTheme(t *Theme) Option {
	return func(w *Writer) { w.theme = t }
}

// WithSyntax enables syntax highlighting of hunk lines.
func WithSyntax(t diffmod.Tokenizer, d diffmod.LanguageDetector) Option {
	return func(w *Writer) {
		w.tokenizer = t
		w.detector = d
	}
}

// WithContentTransform rewrites line content before it is styled, for
// example to expand tabs.
func WithContentTransform(fn func(string) string) Option {
	return func(w *Writer) { w.transform = fn }
}

// NewWriter creates a Writer writing to out.
func NewWriter(out io.Writer, opts ...Option) *Writer {
	w := &Writer{out: out, theme: DefaultTheme()}
	for _, opt := range opts {
		opt(w)
	}
	if w.renderer == nil {
		w.renderer = lipgloss.NewRenderer(out)
	}
	w.styles = newStyles(w.renderer, w.theme.Palette())
	return w
}

func newStyles(r *lipgloss.Renderer, p diffmod.Palette) styles {
	return styles{
		fileHeader: r.NewStyle().Foreground(lipgloss.Color(p.FileHeader)).Bold(true),
		hunkHeader: r.NewStyle().Foreground(lipgloss.Color(p.HunkHeader)),
		context:    r.NewStyle().Foreground(lipgloss.Color(p.Foreground)),
		added:      r.NewStyle().Foreground(lipgloss.Color(p.Added)).Background(lipgloss.Color(p.AddedBg)),
		removed:    r.NewStyle().Foreground(lipgloss.Color(p.Removed)).Background(lipgloss.Color(p.RemovedBg)),
		noNewline:  r.NewStyle().Foreground(lipgloss.Color(p.Muted)).Italic(true),
	}
}

// Classes returns the class of every line written so far.
func (w *Writer) Classes() []diffmod.LineClass {
	return w.classes
}

// FileStarts returns the 0-based output line index of each file header.
func (w *Writer) FileStarts() []int {
	return w.fileStarts
}

func (w *Writer) emit(class diffmod.LineClass, s string) error {
	w.classes = append(w.classes, class)
	_, err := io.WriteString(w.out, s+"\n")
	return err
}

// BeginFile implements diffmod.Writer.
func (w *Writer) BeginFile(f *diffmod.File, header []string) error {
	w.fileStarts = append(w.fileStarts, len(w.classes))
	w.language = ""
	if w.detector != nil && w.tokenizer != nil {
		w.language = w.detector.DetectFromPath(f.Path())
	}
	for _, h := range header {
		if err := w.emit(diffmod.ClassFileHeader, w.styles.fileHeader.Render(h)); err != nil {
			return err
		}
	}
	return nil
}

// BeginHunk implements diffmod.Writer.
func (w *Writer) BeginHunk(_ *diffmod.Hunk, header string) error {
	return w.emit(diffmod.ClassHunkHeader, w.styles.hunkHeader.Render(header))
}

// Line implements diffmod.Writer.
func (w *Writer) Line(kind diffmod.LineKind, content []byte) error {
	text := string(content)
	if w.transform != nil {
		text = w.transform(text)
	}

	var base lipgloss.Style
	var class diffmod.LineClass
	var marker string
	switch kind {
	case diffmod.Added:
		base, class, marker = w.styles.added, diffmod.ClassAdded, "+"
	case diffmod.Removed:
		base, class, marker = w.styles.removed, diffmod.ClassRemoved, "-"
	default:
		base, class, marker = w.styles.context, diffmod.ClassContext, " "
	}

	var tokens []diffmod.Token
	if w.language != "" {
		tokens = w.tokenizer.Tokenize(w.language, text)
	}
	if len(tokens) == 0 {
		return w.emit(class, base.Render(marker+text))
	}

	var sb strings.Builder
	sb.WriteString(base.Render(marker))
	for _, tok := range tokens {
		st := base
		if tok.Style.Foreground != "" {
			st = st.Foreground(lipgloss.Color(tok.Style.Foreground))
		}
		if tok.Style.Bold {
			st = st.Bold(true)
		}
		sb.WriteString(st.Render(tok.Text))
	}
	return w.emit(class, sb.String())
}

// NoNewline implements diffmod.Writer.
func (w *Writer) NoNewline() error {
	return w.emit(diffmod.ClassNoNewline, w.styles.noNewline.Render(`\ No newline at end of file`))
}

// EndFile implements diffmod.Writer.
func (w *Writer) EndFile(*diffmod.File) error { return nil }
