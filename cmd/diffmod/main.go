// Command diffmod parses, computes, composes and rebases unified diffs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/diffmod"
	"github.com/fwojciec/diffmod/bubbletea"
	"github.com/fwojciec/diffmod/chroma"
	"github.com/fwojciec/diffmod/fs"
	"github.com/fwojciec/diffmod/git"
	"github.com/fwojciec/diffmod/gitdiff"
	"github.com/fwojciec/diffmod/jsonl"
	dv "github.com/fwojciec/diffmod/lipgloss"
	"github.com/fwojciec/diffmod/toml"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// ErrUsage reports invalid command-line arguments.
var ErrUsage = errors.New("usage error")

const usage = `usage: diffmod <command> [flags] [args]

commands:
  render  [FILE]                        parse a diff and print it in canonical form
  diff    OLD NEW                       diff two files; REV:PATH reads from git
  compose FIRST SECOND                  compose two diffs
  modulo  TARGET BASE_OLD BASE_NEW      re-derive TARGET against a moved base
  git     OLD_BASE NEW_BASE BRANCH      modulo for git revisions
  config                                print the effective configuration
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := &App{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
	if err := app.Run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "diffmod: %v\n", err)
		if errors.Is(err, ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// App holds the dependencies of the command. Nil fields get defaults.
type App struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// ConfigPath overrides the default config file location.
	ConfigPath string
	// Provider supplies git content; defaults to the git CLI.
	Provider diffmod.ContentProvider
	// Viewer shows diffs for -pager; defaults to the bubbletea pager.
	Viewer diffmod.Viewer
	// Logger overrides the logger built from the configured level.
	Logger *slog.Logger
	// IsTerminal reports whether w is a terminal, for -color=auto.
	IsTerminal func(w io.Writer) bool
}

// settings are the effective options of one invocation.
type settings struct {
	opts     diffmod.DiffOptions
	color    string
	theme    string
	parser   string
	logLevel string
	format   string
	pager    bool
	logger   *slog.Logger
}

// Run executes the command line args (without the program name).
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: no command\n%s", ErrUsage, usage)
	}
	cmd, args := args[0], args[1:]
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		_, err := io.WriteString(a.Stdout, usage)
		return err
	}

	s, rest, err := a.configure(cmd, args)
	if err != nil {
		return err
	}
	s.logger.Debug("run", slog.String("command", cmd), slog.Any("args", rest),
		slog.Int("context", s.opts.ContextLines), slog.Int("strip", s.opts.StripPathComponents),
		slog.String("algorithm", s.opts.Algorithm.String()))

	switch cmd {
	case "render":
		return a.runRender(ctx, s, rest)
	case "diff":
		return a.runDiff(ctx, s, rest)
	case "compose":
		return a.runCompose(ctx, s, rest)
	case "modulo":
		return a.runModulo(ctx, s, rest)
	case "git":
		return a.runGit(ctx, s, rest)
	case "config":
		return a.runConfig(s)
	default:
		return fmt.Errorf("%w: unknown command %q\n%s", ErrUsage, cmd, usage)
	}
}

// configure loads the config file and applies flags on top of it.
func (a *App) configure(cmd string, args []string) (*settings, []string, error) {
	path := a.ConfigPath
	if path == "" {
		path = fs.ConfigFile()
	}
	cfg, err := toml.Load(path)
	if err != nil {
		return nil, nil, err
	}

	fset := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fset.SetOutput(io.Discard)
	contextLines := fset.Int("U", *cfg.Context, "number of context lines")
	strip := fset.Int("p", *cfg.Strip, "leading path components to strip")
	algorithm := fset.String("algorithm", cfg.Algorithm, "diff algorithm: myers, histogram or ratcliff")
	color := fset.String("color", cfg.Color, "color output: auto, always or never")
	parser := fset.String("parser", cfg.Parser, "diff parser: native or gitdiff")
	logLevel := fset.String("log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	format := fset.String("format", "", "output format: unified, color or jsonl")
	pager := fset.Bool("pager", false, "show the result in a pager")
	if err := fset.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}

	cfg.Context, cfg.Strip = contextLines, strip
	cfg.Algorithm, cfg.Color, cfg.Parser, cfg.LogLevel = *algorithm, *color, *parser, *logLevel
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	opts, err := cfg.Options()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}

	logger := a.Logger
	if logger == nil {
		level, _ := toml.ParseLevel(cfg.LogLevel)
		logger = slog.New(slog.NewTextHandler(a.Stderr, &slog.HandlerOptions{Level: level}))
	}

	s := &settings{
		opts:     opts,
		color:    cfg.Color,
		theme:    cfg.Theme,
		parser:   cfg.Parser,
		logLevel: cfg.LogLevel,
		format:   *format,
		pager:    *pager,
		logger:   logger,
	}
	if s.format == "" {
		s.format = "unified"
		if s.colorEnabled(a) {
			s.format = "color"
		}
	}
	switch s.format {
	case "unified", "color", "jsonl":
	default:
		return nil, nil, fmt.Errorf("%w: unknown format %q", ErrUsage, s.format)
	}
	return s, fset.Args(), nil
}

func (s *settings) colorEnabled(a *App) bool {
	switch s.color {
	case toml.ColorAlways:
		return true
	case toml.ColorNever:
		return false
	}
	isTerminal := a.IsTerminal
	if isTerminal == nil {
		isTerminal = stdoutIsTerminal
	}
	return isTerminal(a.Stdout)
}

func stdoutIsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (s *settings) newParser() diffmod.Parser {
	if s.parser == toml.ParserGitdiff {
		return gitdiff.NewParser(s.opts)
	}
	return diffmod.NewParser(s.opts)
}

func (a *App) provider(s *settings) diffmod.ContentProvider {
	if a.Provider != nil {
		return a.Provider
	}
	return git.NewProvider("", s.logger)
}

// readInput reads a diff from path, or from stdin when path is "" or "-".
func (a *App) readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(a.Stdin)
		if err != nil {
			return nil, fmt.Errorf("%w: read stdin: %w", diffmod.ErrIO, err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", diffmod.ErrIO, err)
	}
	return data, nil
}

// parseInput parses data into buf with the configured parser.
func parseInput(buf *diffmod.Buffer, s *settings, name string, data []byte) (*diffmod.Diff, error) {
	d, err := s.newParser().Parse(buf, buf.Insert(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	s.logger.Debug("parsed", slog.String("input", name), slog.Int("files", len(d.Files)))
	return d, nil
}

func (a *App) loadDiff(buf *diffmod.Buffer, s *settings, path string) (*diffmod.Diff, error) {
	data, err := a.readInput(path)
	if err != nil {
		return nil, err
	}
	name := path
	if name == "" {
		name = "-"
	}
	return parseInput(buf, s, name, data)
}

func (a *App) runRender(ctx context.Context, s *settings, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("%w: render takes at most one file", ErrUsage)
	}
	var path string
	if len(args) == 1 {
		path = args[0]
	}
	buf := diffmod.NewBuffer()
	d, err := a.loadDiff(buf, s, path)
	if err != nil {
		return err
	}
	return a.output(ctx, s, buf, d)
}

func (a *App) runDiff(ctx context.Context, s *settings, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: diff takes OLD and NEW", ErrUsage)
	}
	buf := diffmod.NewBuffer()
	oldName, oldBody, err := a.readSide(ctx, s, buf, args[0])
	if err != nil {
		return err
	}
	newName, newBody, err := a.readSide(ctx, s, buf, args[1])
	if err != nil {
		return err
	}
	f, err := diffmod.DiffFile(buf, oldName, newName, oldBody, newBody, s.opts)
	if err != nil {
		return err
	}
	b := diffmod.NewDiffBuilder(s.opts)
	if len(f.Hunks) > 0 || f.Binary || oldName != newName {
		b.AddFile(f)
	}
	return a.output(ctx, s, buf, b.Build())
}

// readSide loads one side of a two-file diff. "/dev/null" is a missing side
// and REV:PATH is read through the content provider.
func (a *App) readSide(ctx context.Context, s *settings, buf *diffmod.Buffer, arg string) (diffmod.FileName, diffmod.Range, error) {
	if arg == "/dev/null" {
		return diffmod.Missing, diffmod.Range{}, nil
	}
	if rev, path, ok := strings.Cut(arg, ":"); ok && rev != "" && path != "" {
		data, err := a.provider(s).Show(ctx, rev, path)
		if err != nil {
			return diffmod.Missing, diffmod.Range{}, err
		}
		return diffmod.NewFileName(path), buf.Insert(data), nil
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return diffmod.Missing, diffmod.Range{}, fmt.Errorf("%w: %w", diffmod.ErrIO, err)
	}
	return diffmod.NewFileName(strings.TrimPrefix(arg, "/")), buf.Insert(data), nil
}

func (a *App) runCompose(ctx context.Context, s *settings, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: compose takes FIRST and SECOND", ErrUsage)
	}
	buf := diffmod.NewBuffer()
	first, err := a.loadDiff(buf, s, args[0])
	if err != nil {
		return err
	}
	second, err := a.loadDiff(buf, s, args[1])
	if err != nil {
		return err
	}
	d, err := diffmod.ComposeWithOptions(buf, first, second, s.opts)
	if err != nil {
		return err
	}
	return a.output(ctx, s, buf, d)
}

func (a *App) runModulo(ctx context.Context, s *settings, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("%w: modulo takes TARGET, BASE_OLD and BASE_NEW", ErrUsage)
	}
	buf := diffmod.NewBuffer()
	diffs := make([]*diffmod.Diff, len(args))
	for i, path := range args {
		d, err := a.loadDiff(buf, s, path)
		if err != nil {
			return err
		}
		diffs[i] = d
	}
	d, err := diffmod.DiffModuloBase(buf, diffs[0], diffs[1], diffs[2])
	if err != nil {
		return err
	}
	return a.output(ctx, s, buf, d)
}

func (a *App) runGit(ctx context.Context, s *settings, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("%w: git takes OLD_BASE, NEW_BASE and BRANCH", ErrUsage)
	}
	oldBase, newBase, branch := args[0], args[1], args[2]
	p := a.provider(s)
	ref, err := p.MergeBase(ctx, oldBase, newBase)
	if err != nil {
		return err
	}
	s.logger.Info("reference revision", slog.String("merge_base", ref))

	buf := diffmod.NewBuffer()
	load := func(from, to string) (*diffmod.Diff, error) {
		data, err := p.Diff(ctx, from, to)
		if err != nil {
			return nil, err
		}
		return parseInput(buf, s, from+".."+to, data)
	}
	target, err := load(oldBase, branch)
	if err != nil {
		return err
	}
	baseOld, err := load(oldBase, ref)
	if err != nil {
		return err
	}
	baseNew, err := load(newBase, ref)
	if err != nil {
		return err
	}
	d, err := diffmod.DiffModuloBase(buf, target, baseOld, baseNew)
	if err != nil {
		return err
	}
	return a.output(ctx, s, buf, d)
}

func (a *App) runConfig(s *settings) error {
	cfg := toml.Default()
	cfg.Context = &s.opts.ContextLines
	cfg.Strip = &s.opts.StripPathComponents
	cfg.Algorithm = s.opts.Algorithm.String()
	cfg.Color, cfg.Theme, cfg.Parser, cfg.LogLevel = s.color, s.theme, s.parser, s.logLevel
	data, err := cfg.Encode()
	if err != nil {
		return err
	}
	_, err = a.Stdout.Write(data)
	return err
}

// output writes d in the selected format, or shows it in the pager.
func (a *App) output(ctx context.Context, s *settings, buf *diffmod.Buffer, d *diffmod.Diff) error {
	s.logger.Debug("output", slog.String("format", s.format), slog.Int("files", len(d.Files)))
	theme, ok := dv.ThemeByName(s.theme)
	if !ok {
		return fmt.Errorf("%w: unknown theme %q", ErrUsage, s.theme)
	}
	tokenizer, err := chroma.NewTokenizer(chroma.StyleFromPalette(theme.Palette()))
	if err != nil {
		return err
	}
	detector := chroma.NewDetector()

	if s.pager {
		viewer := a.Viewer
		if viewer == nil {
			viewer = bubbletea.NewViewer(dv.WithTheme(theme), dv.WithSyntax(tokenizer, detector))
		}
		return viewer.View(ctx, buf, d)
	}

	var w diffmod.Writer
	switch s.format {
	case "jsonl":
		w = jsonl.NewWriter(a.Stdout)
	case "color":
		r := lipgloss.NewRenderer(a.Stdout)
		if s.color == toml.ColorAlways {
			r.SetColorProfile(termenv.TrueColor)
		}
		w = dv.NewWriter(a.Stdout, dv.WithRenderer(r), dv.WithTheme(theme), dv.WithSyntax(tokenizer, detector))
	default:
		w = diffmod.NewUnifiedWriter(a.Stdout)
	}
	return diffmod.Render(buf, d, w)
}
