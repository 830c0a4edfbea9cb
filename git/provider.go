// Package git provides diffs and file contents by running the git CLI.
package git

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/fwojciec/diffmod"
)

// Compile-time interface verification.
var _ diffmod.ContentProvider = (*Provider)(nil)

// Runner executes git with args in dir and returns its standard output.
type Runner func(ctx context.Context, dir string, args ...string) ([]byte, error)

// Provider implements diffmod.ContentProvider on top of a git repository.
type Provider struct {
	// Dir is the working directory for git; "" means the current directory.
	Dir string
	// Logger receives one debug record per git invocation. Nil disables logging.
	Logger *slog.Logger
	// Run executes git. Nil uses the git binary on PATH.
	Run Runner
}

// NewProvider creates a Provider for the repository containing dir.
func NewProvider(dir string, logger *slog.Logger) *Provider {
	return &Provider{Dir: dir, Logger: logger}
}

// Diff implements diffmod.ContentProvider. Rename detection is on and the
// a/ and b/ prefixes are forced regardless of user configuration.
func (p *Provider) Diff(ctx context.Context, from, to string) ([]byte, error) {
	return p.git(ctx, "diff", "--no-color", "--no-ext-diff", "-M",
		"--src-prefix=a/", "--dst-prefix=b/", from, to, "--")
}

// MergeBase implements diffmod.ContentProvider.
func (p *Provider) MergeBase(ctx context.Context, a, b string) (string, error) {
	out, err := p.git(ctx, "merge-base", a, b)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// Show implements diffmod.ContentProvider.
func (p *Provider) Show(ctx context.Context, rev, path string) ([]byte, error) {
	return p.git(ctx, "show", rev+":"+path)
}

func (p *Provider) git(ctx context.Context, args ...string) ([]byte, error) {
	run := p.Run
	if run == nil {
		run = execRunner
	}
	start := time.Now()
	out, err := run(ctx, p.Dir, args...)
	if p.Logger != nil {
		p.Logger.DebugContext(ctx, "git",
			slog.String("args", strings.Join(args, " ")),
			slog.Duration("elapsed", time.Since(start)),
			slog.Int("bytes", len(out)),
			slog.Any("err", err))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: git %s: %w", diffmod.ErrIO, args[0], err)
	}
	return out, nil
}

func execRunner(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}
