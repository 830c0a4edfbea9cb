package main_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fwojciec/diffmod"
	main "github.com/fwojciec/diffmod/cmd/diffmod"
	"github.com/fwojciec/diffmod/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newApp returns an App that reads stdin and writes to buffers, with a
// config path that does not exist.
func newApp(t *testing.T, stdin string) (*main.App, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	return &main.App{
		Stdin:      strings.NewReader(stdin),
		Stdout:     &stdout,
		Stderr:     &stderr,
		ConfigPath: filepath.Join(t.TempDir(), "config.toml"),
		IsTerminal: func(io.Writer) bool { return false },
	}, &stdout, &stderr
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// context lines "line from" ... "line to".
func ctx(from, to int) string {
	var sb strings.Builder
	for i := from; i <= to; i++ {
		fmt.Fprintf(&sb, " line %d\n", i)
	}
	return sb.String()
}

const header = "diff --git a/f.txt b/f.txt\n--- a/f.txt\n+++ b/f.txt\n"

var (
	// targetDiff changes line 20 of a 30-line file.
	targetDiff = header + "@@ -17,7 +17,7 @@\n" + ctx(17, 19) + "-line 20\n+twenty\n" + ctx(21, 23)
	// baseDiff changes line 3 of the same file.
	baseDiff = header + "@@ -1,6 +1,6 @@\n" + ctx(1, 2) + "-line 3\n+three\n" + ctx(4, 6)
)

func TestApp_Run(t *testing.T) {
	t.Parallel()

	t.Run("requires a command", func(t *testing.T) {
		t.Parallel()

		app, _, _ := newApp(t, "")

		err := app.Run(context.Background(), nil)

		assert.ErrorIs(t, err, main.ErrUsage)
	})

	t.Run("prints usage for help", func(t *testing.T) {
		t.Parallel()

		app, stdout, _ := newApp(t, "")

		require.NoError(t, app.Run(context.Background(), []string{"help"}))

		assert.Contains(t, stdout.String(), "usage: diffmod")
	})

	t.Run("rejects unknown commands and flags", func(t *testing.T) {
		t.Parallel()

		for _, args := range [][]string{
			{"frobnicate"},
			{"render", "-nope"},
			{"render", "-U", "-1"},
			{"render", "-algorithm", "patience"},
			{"render", "-format", "xml"},
			{"diff", "only-one"},
			{"modulo", "a", "b"},
		} {
			app, _, _ := newApp(t, "")
			err := app.Run(context.Background(), args)
			assert.ErrorIs(t, err, main.ErrUsage, "%v", args)
		}
	})

	t.Run("renders stdin in canonical form", func(t *testing.T) {
		t.Parallel()

		app, stdout, _ := newApp(t, "--- a/f.txt\n+++ b/f.txt\n@@ -1 +1 @@\n-a\n+b\n")

		require.NoError(t, app.Run(context.Background(), []string{"render"}))

		assert.Equal(t, header+"@@ -1,1 +1,1 @@\n-a\n+b\n", stdout.String())
	})

	t.Run("renders with the gitdiff parser", func(t *testing.T) {
		t.Parallel()

		app, stdout, _ := newApp(t, targetDiff)

		require.NoError(t, app.Run(context.Background(), []string{"render", "-parser", "gitdiff"}))

		assert.Equal(t, targetDiff, stdout.String())
	})

	t.Run("renders JSON lines", func(t *testing.T) {
		t.Parallel()

		app, stdout, _ := newApp(t, targetDiff)

		require.NoError(t, app.Run(context.Background(), []string{"render", "-format", "jsonl"}))

		assert.Equal(t, 1, strings.Count(stdout.String(), "\n"))
		assert.Contains(t, stdout.String(), `"new_name":"f.txt"`)
	})

	t.Run("renders colors when forced", func(t *testing.T) {
		t.Parallel()

		app, stdout, _ := newApp(t, targetDiff)

		require.NoError(t, app.Run(context.Background(), []string{"render", "-color", "always"}))

		assert.Contains(t, stdout.String(), "\x1b[")
		assert.Contains(t, stdout.String(), "twenty")
	})

	t.Run("shows the pager", func(t *testing.T) {
		t.Parallel()

		app, stdout, _ := newApp(t, targetDiff)
		var files int
		app.Viewer = &mock.Viewer{ViewFn: func(_ context.Context, _ *diffmod.Buffer, d *diffmod.Diff) error {
			files = len(d.Files)
			return nil
		}}

		require.NoError(t, app.Run(context.Background(), []string{"render", "-pager"}))

		assert.Equal(t, 1, files)
		assert.Empty(t, stdout.String())
	})

	t.Run("diffs two files", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		oldPath := writeFile(t, dir, "old.txt", "a\nb\n")
		newPath := writeFile(t, dir, "new.txt", "a\nc\n")
		app, stdout, _ := newApp(t, "")

		require.NoError(t, app.Run(context.Background(), []string{"diff", "-U", "0", oldPath, newPath}))

		assert.Contains(t, stdout.String(), "@@ -2,1 +2,1 @@\n-b\n+c\n")
		assert.Contains(t, stdout.String(), "rename from")
	})

	t.Run("diffs a new file against /dev/null", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, t.TempDir(), "new.txt", "x\n")
		app, stdout, _ := newApp(t, "")

		require.NoError(t, app.Run(context.Background(), []string{"diff", "/dev/null", path}))

		assert.Contains(t, stdout.String(), "--- /dev/null\n")
		assert.Contains(t, stdout.String(), "@@ -0,0 +1,1 @@\n+x\n")
	})

	t.Run("diffs revisions through the provider", func(t *testing.T) {
		t.Parallel()

		app, stdout, _ := newApp(t, "")
		app.Provider = &mock.ContentProvider{ShowFn: func(_ context.Context, rev, path string) ([]byte, error) {
			assert.Equal(t, "f.txt", path)
			return []byte(rev + "\n"), nil
		}}

		require.NoError(t, app.Run(context.Background(), []string{"diff", "v1:f.txt", "v2:f.txt"}))

		assert.Equal(t, header+"@@ -1,1 +1,1 @@\n-v1\n+v2\n", stdout.String())
	})

	t.Run("composes two diffs", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		first := writeFile(t, dir, "first.diff", baseDiff)
		second := writeFile(t, dir, "second.diff", targetDiff)
		app, stdout, _ := newApp(t, "")

		require.NoError(t, app.Run(context.Background(), []string{"compose", first, second}))

		assert.Contains(t, stdout.String(), "+three\n")
		assert.Contains(t, stdout.String(), "+twenty\n")
	})

	t.Run("rebases a diff onto a moved base", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		target := writeFile(t, dir, "target.diff", targetDiff)
		baseOld := writeFile(t, dir, "base-old.diff", baseDiff)
		baseNew := writeFile(t, dir, "base-new.diff", "")
		app, stdout, _ := newApp(t, "")

		require.NoError(t, app.Run(context.Background(), []string{"modulo", target, baseOld, baseNew}))

		assert.Equal(t, targetDiff, stdout.String())
	})

	t.Run("reports conflicts", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		conflicting := header + "@@ -17,7 +17,7 @@\n" + ctx(17, 19) + "-line 20\n+XX\n" + ctx(21, 23)
		target := writeFile(t, dir, "target.diff", targetDiff)
		baseOld := writeFile(t, dir, "base-old.diff", conflicting)
		baseNew := writeFile(t, dir, "base-new.diff", "")
		app, _, _ := newApp(t, "")

		err := app.Run(context.Background(), []string{"modulo", target, baseOld, baseNew})

		require.ErrorIs(t, err, diffmod.ErrConflict)
		var cerr *diffmod.ConflictError
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, 20, cerr.Line)
	})

	t.Run("rebases git revisions", func(t *testing.T) {
		t.Parallel()

		app, stdout, _ := newApp(t, "")
		var calls []string
		app.Provider = &mock.ContentProvider{
			MergeBaseFn: func(_ context.Context, a, b string) (string, error) {
				assert.Equal(t, []string{"v1", "v2"}, []string{a, b})
				return "ref", nil
			},
			DiffFn: func(_ context.Context, from, to string) ([]byte, error) {
				calls = append(calls, from+".."+to)
				switch from + ".." + to {
				case "v1..feature":
					return []byte(targetDiff), nil
				case "v1..ref":
					return []byte(baseDiff), nil
				default:
					return nil, nil
				}
			},
		}

		require.NoError(t, app.Run(context.Background(), []string{"git", "v1", "v2", "feature"}))

		assert.Equal(t, []string{"v1..feature", "v1..ref", "v2..ref"}, calls)
		assert.Equal(t, targetDiff, stdout.String())
	})

	t.Run("returns provider errors", func(t *testing.T) {
		t.Parallel()

		app, _, _ := newApp(t, "")
		app.Provider = &mock.ContentProvider{MergeBaseFn: func(context.Context, string, string) (string, error) {
			return "", fmt.Errorf("%w: no merge base", diffmod.ErrIO)
		}}

		err := app.Run(context.Background(), []string{"git", "a", "b", "c"})

		assert.ErrorIs(t, err, diffmod.ErrIO)
	})

	t.Run("prints the effective configuration", func(t *testing.T) {
		t.Parallel()

		app, stdout, _ := newApp(t, "")
		require.NoError(t, os.WriteFile(app.ConfigPath, []byte("theme = \"test\"\nalgorithm = \"histogram\"\n"), 0o644))

		require.NoError(t, app.Run(context.Background(), []string{"config", "-U", "5"}))

		assert.Contains(t, stdout.String(), "context = 5")
		assert.Contains(t, stdout.String(), "algorithm = 'histogram'")
		assert.Contains(t, stdout.String(), "theme = 'test'")
	})

	t.Run("fails on an invalid config file", func(t *testing.T) {
		t.Parallel()

		app, _, _ := newApp(t, "")
		require.NoError(t, os.WriteFile(app.ConfigPath, []byte("color = \"rainbow\"\n"), 0o644))

		err := app.Run(context.Background(), []string{"render"})

		assert.Error(t, err)
	})

	t.Run("logs at the configured level", func(t *testing.T) {
		t.Parallel()

		app, _, stderr := newApp(t, targetDiff)

		require.NoError(t, app.Run(context.Background(), []string{"render", "-log-level", "debug"}))

		assert.Contains(t, stderr.String(), "level=DEBUG")
		assert.Contains(t, stderr.String(), "msg=parsed")
	})
}
