package diffmod_test

import (
	"strconv"
	"strings"
	"testing"

	"github.com/fwojciec/diffmod"
	"github.com/stretchr/testify/require"
)

// parseText parses text with the default options.
func parseText(t *testing.T, buf *diffmod.Buffer, text string) *diffmod.Diff {
	t.Helper()
	d, err := diffmod.Parse(buf, buf.InsertString(text), diffmod.DefaultOptions())
	require.NoError(t, err)
	return d
}

// diffBodies diffs two bodies of the same file.
func diffBodies(t *testing.T, buf *diffmod.Buffer, name, oldBody, newBody string) *diffmod.Diff {
	t.Helper()
	return diffBodiesWith(t, buf, name, oldBody, newBody, diffmod.DefaultOptions())
}

func diffBodiesWith(t *testing.T, buf *diffmod.Buffer, name, oldBody, newBody string, opts diffmod.DiffOptions) *diffmod.Diff {
	t.Helper()
	n := diffmod.NewFileName(name)
	f, err := diffmod.DiffFile(buf, n, n, buf.InsertString(oldBody), buf.InsertString(newBody), opts)
	require.NoError(t, err)
	b := diffmod.NewDiffBuilder(opts)
	if len(f.Hunks) > 0 {
		b.AddFile(f)
	}
	return b.Build()
}

// applyFile applies the single file of d to body.
func applyFile(t *testing.T, buf *diffmod.Buffer, d *diffmod.Diff, body string) string {
	t.Helper()
	if len(d.Files) == 0 {
		return body
	}
	require.Len(t, d.Files, 1)
	out, err := diffmod.Apply(buf, &d.Files[0], []byte(body))
	require.NoError(t, err)
	return string(out)
}

// numbered returns a body of n lines "line 1" ... "line n", each terminated.
func numbered(n int) []string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = "line " + strconv.Itoa(i+1)
	}
	return lines
}

// body joins lines with terminators.
func body(lines ...string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// with returns a copy of lines with the 1-based line n replaced by s.
func with(lines []string, n int, s string) []string {
	out := append([]string(nil), lines...)
	out[n-1] = s
	return out
}
