package chroma_test

import (
	"strings"
	"testing"

	"github.com/fwojciec/diffmod"
	"github.com/fwojciec/diffmod/chroma"
	"github.com/fwojciec/diffmod/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var palette = lipgloss.TestTheme().Palette()

func newTokenizer(t *testing.T) *chroma.Tokenizer {
	t.Helper()
	tok, err := chroma.NewTokenizer(chroma.StyleFromPalette(palette))
	require.NoError(t, err)
	return tok
}

func join(tokens []diffmod.Token) string {
	var sb strings.Builder
	for _, tok := range tokens {
		sb.WriteString(tok.Text)
	}
	return sb.String()
}

func styleOf(tokens []diffmod.Token, text string) (diffmod.Style, bool) {
	for _, tok := range tokens {
		if tok.Text == text {
			return tok.Style, true
		}
	}
	return diffmod.Style{}, false
}

func hasColor(tokens []diffmod.Token, c diffmod.Color) bool {
	for _, tok := range tokens {
		if tok.Style.Foreground == string(c) {
			return true
		}
	}
	return false
}

func TestNewTokenizer(t *testing.T) {
	t.Parallel()

	_, err := chroma.NewTokenizer(nil)

	assert.Error(t, err)
}

func TestTokenizer_Tokenize(t *testing.T) {
	t.Parallel()

	t.Run("keeps the source text", func(t *testing.T) {
		t.Parallel()

		tokens := newTokenizer(t).Tokenize("go", "package main")

		assert.Equal(t, "package main", join(tokens))
	})

	t.Run("styles keywords bold with the keyword color", func(t *testing.T) {
		t.Parallel()

		style, ok := styleOf(newTokenizer(t).Tokenize("go", "package main"), "package")

		require.True(t, ok)
		assert.Equal(t, string(palette.Keyword), style.Foreground)
		assert.True(t, style.Bold)
	})

	t.Run("styles function names", func(t *testing.T) {
		t.Parallel()

		style, ok := styleOf(newTokenizer(t).Tokenize("go", "func foo() {}"), "foo")

		require.True(t, ok)
		assert.NotEmpty(t, style.Foreground)
	})

	t.Run("styles strings and numbers", func(t *testing.T) {
		t.Parallel()

		tokens := newTokenizer(t).Tokenize("go", `x := "hi" + 42`)

		assert.True(t, hasColor(tokens, palette.String))
		assert.True(t, hasColor(tokens, palette.Number))
	})

	t.Run("returns nil for an unknown language", func(t *testing.T) {
		t.Parallel()

		assert.Nil(t, newTokenizer(t).Tokenize("no-such-language", "code"))
	})

	t.Run("returns an empty slice for empty source", func(t *testing.T) {
		t.Parallel()

		tokens := newTokenizer(t).Tokenize("go", "")

		assert.NotNil(t, tokens)
		assert.Empty(t, tokens)
	})
}

func TestTokenizer_TokenizeLines(t *testing.T) {
	t.Parallel()

	t.Run("carries comment state across lines", func(t *testing.T) {
		t.Parallel()

		lines := newTokenizer(t).TokenizeLines("javascript", "/**\n * Config options\n */")

		require.Len(t, lines, 3)
		for i, tokens := range lines {
			assert.True(t, hasColor(tokens, palette.Comment), "line %d: %v", i, tokens)
		}
	})

	t.Run("splits tokens at line breaks", func(t *testing.T) {
		t.Parallel()

		lines := newTokenizer(t).TokenizeLines("go", "a := 1\nb := 2\n")

		require.Len(t, lines, 2)
		assert.Equal(t, "a := 1", join(lines[0]))
		assert.Equal(t, "b := 2", join(lines[1]))
		for _, tokens := range lines {
			for _, tok := range tokens {
				assert.NotContains(t, tok.Text, "\n")
			}
		}
	})

	t.Run("keeps empty lines", func(t *testing.T) {
		t.Parallel()

		lines := newTokenizer(t).TokenizeLines("go", "a := 1\n\nb := 2")

		require.Len(t, lines, 3)
		assert.Empty(t, lines[1])
	})

	t.Run("returns nil for an unknown language", func(t *testing.T) {
		t.Parallel()

		assert.Nil(t, newTokenizer(t).TokenizeLines("no-such-language", "code"))
	})

	t.Run("returns no lines for empty source", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, newTokenizer(t).TokenizeLines("go", ""))
	})
}

func TestDetector_DetectFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "go source", path: "cmd/diffmod/main.go", want: "Go"},
		{name: "python source", path: "tools/gen.py", want: "Python"},
		{name: "json config", path: "config/app.json", want: "JSON"},
		{name: "unknown extension", path: "data/blob.nope", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, chroma.NewDetector().DetectFromPath(tt.path))
		})
	}
}
