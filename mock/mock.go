// Package mock provides test doubles for diffmod interfaces.
package mock

import (
	"context"

	"github.com/fwojciec/diffmod"
)

var _ diffmod.ContentProvider = (*ContentProvider)(nil)

// ContentProvider is a mock implementation of diffmod.ContentProvider.
type ContentProvider struct {
	DiffFn      func(ctx context.Context, from, to string) ([]byte, error)
	MergeBaseFn func(ctx context.Context, a, b string) (string, error)
	ShowFn      func(ctx context.Context, rev, path string) ([]byte, error)
}

func (p *ContentProvider) Diff(ctx context.Context, from, to string) ([]byte, error) {
	return p.DiffFn(ctx, from, to)
}

func (p *ContentProvider) MergeBase(ctx context.Context, a, b string) (string, error) {
	return p.MergeBaseFn(ctx, a, b)
}

func (p *ContentProvider) Show(ctx context.Context, rev, path string) ([]byte, error) {
	return p.ShowFn(ctx, rev, path)
}

var _ diffmod.Viewer = (*Viewer)(nil)

// Viewer is a mock implementation of diffmod.Viewer.
type Viewer struct {
	ViewFn func(ctx context.Context, buf *diffmod.Buffer, diff *diffmod.Diff) error
}

func (v *Viewer) View(ctx context.Context, buf *diffmod.Buffer, diff *diffmod.Diff) error {
	return v.ViewFn(ctx, buf, diff)
}

var _ diffmod.Tokenizer = (*Tokenizer)(nil)

// Tokenizer is a mock implementation of diffmod.Tokenizer.
type Tokenizer struct {
	TokenizeFn      func(language, source string) []diffmod.Token
	TokenizeLinesFn func(language, source string) [][]diffmod.Token
}

func (t *Tokenizer) Tokenize(language, source string) []diffmod.Token {
	return t.TokenizeFn(language, source)
}

func (t *Tokenizer) TokenizeLines(language, source string) [][]diffmod.Token {
	return t.TokenizeLinesFn(language, source)
}

var _ diffmod.LanguageDetector = (*LanguageDetector)(nil)

// LanguageDetector is a mock implementation of diffmod.LanguageDetector.
type LanguageDetector struct {
	DetectFromPathFn func(path string) string
}

func (d *LanguageDetector) DetectFromPath(path string) string {
	return d.DetectFromPathFn(path)
}
