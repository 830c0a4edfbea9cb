// Package gitdiff parses unified diffs with github.com/bluekeyes/go-gitdiff.
package gitdiff

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"github.com/fwojciec/diffmod"
)

// Compile-time interface verification.
var _ diffmod.Parser = (*Parser)(nil)

// Parser converts go-gitdiff output into a diffmod.Diff. Line content is
// copied into the buffer passed to Parse.
//
// go-gitdiff always drops one leading path component, so StripPathComponents
// must be at least 1.
type Parser struct {
	Options diffmod.DiffOptions
}

// NewParser creates a Parser with the given options.
func NewParser(opts diffmod.DiffOptions) *Parser {
	return &Parser{Options: opts}
}

// Parse parses the diff text in rng.
func (p *Parser) Parse(buf *diffmod.Buffer, rng diffmod.Range) (*diffmod.Diff, error) {
	extra := p.Options.StripPathComponents - 1
	if extra < 0 {
		return nil, &diffmod.ParseError{Err: fmt.Errorf("%w: strip level 0 is not supported by this parser", diffmod.ErrParse)}
	}

	files, _, err := gitdiff.Parse(bytes.NewReader(buf.Slice(rng)))
	if err != nil {
		return nil, &diffmod.ParseError{Err: fmt.Errorf("%w: %w", diffmod.ErrParse, err)}
	}

	b := diffmod.NewDiffBuilder(p.Options)
	for _, gf := range files {
		f, err := convertFile(buf, gf, extra)
		if err != nil {
			return nil, err
		}
		b.AddFile(f)
	}
	return b.Build(), nil
}

func convertFile(buf *diffmod.Buffer, gf *gitdiff.File, strip int) (diffmod.File, error) {
	f := diffmod.File{
		OldMode: uint32(gf.OldMode),
		NewMode: uint32(gf.NewMode),
		Binary:  gf.IsBinary,
		Copy:    gf.IsCopy,
	}

	var err error
	if !gf.IsNew {
		if f.OldName, err = fileName(gf.OldName, strip); err != nil {
			return diffmod.File{}, err
		}
	}
	if !gf.IsDelete {
		if f.NewName, err = fileName(gf.NewName, strip); err != nil {
			return diffmod.File{}, err
		}
	}
	if f.OldName.IsMissing() && f.NewName.IsMissing() {
		return diffmod.File{}, &diffmod.ParseError{Err: fmt.Errorf("%w: file has no name on either side", diffmod.ErrParse)}
	}
	if f.OldName.IsMissing() {
		f.OldMode = 0
	}
	if f.NewName.IsMissing() {
		f.NewMode = 0
	}

	for _, frag := range gf.TextFragments {
		f.Hunks = append(f.Hunks, convertFragment(buf, frag))
	}
	return f, nil
}

func fileName(name string, strip int) (diffmod.FileName, error) {
	n, err := diffmod.ParseFileName([]byte(name), strip)
	if err != nil {
		return diffmod.Missing, &diffmod.ParseError{Path: name, Err: err}
	}
	return n, nil
}

func convertFragment(buf *diffmod.Buffer, frag *gitdiff.TextFragment) diffmod.Hunk {
	h := diffmod.Hunk{
		OldStart: int(frag.OldPosition),
		OldCount: int(frag.OldLines),
		NewStart: int(frag.NewPosition),
		NewCount: int(frag.NewLines),
		Lines:    make([]diffmod.Line, 0, len(frag.Lines)),
	}
	if frag.Comment != "" {
		h.Section = buf.InsertString(frag.Comment)
	}
	for _, l := range frag.Lines {
		line := diffmod.Line{
			Content:   buf.InsertString(strings.TrimSuffix(l.Line, "\n")),
			NoNewline: l.NoEOL(),
		}
		switch l.Op {
		case gitdiff.OpAdd:
			line.Kind = diffmod.Added
		case gitdiff.OpDelete:
			line.Kind = diffmod.Removed
		default:
			line.Kind = diffmod.Context
		}
		h.Lines = append(h.Lines, line)
	}
	return h
}
