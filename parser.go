package diffmod

import (
	"bytes"
	"fmt"
	"strconv"
)

// Parser parses diff content stored in a Buffer into domain types.
type Parser interface {
	// Parse reads the unified diff text at rng and returns the parsed result.
	Parse(buf *Buffer, rng Range) (*Diff, error)
}

// Compile-time interface verification.
var _ Parser = (*UnifiedParser)(nil)

// UnifiedParser is the native unified-diff parser.
type UnifiedParser struct {
	Options DiffOptions
}

// NewParser creates a UnifiedParser using opts.
func NewParser(opts DiffOptions) *UnifiedParser {
	return &UnifiedParser{Options: opts}
}

// Parse implements Parser.
func (p *UnifiedParser) Parse(buf *Buffer, rng Range) (*Diff, error) {
	return Parse(buf, rng, p.Options)
}

// Parse parses the unified diff text at rng. The buffer is only read.
func Parse(buf *Buffer, rng Range, opts DiffOptions) (*Diff, error) {
	p := &parser{
		buf:   buf,
		opts:  opts,
		lines: splitLines(buf, rng),
		out:   NewDiffBuilder(opts),
	}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.out.Build(), nil
}

// splitLines returns the ranges of each line in rng, excluding terminators.
func splitLines(buf *Buffer, rng Range) []Range {
	data := buf.Slice(rng)
	var lines []Range
	off := 0
	for off < len(data) {
		idx := bytes.IndexByte(data[off:], '\n')
		if idx < 0 {
			lines = append(lines, rng.Sub(off, len(data)-off))
			break
		}
		lines = append(lines, rng.Sub(off, idx))
		off += idx + 1
	}
	return lines
}

type parser struct {
	buf   *Buffer
	opts  DiffOptions
	lines []Range
	pos   int
	out   *DiffBuilder
}

func (p *parser) text(i int) []byte { return p.buf.Slice(p.lines[i]) }

func (p *parser) cur() []byte { return p.text(p.pos) }

func (p *parser) errorf(path, format string, args ...any) error {
	return &ParseError{
		Line: p.pos + 1,
		Path: path,
		Err:  fmt.Errorf("%w: "+format, append([]any{ErrParse}, args...)...),
	}
}

func (p *parser) wrap(path string, err error) error {
	return &ParseError{Line: p.pos + 1, Path: path, Err: err}
}

// atPlainHeader reports whether a "--- "/"+++ " pair starts at p.pos.
func (p *parser) atPlainHeader() bool {
	return p.pos+1 < len(p.lines) &&
		bytes.HasPrefix(p.cur(), []byte("--- ")) &&
		bytes.HasPrefix(p.text(p.pos+1), []byte("+++ "))
}

func (p *parser) parse() error {
	for p.pos < len(p.lines) {
		line := p.cur()
		switch {
		case bytes.HasPrefix(line, []byte("diff --git ")):
			if err := p.parseGitFile(); err != nil {
				return err
			}
		case bytes.HasPrefix(line, []byte("diff --cc ")), bytes.HasPrefix(line, []byte("diff --combined ")):
			return p.errorf("", "combined diffs are not supported")
		case p.atPlainHeader():
			var f File
			if err := p.parseNamesAndHunks(&f); err != nil {
				return err
			}
			p.out.AddFile(f)
		case bytes.HasPrefix(line, []byte("Binary files ")):
			f, err := p.parseBinaryLine(nil)
			if err != nil {
				return err
			}
			p.out.AddFile(f)
			p.pos++
		default:
			// Preamble, "Index:" lines, signatures and other noise.
			p.pos++
		}
	}
	return nil
}

func (p *parser) parseGitFile() error {
	hdr := p.cur()[len("diff --git "):]
	gitOld, gitNew, haveGitNames := p.gitNames(hdr)
	path := string(hdr)
	p.pos++

	var (
		f                File
		isNew, isDelete  bool
		renameFrom       []byte
		renameTo         []byte
		explicitNames    bool
		binaryFromHeader *File
	)

header:
	for p.pos < len(p.lines) {
		line := p.cur()
		switch {
		case bytes.HasPrefix(line, []byte("old mode ")):
			m, err := parseMode(line[len("old mode "):])
			if err != nil {
				return p.wrap(path, err)
			}
			f.OldMode = m
		case bytes.HasPrefix(line, []byte("new mode ")):
			m, err := parseMode(line[len("new mode "):])
			if err != nil {
				return p.wrap(path, err)
			}
			f.NewMode = m
		case bytes.HasPrefix(line, []byte("deleted file mode ")):
			m, err := parseMode(line[len("deleted file mode "):])
			if err != nil {
				return p.wrap(path, err)
			}
			f.OldMode = m
			isDelete = true
		case bytes.HasPrefix(line, []byte("new file mode ")):
			m, err := parseMode(line[len("new file mode "):])
			if err != nil {
				return p.wrap(path, err)
			}
			f.NewMode = m
			isNew = true
		case bytes.HasPrefix(line, []byte("rename from ")):
			renameFrom = line[len("rename from "):]
		case bytes.HasPrefix(line, []byte("rename to ")):
			renameTo = line[len("rename to "):]
		case bytes.HasPrefix(line, []byte("copy from ")):
			renameFrom = line[len("copy from "):]
			f.Copy = true
		case bytes.HasPrefix(line, []byte("copy to ")):
			renameTo = line[len("copy to "):]
			f.Copy = true
		case bytes.HasPrefix(line, []byte("similarity index ")),
			bytes.HasPrefix(line, []byte("dissimilarity index ")),
			bytes.HasPrefix(line, []byte("index ")):
		case bytes.HasPrefix(line, []byte("GIT binary patch")):
			return p.errorf(path, "binary patch data is not supported")
		case bytes.HasPrefix(line, []byte("Binary files ")):
			bf, err := p.parseBinaryLine(&f)
			if err != nil {
				return err
			}
			binaryFromHeader = &bf
			p.pos++
			break header
		case p.atPlainHeader():
			if err := p.parseNamesAndHunks(&f); err != nil {
				return err
			}
			explicitNames = true
			break header
		case bytes.HasPrefix(line, []byte("@@ ")):
			return p.errorf(path, "hunk without ---/+++ header")
		default:
			break header
		}
		p.pos++
	}

	switch {
	case binaryFromHeader != nil:
		f.OldName, f.NewName, f.Binary = binaryFromHeader.OldName, binaryFromHeader.NewName, true
	case explicitNames:
	case renameFrom != nil && renameTo != nil:
		var err error
		if f.OldName, err = ParseFileName(renameFrom, 0); err != nil {
			return p.wrap(path, err)
		}
		if f.NewName, err = ParseFileName(renameTo, 0); err != nil {
			return p.wrap(path, err)
		}
	case haveGitNames:
		f.OldName, f.NewName = gitOld, gitNew
	default:
		return p.errorf(path, "cannot determine file names from %q", hdr)
	}
	if isNew {
		f.OldName = Missing
	}
	if isDelete {
		f.NewName = Missing
	}
	if f.OldName.IsMissing() && f.NewName.IsMissing() {
		return p.errorf(path, "both sides of the file are missing")
	}
	p.out.AddFile(f)
	return nil
}

// gitNames splits the names in a "diff --git" line. Unquoted names are split
// at the space where both halves name the same file, as git only relies on
// this line when the names agree.
func (p *parser) gitNames(hdr []byte) (FileName, FileName, bool) {
	strip := p.opts.StripPathComponents
	if len(hdr) > 0 && hdr[0] == '"' {
		tok, rest, ok := readQuoted(hdr)
		if !ok || len(rest) < 2 || rest[0] != ' ' {
			return Missing, Missing, false
		}
		a, errA := ParseFileName(tok, strip)
		b, errB := ParseFileName(rest[1:], strip)
		return a, b, errA == nil && errB == nil
	}
	if idx := bytes.Index(hdr, []byte(` "`)); idx >= 0 {
		a, errA := ParseFileName(hdr[:idx], strip)
		b, errB := ParseFileName(hdr[idx+1:], strip)
		return a, b, errA == nil && errB == nil
	}
	var firstA, firstB FileName
	found := false
	for i := 0; i < len(hdr); i++ {
		if hdr[i] != ' ' {
			continue
		}
		a, errA := ParseFileName(hdr[:i], strip)
		b, errB := ParseFileName(hdr[i+1:], strip)
		if errA != nil || errB != nil {
			continue
		}
		if a == b {
			return a, b, true
		}
		if !found {
			firstA, firstB, found = a, b, true
		}
	}
	return firstA, firstB, found
}

// readQuoted reads a C-style quoted token at the start of b.
func readQuoted(b []byte) (tok, rest []byte, ok bool) {
	for i := 1; i < len(b); i++ {
		switch b[i] {
		case '\\':
			i++
		case '"':
			return b[:i+1], b[i+1:], true
		}
	}
	return nil, nil, false
}

// headerName extracts the path from the remainder of a ---/+++ line.
func (p *parser) headerName(rest []byte) (FileName, error) {
	if len(rest) > 0 && rest[0] == '"' {
		tok, _, ok := readQuoted(rest)
		if !ok {
			return Missing, fmt.Errorf("%w: unterminated quoted path %q", ErrMalformedPath, rest)
		}
		return ParseFileName(tok, p.opts.StripPathComponents)
	}
	if idx := bytes.IndexByte(rest, '\t'); idx >= 0 {
		rest = rest[:idx]
	}
	return ParseFileName(rest, p.opts.StripPathComponents)
}

func (p *parser) parseBinaryLine(f *File) (File, error) {
	line := p.cur()
	path := string(line)
	body := bytes.TrimSuffix(line[len("Binary files "):], []byte(" differ"))
	idx := bytes.Index(body, []byte(" and "))
	if idx < 0 {
		return File{}, p.errorf(path, "malformed binary files line")
	}
	var out File
	if f != nil {
		out = *f
	}
	var err error
	if out.OldName, err = p.headerName(body[:idx]); err != nil {
		return File{}, p.wrap(path, err)
	}
	if out.NewName, err = p.headerName(body[idx+len(" and "):]); err != nil {
		return File{}, p.wrap(path, err)
	}
	out.Binary = true
	return out, nil
}

// parseNamesAndHunks parses a ---/+++ pair at p.pos and the hunks following it.
func (p *parser) parseNamesAndHunks(f *File) error {
	var err error
	raw := string(p.cur()[len("--- "):])
	if f.OldName, err = p.headerName(p.cur()[len("--- "):]); err != nil {
		return p.wrap(raw, err)
	}
	p.pos++
	raw = string(p.cur()[len("+++ "):])
	if f.NewName, err = p.headerName(p.cur()[len("+++ "):]); err != nil {
		return p.wrap(raw, err)
	}
	p.pos++
	path := f.Path()
	if f.OldName.IsMissing() && f.NewName.IsMissing() {
		return p.errorf(path, "both sides of the file are missing")
	}

	prevOld, prevNew := 0, 0
	for p.pos < len(p.lines) && bytes.HasPrefix(p.cur(), []byte("@@ -")) {
		start := p.pos
		h, err := p.parseHunk(path)
		if err != nil {
			return err
		}
		if h.oldPos() < prevOld || h.newPos() < prevNew {
			p.pos = start
			return p.errorf(path, "hunk @@ -%d,%d +%d,%d @@ overlaps or precedes the previous hunk",
				h.OldStart, h.OldCount, h.NewStart, h.NewCount)
		}
		prevOld, prevNew = h.oldPos()+h.OldCount, h.newPos()+h.NewCount
		f.Hunks = append(f.Hunks, h)
	}
	if p.pos < len(p.lines) && len(f.Hunks) > 0 {
		line := p.cur()
		stray := len(line) > 0 && (line[0] == '+' || line[0] == ' ' || line[0] == '-')
		if stray && !p.atPlainHeader() && string(line) != "-- " {
			last := f.Hunks[len(f.Hunks)-1]
			return p.errorf(path, "hunk @@ -%d,%d +%d,%d @@ has more lines than declared",
				last.OldStart, last.OldCount, last.NewStart, last.NewCount)
		}
	}
	return nil
}

func (p *parser) parseHunk(path string) (Hunk, error) {
	headerRange := p.lines[p.pos]
	h, sectionOff, ok := parseHunkHeader(p.cur())
	if !ok {
		return Hunk{}, p.errorf(path, "malformed hunk header %q", p.cur())
	}
	if sectionOff > 0 {
		h.Section = headerRange.Sub(sectionOff, headerRange.Len-sectionOff)
	}
	p.pos++

	oldSeen, newSeen := 0, 0
	mismatch := func() error {
		return p.errorf(path, "hunk @@ -%d,%d +%d,%d @@: line count mismatch (saw %d old, %d new)",
			h.OldStart, h.OldCount, h.NewStart, h.NewCount, oldSeen, newSeen)
	}
	for oldSeen < h.OldCount || newSeen < h.NewCount {
		if p.pos >= len(p.lines) {
			return Hunk{}, p.errorf(path, "unexpected end of input in hunk @@ -%d,%d +%d,%d @@",
				h.OldStart, h.OldCount, h.NewStart, h.NewCount)
		}
		rng := p.lines[p.pos]
		line := p.cur()
		var kind LineKind
		switch {
		case len(line) == 0:
			kind = Context
			rng = rng.Sub(0, 0)
		case line[0] == ' ':
			kind = Context
		case line[0] == '+':
			kind = Added
		case line[0] == '-':
			kind = Removed
		case line[0] == '\\':
			if len(h.Lines) == 0 {
				return Hunk{}, p.errorf(path, "no-newline marker without a preceding line")
			}
			h.Lines[len(h.Lines)-1].NoNewline = true
			p.pos++
			continue
		default:
			return Hunk{}, mismatch()
		}
		if kind != Added {
			oldSeen++
		}
		if kind != Removed {
			newSeen++
		}
		if oldSeen > h.OldCount || newSeen > h.NewCount {
			return Hunk{}, mismatch()
		}
		if rng.Len > 0 {
			rng = rng.Sub(1, rng.Len-1)
		}
		h.Lines = append(h.Lines, Line{Kind: kind, Content: rng})
		p.pos++
	}
	if p.pos < len(p.lines) && bytes.HasPrefix(p.cur(), []byte(`\`)) && len(h.Lines) > 0 {
		h.Lines[len(h.Lines)-1].NoNewline = true
		p.pos++
	}
	return h, nil
}

// parseHunkHeader parses "@@ -o[,oc] +n[,nc] @@[ section]". sectionOff is the
// offset of the section text within line, or 0 if there is none.
func parseHunkHeader(line []byte) (h Hunk, sectionOff int, ok bool) {
	s := line[len("@@ -"):]
	var rest []byte
	if h.OldStart, h.OldCount, rest, ok = parseRange(s); !ok {
		return Hunk{}, 0, false
	}
	if !bytes.HasPrefix(rest, []byte(" +")) {
		return Hunk{}, 0, false
	}
	if h.NewStart, h.NewCount, rest, ok = parseRange(rest[2:]); !ok {
		return Hunk{}, 0, false
	}
	if !bytes.HasPrefix(rest, []byte(" @@")) {
		return Hunk{}, 0, false
	}
	rest = rest[3:]
	if len(rest) > 1 && rest[0] == ' ' {
		sectionOff = len(line) - len(rest) + 1
	}
	return h, sectionOff, true
}

// parseRange parses "start[,count]"; count defaults to 1.
func parseRange(s []byte) (start, count int, rest []byte, ok bool) {
	start, s, ok = parseNum(s)
	if !ok {
		return 0, 0, nil, false
	}
	count = 1
	if len(s) > 0 && s[0] == ',' {
		if count, s, ok = parseNum(s[1:]); !ok {
			return 0, 0, nil, false
		}
	}
	return start, count, s, true
}

func parseNum(s []byte) (int, []byte, bool) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, s, false
	}
	n, err := strconv.Atoi(string(s[:i]))
	if err != nil {
		return 0, s, false
	}
	return n, s[i:], true
}

func parseMode(b []byte) (uint32, error) {
	m, err := strconv.ParseUint(string(bytes.TrimSpace(b)), 8, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid file mode %q", ErrParse, b)
	}
	return uint32(m), nil
}
