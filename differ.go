package diffmod

import (
	"bytes"
	"fmt"
)

// DiffFile computes the diff between two file bodies stored in buf. A body
// containing a zero byte yields a binary File without hunks.
func DiffFile(buf *Buffer, oldName, newName FileName, oldBody, newBody Range, opts DiffOptions) (File, error) {
	if oldName.IsMissing() && newName.IsMissing() {
		return File{}, fmt.Errorf("%w: both sides of the file are missing", ErrMalformedPath)
	}
	if oldName.IsMissing() && !oldBody.IsEmpty() {
		return File{}, fmt.Errorf("%w: %s: old side is missing but has content", ErrMalformedPath, newName)
	}
	if newName.IsMissing() && !newBody.IsEmpty() {
		return File{}, fmt.Errorf("%w: %s: new side is missing but has content", ErrMalformedPath, oldName)
	}

	f := File{OldName: oldName, NewName: newName}
	oldData, newData := buf.Slice(oldBody), buf.Slice(newBody)
	if bytes.IndexByte(oldData, 0) >= 0 || bytes.IndexByte(newData, 0) >= 0 {
		f.Binary = !bytes.Equal(oldData, newData)
		return f, nil
	}
	hunks, err := DiffLines(buf, BodyLines(buf, oldBody), BodyLines(buf, newBody), opts)
	if err != nil {
		return File{}, fmt.Errorf("%s: %w", f.Path(), err)
	}
	f.Hunks = hunks
	return f, nil
}

// BodyLines splits a file body into lines. The last line gets NoNewline set
// when the body does not end with a terminator. Kinds are left as Context.
func BodyLines(buf *Buffer, body Range) []Line {
	var lines []Line
	for _, r := range splitLines(buf, body) {
		lines = append(lines, Line{Kind: Context, Content: r})
	}
	data := buf.Slice(body)
	if len(lines) > 0 && data[len(data)-1] != '\n' {
		lines[len(lines)-1].NoNewline = true
	}
	return lines
}

// lineKey identifies a line for matching: its bytes and whether it ends the
// file without a terminator.
type lineKey struct {
	content   string
	noNewline bool
}

// intern assigns small integer ids to distinct lines.
func intern(buf *Buffer, old, new []Line) ([]int, []int, error) {
	ids := make(map[lineKey]int)
	assign := func(lines []Line) ([]int, error) {
		out := make([]int, len(lines))
		for i, l := range lines {
			k := lineKey{content: buf.String(l.Content), noNewline: l.NoNewline}
			id, ok := ids[k]
			if !ok {
				id = len(ids)
				if id > maxLineID {
					return nil, fmt.Errorf("%w: too many distinct lines", ErrParse)
				}
				ids[k] = id
			}
			out[i] = id
		}
		return out, nil
	}
	a, err := assign(old)
	if err != nil {
		return nil, nil, err
	}
	b, err := assign(new)
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

// DiffLines diffs two line sequences whose content already lives in buf and
// groups the result into hunks using opts.
func DiffLines(buf *Buffer, old, new []Line, opts DiffOptions) ([]Hunk, error) {
	a, b, err := intern(buf, old, new)
	if err != nil {
		return nil, err
	}
	ms := opts.Algorithm.matches(a, b)
	return buildHunks(scriptFromMatches(old, new, ms), opts.ContextLines), nil
}

// editOp is one step of an edit script. A positive gap stands for that many
// unchanged lines whose content is unknown.
type editOp struct {
	Line
	gap int
}

func scriptFromMatches(old, new []Line, ms []match) []editOp {
	ops := make([]editOp, 0, len(old)+len(new))
	ai, bi := 0, 0
	emit := func(toA, toB int) {
		for ; ai < toA; ai++ {
			l := old[ai]
			l.Kind = Removed
			ops = append(ops, editOp{Line: l})
		}
		for ; bi < toB; bi++ {
			l := new[bi]
			l.Kind = Added
			ops = append(ops, editOp{Line: l})
		}
	}
	for _, m := range ms {
		emit(m.a, m.b)
		l := old[ai]
		l.Kind = Context
		ops = append(ops, editOp{Line: l})
		ai++
		bi++
	}
	emit(len(old), len(new))
	return ops
}

// normalizeBlocks orders each run of changes so removed lines precede added
// lines, keeping the relative order within each kind.
func normalizeBlocks(ops []editOp) []editOp {
	out := make([]editOp, 0, len(ops))
	var added []editOp
	flush := func() {
		out = append(out, added...)
		added = added[:0]
	}
	for _, op := range ops {
		switch {
		case op.gap > 0 || op.Kind == Context:
			flush()
			out = append(out, op)
		case op.Kind == Removed:
			out = append(out, op)
		default:
			added = append(added, op)
		}
	}
	flush()
	return out
}

// buildHunks groups an edit script into hunks with up to context unchanged
// lines around each change. Changes separated by at most 2*context unchanged
// lines share a hunk. Gaps always separate hunks.
func buildHunks(ops []editOp, context int) []Hunk {
	context = max(context, 0)
	ops = normalizeBlocks(ops)
	var hunks []Hunk
	a, c := 0, 0
	for i := 0; i < len(ops); {
		if ops[i].gap > 0 {
			a += ops[i].gap
			c += ops[i].gap
			i++
			continue
		}
		j := i
		for j < len(ops) && ops[j].gap == 0 {
			j++
		}
		hunks = appendSegmentHunks(hunks, ops[i:j], a, c, context)
		for _, op := range ops[i:j] {
			if op.Kind != Added {
				a++
			}
			if op.Kind != Removed {
				c++
			}
		}
		i = j
	}
	return hunks
}

func appendSegmentHunks(hunks []Hunk, seg []editOp, a0, c0, context int) []Hunk {
	aAt := make([]int, len(seg)+1)
	cAt := make([]int, len(seg)+1)
	aAt[0], cAt[0] = a0, c0
	var changes []int
	for k, op := range seg {
		aAt[k+1], cAt[k+1] = aAt[k], cAt[k]
		if op.Kind != Added {
			aAt[k+1]++
		}
		if op.Kind != Removed {
			cAt[k+1]++
		}
		if op.Kind != Context {
			changes = append(changes, k)
		}
	}
	for start := 0; start < len(changes); {
		end := start
		for end+1 < len(changes) && changes[end+1]-changes[end]-1 <= 2*context {
			end++
		}
		lo := max(changes[start]-context, 0)
		hi := min(changes[end]+context+1, len(seg))
		hunks = append(hunks, makeHunk(seg[lo:hi], aAt[lo], cAt[lo]))
		start = end + 1
	}
	return hunks
}

func makeHunk(ops []editOp, a, c int) Hunk {
	h := Hunk{Lines: make([]Line, 0, len(ops))}
	for _, op := range ops {
		h.Lines = append(h.Lines, op.Line)
		if op.Kind != Added {
			h.OldCount++
		}
		if op.Kind != Removed {
			h.NewCount++
		}
	}
	h.OldStart, h.NewStart = a, c
	if h.OldCount > 0 {
		h.OldStart++
	}
	if h.NewCount > 0 {
		h.NewStart++
	}
	return h
}

// Apply applies the hunks of f to old and returns the resulting content. It
// fails if a context or removed line does not match old.
func Apply(buf *Buffer, f *File, old []byte) ([]byte, error) {
	if f.Binary {
		return nil, fmt.Errorf("%w: %s: cannot apply a binary diff", ErrConflict, f.Path())
	}
	var lines [][]byte
	for len(old) > 0 {
		idx := bytes.IndexByte(old, '\n')
		if idx < 0 {
			lines = append(lines, old)
			break
		}
		lines = append(lines, old[:idx+1])
		old = old[idx+1:]
	}

	var out bytes.Buffer
	pos := 0
	write := func(content []byte, noNewline bool) {
		out.Write(content)
		if !noNewline {
			out.WriteByte('\n')
		}
	}
	for hi := range f.Hunks {
		h := &f.Hunks[hi]
		start := h.oldPos()
		if start < pos || start > len(lines) {
			return nil, fmt.Errorf("%w: %s: hunk @@ -%d,%d @@ is out of range", ErrConflict, f.Path(), h.OldStart, h.OldCount)
		}
		for ; pos < start; pos++ {
			out.Write(lines[pos])
		}
		for _, l := range h.Lines {
			content := buf.Slice(l.Content)
			if l.Kind == Added {
				write(content, l.NoNewline)
				continue
			}
			if pos >= len(lines) {
				return nil, fmt.Errorf("%w: %s:%d: hunk extends past end of file", ErrConflict, f.Path(), pos+1)
			}
			got := lines[pos]
			gotNoNewline := len(got) == 0 || got[len(got)-1] != '\n'
			if !gotNoNewline {
				got = got[:len(got)-1]
			}
			if !bytes.Equal(got, content) || gotNoNewline != l.NoNewline {
				return nil, fmt.Errorf("%w: %s:%d: expected %q, found %q", ErrConflict, f.Path(), pos+1, content, got)
			}
			if l.Kind == Context {
				write(content, l.NoNewline)
			}
			pos++
		}
	}
	for ; pos < len(lines); pos++ {
		out.Write(lines[pos])
	}
	return out.Bytes(), nil
}
