package diffmod

import (
	"bytes"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Compose returns the diff equivalent to applying first and then second.
// Files are matched by first's new name against second's old name. The
// result uses first's options.
func Compose(buf *Buffer, first, second *Diff) (*Diff, error) {
	return ComposeWithOptions(buf, first, second, first.Options)
}

// ComposeWithOptions is like Compose but regroups hunks using opts.
func ComposeWithOptions(buf *Buffer, first, second *Diff, opts DiffOptions) (*Diff, error) {
	return composeDiffs(buf, first, second, opts, modeCompose)
}

// composeMode selects how a tape is turned back into an edit script.
type composeMode int

const (
	// modeCompose keeps the edits of both diffs.
	modeCompose composeMode = iota
	// modeRebase reverts edits made only by the first diff and reports
	// overlapping edits as conflicts; see DiffModuloBase.
	modeRebase
)

// fileJob reconciles first.Files[fi] with second.Files[si]; -1 means absent.
type fileJob struct {
	fi, si int
}

func composeDiffs(buf *Buffer, first, second *Diff, opts DiffOptions, mode composeMode) (*Diff, error) {
	byNew := make(map[FileName]int)
	byOld := make(map[FileName]int)
	deleted := make(map[FileName]int)
	for i := range first.Files {
		f := &first.Files[i]
		if f.NewName.IsMissing() {
			deleted[f.OldName] = i
		} else if _, dup := byNew[f.NewName]; !dup {
			byNew[f.NewName] = i
		}
		// A copy leaves its source in place.
		if !f.OldName.IsMissing() && !f.Copy {
			byOld[f.OldName] = i
		}
	}

	pairedFirst := make(map[int]int)
	secondOnly := make([]bool, len(second.Files))
	for j := range second.Files {
		g := &second.Files[j]
		if g.OldName.IsMissing() {
			if i, ok := deleted[g.NewName]; ok {
				if _, taken := pairedFirst[i]; !taken {
					pairedFirst[i] = j
					continue
				}
			}
			secondOnly[j] = true
			continue
		}
		if i, ok := byNew[g.OldName]; ok {
			if _, taken := pairedFirst[i]; !taken {
				pairedFirst[i] = j
				continue
			}
		}
		if i, ok := byOld[g.OldName]; ok && first.Files[i].NewName != g.OldName {
			return nil, &ConflictError{
				Path:   g.OldName.Path(),
				Line:   0,
				Detail: fmt.Sprintf("file was moved to %s by the first diff but is edited by the second", first.Files[i].NewName),
			}
		}
		secondOnly[j] = true
	}

	var jobs []fileJob
	switch mode {
	case modeRebase:
		firstFor := make(map[int]int, len(pairedFirst))
		for i, j := range pairedFirst {
			firstFor[j] = i
		}
		for j := range second.Files {
			if i, ok := firstFor[j]; ok {
				jobs = append(jobs, fileJob{fi: i, si: j})
			} else {
				jobs = append(jobs, fileJob{fi: -1, si: j})
			}
		}
	default:
		for i := range first.Files {
			if j, ok := pairedFirst[i]; ok {
				jobs = append(jobs, fileJob{fi: i, si: j})
			} else {
				jobs = append(jobs, fileJob{fi: i, si: -1})
			}
		}
		for j, only := range secondOnly {
			if only {
				jobs = append(jobs, fileJob{fi: -1, si: j})
			}
		}
	}

	results := make([]*File, len(jobs))
	errs := make([]error, len(jobs))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for k, job := range jobs {
		g.Go(func() error {
			switch {
			case job.si < 0:
				f := first.Files[job.fi]
				results[k] = &f
			case job.fi < 0:
				f := second.Files[job.si]
				results[k] = &f
			default:
				results[k], errs[k] = reconcileFile(buf, &first.Files[job.fi], &second.Files[job.si], opts, mode)
			}
			return nil
		})
	}
	// Failures go through errs so the first one by file order is reported.
	_ = g.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	out := NewDiffBuilder(opts)
	for _, f := range results {
		if f != nil {
			out.AddFile(*f)
		}
	}
	return out.Build(), nil
}

// reconcileFile composes f1 (A→B) with f2 (B→C). A nil result means the
// composition leaves the file untouched.
func reconcileFile(buf *Buffer, f1, f2 *File, opts DiffOptions, mode composeMode) (*File, error) {
	path := f2.Path()
	if path == "" {
		path = f1.Path()
	}

	res := File{OldName: f1.OldName, NewName: f2.NewName, Copy: f1.Copy || f2.Copy}
	res.OldMode = f1.OldMode
	if res.OldMode == 0 && !f1.OldName.IsMissing() {
		res.OldMode = f2.OldMode
	}
	res.NewMode = f2.NewMode
	if res.NewMode == 0 && !f2.NewName.IsMissing() {
		res.NewMode = f1.NewMode
	}
	if mode == modeRebase {
		if err := rebaseHeader(&res, f1, f2, path); err != nil {
			return nil, err
		}
	}

	// A file deleted and then created again: both contents are fully known.
	if f1.NewName.IsMissing() && f2.OldName.IsMissing() {
		if f1.Binary || f2.Binary {
			res.Binary = true
			return finishFile(res), nil
		}
		hunks, err := DiffLines(buf, sideLines(f1, Removed), sideLines(f2, Added), opts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		res.Hunks = hunks
		return finishFile(res), nil
	}

	if f1.Binary || f2.Binary {
		if mode == modeRebase {
			baseTouched := f1.Binary || len(f1.Hunks) > 0
			targetTouched := f2.Binary || len(f2.Hunks) > 0
			if baseTouched && targetTouched {
				return nil, &ConflictError{Path: path, Detail: "binary content changed on both sides"}
			}
			res.Binary = f2.Binary
			return finishFile(res), nil
		}
		res.Binary = true
		return finishFile(res), nil
	}

	tape, err := walkTape(buf, f1, f2, path)
	if err != nil {
		return nil, err
	}
	var ops []editOp
	if mode == modeRebase {
		if ops, err = rebaseOps(buf, tape, path); err != nil {
			return nil, err
		}
	} else {
		ops = composeOps(tape)
	}
	ops, err = refineBlocks(buf, ops, opts.Algorithm)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	res.Hunks = buildHunks(ops, opts.ContextLines)
	return finishFile(res), nil
}

// finishFile drops files whose composition is the identity.
func finishFile(f File) *File {
	if f.OldName.IsMissing() && f.NewName.IsMissing() {
		return nil
	}
	if f.OldName.IsMissing() {
		f.OldMode = 0
	}
	if f.NewName.IsMissing() {
		f.NewMode = 0
	}
	if f.OldName == f.NewName && !f.Binary && len(f.Hunks) == 0 && !f.IsModeChange() {
		return nil
	}
	return &f
}

// sideLines collects the lines of one side of f's hunks: Removed selects the
// old side, Added the new side.
func sideLines(f *File, side LineKind) []Line {
	var out []Line
	for _, h := range f.Hunks {
		for _, l := range h.Lines {
			if l.Kind == side || l.Kind == Context {
				out = append(out, l)
			}
		}
	}
	return out
}

// tapeKind classifies one step of the walk over the shared (middle) side.
type tapeKind int

const (
	tapeFirstOnly  tapeKind = iota // removed by the first diff, not on the shared side
	tapeSecondOnly                 // added by the second diff, not on the shared side
	tapeShared                     // a line of the shared side
	tapeGap                        // untouched shared lines of unknown content
)

type tapeOp struct {
	kind          tapeKind
	line          Line
	firstAdded    bool // tapeShared: the first diff added this line
	secondRemoved bool // tapeShared: the second diff removed this line
	n             int  // tapeGap: number of lines
	shared        int  // 0-based shared-side index at this step
}

// boundary reports whether op separates change blocks.
func (op tapeOp) boundary() bool {
	return op.kind == tapeGap || (op.kind == tapeShared && !op.firstAdded && !op.secondRemoved)
}

// walkTape merges the hunks of f1 and f2 along the shared side.
func walkTape(buf *Buffer, f1, f2 *File, path string) ([]tapeOp, error) {
	c1 := &cursor{hunks: f1.Hunks, sharedIsNew: true, path: path}
	c2 := &cursor{hunks: f2.Hunks, path: path}
	var tape []tapeOp
	for {
		o1, err := c1.peek()
		if err != nil {
			return nil, err
		}
		o2, err := c2.peek()
		if err != nil {
			return nil, err
		}
		if o1.kind == opPrivate {
			tape = append(tape, tapeOp{kind: tapeFirstOnly, line: o1.line, shared: c1.shared})
			c1.next(o1)
			continue
		}
		if o2.kind == opPrivate {
			tape = append(tape, tapeOp{kind: tapeSecondOnly, line: o2.line, shared: c2.shared})
			c2.next(o2)
			continue
		}
		if o1.kind == opImplicit && o2.kind == opImplicit {
			if o1.run < 0 && o2.run < 0 {
				return tape, nil
			}
			n := o1.run
			if n < 0 || (o2.run >= 0 && o2.run < n) {
				n = o2.run
			}
			tape = append(tape, tapeOp{kind: tapeGap, n: n, shared: c1.shared})
			c1.skip(n)
			c2.skip(n)
			continue
		}

		line := o1.line
		switch {
		case o1.kind == opImplicit:
			line = o2.line
		case o2.kind != opImplicit && !sameLine(buf, o1.line, o2.line):
			return nil, &ConflictError{
				Path: path,
				Line: c1.shared + 1,
				Detail: fmt.Sprintf("first diff leaves %q but second diff expects %q",
					buf.Slice(o1.line.Content), buf.Slice(o2.line.Content)),
			}
		}
		tape = append(tape, tapeOp{
			kind:          tapeShared,
			line:          line,
			firstAdded:    o1.kind == opSharedOnly,
			secondRemoved: o2.kind == opSharedOnly,
			shared:        c1.shared,
		})
		c1.advance(o1)
		c2.advance(o2)
	}
}

func sameLine(buf *Buffer, a, b Line) bool {
	return a.NoNewline == b.NoNewline && bytes.Equal(buf.Slice(a.Content), buf.Slice(b.Content))
}

// composeOps keeps the net effect of both diffs.
func composeOps(tape []tapeOp) []editOp {
	ops := make([]editOp, 0, len(tape))
	for _, t := range tape {
		l := t.line
		switch t.kind {
		case tapeGap:
			ops = append(ops, editOp{gap: t.n})
			continue
		case tapeFirstOnly:
			l.Kind = Removed
		case tapeSecondOnly:
			l.Kind = Added
		case tapeShared:
			switch {
			case t.firstAdded && t.secondRemoved:
				continue
			case t.firstAdded:
				l.Kind = Added
			case t.secondRemoved:
				l.Kind = Removed
			default:
				l.Kind = Context
			}
		}
		ops = append(ops, editOp{Line: l})
	}
	return ops
}

// rebaseOps re-derives the second diff against the old side of the first.
// Change blocks touched only by the first diff keep the first diff's old
// content, blocks touched only by the second keep the second's edits, and
// blocks touched by both must carry the identical change.
func rebaseOps(buf *Buffer, tape []tapeOp, path string) ([]editOp, error) {
	ops := make([]editOp, 0, len(tape))
	for i := 0; i < len(tape); {
		t := tape[i]
		if t.boundary() {
			if t.kind == tapeGap {
				ops = append(ops, editOp{gap: t.n})
			} else {
				l := t.line
				l.Kind = Context
				ops = append(ops, editOp{Line: l})
			}
			i++
			continue
		}
		j := i
		for j < len(tape) && !tape[j].boundary() {
			j++
		}
		block, err := rebaseBlock(buf, tape[i:j], path)
		if err != nil {
			return nil, err
		}
		ops = append(ops, block...)
		i = j
	}
	return ops, nil
}

func rebaseBlock(buf *Buffer, block []tapeOp, path string) ([]editOp, error) {
	var base, target bool
	for _, t := range block {
		switch t.kind {
		case tapeFirstOnly:
			base = true
		case tapeSecondOnly:
			target = true
		case tapeShared:
			base = base || t.firstAdded
			target = target || t.secondRemoved
		}
	}

	var ops []editOp
	keepBase := func() {
		for _, t := range block {
			if t.kind == tapeFirstOnly {
				l := t.line
				l.Kind = Context
				ops = append(ops, editOp{Line: l})
			}
		}
	}
	switch {
	case !target:
		keepBase()
	case !base:
		for _, t := range block {
			l := t.line
			switch {
			case t.kind == tapeSecondOnly:
				l.Kind = Added
			case t.kind == tapeShared && t.secondRemoved:
				l.Kind = Removed
			default:
				continue
			}
			ops = append(ops, editOp{Line: l})
		}
	case sameEdit(buf, block):
		keepBase()
	default:
		return nil, &ConflictError{
			Path:   path,
			Line:   block[0].shared + 1,
			Detail: "both sides changed this region differently",
		}
	}
	return ops, nil
}

// sameEdit reports whether both diffs made the identical change in block:
// every shared line is removed by both, and the lines only the first diff
// knows equal the lines only the second diff adds.
func sameEdit(buf *Buffer, block []tapeOp) bool {
	var firstOnly, secondOnly []Line
	for _, t := range block {
		switch t.kind {
		case tapeFirstOnly:
			firstOnly = append(firstOnly, t.line)
		case tapeSecondOnly:
			secondOnly = append(secondOnly, t.line)
		case tapeShared:
			if !t.firstAdded || !t.secondRemoved {
				return false
			}
		}
	}
	if len(firstOnly) != len(secondOnly) {
		return false
	}
	for k := range firstOnly {
		if !sameLine(buf, firstOnly[k], secondOnly[k]) {
			return false
		}
	}
	return true
}

// refineBlocks re-matches the removed and added lines of each change block so
// that lines removed and re-added unchanged become context again.
func refineBlocks(buf *Buffer, ops []editOp, alg DiffAlgorithm) ([]editOp, error) {
	out := make([]editOp, 0, len(ops))
	for i := 0; i < len(ops); {
		if ops[i].gap > 0 || ops[i].Kind == Context {
			out = append(out, ops[i])
			i++
			continue
		}
		j := i
		var removed, added []Line
		for j < len(ops) && ops[j].gap == 0 && ops[j].Kind != Context {
			if ops[j].Kind == Removed {
				removed = append(removed, ops[j].Line)
			} else {
				added = append(added, ops[j].Line)
			}
			j++
		}
		if len(removed) == 0 || len(added) == 0 {
			out = append(out, ops[i:j]...)
			i = j
			continue
		}
		a, b, err := intern(buf, removed, added)
		if err != nil {
			return nil, err
		}
		out = append(out, scriptFromMatches(removed, added, alg.matches(a, b))...)
		i = j
	}
	return out, nil
}

// cursorKind classifies a line relative to the shared side of a walk.
type cursorKind int

const (
	opImplicit   cursorKind = iota // between hunks: unchanged, content unknown
	opPrivate                      // only on this diff's outer side
	opSharedOnly                   // only on the shared side
	opBoth                         // context on both sides
)

type cursorOp struct {
	kind cursorKind
	line Line
	run  int // opImplicit: lines until the next hunk, -1 when unbounded
}

// cursor walks one file diff's hunks in shared-side order. For the first diff
// of a composition the shared side is its new side; for the second, its old.
type cursor struct {
	hunks       []Hunk
	sharedIsNew bool
	path        string

	h, l            int
	inHunk          bool
	shared, private int
}

func (c *cursor) sharedStart(h *Hunk) int {
	if c.sharedIsNew {
		return h.newPos()
	}
	return h.oldPos()
}

func (c *cursor) privateStart(h *Hunk) int {
	if c.sharedIsNew {
		return h.oldPos()
	}
	return h.newPos()
}

func (c *cursor) classify(k LineKind) cursorKind {
	switch {
	case k == Context:
		return opBoth
	case (k == Added) == c.sharedIsNew:
		return opSharedOnly
	default:
		return opPrivate
	}
}

func (c *cursor) peek() (cursorOp, error) {
	for {
		if c.inHunk {
			h := &c.hunks[c.h]
			if c.l < len(h.Lines) {
				l := h.Lines[c.l]
				return cursorOp{kind: c.classify(l.Kind), line: l}, nil
			}
			c.inHunk = false
			c.h++
			continue
		}
		if c.h >= len(c.hunks) {
			return cursorOp{kind: opImplicit, run: -1}, nil
		}
		h := &c.hunks[c.h]
		run := c.sharedStart(h) - c.shared
		if run > 0 {
			return cursorOp{kind: opImplicit, run: run}, nil
		}
		if run < 0 || c.privateStart(h) != c.private {
			return cursorOp{}, fmt.Errorf("%s: %w: hunk @@ -%d,%d +%d,%d @@ is inconsistent with the hunks before it",
				c.path, ErrParse, h.OldStart, h.OldCount, h.NewStart, h.NewCount)
		}
		c.inHunk = true
		c.l = 0
	}
}

// next consumes the hunk line op.
func (c *cursor) next(op cursorOp) {
	switch op.kind {
	case opPrivate:
		c.private++
	case opSharedOnly:
		c.shared++
	case opBoth:
		c.shared++
		c.private++
	}
	c.l++
}

// skip consumes n implicit lines.
func (c *cursor) skip(n int) {
	c.shared += n
	c.private += n
}

// advance consumes one shared line, implicit or not.
func (c *cursor) advance(op cursorOp) {
	if op.kind == opImplicit {
		c.skip(1)
		return
	}
	c.next(op)
}
