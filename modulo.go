package diffmod

import "fmt"

// Reverse returns the diff that undoes d: names, modes and line kinds swap
// sides. Within each change block removed lines still precede added lines.
func Reverse(d *Diff) *Diff {
	out := &Diff{Options: d.Options, Files: make([]File, len(d.Files))}
	for i := range d.Files {
		out.Files[i] = reverseFile(&d.Files[i])
	}
	return out
}

func reverseFile(f *File) File {
	r := File{
		OldName: f.NewName,
		NewName: f.OldName,
		OldMode: f.NewMode,
		NewMode: f.OldMode,
		Binary:  f.Binary,
		Copy:    f.Copy,
	}
	if len(f.Hunks) == 0 {
		return r
	}
	r.Hunks = make([]Hunk, len(f.Hunks))
	for i, h := range f.Hunks {
		ops := make([]editOp, len(h.Lines))
		for k, l := range h.Lines {
			switch l.Kind {
			case Added:
				l.Kind = Removed
			case Removed:
				l.Kind = Added
			}
			ops[k] = editOp{Line: l}
		}
		ops = normalizeBlocks(ops)
		lines := make([]Line, len(ops))
		for k, op := range ops {
			lines[k] = op.Line
		}
		r.Hunks[i] = Hunk{
			OldStart: h.NewStart,
			OldCount: h.NewCount,
			NewStart: h.OldStart,
			NewCount: h.OldCount,
			Section:  h.Section,
			Lines:    lines,
		}
	}
	return r
}

// DiffModuloBase re-derives target against a moved ancestor.
//
// target is a diff from OldBase to a branch. baseOld and baseNew are diffs
// from OldBase and NewBase respectively to a common reference revision, so
// that Compose(baseOld, Reverse(baseNew)) describes how the ancestor moved.
// The result is a diff from NewBase to the branch that carries only the
// branch's own edits: regions changed only by the ancestor's movement show
// NewBase content, and regions changed by both must carry the identical edit
// or a *ConflictError is returned.
func DiffModuloBase(buf *Buffer, target, baseOld, baseNew *Diff) (*Diff, error) {
	movement, err := Compose(buf, baseOld, Reverse(baseNew))
	if err != nil {
		return nil, fmt.Errorf("old-base vs new-base: %w", err)
	}
	out, err := composeDiffs(buf, Reverse(movement), target, target.Options, modeRebase)
	if err != nil {
		return nil, fmt.Errorf("target vs old-base: %w", err)
	}
	return out, nil
}

// rebaseHeader fixes names and modes of a rebased file. f1 runs from NewBase
// to OldBase and f2 from OldBase to the branch.
func rebaseHeader(res *File, f1, f2 *File, path string) error {
	res.OldName, res.OldMode = f1.OldName, f1.OldMode
	switch {
	case f2.NewName.IsMissing():
		res.NewName = Missing
	case f2.OldName != f2.NewName:
		res.NewName = f2.NewName
	default:
		res.NewName = f1.OldName
	}

	switch {
	case f2.OldName.IsMissing():
		res.NewMode = f2.NewMode
	case f2.IsModeChange():
		if f1.IsModeChange() && f1.OldMode != f2.NewMode {
			return &ConflictError{
				Path:   path,
				Detail: fmt.Sprintf("mode changed to %06o on one side and %06o on the other", f1.OldMode, f2.NewMode),
			}
		}
		res.NewMode = f2.NewMode
	default:
		res.NewMode = res.OldMode
	}
	return nil
}
