package diffmod

import (
	"bytes"
	"fmt"
	"io"
)

// Writer receives the traversal of a Diff. Render drives it, so a backend only
// decides how each piece looks.
type Writer interface {
	// BeginFile starts a file. header holds the canonical header lines without
	// terminators.
	BeginFile(f *File, header []string) error
	// BeginHunk starts a hunk with its canonical "@@ ... @@" header.
	BeginHunk(h *Hunk, header string) error
	// Line emits one hunk line; content excludes the marker and terminator.
	Line(kind LineKind, content []byte) error
	// NoNewline marks that the previous line has no terminator.
	NoNewline() error
	// EndFile finishes a file.
	EndFile(f *File) error
}

// noNewlineMarker is the line git emits after a line without a terminator.
const noNewlineMarker = `\ No newline at end of file`

// Render walks d in presentation order and emits it to w.
func Render(buf *Buffer, d *Diff, w Writer) error {
	for i := range d.Files {
		f := &d.Files[i]
		if err := w.BeginFile(f, FileHeader(f, d.Options.StripPathComponents)); err != nil {
			return err
		}
		for j := range f.Hunks {
			h := &f.Hunks[j]
			if err := w.BeginHunk(h, HunkHeader(buf, h)); err != nil {
				return err
			}
			for _, l := range h.Lines {
				if err := w.Line(l.Kind, buf.Slice(l.Content)); err != nil {
					return err
				}
				if l.NoNewline {
					if err := w.NoNewline(); err != nil {
						return err
					}
				}
			}
		}
		if err := w.EndFile(f); err != nil {
			return err
		}
	}
	return nil
}

// Render emits d to w. It is shorthand for Render(buf, d, w).
func (d *Diff) Render(buf *Buffer, w Writer) error {
	return Render(buf, d, w)
}

// Bytes renders d as unified diff text.
func (d *Diff) Bytes(buf *Buffer) []byte {
	var out bytes.Buffer
	// Writing to a bytes.Buffer cannot fail.
	_ = Render(buf, d, NewUnifiedWriter(&out))
	return out.Bytes()
}

// FileHeader returns the canonical header lines for f, with strip synthetic
// prefix components on each path.
func FileHeader(f *File, strip int) []string {
	oldPrefix, newPrefix := prefixFor("a", strip), prefixFor("b", strip)
	gitOld, gitNew := f.OldName, f.NewName
	if gitOld.IsMissing() {
		gitOld = gitNew
	}
	if gitNew.IsMissing() {
		gitNew = gitOld
	}
	lines := []string{"diff --git " + gitOld.headerPath(oldPrefix) + " " + gitNew.headerPath(newPrefix)}

	// An add or delete with an unknown mode is marked by /dev/null in the
	// ---/+++ or Binary files line instead.
	unknownMode := false
	switch {
	case f.OldName.IsMissing():
		if f.NewMode != 0 {
			lines = append(lines, fmt.Sprintf("new file mode %06o", f.NewMode))
		} else {
			unknownMode = true
		}
	case f.NewName.IsMissing():
		if f.OldMode != 0 {
			lines = append(lines, fmt.Sprintf("deleted file mode %06o", f.OldMode))
		} else {
			unknownMode = true
		}
	case f.IsModeChange():
		lines = append(lines,
			fmt.Sprintf("old mode %06o", f.OldMode),
			fmt.Sprintf("new mode %06o", f.NewMode))
	}

	if !f.OldName.IsMissing() && !f.NewName.IsMissing() && f.OldName != f.NewName {
		verb := "rename"
		if f.Copy {
			verb = "copy"
		}
		lines = append(lines,
			verb+" from "+quotePath(f.OldName.Path()),
			verb+" to "+quotePath(f.NewName.Path()))
	}

	switch {
	case f.Binary:
		lines = append(lines, fmt.Sprintf("Binary files %s and %s differ",
			f.OldName.headerPath(oldPrefix), f.NewName.headerPath(newPrefix)))
	case len(f.Hunks) > 0 || unknownMode:
		lines = append(lines,
			"--- "+f.OldName.headerPath(oldPrefix),
			"+++ "+f.NewName.headerPath(newPrefix))
	}
	return lines
}

// HunkHeader returns the canonical "@@ -o,oc +n,nc @@" header for h. Counts
// are always explicit.
func HunkHeader(buf *Buffer, h *Hunk) string {
	s := fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
	if !h.Section.IsEmpty() {
		s += " " + buf.String(h.Section)
	}
	return s
}

// Compile-time interface verification.
var _ Writer = (*UnifiedWriter)(nil)

// UnifiedWriter writes plain unified diff text.
type UnifiedWriter struct {
	w io.Writer
}

// NewUnifiedWriter creates a UnifiedWriter writing to w.
func NewUnifiedWriter(w io.Writer) *UnifiedWriter {
	return &UnifiedWriter{w: w}
}

func (u *UnifiedWriter) writeLine(parts ...[]byte) error {
	for _, p := range parts {
		if _, err := u.w.Write(p); err != nil {
			return err
		}
	}
	_, err := u.w.Write([]byte{'\n'})
	return err
}

// BeginFile implements Writer.
func (u *UnifiedWriter) BeginFile(_ *File, header []string) error {
	for _, h := range header {
		if err := u.writeLine([]byte(h)); err != nil {
			return err
		}
	}
	return nil
}

// BeginHunk implements Writer.
func (u *UnifiedWriter) BeginHunk(_ *Hunk, header string) error {
	return u.writeLine([]byte(header))
}

// Line implements Writer.
func (u *UnifiedWriter) Line(kind LineKind, content []byte) error {
	return u.writeLine([]byte{kind.marker()}, content)
}

// NoNewline implements Writer.
func (u *UnifiedWriter) NoNewline() error {
	return u.writeLine([]byte(noNewlineMarker))
}

// EndFile implements Writer.
func (u *UnifiedWriter) EndFile(*File) error { return nil }
