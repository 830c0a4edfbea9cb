// Package diffmod provides domain types and the engine for parsing, rendering,
// composing and rebasing unified diffs.
//
// All textual content lives in a Buffer; the structural types (Diff, File,
// Hunk, Line) only hold Range handles into it, so they can be copied and
// compared freely as long as the Buffer outlives them.
package diffmod

// Diff represents a complete diff containing one or more file changes.
type Diff struct {
	Files   []File
	Options DiffOptions
}

// File represents changes to a single file.
type File struct {
	OldName FileName // Missing for added files
	NewName FileName // Missing for deleted files
	OldMode uint32   // 0 if unknown
	NewMode uint32   // 0 if unknown
	Binary  bool     // Binary files have no hunks
	Copy    bool     // NewName was copied from OldName rather than renamed
	Hunks   []Hunk
}

// IsRename reports whether the file moved between two present names.
func (f *File) IsRename() bool {
	return !f.OldName.IsMissing() && !f.NewName.IsMissing() && f.OldName != f.NewName && !f.Copy
}

// IsModeChange reports whether both modes are known and differ.
func (f *File) IsModeChange() bool {
	return f.OldMode != 0 && f.NewMode != 0 && f.OldMode != f.NewMode
}

// Path returns the most descriptive name of the file, preferring the new side.
func (f *File) Path() string {
	if !f.NewName.IsMissing() {
		return f.NewName.Path()
	}
	return f.OldName.Path()
}

// Hunk represents a contiguous block of changes within a file.
//
// Line numbers are 1-based. A zero count means the start names the line
// preceding the (empty) range, as in "@@ -0,0 +1,3 @@".
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Section  Range // Optional text after the closing @@
	Lines    []Line
}

// oldPos returns the 0-based index of the first old line covered by h.
func (h *Hunk) oldPos() int {
	if h.OldCount == 0 {
		return h.OldStart
	}
	return h.OldStart - 1
}

// newPos returns the 0-based index of the first new line covered by h.
func (h *Hunk) newPos() int {
	if h.NewCount == 0 {
		return h.NewStart
	}
	return h.NewStart - 1
}

// Line represents a single line within a hunk. Content excludes the leading
// marker and the trailing line terminator.
type Line struct {
	Kind      LineKind
	Content   Range
	NoNewline bool // "\ No newline at end of file" follows this line
}

// LineKind represents the type of a diff line.
type LineKind int

// Line kinds.
const (
	Context LineKind = iota
	Added
	Removed
)

func (k LineKind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return "context"
	}
}

// marker returns the unified-diff prefix byte for k.
func (k LineKind) marker() byte {
	switch k {
	case Added:
		return '+'
	case Removed:
		return '-'
	default:
		return ' '
	}
}

// DiffOptions configures how diffs are parsed, computed and rendered.
type DiffOptions struct {
	StripPathComponents int           // leading path components dropped, 1 for git's a/ and b/
	ContextLines        int           // unchanged lines kept around each change
	Algorithm           DiffAlgorithm // line-matching strategy for the two-file differ
}

// DefaultContextLines is the number of context lines used by DefaultOptions.
const DefaultContextLines = 3

// DefaultOptions returns the options matching git's default output.
func DefaultOptions() DiffOptions {
	return DiffOptions{
		StripPathComponents: 1,
		ContextLines:        DefaultContextLines,
		Algorithm:           AlgorithmMyers,
	}
}

// DiffBuilder assembles a Diff one File at a time.
type DiffBuilder struct {
	opts  DiffOptions
	files []File
}

// NewDiffBuilder creates a builder for a Diff with the given options.
func NewDiffBuilder(opts DiffOptions) *DiffBuilder {
	return &DiffBuilder{opts: opts}
}

// AddFile appends f to the diff under construction.
func (b *DiffBuilder) AddFile(f File) {
	b.files = append(b.files, f)
}

// Len returns the number of files added so far.
func (b *DiffBuilder) Len() int { return len(b.files) }

// Build returns the assembled Diff. The builder may be reused afterwards
// without affecting the returned value.
func (b *DiffBuilder) Build() *Diff {
	files := make([]File, len(b.files))
	copy(files, b.files)
	return &Diff{Files: files, Options: b.opts}
}
