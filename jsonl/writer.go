// Package jsonl renders diffs as JSON Lines, one object per file.
package jsonl

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fwojciec/diffmod"
)

// Compile-time interface verification.
var _ diffmod.Writer = (*Writer)(nil)

// FileRecord is the JSON form of one file of a diff.
type FileRecord struct {
	OldName string       `json:"old_name,omitempty"`
	NewName string       `json:"new_name,omitempty"`
	OldMode string       `json:"old_mode,omitempty"`
	NewMode string       `json:"new_mode,omitempty"`
	Binary  bool         `json:"binary,omitempty"`
	Copy    bool         `json:"copy,omitempty"`
	Header  []string     `json:"header"`
	Hunks   []HunkRecord `json:"hunks"`
}

// HunkRecord is the JSON form of one hunk.
type HunkRecord struct {
	Header   string       `json:"header"`
	OldStart int          `json:"old_start"`
	OldCount int          `json:"old_count"`
	NewStart int          `json:"new_start"`
	NewCount int          `json:"new_count"`
	Lines    []LineRecord `json:"lines"`
}

// LineRecord is the JSON form of one hunk line.
type LineRecord struct {
	Kind      string `json:"kind"`
	Content   string `json:"content"`
	NoNewline bool   `json:"no_newline,omitempty"`
}

// Writer buffers each file and writes it as a single JSON line when the file
// ends.
type Writer struct {
	enc *json.Encoder
	cur *FileRecord
}

// NewWriter creates a Writer writing to w.
func NewWriter(w io.Writer) *Writer {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &Writer{enc: enc}
}

// BeginFile implements diffmod.Writer.
func (w *Writer) BeginFile(f *diffmod.File, header []string) error {
	w.cur = &FileRecord{
		OldName: f.OldName.Path(),
		NewName: f.NewName.Path(),
		OldMode: mode(f.OldMode),
		NewMode: mode(f.NewMode),
		Binary:  f.Binary,
		Copy:    f.Copy,
		Header:  header,
		Hunks:   []HunkRecord{},
	}
	return nil
}

func mode(m uint32) string {
	if m == 0 {
		return ""
	}
	return fmt.Sprintf("%06o", m)
}

// BeginHunk implements diffmod.Writer.
func (w *Writer) BeginHunk(h *diffmod.Hunk, header string) error {
	if w.cur == nil {
		return fmt.Errorf("jsonl: hunk outside of a file")
	}
	w.cur.Hunks = append(w.cur.Hunks, HunkRecord{
		Header:   header,
		OldStart: h.OldStart,
		OldCount: h.OldCount,
		NewStart: h.NewStart,
		NewCount: h.NewCount,
		Lines:    []LineRecord{},
	})
	return nil
}

// Line implements diffmod.Writer.
func (w *Writer) Line(kind diffmod.LineKind, content []byte) error {
	h, err := w.hunk()
	if err != nil {
		return err
	}
	h.Lines = append(h.Lines, LineRecord{Kind: kind.String(), Content: string(content)})
	return nil
}

// NoNewline implements diffmod.Writer.
func (w *Writer) NoNewline() error {
	h, err := w.hunk()
	if err != nil {
		return err
	}
	if len(h.Lines) == 0 {
		return fmt.Errorf("jsonl: no-newline marker without a line")
	}
	h.Lines[len(h.Lines)-1].NoNewline = true
	return nil
}

func (w *Writer) hunk() (*HunkRecord, error) {
	if w.cur == nil || len(w.cur.Hunks) == 0 {
		return nil, fmt.Errorf("jsonl: line outside of a hunk")
	}
	return &w.cur.Hunks[len(w.cur.Hunks)-1], nil
}

// EndFile implements diffmod.Writer.
func (w *Writer) EndFile(*diffmod.File) error {
	if w.cur == nil {
		return fmt.Errorf("jsonl: end of file without a file")
	}
	rec := w.cur
	w.cur = nil
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("encode %s: %w", rec.NewName, err)
	}
	return nil
}
