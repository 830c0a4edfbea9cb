package diffmod

import "bytes"

// Equal reports whether a and b describe the same changes. Content is
// compared by value, so the two diffs may reference different parts of buf.
// Options are not compared.
func Equal(buf *Buffer, a, b *Diff) bool {
	if len(a.Files) != len(b.Files) {
		return false
	}
	for i := range a.Files {
		if !equalFile(buf, &a.Files[i], &b.Files[i]) {
			return false
		}
	}
	return true
}

func equalFile(buf *Buffer, a, b *File) bool {
	if a.OldName != b.OldName || a.NewName != b.NewName ||
		a.OldMode != b.OldMode || a.NewMode != b.NewMode ||
		a.Binary != b.Binary || a.Copy != b.Copy ||
		len(a.Hunks) != len(b.Hunks) {
		return false
	}
	for i := range a.Hunks {
		ha, hb := &a.Hunks[i], &b.Hunks[i]
		if ha.OldStart != hb.OldStart || ha.OldCount != hb.OldCount ||
			ha.NewStart != hb.NewStart || ha.NewCount != hb.NewCount ||
			!bytes.Equal(buf.Slice(ha.Section), buf.Slice(hb.Section)) ||
			len(ha.Lines) != len(hb.Lines) {
			return false
		}
		for j := range ha.Lines {
			la, lb := ha.Lines[j], hb.Lines[j]
			if la.Kind != lb.Kind || !sameLine(buf, la, lb) {
				return false
			}
		}
	}
	return true
}
