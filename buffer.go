package diffmod

// Range is a handle to bytes stored in a Buffer.
type Range struct {
	Start int
	Len   int
}

// End returns the offset one past the last byte of r.
func (r Range) End() int { return r.Start + r.Len }

// IsEmpty reports whether r covers no bytes.
func (r Range) IsEmpty() bool { return r.Len == 0 }

// Sub returns the sub-range of r starting at off with length n.
func (r Range) Sub(off, n int) Range {
	return Range{Start: r.Start + off, Len: n}
}

// Buffer is an append-only byte arena. Content is copied in once and referenced
// thereafter by Range handles, which stay valid for the lifetime of the Buffer.
//
// A Buffer must not be written to while other goroutines read from it.
type Buffer struct {
	data []byte
}

// NewBuffer creates an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Insert copies p to the end of the buffer and returns its Range.
func (b *Buffer) Insert(p []byte) Range {
	r := Range{Start: len(b.data), Len: len(p)}
	b.data = append(b.data, p...)
	return r
}

// InsertString is like Insert for a string.
func (b *Buffer) InsertString(s string) Range {
	r := Range{Start: len(b.data), Len: len(s)}
	b.data = append(b.data, s...)
	return r
}

// Slice returns the bytes referenced by r. The returned slice has its capacity
// clipped to its length, so appending to it never writes into the buffer.
// Callers must not modify the returned bytes.
func (b *Buffer) Slice(r Range) []byte {
	return b.data[r.Start:r.End():r.End()]
}

// String returns the bytes referenced by r as a string.
func (b *Buffer) String(r Range) string {
	return string(b.data[r.Start:r.End()])
}

// Len returns the number of bytes in the buffer.
func (b *Buffer) Len() int { return len(b.data) }

// All returns a Range covering the whole buffer.
func (b *Buffer) All() Range { return Range{Start: 0, Len: len(b.data)} }
