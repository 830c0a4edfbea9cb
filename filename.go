package diffmod

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// devNull is the path used by unified diffs for a missing side.
const devNull = "/dev/null"

// FileName identifies one side of a file in a diff. The zero value is Missing.
type FileName struct {
	path    string
	present bool
}

// Missing is the FileName of a side where the file does not exist.
var Missing = FileName{}

// NewFileName returns a present FileName for an already stripped path.
func NewFileName(path string) FileName {
	return FileName{path: path, present: true}
}

// ParseFileName builds a FileName from a path as it appears in a diff header.
// Quoted paths are unquoted, "/dev/null" maps to Missing, and one leading "/"
// plus strip leading path components are removed.
func ParseFileName(p []byte, strip int) (FileName, error) {
	if len(p) > 0 && p[0] == '"' {
		s, err := strconv.Unquote(string(p))
		if err != nil {
			return Missing, fmt.Errorf("%w: bad quoting in %q", ErrMalformedPath, p)
		}
		p = []byte(s)
	}
	if string(p) == devNull {
		return Missing, nil
	}
	if len(p) == 0 {
		return Missing, fmt.Errorf("%w: empty path", ErrMalformedPath)
	}
	rest := p
	if rest[0] == '/' {
		rest = rest[1:]
	}
	for i := 0; i < strip; i++ {
		idx := bytes.IndexByte(rest, '/')
		if idx < 0 {
			return Missing, fmt.Errorf("%w: cannot strip %d components from %q", ErrMalformedPath, strip, p)
		}
		rest = rest[idx+1:]
	}
	if len(rest) == 0 {
		return Missing, fmt.Errorf("%w: nothing left of %q after stripping %d components", ErrMalformedPath, p, strip)
	}
	return NewFileName(string(rest)), nil
}

// IsMissing reports whether the file is absent on this side.
func (n FileName) IsMissing() bool { return !n.present }

// Path returns the stripped path, or "" for Missing.
func (n FileName) Path() string { return n.path }

// String returns the path, or "/dev/null" for Missing.
func (n FileName) String() string {
	if !n.present {
		return devNull
	}
	return n.path
}

// headerPath renders n for a diff header with the given synthetic prefix.
func (n FileName) headerPath(prefix string) string {
	if !n.present {
		return devNull
	}
	return quotePath(prefix + n.path)
}

// quotePath quotes p the way git does when it contains bytes that would make
// the header ambiguous.
func quotePath(p string) string {
	for i := 0; i < len(p); i++ {
		c := p[i]
		if c < 0x20 || c == 0x7f || c == '"' || c == '\\' {
			return strconv.Quote(p)
		}
	}
	return p
}

// prefixFor returns the synthetic prefix for strip components of side ("a" or "b").
func prefixFor(side string, strip int) string {
	return strings.Repeat(side+"/", strip)
}
