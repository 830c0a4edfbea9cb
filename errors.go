package diffmod

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package wraps one of these.
var (
	ErrMalformedPath = errors.New("malformed path")
	ErrParse         = errors.New("parse error")
	ErrIO            = errors.New("i/o error")
	ErrConflict      = errors.New("reconciliation conflict")
)

// ParseError reports malformed diff input.
type ParseError struct {
	Line int    // 1-based input line, 0 if unknown
	Path string // file being parsed, "" if not yet known
	Err  error
}

func (e *ParseError) Error() string {
	msg := e.Err.Error()
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	if e.Line > 0 {
		msg = fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// ConflictError reports two diffs that make incompatible claims about the same
// region of a file.
type ConflictError struct {
	Path   string
	Line   int // approximate 1-based line on the shared side, 0 for the whole file
	Detail string
}

func (e *ConflictError) Error() string {
	if e.Line <= 0 {
		return fmt.Sprintf("%s: %s: %s", ErrConflict, e.Path, e.Detail)
	}
	return fmt.Sprintf("%s: %s:%d: %s", ErrConflict, e.Path, e.Line, e.Detail)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }
