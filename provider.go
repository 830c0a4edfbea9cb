package diffmod

import "context"

// ContentProvider supplies diffs and file contents from a version-control
// backend. Failures wrap ErrIO.
type ContentProvider interface {
	// Diff returns the unified diff from revision from to revision to.
	Diff(ctx context.Context, from, to string) ([]byte, error)
	// MergeBase returns the best common ancestor of revisions a and b.
	MergeBase(ctx context.Context, a, b string) (string, error)
	// Show returns the content of path at revision rev.
	Show(ctx context.Context, rev, path string) ([]byte, error)
}
