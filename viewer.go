package diffmod

import "context"

// Viewer displays a diff to the user.
type Viewer interface {
	// View displays the diff and blocks until the user exits or ctx is done.
	View(ctx context.Context, buf *Buffer, diff *Diff) error
}
