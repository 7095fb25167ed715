package clipboard

import "context"

// Ports for the clipboard shared with the budgeting app.
type (
	Reader interface {
		// ReadAll returns the current clipboard text.
		ReadAll(ctx context.Context) (string, error)
	}
)
