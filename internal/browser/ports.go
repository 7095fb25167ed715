// Package browser defines the page model the form automation works
// against. Adapters: chrome (go-rod, real browser) and memory (fake DOM).
package browser

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("element not found")
	ErrNoPopup  = errors.New("no new window appeared")
)

// Ports for browser adapters.
type (
	// Element is a located DOM node.
	Element interface {
		Click(ctx context.Context) error
		Input(ctx context.Context, text string) error
		Clear(ctx context.Context) error
		// Submit submits the form the element belongs to.
		Submit(ctx context.Context) error
		Value(ctx context.Context) (string, error)
	}

	// Document is a browsing context: a top-level page or a frame.
	Document interface {
		// Find waits up to s.Timeout for the first node matching s.
		Find(ctx context.Context, s Strategy) (Element, error)
		// Frames lists frame and iframe children present right now.
		Frames(ctx context.Context) ([]Frame, error)
	}

	// Page is a top-level window or tab.
	Page interface {
		Document
		ID() string
		Navigate(ctx context.Context, url string) error
	}

	Browser interface {
		Open(ctx context.Context, url string) (Page, error)
		Pages(ctx context.Context) ([]Page, error)
		Close() error
	}

	// Launcher starts a browser session.
	Launcher func(ctx context.Context) (Browser, error)
)

// Frame is a child browsing context with the attributes used to pick it.
type Frame struct {
	Name     string
	ID       string
	Document Document
}

// Label returns the frame's name, or its id when unnamed.
func (f Frame) Label() string {
	if f.Name != "" {
		return f.Name
	}
	return f.ID
}
