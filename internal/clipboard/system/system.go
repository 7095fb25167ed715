// Package system reads the operating system clipboard.
package system

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
)

type Clipboard struct{}

func New() *Clipboard { return &Clipboard{} }

// Unsupported reports whether no clipboard utility is available (for
// example a Linux session without xclip, xsel or wl-clipboard).
func (c *Clipboard) Unsupported() bool {
	return clipboard.Unsupported
}

func (c *Clipboard) ReadAll(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if clipboard.Unsupported {
		return "", fmt.Errorf("read clipboard: no clipboard utility available")
	}
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("read clipboard: %w", err)
	}
	return text, nil
}
