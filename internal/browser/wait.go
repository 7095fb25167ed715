package browser

import (
	"context"
	"fmt"
	"time"
)

// PollInterval is how often condition waits re-check the page.
var PollInterval = 100 * time.Millisecond

// poll calls check until it reports done, fails, or timeout elapses. check
// always runs at least once.
func poll(ctx context.Context, timeout time.Duration, check func() (bool, error)) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()
	for {
		done, err := check()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if !time.Now().Before(deadline) {
			return context.DeadlineExceeded
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// WaitFrame waits for a child frame of doc accepted by match.
func WaitFrame(ctx context.Context, doc Document, match func(Frame) bool, timeout time.Duration) (Frame, error) {
	var found Frame
	err := poll(ctx, timeout, func() (bool, error) {
		frames, err := doc.Frames(ctx)
		if err != nil {
			return false, err
		}
		for _, f := range frames {
			if match(f) {
				found = f
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		return Frame{}, fmt.Errorf("wait for frame: %w", err)
	}
	return found, nil
}

// WaitFrames waits until doc has at least one frame accepted by match and
// returns all accepted frames in document order.
func WaitFrames(ctx context.Context, doc Document, match func(Frame) bool, timeout time.Duration) ([]Frame, error) {
	var found []Frame
	err := poll(ctx, timeout, func() (bool, error) {
		frames, err := doc.Frames(ctx)
		if err != nil {
			return false, err
		}
		found = found[:0]
		for _, f := range frames {
			if match(f) {
				found = append(found, f)
			}
		}
		return len(found) > 0, nil
	})
	if err != nil {
		return nil, fmt.Errorf("wait for frames: %w", err)
	}
	return found, nil
}

// KnownPages returns the ids of the pages open right now.
func KnownPages(ctx context.Context, b Browser) (map[string]bool, error) {
	pages, err := b.Pages(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(pages))
	for _, p := range pages {
		known[p.ID()] = true
	}
	return known, nil
}

// WaitNewPage waits for a page whose id is not in known, such as a popup
// opened by a click.
func WaitNewPage(ctx context.Context, b Browser, known map[string]bool, timeout time.Duration) (Page, error) {
	var found Page
	err := poll(ctx, timeout, func() (bool, error) {
		pages, err := b.Pages(ctx)
		if err != nil {
			return false, err
		}
		for _, p := range pages {
			if !known[p.ID()] {
				found = p
				return true, nil
			}
		}
		return false, nil
	})
	if err == context.DeadlineExceeded {
		return nil, ErrNoPopup
	}
	if err != nil {
		return nil, fmt.Errorf("wait for new window: %w", err)
	}
	return found, nil
}
