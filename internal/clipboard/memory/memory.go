package memory

import (
	"context"
	"sync"
)

// Clipboard is an in-process clipboard. Reads can be scripted to return
// successive values to simulate a producer that is still writing.
type Clipboard struct {
	mu     sync.Mutex
	values []string
	err    error
	reads  int
}

func New(text string) *Clipboard {
	return &Clipboard{values: []string{text}}
}

// NewSequence returns a clipboard that yields each value once, then keeps
// returning the last one.
func NewSequence(values ...string) *Clipboard {
	return &Clipboard{values: append([]string(nil), values...)}
}

// Failing returns a clipboard whose reads fail with err.
func Failing(err error) *Clipboard {
	return &Clipboard{err: err}
}

func (c *Clipboard) Set(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = []string{text}
}

func (c *Clipboard) ReadAll(_ context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads++
	if c.err != nil {
		return "", c.err
	}
	if len(c.values) == 0 {
		return "", nil
	}
	v := c.values[0]
	if len(c.values) > 1 {
		c.values = c.values[1:]
	}
	return v, nil
}

// Reads returns how many times the clipboard was read.
func (c *Clipboard) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}
