package render

import (
	"strconv"
	"sync/atomic"
)

// Counter allocates instance ids of the form "{name}-{n}". A single counter
// never repeats an id; Reset is meant for tests.
type Counter struct {
	n atomic.Uint64
}

// NewCounter creates a counter starting at 1.
func NewCounter() *Counter {
	return &Counter{}
}

var defaultCounter = NewCounter()

// DefaultCounter returns the process-wide counter used by renderers created
// without WithCounter.
func DefaultCounter() *Counter {
	return defaultCounter
}

// Next returns the next id for a component name.
func (c *Counter) Next(name string) string {
	return name + "-" + strconv.FormatUint(c.n.Add(1), 10)
}

// Reset restarts numbering at 1.
func (c *Counter) Reset() {
	c.n.Store(0)
}
