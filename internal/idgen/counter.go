// Package idgen provides the identifier sources used by an analysis run:
// resettable sequential counters for finding IDs and generators for run IDs.
package idgen

import (
	"fmt"
	"sync"
)

// Counter hands out sequential identifiers of the form "<prefix>-<n>".
//
// The first call to Next returns "<prefix>-1". A Counter is owned by one
// generator and reset at the start of every run, so identifiers are stable
// within a run and identical across repeated runs over the same input.
//
// Thread-safety: all methods are safe for concurrent use.
type Counter struct {
	mu     sync.Mutex
	prefix string
	seq    int64
}

// NewCounter creates a counter starting at 0.
func NewCounter(prefix string) *Counter {
	return &Counter{prefix: prefix}
}

// Next increments the counter and returns the formatted identifier.
func (c *Counter) Next() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return fmt.Sprintf("%s-%d", c.prefix, c.seq)
}

// Reset rewinds the counter. After Reset, Next returns "<prefix>-1".
func (c *Counter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
