package testutil

import (
	"sync"

	"github.com/roach88/covenant/internal/trace"
)

// DeterministicClock is a resettable logical clock for tests. It satisfies
// trace.Sequencer, so a Recorder driven by it stamps the same seq values
// every time a scenario is replayed.
type DeterministicClock struct {
	mu  sync.Mutex
	seq int64
}

var _ trace.Sequencer = (*DeterministicClock)(nil)

// NewDeterministicClock creates a clock starting at 0.
// The first call to Next returns 1.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Next increments and returns the next sequence number.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the current sequence number without incrementing.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset rewinds the clock so the next call to Next returns 1 again.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
