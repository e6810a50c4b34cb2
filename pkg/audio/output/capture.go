// ABOUTME: In-memory audio output
// ABOUTME: Collects written samples for tests and headless dry runs
package output

import (
	"fmt"
	"sync"
)

// Capture keeps everything written to it in memory
type Capture struct {
	mu         sync.Mutex
	samples    []int32
	writes     int
	limit      int
	sampleRate int
	channels   int
	opened     bool
	closed     bool
}

// NewCapture creates a capture output. limit caps the number of retained
// samples (older samples are discarded); 0 retains nothing and only counts writes.
func NewCapture(limit int) *Capture {
	return &Capture{limit: limit}
}

// Open records the format
func (c *Capture) Open(sampleRate, channels int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.opened {
		return fmt.Errorf("output already open")
	}
	c.sampleRate = sampleRate
	c.channels = channels
	c.opened = true
	c.closed = false
	return nil
}

// Write appends samples
func (c *Capture) Write(samples []int32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.opened {
		return fmt.Errorf("output not initialized")
	}

	c.writes++
	if c.limit == 0 {
		return nil
	}

	c.samples = append(c.samples, samples...)
	if over := len(c.samples) - c.limit; over > 0 {
		c.samples = append(c.samples[:0], c.samples[over:]...)
	}
	return nil
}

// Close marks the capture closed
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.opened = false
	c.closed = true
	return nil
}

// Samples returns a copy of the retained samples
func (c *Capture) Samples() []int32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]int32, len(c.samples))
	copy(out, c.samples)
	return out
}

// Writes returns the number of Write calls
func (c *Capture) Writes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

// Format returns the sample rate and channel count given to Open
func (c *Capture) Format() (sampleRate, channels int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sampleRate, c.channels
}

// Closed reports whether Close was called
func (c *Capture) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
