// ABOUTME: Chain builder and router
// ABOUTME: Validates unit capabilities and wires adjacent units in order
package chain

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Resonate-Protocol/pedalboard-go/pkg/pedal"
)

// ErrConfiguration is returned when a chain cannot be assembled from its parts
var ErrConfiguration = errors.New("chain configuration error")

// Builder collects the parts of a chain
type Builder struct {
	Source  pedal.Unit
	Effects []pedal.Effect
	Sink    pedal.Unit
}

// Chain is an ordered, immutable sequence of units. Every unit but the last
// can send, every unit but the first can receive.
type Chain struct {
	units   []pedal.Unit
	effects []pedal.Effect

	mu     sync.Mutex
	routed bool
}

// Build returns [Source] + Effects + [Sink] in that order. Effects may be empty.
func (b Builder) Build() (*Chain, error) {
	if isNil(b.Source) {
		return nil, fmt.Errorf("%w: missing source", ErrConfiguration)
	}
	if isNil(b.Sink) {
		return nil, fmt.Errorf("%w: missing sink", ErrConfiguration)
	}
	if !b.Source.Capabilities().Has(pedal.CanSend) {
		return nil, fmt.Errorf("%w: source %s cannot send", ErrConfiguration, b.Source.Name())
	}
	if !b.Sink.Capabilities().Has(pedal.CanReceive) {
		return nil, fmt.Errorf("%w: sink %s cannot receive", ErrConfiguration, b.Sink.Name())
	}

	c := &Chain{
		units:   make([]pedal.Unit, 0, len(b.Effects)+2),
		effects: make([]pedal.Effect, 0, len(b.Effects)),
	}
	c.units = append(c.units, b.Source)

	for i, e := range b.Effects {
		if isNil(e) {
			return nil, fmt.Errorf("%w: effect %d is nil", ErrConfiguration, i)
		}
		if !e.Capabilities().Has(pedal.CanSend | pedal.CanReceive) {
			return nil, fmt.Errorf("%w: effect %s must send and receive", ErrConfiguration, e.Name())
		}
		c.units = append(c.units, e)
		c.effects = append(c.effects, e)
	}

	c.units = append(c.units, b.Sink)
	return c, nil
}

// Len returns the number of units including source and sink
func (c *Chain) Len() int { return len(c.units) }

// At returns the unit at position i
func (c *Chain) At(i int) pedal.Unit { return c.units[i] }

// Source returns the first unit
func (c *Chain) Source() pedal.Unit { return c.units[0] }

// Sink returns the last unit
func (c *Chain) Sink() pedal.Unit { return c.units[len(c.units)-1] }

// Units returns a copy of the ordered units
func (c *Chain) Units() []pedal.Unit {
	out := make([]pedal.Unit, len(c.units))
	copy(out, c.units)
	return out
}

// Effects returns a copy of the effects between source and sink
func (c *Chain) Effects() []pedal.Effect {
	out := make([]pedal.Effect, len(c.effects))
	copy(out, c.effects)
	return out
}

// IDs returns the unit IDs in chain order
func (c *Chain) IDs() []string {
	ids := make([]string, len(c.units))
	for i, u := range c.units {
		ids[i] = u.ID()
	}
	return ids
}

// Routed reports whether Route has succeeded on this chain
func (c *Chain) Routed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.routed
}

// Route connects each unit to the next, from the source towards the sink.
// It stops at the first failure. A chain can be routed once; routing it again
// fails with pedal.ErrRouting before any connection is attempted.
func Route(c *Chain) error {
	if c == nil {
		return fmt.Errorf("%w: nil chain", ErrConfiguration)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.routed {
		return fmt.Errorf("pair 0 (%s -> %s): %w: chain already routed",
			c.units[0].Name(), c.units[1].Name(), pedal.ErrRouting)
	}

	for i := 0; i < len(c.units)-1; i++ {
		from, to := c.units[i], c.units[i+1]
		if err := from.Connect(to); err != nil {
			return fmt.Errorf("pair %d (%s -> %s): %w", i, from.Name(), to.Name(), err)
		}
	}

	c.routed = true
	return nil
}
