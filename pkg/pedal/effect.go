// ABOUTME: Shared effect pedal behaviour
// ABOUTME: Parameter validation, footswitch, host updates and per-channel processing
package pedal

import (
	"fmt"
	"math"
	"sync"

	"github.com/Resonate-Protocol/pedalboard-go/pkg/audio"
	"github.com/Resonate-Protocol/pedalboard-go/pkg/engine"
)

// applyFunc pushes an accepted parameter value into the DSP state.
// It is called with the effect's lock held.
type applyFunc func(param string, value float64) error

// processFunc processes one channel of a block in place.
// It is called with the effect's lock held.
type processFunc func(ch int, buf []float64) error

// effect is embedded by every pedal
type effect struct {
	port
	title string

	mu      sync.Mutex
	params  []Param
	values  []float64
	engaged bool
	host    Host
	apply   applyFunc
	process processFunc
	channel []float64
}

func newEffect(ctx *engine.Context, name, title string, params []Param, apply applyFunc, process processFunc) (*effect, error) {
	e := &effect{
		title:   title,
		params:  params,
		values:  make([]float64, len(params)),
		engaged: true,
		apply:   apply,
		process: process,
	}
	for i, p := range params {
		e.values[i] = p.Default
	}

	p, err := newPort(ctx, name, CanSend|CanReceive|CanRender|CanParameterize, engine.KindProcess, e.processBlock)
	if err != nil {
		return nil, err
	}
	e.port = p
	return e, nil
}

// applyDefaults pushes every default value into the DSP state
func (e *effect) applyDefaults() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, p := range e.params {
		if err := e.apply(p.Name, e.values[i]); err != nil {
			return fmt.Errorf("%s: default %s: %w", e.name, p.Name, err)
		}
	}
	return nil
}

func (e *effect) Params() []Param {
	out := make([]Param, len(e.params))
	copy(out, e.params)
	return out
}

// Value returns the current value of a parameter
func (e *effect) Value(param string) (float64, bool) {
	i := e.index(param)
	if i < 0 {
		return 0, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.values[i], true
}

// Set validates and applies a parameter value. Rejected values leave the
// previous value in effect.
func (e *effect) Set(param string, value float64) error {
	i := e.index(param)
	if i < 0 {
		return fmt.Errorf("%w: %s has no parameter %q", ErrInvalidParameter, e.name, param)
	}
	p := e.params[i]
	if math.IsNaN(value) || math.IsInf(value, 0) || value < p.Min || value > p.Max {
		return fmt.Errorf("%w: %s %s must be in [%g, %g], got %g",
			ErrInvalidParameter, e.name, param, p.Min, p.Max, value)
	}

	e.mu.Lock()
	if err := e.apply(param, value); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s %s: %w", ErrInvalidParameter, e.name, param, err)
	}
	e.values[i] = value
	host, content := e.host, e.contentLocked()
	e.mu.Unlock()

	if host != nil {
		host.Update(content)
	}
	return nil
}

// Engage turns the footswitch on or off. A disengaged pedal passes audio through.
func (e *effect) Engage(on bool) {
	e.mu.Lock()
	e.engaged = on
	host, content := e.host, e.contentLocked()
	e.mu.Unlock()

	if host != nil {
		host.Update(content)
	}
}

// Engaged reports the footswitch state
func (e *effect) Engaged() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.engaged
}

func (e *effect) Placeholder() Content {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.contentLocked()
}

// Render attaches host. Later parameter changes are pushed to it.
// Rendering again replaces the host.
func (e *effect) Render(host Host) error {
	if host == nil {
		return fmt.Errorf("%s: render on nil host", e.name)
	}
	e.mu.Lock()
	e.host = host
	e.mu.Unlock()
	return nil
}

func (e *effect) contentLocked() Content {
	knobs := make([]Knob, len(e.params))
	for i, p := range e.params {
		knobs[i] = Knob{
			Name:  p.Name,
			Label: p.Label,
			Value: e.values[i],
			Min:   p.Min,
			Max:   p.Max,
		}
	}
	return Content{
		ID:     e.id,
		Kind:   e.name,
		Title:  e.title,
		Knobs:  knobs,
		Switch: e.engaged,
	}
}

func (e *effect) index(param string) int {
	for i, p := range e.params {
		if p.Name == param {
			return i
		}
	}
	return -1
}

// processBlock runs the pedal's DSP over each channel of b
func (e *effect) processBlock(b *audio.Block) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.engaged {
		return nil
	}

	for ch := 0; ch < b.Channels; ch++ {
		e.channel = b.Channel(ch, e.channel)
		if err := e.process(ch, e.channel); err != nil {
			return fmt.Errorf("%s channel %d: %w", e.name, ch, err)
		}
		b.SetChannel(ch, e.channel)
	}
	return nil
}
