// ABOUTME: Sink unit
// ABOUTME: Terminates the chain by writing blocks to an audio output
package pedal

import (
	"errors"
	"fmt"

	"github.com/Resonate-Protocol/pedalboard-go/pkg/audio"
	"github.com/Resonate-Protocol/pedalboard-go/pkg/audio/output"
	"github.com/Resonate-Protocol/pedalboard-go/pkg/engine"
)

// Sink is the tail of a chain. It can receive but not send.
type Sink struct {
	port
	out     output.Output
	scratch []int32
}

// NewSink opens out at the engine's format and registers a sink stage
func NewSink(ctx *engine.Context, out output.Output) (*Sink, error) {
	if out == nil {
		return nil, errors.New("sink: nil output")
	}
	if err := out.Open(ctx.SampleRate(), ctx.Channels()); err != nil {
		return nil, fmt.Errorf("sink: open output: %w", err)
	}

	s := &Sink{out: out}
	p, err := newPort(ctx, "output", CanReceive, engine.KindSink, s.push)
	if err != nil {
		out.Close()
		return nil, err
	}
	s.port = p
	return s, nil
}

// Connect always fails: nothing follows a sink
func (s *Sink) Connect(next Unit) error {
	return fmt.Errorf("%w: %s is the end of the chain", ErrRouting, s.name)
}

// Close closes the output device
func (s *Sink) Close() error {
	return s.out.Close()
}

func (s *Sink) push(b *audio.Block) error {
	s.scratch = b.Int32(s.scratch)
	return s.out.Write(s.scratch)
}
