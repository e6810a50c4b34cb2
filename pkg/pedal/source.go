// ABOUTME: Source unit
// ABOUTME: Feeds a decoded audio stream into the chain and controls playback
package pedal

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/Resonate-Protocol/pedalboard-go/pkg/audio"
	"github.com/Resonate-Protocol/pedalboard-go/pkg/audio/decode"
	"github.com/Resonate-Protocol/pedalboard-go/pkg/engine"
)

// Source is the head of a chain. It can send but not receive.
type Source struct {
	port
	stream  decode.Stream
	scratch []int32
}

// NewSource registers a source stage that reads from stream
func NewSource(ctx *engine.Context, stream decode.Stream) (*Source, error) {
	if stream == nil {
		return nil, errors.New("source: nil stream")
	}
	if stream.SampleRate() != ctx.SampleRate() || stream.Channels() != ctx.Channels() {
		return nil, fmt.Errorf("source: stream is %dHz/%dch but engine runs %dHz/%dch",
			stream.SampleRate(), stream.Channels(), ctx.SampleRate(), ctx.Channels())
	}

	s := &Source{stream: stream}
	p, err := newPort(ctx, "source", CanSend, engine.KindSource, s.pull)
	if err != nil {
		return nil, err
	}
	s.port = p

	title, artist, _ := stream.Metadata()
	log.Printf("Source ready: %s - %s (%dHz, %d channels)", title, artist, stream.SampleRate(), stream.Channels())
	return s, nil
}

// Play starts the engine pumping audio from this source
func (s *Source) Play() error {
	if err := s.ctx.Start(); err != nil {
		return fmt.Errorf("source play: %w", err)
	}
	return nil
}

// Stop halts playback. It returns without waiting for the block in flight.
func (s *Source) Stop() error {
	s.ctx.Stop()
	return nil
}

// Playing reports whether audio is being pumped
func (s *Source) Playing() bool {
	return s.ctx.Running()
}

// Metadata returns the stream's title, artist and album
func (s *Source) Metadata() (title, artist, album string) {
	return s.stream.Metadata()
}

// Close closes the underlying stream
func (s *Source) Close() error {
	return s.stream.Close()
}

// pull fills b from the stream, trimming it on a short final read
func (s *Source) pull(b *audio.Block) error {
	want := len(b.Samples)
	if cap(s.scratch) < want {
		s.scratch = make([]int32, want)
	}
	buf := s.scratch[:want]

	filled := 0
	var err error
	for filled < want {
		var n int
		n, err = s.stream.Read(buf[filled:])
		filled += n
		if err != nil {
			break
		}
		if n == 0 {
			// empty read with no error
			err = io.ErrNoProgress
			break
		}
	}

	b.FromInt32(buf[:filled])

	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read stream: %w", err)
	}
	return err
}
