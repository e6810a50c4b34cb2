// ABOUTME: Pedalboard orchestrator
// ABOUTME: Init builds and routes the chain; Play and Stop drive the source
package board

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/Resonate-Protocol/pedalboard-go/pkg/audio/decode"
	"github.com/Resonate-Protocol/pedalboard-go/pkg/audio/output"
	"github.com/Resonate-Protocol/pedalboard-go/pkg/chain"
	"github.com/Resonate-Protocol/pedalboard-go/pkg/engine"
	"github.com/Resonate-Protocol/pedalboard-go/pkg/pedal"
)

// SourceUnit is a chain head that controls playback
type SourceUnit interface {
	pedal.Unit
	pedal.Player
}

// Config holds board configuration
type Config struct {
	// AudioFile is the asset played by the source. Empty plays a test tone.
	AudioFile string

	// Loop restarts the asset when it ends
	Loop bool

	// Output names the output backend (oto, portaudio, null)
	Output string

	// BlockFrames is the engine block size (default: 512)
	BlockFrames int

	// Pace throttles the engine to real time for outputs that do not block
	Pace bool

	// Host displays the pedals (default: pedal.LogHost)
	Host pedal.Host

	// Settings are applied after rendering. Nil means DefaultSettings.
	Settings []Setting

	// OpenStream opens the source stream (default: decode.Open on AudioFile)
	OpenStream func() (decode.Stream, error)

	// OpenOutput creates the sink's output (default: output.New on Output)
	OpenOutput func() (output.Output, error)

	// NewSource wraps the stream in a source unit (default: pedal.NewSource)
	NewSource func(ctx *engine.Context, stream decode.Stream) (SourceUnit, error)

	// NewEffects creates the pedals in signal order (default: StandardEffects)
	NewEffects func(ctx *engine.Context) ([]pedal.Effect, error)

	// OnStop is called when playback ends on its own (end of stream or engine error)
	OnStop func(err error)

	// OnStateChange is called after every state transition
	OnStateChange func(State)

	Debug bool
}

// Board owns the engine context and every unit in the chain
type Board struct {
	config Config

	mu      sync.Mutex
	state   State
	ctx     *engine.Context
	stream  decode.Stream
	out     output.Output
	source  SourceUnit
	sink    *pedal.Sink
	chain   *chain.Chain
	effects []pedal.Effect
}

// New validates config and applies defaults. No audio resources are touched.
func New(config Config) (*Board, error) {
	if config.BlockFrames < 0 {
		return nil, fmt.Errorf("invalid block size: %d", config.BlockFrames)
	}
	if config.BlockFrames == 0 {
		config.BlockFrames = engine.DefaultBlockFrames
	}
	if config.Host == nil {
		config.Host = pedal.LogHost{}
	}
	if config.Settings == nil {
		config.Settings = DefaultSettings
	}
	if config.OpenStream == nil {
		file, loop := config.AudioFile, config.Loop
		config.OpenStream = func() (decode.Stream, error) {
			return decode.Open(file, decode.Options{Loop: loop})
		}
	}
	if config.OpenOutput == nil {
		name := config.Output
		config.OpenOutput = func() (output.Output, error) {
			return output.New(name)
		}
	}
	if config.NewSource == nil {
		config.NewSource = func(ctx *engine.Context, stream decode.Stream) (SourceUnit, error) {
			return pedal.NewSource(ctx, stream)
		}
	}
	if config.NewEffects == nil {
		config.NewEffects = StandardEffects
	}

	return &Board{config: config, state: Uninitialized}, nil
}

// Init creates the engine and every unit, builds and routes the chain, mounts
// and renders the pedals and applies the startup settings. It is valid once.
func (b *Board) Init() error {
	return b.update(func() error {
		if b.state != Uninitialized {
			return lifecycleError("init", b.state)
		}

		if err := b.initLocked(); err != nil {
			b.state = Failed
			b.releaseLocked()
			return fmt.Errorf("init: %w", err)
		}

		b.state = Ready
		log.Printf("Pedalboard ready: %d pedals", len(b.effects))
		return nil
	})
}

func (b *Board) initLocked() error {
	stream, err := b.config.OpenStream()
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	b.stream = stream

	b.ctx = engine.New(engine.Config{
		SampleRate:  stream.SampleRate(),
		Channels:    stream.Channels(),
		BlockFrames: b.config.BlockFrames,
		Pace:        b.config.Pace,
		OnStop:      b.handleStop,
		Debug:       b.config.Debug,
	})

	out, err := b.config.OpenOutput()
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	b.out = out

	b.source, err = b.config.NewSource(b.ctx, stream)
	if err != nil {
		return fmt.Errorf("create source: %w", err)
	}

	b.effects, err = b.config.NewEffects(b.ctx)
	if err != nil {
		return fmt.Errorf("create effects: %w", err)
	}

	b.sink, err = pedal.NewSink(b.ctx, out)
	if err != nil {
		return fmt.Errorf("create sink: %w", err)
	}

	b.chain, err = chain.Builder{
		Source:  b.source,
		Effects: b.effects,
		Sink:    b.sink,
	}.Build()
	if err != nil {
		return err
	}

	if err := chain.Route(b.chain); err != nil {
		return fmt.Errorf("route: %w", err)
	}

	host := b.config.Host
	for _, e := range b.effects {
		if err := host.Mount(e.Placeholder()); err != nil {
			return fmt.Errorf("mount %s: %w", e.Name(), err)
		}
	}
	for _, e := range b.effects {
		if err := e.Render(host); err != nil {
			return fmt.Errorf("render %s: %w", e.Name(), err)
		}
	}

	for _, s := range b.config.Settings {
		e := b.findLocked(s.Effect)
		if e == nil {
			return fmt.Errorf("startup setting %s.%s: %w: %s", s.Effect, s.Param, ErrUnknownEffect, s.Effect)
		}
		if err := e.Set(s.Param, s.Value); err != nil {
			return fmt.Errorf("startup setting: %w", err)
		}
	}

	if b.config.Debug {
		for i, u := range b.chain.Units() {
			log.Printf("[DEBUG] Chain %d: %s (%s) caps=%s", i, u.Name(), u.ID(), u.Capabilities())
		}
	}
	return nil
}

// Play starts playback from Ready. Playing again is a no-op.
func (b *Board) Play() error {
	return b.update(func() error {
		switch b.state {
		case Playing:
			return nil
		case Ready:
		default:
			return lifecycleError("play", b.state)
		}

		if err := b.source.Play(); err != nil {
			return fmt.Errorf("play: %w", err)
		}
		b.state = Playing
		log.Printf("Playback started")
		return nil
	})
}

// Stop halts playback. Stopping a board that is not playing is a no-op.
func (b *Board) Stop() error {
	return b.update(func() error {
		switch b.state {
		case Ready:
			return nil
		case Playing:
		default:
			return lifecycleError("stop", b.state)
		}

		if err := b.source.Stop(); err != nil {
			return fmt.Errorf("stop: %w", err)
		}
		b.state = Ready
		log.Printf("Playback stopped")
		return nil
	})
}

// Toggle plays when ready and stops when playing
func (b *Board) Toggle() error {
	if b.State() == Playing {
		return b.Stop()
	}
	return b.Play()
}

// Set changes a parameter on the named pedal
func (b *Board) Set(effect, param string, value float64) error {
	e, err := b.lookup("set", effect)
	if err != nil {
		return err
	}
	return e.Set(param, value)
}

// Engage switches the named pedal on or off
func (b *Board) Engage(effect string, on bool) error {
	e, err := b.lookup("engage", effect)
	if err != nil {
		return err
	}
	sw, ok := e.(interface{ Engage(bool) })
	if !ok {
		return fmt.Errorf("%s has no footswitch", effect)
	}
	sw.Engage(on)
	return nil
}

// State returns the current lifecycle state
func (b *Board) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Chain returns the routed chain, or nil before Init
func (b *Board) Chain() *chain.Chain {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.chain
}

// Effects returns the pedals in signal order
func (b *Board) Effects() []pedal.Effect {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]pedal.Effect, len(b.effects))
	copy(out, b.effects)
	return out
}

// Effect returns the pedal with the given name
func (b *Board) Effect(name string) (pedal.Effect, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e := b.findLocked(name)
	return e, e != nil
}

// Links returns the engine connections in creation order
func (b *Board) Links() []engine.Link {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctx == nil {
		return nil
	}
	return b.ctx.Links()
}

// Metadata returns the source's title, artist and album
func (b *Board) Metadata() (title, artist, album string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stream == nil {
		return "", "", ""
	}
	return b.stream.Metadata()
}

// Wait blocks until the current playback session has ended
func (b *Board) Wait() {
	b.mu.Lock()
	ctx := b.ctx
	b.mu.Unlock()
	if ctx != nil {
		ctx.Wait()
	}
}

// Close stops playback and releases the engine, stream and output. It is
// valid in every state and closing twice is a no-op.
func (b *Board) Close() error {
	var err error
	b.update(func() error {
		if b.state == Closed {
			return nil
		}
		err = b.releaseLocked()
		b.state = Closed
		return nil
	})
	return err
}

func (b *Board) releaseLocked() error {
	var errs []error

	if b.ctx != nil {
		if err := b.ctx.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close engine: %w", err))
		}
	}
	if b.sink != nil {
		if err := b.sink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close output: %w", err))
		}
	} else if b.out != nil {
		if err := b.out.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close output: %w", err))
		}
	}
	if b.stream != nil {
		if err := b.stream.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close stream: %w", err))
		}
	}

	return errors.Join(errs...)
}

// handleStop runs on the engine's pump goroutine when playback ends by itself
func (b *Board) handleStop(err error) {
	b.update(func() error {
		if b.state == Playing && !b.ctx.Running() {
			b.state = Ready
		}
		return nil
	})

	if err != nil && !errors.Is(err, io.EOF) {
		log.Printf("Playback ended with error: %v", err)
	} else {
		log.Printf("Playback finished")
	}

	if b.config.OnStop != nil {
		b.config.OnStop(err)
	}
}

func (b *Board) lookup(op, name string) (pedal.Effect, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != Ready && b.state != Playing {
		return nil, lifecycleError(op, b.state)
	}
	e := b.findLocked(name)
	if e == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEffect, name)
	}
	return e, nil
}

func (b *Board) findLocked(name string) pedal.Effect {
	for _, e := range b.effects {
		if e.Name() == name {
			return e
		}
	}
	return nil
}

// update runs fn under the lock and reports any state change afterwards
func (b *Board) update(fn func() error) error {
	b.mu.Lock()
	before := b.state
	err := fn()
	after := b.state
	b.mu.Unlock()

	if after != before && b.config.OnStateChange != nil {
		b.config.OnStateChange(after)
	}
	return err
}
