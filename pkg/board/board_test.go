// ABOUTME: Tests for the pedalboard orchestrator
// ABOUTME: Covers the lifecycle state machine, routing order and end-to-end playback
package board

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Resonate-Protocol/pedalboard-go/pkg/audio"
	"github.com/Resonate-Protocol/pedalboard-go/pkg/audio/decode"
	"github.com/Resonate-Protocol/pedalboard-go/pkg/audio/output"
	"github.com/Resonate-Protocol/pedalboard-go/pkg/engine"
	"github.com/Resonate-Protocol/pedalboard-go/pkg/pedal"
)

// journal records calls made on fake units, in order
type journal struct {
	mu    sync.Mutex
	calls []string
}

func (j *journal) add(format string, args ...any) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls = append(j.calls, fmt.Sprintf(format, args...))
}

func (j *journal) count(call string) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	n := 0
	for _, c := range j.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (j *journal) String() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return strings.Join(j.calls, ",")
}

// fakeNode registers a real engine stage and links through the context
type fakeNode struct {
	name  string
	caps  pedal.Capability
	ctx   *engine.Context
	stage engine.StageID
	j     *journal
}

func newFakeNode(t *testing.T, ctx *engine.Context, j *journal, name string, caps pedal.Capability, kind engine.Kind) fakeNode {
	t.Helper()
	stage, err := ctx.Register(name, kind, func(*audio.Block) error { return nil })
	if err != nil {
		t.Fatal(err)
	}
	return fakeNode{name: name, caps: caps, ctx: ctx, stage: stage, j: j}
}

func (f *fakeNode) ID() string                     { return "id-" + f.name }
func (f *fakeNode) Name() string                   { return f.name }
func (f *fakeNode) Capabilities() pedal.Capability { return f.caps }
func (f *fakeNode) Stage() engine.StageID          { return f.stage }

func (f *fakeNode) Connect(next pedal.Unit) error {
	f.j.add("%s->%s", f.name, next.Name())
	if err := f.ctx.Link(f.stage, next.Stage()); err != nil {
		return fmt.Errorf("%w: %w", pedal.ErrRouting, err)
	}
	return nil
}

type fakeSource struct {
	fakeNode
}

func (f *fakeSource) Play() error {
	f.j.add("%s.play", f.name)
	return nil
}

func (f *fakeSource) Stop() error {
	f.j.add("%s.stop", f.name)
	return nil
}

type fakeEffect struct {
	fakeNode
}

func (f *fakeEffect) Placeholder() pedal.Content {
	f.j.add("%s.placeholder", f.name)
	return pedal.Content{ID: f.ID(), Kind: f.name}
}

func (f *fakeEffect) Render(pedal.Host) error {
	f.j.add("%s.render", f.name)
	return nil
}

func (f *fakeEffect) Params() []pedal.Param { return nil }

func (f *fakeEffect) Set(param string, value float64) error {
	f.j.add("%s.set", f.name)
	return nil
}

type recordingHost struct {
	mu      sync.Mutex
	mounted []pedal.Content
	updates []pedal.Content
	fail    error
}

func (h *recordingHost) Mount(c pedal.Content) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fail != nil {
		return h.fail
	}
	h.mounted = append(h.mounted, c)
	return nil
}

func (h *recordingHost) Update(c pedal.Content) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.updates = append(h.updates, c)
}

// fakeConfig wires S -> A -> B -> C -> O with fake units and a capture sink
func fakeConfig(t *testing.T, j *journal) Config {
	return Config{
		Host:     &recordingHost{},
		Settings: []Setting{},
		OpenStream: func() (decode.Stream, error) {
			return decode.NewTone(48000, 2), nil
		},
		OpenOutput: func() (output.Output, error) {
			return output.NewCapture(0), nil
		},
		NewSource: func(ctx *engine.Context, _ decode.Stream) (SourceUnit, error) {
			return &fakeSource{newFakeNode(t, ctx, j, "S", pedal.CanSend, engine.KindSource)}, nil
		},
		NewEffects: func(ctx *engine.Context) ([]pedal.Effect, error) {
			caps := pedal.CanSend | pedal.CanReceive | pedal.CanRender | pedal.CanParameterize
			var effects []pedal.Effect
			for _, name := range []string{"A", "B", "C"} {
				effects = append(effects, &fakeEffect{newFakeNode(t, ctx, j, name, caps, engine.KindProcess)})
			}
			return effects, nil
		},
	}
}

func toneConfig(frames int, capture *output.Capture) Config {
	return Config{
		BlockFrames: 256,
		OpenStream: func() (decode.Stream, error) {
			return decode.NewTone(48000, 2).WithLimit(frames), nil
		},
		OpenOutput: func() (output.Output, error) {
			return capture, nil
		},
	}
}

func TestPlayBeforeInit(t *testing.T) {
	b, err := New(Config{})
	if err != nil {
		t.Fatal(err)
	}

	if err := b.Play(); !errors.Is(err, ErrLifecycle) {
		t.Errorf("expected ErrLifecycle, got %v", err)
	}
	if err := b.Stop(); !errors.Is(err, ErrLifecycle) {
		t.Errorf("expected ErrLifecycle from stop, got %v", err)
	}
	if err := b.Set("volume", "level", 1); !errors.Is(err, ErrLifecycle) {
		t.Errorf("expected ErrLifecycle from set, got %v", err)
	}
	if b.State() != Uninitialized {
		t.Errorf("expected uninitialized, got %s", b.State())
	}
}

func TestEndToEndRouting(t *testing.T) {
	j := &journal{}
	b, err := New(fakeConfig(t, j))
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if err := b.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if b.State() != Ready {
		t.Fatalf("expected ready, got %s", b.State())
	}

	// routing, then placeholders, then render
	want := "S->A,A->B,B->C,C->output," +
		"A.placeholder,B.placeholder,C.placeholder," +
		"A.render,B.render,C.render"
	if got := j.String(); got != want {
		t.Errorf("unexpected call order:\n got %s\nwant %s", got, want)
	}

	units := b.Chain().Units()
	links := b.Links()
	if len(links) != 4 {
		t.Fatalf("expected exactly 4 connections, got %d", len(links))
	}
	for i, l := range links {
		if l.From != units[i].Stage() || l.To != units[i+1].Stage() {
			t.Errorf("link %d: expected %s -> %s", i, units[i].Name(), units[i+1].Name())
		}
	}

	if err := b.Play(); err != nil {
		t.Fatal(err)
	}
	if err := b.Play(); err != nil {
		t.Fatalf("play while playing: %v", err)
	}
	if b.State() != Playing {
		t.Fatalf("expected playing, got %s", b.State())
	}
	if err := b.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := b.Stop(); err != nil {
		t.Fatalf("stop after stop: %v", err)
	}

	if n := j.count("S.play"); n != 1 {
		t.Errorf("expected one source start, got %d", n)
	}
	if n := j.count("S.stop"); n != 1 {
		t.Errorf("expected one source stop, got %d", n)
	}
	for _, name := range []string{"A", "B", "C"} {
		if n := j.count(name + ".play"); n != 0 {
			t.Errorf("%s must not be played", name)
		}
	}
}

func TestDoubleInit(t *testing.T) {
	j := &journal{}
	b, err := New(fakeConfig(t, j))
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if err := b.Init(); err != nil {
		t.Fatal(err)
	}
	if err := b.Init(); !errors.Is(err, ErrLifecycle) {
		t.Errorf("expected ErrLifecycle, got %v", err)
	}
	if b.State() != Ready {
		t.Errorf("double init must not change state, got %s", b.State())
	}
}

func TestInitFailureIsTerminal(t *testing.T) {
	j := &journal{}
	cfg := fakeConfig(t, j)
	mountErr := errors.New("no display")
	cfg.Host = &recordingHost{fail: mountErr}

	b, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	if err := b.Init(); !errors.Is(err, mountErr) {
		t.Fatalf("expected mount error, got %v", err)
	}
	if b.State() != Failed {
		t.Fatalf("expected failed, got %s", b.State())
	}

	if err := b.Init(); !errors.Is(err, ErrLifecycle) {
		t.Errorf("expected ErrLifecycle on retry, got %v", err)
	}
	if err := b.Play(); !errors.Is(err, ErrLifecycle) {
		t.Errorf("expected ErrLifecycle from play, got %v", err)
	}
	if err := b.Stop(); !errors.Is(err, ErrLifecycle) {
		t.Errorf("expected ErrLifecycle from stop, got %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("close after failure: %v", err)
	}
}

func TestInitOpenErrors(t *testing.T) {
	streamErr := errors.New("missing asset")
	outputErr := errors.New("no device")

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"stream", func(c *Config) {
			c.OpenStream = func() (decode.Stream, error) { return nil, streamErr }
		}, streamErr},
		{"output", func(c *Config) {
			c.OpenOutput = func() (output.Output, error) { return nil, outputErr }
		}, outputErr},
		{"unknown startup pedal", func(c *Config) {
			c.Settings = []Setting{{Effect: "wah", Param: "level", Value: 1}}
		}, ErrUnknownEffect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := toneConfig(1000, output.NewCapture(0))
			tt.mutate(&cfg)

			b, err := New(cfg)
			if err != nil {
				t.Fatal(err)
			}
			if err := b.Init(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if b.State() != Failed {
				t.Errorf("expected failed, got %s", b.State())
			}
		})
	}
}

func TestStandardBoard(t *testing.T) {
	host := &recordingHost{}
	capture := output.NewCapture(4096)
	cfg := toneConfig(48000, capture)
	cfg.Host = host

	b, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if err := b.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}

	var names []string
	for _, e := range b.Effects() {
		names = append(names, e.Name())
	}
	if got := strings.Join(names, ","); got != "overdrive,reverb,volume,cabinet" {
		t.Errorf("unexpected pedal order %s", got)
	}

	if len(host.mounted) != 4 {
		t.Fatalf("expected 4 mounted pedals, got %d", len(host.mounted))
	}
	// mounted placeholders show construction defaults
	if k, _ := host.mounted[0].Knob("drive"); k.Value != 1 {
		t.Errorf("expected mounted drive 1, got %v", k.Value)
	}

	// startup settings arrive as updates after render
	if len(host.updates) != len(DefaultSettings) {
		t.Fatalf("expected %d updates, got %d", len(DefaultSettings), len(host.updates))
	}
	for _, s := range DefaultSettings {
		e, ok := b.Effect(s.Effect)
		if !ok {
			t.Fatalf("missing pedal %s", s.Effect)
		}
		if k, _ := e.Placeholder().Knob(s.Param); k.Value != s.Value {
			t.Errorf("%s.%s: expected %v, got %v", s.Effect, s.Param, s.Value, k.Value)
		}
	}

	if err := b.Set("volume", "level", 11); !errors.Is(err, pedal.ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
	if err := b.Set("wah", "level", 1); !errors.Is(err, ErrUnknownEffect) {
		t.Errorf("expected ErrUnknownEffect, got %v", err)
	}
	if err := b.Engage("reverb", false); err != nil {
		t.Errorf("engage: %v", err)
	}
	if e, _ := b.Effect("reverb"); e.Placeholder().Switch {
		t.Error("expected reverb switched off")
	}
}

func TestPlaybackEndsAtEndOfStream(t *testing.T) {
	capture := output.NewCapture(48000 * 2)
	stopped := make(chan error, 1)
	var mu sync.Mutex
	var states []State

	cfg := toneConfig(4800, capture)
	cfg.Host = &recordingHost{}
	cfg.OnStop = func(err error) { stopped <- err }
	cfg.OnStateChange = func(s State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	}

	b, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	if err := b.Init(); err != nil {
		t.Fatal(err)
	}
	if err := b.Play(); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-stopped:
		if err != nil {
			t.Errorf("unexpected playback error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("playback did not end")
	}

	if b.State() != Ready {
		t.Errorf("expected ready after end of stream, got %s", b.State())
	}
	if got := len(capture.Samples()); got != 4800*2 {
		t.Errorf("expected %d output samples, got %d", 4800*2, got)
	}

	// a finished board can be closed and stays closed
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if !capture.Closed() {
		t.Error("expected output closed")
	}
	if err := b.Play(); !errors.Is(err, ErrLifecycle) {
		t.Errorf("expected ErrLifecycle after close, got %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []State{Ready, Playing, Ready, Closed}
	if fmt.Sprint(states) != fmt.Sprint(want) {
		t.Errorf("expected transitions %v, got %v", want, states)
	}
}

func TestToggle(t *testing.T) {
	b, err := New(toneConfig(0, output.NewCapture(0)))
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()
	b.config.Host = &recordingHost{}

	if err := b.Init(); err != nil {
		t.Fatal(err)
	}
	if err := b.Toggle(); err != nil {
		t.Fatal(err)
	}
	if b.State() != Playing {
		t.Fatalf("expected playing, got %s", b.State())
	}
	if err := b.Toggle(); err != nil {
		t.Fatal(err)
	}
	if b.State() != Ready {
		t.Fatalf("expected ready, got %s", b.State())
	}
}
