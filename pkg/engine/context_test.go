// ABOUTME: Tests for the audio engine context
// ABOUTME: Covers registration, link rules, the pump and session lifecycle
package engine

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/Resonate-Protocol/pedalboard-go/pkg/audio"
)

// countingSource emits blocks of a constant value and ends after limit blocks (0 = never)
type countingSource struct {
	mu     sync.Mutex
	value  float64
	limit  int
	blocks int
}

func (s *countingSource) pull(b *audio.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range b.Samples {
		b.Samples[i] = s.value
	}
	s.blocks++
	if s.limit > 0 && s.blocks >= s.limit {
		return io.EOF
	}
	return nil
}

type collectingSink struct {
	mu      sync.Mutex
	samples []float64
	blocks  int
}

func (s *collectingSink) push(b *audio.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, b.Samples...)
	s.blocks++
	return nil
}

func (s *collectingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blocks
}

func mustRegister(t *testing.T, c *Context, name string, kind Kind, fn StageFunc) StageID {
	t.Helper()
	id, err := c.Register(name, kind, fn)
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	return id
}

func noop(*audio.Block) error { return nil }

func TestNewDefaults(t *testing.T) {
	c := New(Config{})

	if c.SampleRate() != DefaultSampleRate {
		t.Errorf("expected sample rate %d, got %d", DefaultSampleRate, c.SampleRate())
	}
	if c.Channels() != DefaultChannels {
		t.Errorf("expected %d channels, got %d", DefaultChannels, c.Channels())
	}
	if c.BlockFrames() != DefaultBlockFrames {
		t.Errorf("expected %d block frames, got %d", DefaultBlockFrames, c.BlockFrames())
	}
}

func TestRegisterAssignsUniqueIDs(t *testing.T) {
	c := New(Config{})

	a := mustRegister(t, c, "a", KindProcess, noop)
	b := mustRegister(t, c, "b", KindProcess, noop)

	if a == "" || b == "" {
		t.Fatal("expected non-empty stage IDs")
	}
	if a == b {
		t.Error("expected distinct stage IDs")
	}

	stages := c.Stages()
	if len(stages) != 2 || stages[0].Name != "a" || stages[1].Name != "b" {
		t.Errorf("unexpected stages: %+v", stages)
	}
}

func TestLinkRules(t *testing.T) {
	c := New(Config{})
	src := mustRegister(t, c, "src", KindSource, noop)
	fx := mustRegister(t, c, "fx", KindProcess, noop)
	fx2 := mustRegister(t, c, "fx2", KindProcess, noop)
	out := mustRegister(t, c, "out", KindSink, noop)

	if err := c.Link(src, fx); err != nil {
		t.Fatalf("link src->fx: %v", err)
	}

	tests := []struct {
		name     string
		from, to StageID
		want     error
	}{
		{"second outgoing", src, fx2, ErrLinked},
		{"second incoming", fx2, fx, ErrLinked},
		{"self", fx2, fx2, ErrDirection},
		{"out of sink", out, fx2, ErrDirection},
		{"into source", fx2, src, ErrDirection},
		{"unknown from", StageID("nope"), out, ErrUnknownStage},
		{"unknown to", fx, StageID("nope"), ErrUnknownStage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Link(tt.from, tt.to)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if got := len(c.Links()); got != 1 {
		t.Errorf("failed links must not be recorded, got %d links", got)
	}
}

func TestLinksInCreationOrder(t *testing.T) {
	c := New(Config{})
	src := mustRegister(t, c, "src", KindSource, noop)
	fx := mustRegister(t, c, "fx", KindProcess, noop)
	out := mustRegister(t, c, "out", KindSink, noop)

	if err := c.Link(src, fx); err != nil {
		t.Fatal(err)
	}
	if err := c.Link(fx, out); err != nil {
		t.Fatal(err)
	}

	links := c.Links()
	want := []Link{{src, fx}, {fx, out}}
	if len(links) != len(want) {
		t.Fatalf("expected %d links, got %d", len(want), len(links))
	}
	for i := range want {
		if links[i] != want[i] {
			t.Errorf("link %d: expected %v, got %v", i, want[i], links[i])
		}
	}

	// returned slice is a copy
	links[0] = Link{}
	if c.Links()[0] != want[0] {
		t.Error("Links must return a copy")
	}
}

func TestStartRequiresCompletePath(t *testing.T) {
	c := New(Config{})
	if err := c.Start(); !errors.Is(err, ErrIncomplete) {
		t.Errorf("expected ErrIncomplete with no stages, got %v", err)
	}

	src := mustRegister(t, c, "src", KindSource, noop)
	fx := mustRegister(t, c, "fx", KindProcess, noop)
	if err := c.Link(src, fx); err != nil {
		t.Fatal(err)
	}
	if err := c.Start(); !errors.Is(err, ErrIncomplete) {
		t.Errorf("expected ErrIncomplete for dangling chain, got %v", err)
	}
	if c.Running() {
		t.Error("context must not run after failed Start")
	}
}

func TestPumpRunsStagesInLinkOrder(t *testing.T) {
	var stopErr error
	stopped := make(chan struct{})

	c := New(Config{
		BlockFrames: 4,
		Channels:    2,
		OnStop: func(err error) {
			stopErr = err
			close(stopped)
		},
	})

	source := &countingSource{value: 1, limit: 3}
	sink := &collectingSink{}

	src := mustRegister(t, c, "src", KindSource, source.pull)
	// registered out of order: link order decides processing order
	double := mustRegister(t, c, "double", KindProcess, func(b *audio.Block) error {
		for i := range b.Samples {
			b.Samples[i] *= 2
		}
		return nil
	})
	addOne := mustRegister(t, c, "add", KindProcess, func(b *audio.Block) error {
		for i := range b.Samples {
			b.Samples[i] += 1
		}
		return nil
	})
	out := mustRegister(t, c, "out", KindSink, sink.push)

	for _, l := range []Link{{src, addOne}, {addOne, double}, {double, out}} {
		if err := c.Link(l.From, l.To); err != nil {
			t.Fatal(err)
		}
	}

	if err := c.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	c.Wait()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("OnStop not called after source EOF")
	}

	if stopErr != nil {
		t.Errorf("expected clean stop, got %v", stopErr)
	}
	if c.Running() {
		t.Error("context still running after EOF")
	}
	if sink.blocks != 3 {
		t.Errorf("expected 3 blocks, got %d", sink.blocks)
	}
	if len(sink.samples) != 3*4*2 {
		t.Fatalf("expected %d samples, got %d", 3*4*2, len(sink.samples))
	}
	for i, v := range sink.samples {
		if v != 4 {
			t.Fatalf("sample %d: expected (1+1)*2 = 4, got %v", i, v)
		}
	}
}

func TestStageErrorEndsSession(t *testing.T) {
	boom := errors.New("boom")
	got := make(chan error, 1)

	c := New(Config{OnStop: func(err error) { got <- err }})
	src := mustRegister(t, c, "src", KindSource, noop)
	out := mustRegister(t, c, "out", KindSink, func(*audio.Block) error { return boom })
	if err := c.Link(src, out); err != nil {
		t.Fatal(err)
	}

	if err := c.Start(); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-got:
		if !errors.Is(err, boom) {
			t.Errorf("expected wrapped stage error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("OnStop not called after stage error")
	}
}

func TestStopAndRestart(t *testing.T) {
	onStopCalls := 0
	var mu sync.Mutex

	c := New(Config{BlockFrames: 16, OnStop: func(error) {
		mu.Lock()
		onStopCalls++
		mu.Unlock()
	}})

	source := &countingSource{}
	sink := &collectingSink{}
	src := mustRegister(t, c, "src", KindSource, source.pull)
	out := mustRegister(t, c, "out", KindSink, sink.push)
	if err := c.Link(src, out); err != nil {
		t.Fatal(err)
	}

	for round := 0; round < 2; round++ {
		if err := c.Start(); err != nil {
			t.Fatalf("round %d start: %v", round, err)
		}
		// second Start while running is a no-op
		if err := c.Start(); err != nil {
			t.Fatalf("round %d restart: %v", round, err)
		}
		if !c.Running() {
			t.Fatalf("round %d: expected running", round)
		}

		deadline := time.Now().Add(time.Second)
		for sink.count() == 0 && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}

		c.Stop()
		c.Stop()
		c.Wait()

		if c.Running() {
			t.Fatalf("round %d: still running after Stop", round)
		}
	}

	if sink.count() == 0 {
		t.Error("expected sink to receive blocks")
	}

	mu.Lock()
	defer mu.Unlock()
	if onStopCalls != 0 {
		t.Errorf("OnStop must not fire for caller stops, got %d calls", onStopCalls)
	}
}

func TestPacedPump(t *testing.T) {
	c := New(Config{SampleRate: 1000, BlockFrames: 10, Pace: true})

	source := &countingSource{limit: 5}
	sink := &collectingSink{}
	src := mustRegister(t, c, "src", KindSource, source.pull)
	out := mustRegister(t, c, "out", KindSink, sink.push)
	if err := c.Link(src, out); err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	c.Wait()

	// five 10ms blocks
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("expected paced playback to take ~50ms, took %v", elapsed)
	}
	if sink.count() != 5 {
		t.Errorf("expected 5 blocks, got %d", sink.count())
	}
}

func TestClose(t *testing.T) {
	c := New(Config{})
	src := mustRegister(t, c, "src", KindSource, noop)
	out := mustRegister(t, c, "out", KindSink, noop)
	if err := c.Link(src, out); err != nil {
		t.Fatal(err)
	}
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if c.Running() {
		t.Error("running after Close")
	}
	if err := c.Start(); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed from Start, got %v", err)
	}
	if _, err := c.Register("x", KindProcess, noop); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed from Register, got %v", err)
	}
}
