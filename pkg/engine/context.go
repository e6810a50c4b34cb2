// ABOUTME: Audio engine context
// ABOUTME: Stage registry, link bookkeeping and the playback pump
package engine

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/Resonate-Protocol/pedalboard-go/pkg/audio"
	"github.com/google/uuid"
)

const (
	DefaultSampleRate  = 48000
	DefaultChannels    = 2
	DefaultBlockFrames = 512
)

var (
	// ErrUnknownStage is returned when a stage ID was not registered on this context
	ErrUnknownStage = errors.New("unknown stage")
	// ErrLinked is returned when a stage already has an outgoing or incoming link
	ErrLinked = errors.New("stage already linked")
	// ErrDirection is returned for links out of a sink, into a source, or onto the same stage
	ErrDirection = errors.New("invalid link direction")
	// ErrIncomplete is returned by Start when no linked path leads from a source to a sink
	ErrIncomplete = errors.New("no complete path from source to sink")
	// ErrClosed is returned after Close
	ErrClosed = errors.New("engine closed")
)

// Kind is the role of a stage in the graph
type Kind int

const (
	KindSource Kind = iota
	KindProcess
	KindSink
)

func (k Kind) String() string {
	switch k {
	case KindSource:
		return "source"
	case KindProcess:
		return "process"
	case KindSink:
		return "sink"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// StageID identifies a registered stage
type StageID string

// StageFunc handles one block. Source stages fill it (returning io.EOF at end
// of stream), process stages modify it in place, sink stages consume it.
type StageFunc func(b *audio.Block) error

// Link is a directed edge between two stages
type Link struct {
	From StageID
	To   StageID
}

// StageInfo describes a registered stage
type StageInfo struct {
	ID   StageID
	Name string
	Kind Kind
}

// Config configures a Context
type Config struct {
	SampleRate  int
	Channels    int
	BlockFrames int

	// Pace throttles the pump to real time. Leave off when the sink blocks on a device.
	Pace bool

	// OnStop is called after a session ends on its own: source EOF or a stage error.
	// It is not called for sessions ended by Stop.
	OnStop func(err error)

	Debug bool
}

type stage struct {
	info StageInfo
	fn   StageFunc
}

// session is one Start..Stop run of the pump
type session struct {
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	stopped  bool // set by Stop under Context.mu
}

// Context is the audio processing backend shared by every node of a board
type Context struct {
	config Config

	mu     sync.Mutex
	stages map[StageID]*stage
	order  []StageID
	links  []Link
	next   map[StageID]StageID
	prev   map[StageID]StageID

	current *session
	last    *session
	closed  bool
}

// New creates a context, applying defaults for zero config fields
func New(config Config) *Context {
	if config.SampleRate == 0 {
		config.SampleRate = DefaultSampleRate
	}
	if config.Channels == 0 {
		config.Channels = DefaultChannels
	}
	if config.BlockFrames == 0 {
		config.BlockFrames = DefaultBlockFrames
	}

	return &Context{
		config: config,
		stages: make(map[StageID]*stage),
		next:   make(map[StageID]StageID),
		prev:   make(map[StageID]StageID),
	}
}

// SampleRate returns the rate every stage runs at
func (c *Context) SampleRate() int { return c.config.SampleRate }

// Channels returns the interleaved channel count of every block
func (c *Context) Channels() int { return c.config.Channels }

// BlockFrames returns the frames per processed block
func (c *Context) BlockFrames() int { return c.config.BlockFrames }

// Register adds a stage and returns its ID
func (c *Context) Register(name string, kind Kind, fn StageFunc) (StageID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return "", ErrClosed
	}

	id := StageID(uuid.NewString())
	c.stages[id] = &stage{
		info: StageInfo{ID: id, Name: name, Kind: kind},
		fn:   fn,
	}
	c.order = append(c.order, id)

	if c.config.Debug {
		log.Printf("[DEBUG] Registered %s stage %q (%s)", kind, name, id)
	}
	return id, nil
}

// Link connects from's output to to's input. Each stage has at most one
// outgoing and one incoming link; links are never rewired.
func (c *Context) Link(from, to StageID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	src, ok := c.stages[from]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStage, from)
	}
	dst, ok := c.stages[to]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStage, to)
	}

	if from == to {
		return fmt.Errorf("%w: %q onto itself", ErrDirection, src.info.Name)
	}
	if src.info.Kind == KindSink {
		return fmt.Errorf("%w: out of sink %q", ErrDirection, src.info.Name)
	}
	if dst.info.Kind == KindSource {
		return fmt.Errorf("%w: into source %q", ErrDirection, dst.info.Name)
	}

	if existing, ok := c.next[from]; ok {
		return fmt.Errorf("%w: %q already feeds %q", ErrLinked, src.info.Name, c.stages[existing].info.Name)
	}
	if existing, ok := c.prev[to]; ok {
		return fmt.Errorf("%w: %q already fed by %q", ErrLinked, dst.info.Name, c.stages[existing].info.Name)
	}

	c.next[from] = to
	c.prev[to] = from
	c.links = append(c.links, Link{From: from, To: to})

	if c.config.Debug {
		log.Printf("[DEBUG] Linked %q -> %q", src.info.Name, dst.info.Name)
	}
	return nil
}

// Links returns the links in creation order
func (c *Context) Links() []Link {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Link, len(c.links))
	copy(out, c.links)
	return out
}

// Stages returns the registered stages in registration order
func (c *Context) Stages() []StageInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]StageInfo, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.stages[id].info)
	}
	return out
}

// Running reports whether a pump session is active
func (c *Context) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}

// Start begins pumping blocks from the source through the linked stages.
// Starting a running context is a no-op. A session ended by Stop is drained
// before the next one starts so two pumps never share the stages.
func (c *Context) Start() error {
	c.mu.Lock()
	if prev := c.last; c.current == nil && prev != nil {
		c.mu.Unlock()
		<-prev.done
		c.mu.Lock()
	}
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.current != nil {
		return nil
	}

	path, err := c.pathLocked()
	if err != nil {
		return err
	}

	s := &session{
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
	c.current = s
	c.last = s

	log.Printf("Audio engine starting: %d stages, %dHz/%dch, %d frames per block",
		len(path), c.config.SampleRate, c.config.Channels, c.config.BlockFrames)

	go c.pump(s, path)
	return nil
}

// Stop signals the pump to exit after the block in flight. It does not wait.
func (c *Context) Stop() {
	c.mu.Lock()
	s := c.current
	if s != nil {
		s.stopped = true
		c.current = nil
	}
	c.mu.Unlock()

	if s != nil {
		s.stopOnce.Do(func() {
			close(s.stopChan)
		})
	}
}

// Wait blocks until the most recently started session has exited
func (c *Context) Wait() {
	c.mu.Lock()
	s := c.last
	c.mu.Unlock()

	if s != nil {
		<-s.done
	}
}

// Close stops playback, waits for the pump and rejects further use
func (c *Context) Close() error {
	c.Stop()
	c.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// pathLocked walks the links from the source stage to a sink (must hold c.mu)
func (c *Context) pathLocked() ([]*stage, error) {
	var source *stage
	for _, id := range c.order {
		if st := c.stages[id]; st.info.Kind == KindSource {
			source = st
			break
		}
	}
	if source == nil {
		return nil, fmt.Errorf("%w: no source registered", ErrIncomplete)
	}

	path := []*stage{source}
	current := source.info.ID
	for {
		nextID, ok := c.next[current]
		if !ok {
			break
		}
		st := c.stages[nextID]
		path = append(path, st)
		current = nextID
	}

	if path[len(path)-1].info.Kind != KindSink {
		return nil, fmt.Errorf("%w: chain ends at %q", ErrIncomplete, path[len(path)-1].info.Name)
	}
	return path, nil
}

// pump moves blocks through path until stopped, EOF or error
func (c *Context) pump(s *session, path []*stage) {
	var endErr error

	defer func() {
		c.mu.Lock()
		if c.current == s {
			c.current = nil
		}
		stoppedByCaller := s.stopped
		c.mu.Unlock()

		close(s.done)

		if endErr != nil {
			log.Printf("Audio engine stopped with error: %v", endErr)
		} else {
			log.Printf("Audio engine stopped")
		}

		if !stoppedByCaller && c.config.OnStop != nil {
			c.config.OnStop(endErr)
		}
	}()

	size := c.config.BlockFrames * c.config.Channels
	block := audio.NewBlock(c.config.BlockFrames, c.config.Channels)

	var ticker *time.Ticker
	if c.config.Pace {
		blockDuration := time.Duration(c.config.BlockFrames) * time.Second / time.Duration(c.config.SampleRate)
		ticker = time.NewTicker(blockDuration)
		defer ticker.Stop()
	}

	for {
		if ticker != nil {
			select {
			case <-ticker.C:
			case <-s.stopChan:
				return
			}
		} else {
			select {
			case <-s.stopChan:
				return
			default:
			}
		}

		block.Samples = block.Samples[:size]
		block.Channels = c.config.Channels

		err := path[0].fn(block)
		eof := errors.Is(err, io.EOF)
		if err != nil && !eof {
			endErr = fmt.Errorf("source %q: %w", path[0].info.Name, err)
			return
		}

		if block.Frames() > 0 {
			for _, st := range path[1:] {
				if err := st.fn(block); err != nil {
					endErr = fmt.Errorf("stage %q: %w", st.info.Name, err)
					return
				}
			}
		}

		if eof {
			return
		}
	}
}
