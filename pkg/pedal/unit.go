// ABOUTME: Unit capability contract
// ABOUTME: Interfaces every chain node implements and the shared port wiring
package pedal

import (
	"fmt"
	"strings"

	"github.com/Resonate-Protocol/pedalboard-go/pkg/engine"
	"github.com/google/uuid"
)

// Capability is a set of things a unit can do
type Capability uint8

const (
	CanSend Capability = 1 << iota
	CanReceive
	CanRender
	CanParameterize
)

// Has reports whether every flag in c2 is set
func (c Capability) Has(c2 Capability) bool {
	return c&c2 == c2
}

func (c Capability) String() string {
	if c == 0 {
		return "none"
	}
	var parts []string
	if c.Has(CanSend) {
		parts = append(parts, "send")
	}
	if c.Has(CanReceive) {
		parts = append(parts, "receive")
	}
	if c.Has(CanRender) {
		parts = append(parts, "render")
	}
	if c.Has(CanParameterize) {
		parts = append(parts, "parameterize")
	}
	return strings.Join(parts, "|")
}

// Unit is one node of a chain
type Unit interface {
	// ID returns a stable unique identity
	ID() string

	// Name returns the unit's kind name (e.g. "reverb")
	Name() string

	// Capabilities returns what the unit supports
	Capabilities() Capability

	// Stage returns the engine stage backing this unit
	Stage() engine.StageID

	// Connect wires this unit's output to next's input
	Connect(next Unit) error
}

// Effect is a unit that processes audio, exposes parameters and can be rendered
type Effect interface {
	Unit

	// Placeholder returns the unit's presentation descriptor without side effects
	Placeholder() Content

	// Render attaches a host that receives content updates
	Render(host Host) error

	// Params describes the settable parameters
	Params() []Param

	// Set changes a parameter by name
	Set(param string, value float64) error
}

// Player controls playback of a source
type Player interface {
	Play() error
	Stop() error
}

// port holds the identity and outgoing connection of a unit
type port struct {
	id    string
	name  string
	caps  Capability
	ctx   *engine.Context
	stage engine.StageID
	next  Unit
}

func newPort(ctx *engine.Context, name string, caps Capability, kind engine.Kind, fn engine.StageFunc) (port, error) {
	stage, err := ctx.Register(name, kind, fn)
	if err != nil {
		return port{}, fmt.Errorf("register %s: %w", name, err)
	}
	return port{
		id:    uuid.NewString(),
		name:  name,
		caps:  caps,
		ctx:   ctx,
		stage: stage,
	}, nil
}

func (p *port) ID() string               { return p.id }
func (p *port) Name() string             { return p.name }
func (p *port) Capabilities() Capability { return p.caps }
func (p *port) Stage() engine.StageID    { return p.stage }

// Next returns the unit this one feeds, or nil before routing
func (p *port) Next() Unit { return p.next }

// Connect links this unit's stage to next's stage. A unit has at most one
// outgoing connection.
func (p *port) Connect(next Unit) error {
	if !p.caps.Has(CanSend) {
		return fmt.Errorf("%w: %s cannot send", ErrRouting, p.name)
	}
	if next == nil {
		return fmt.Errorf("%w: %s connected to nil", ErrRouting, p.name)
	}
	if !next.Capabilities().Has(CanReceive) {
		return fmt.Errorf("%w: %s cannot receive", ErrRouting, next.Name())
	}
	if next.ID() == p.id {
		return fmt.Errorf("%w: %s connected to itself", ErrRouting, p.name)
	}
	if p.next != nil {
		return fmt.Errorf("%w: %s already connected to %s", ErrRouting, p.name, p.next.Name())
	}

	if err := p.ctx.Link(p.stage, next.Stage()); err != nil {
		return fmt.Errorf("%w: %s -> %s: %w", ErrRouting, p.name, next.Name(), err)
	}

	p.next = next
	return nil
}
