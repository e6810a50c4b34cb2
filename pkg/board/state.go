// ABOUTME: Board lifecycle states
// ABOUTME: State values and the lifecycle error
package board

import (
	"errors"
	"fmt"
)

// ErrLifecycle is returned when an operation is not valid in the board's current state
var ErrLifecycle = errors.New("lifecycle error")

// ErrUnknownEffect is returned when no pedal on the board has the given name
var ErrUnknownEffect = errors.New("unknown effect")

// State is the board's lifecycle state
type State int

const (
	Uninitialized State = iota
	Ready
	Playing
	Failed
	Closed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Playing:
		return "playing"
	case Failed:
		return "failed"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

func lifecycleError(op string, s State) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrLifecycle, op, s)
}
