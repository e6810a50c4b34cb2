// ABOUTME: TUI initialization and presentation host
// ABOUTME: Wraps the bubbletea program and forwards pedal content into it
package ui

import (
	"github.com/Resonate-Protocol/pedalboard-go/pkg/pedal"
	tea "github.com/charmbracelet/bubbletea"
)

// Control is the part of the board the TUI drives
type Control interface {
	Toggle() error
	Set(effect, param string, value float64) error
	Engage(effect string, on bool) error
}

// Host mounts pedals into a running TUI program
type Host struct {
	program *tea.Program
}

// NewHost creates a host for p. The program must be running before pedals are mounted.
func NewHost(p *tea.Program) *Host {
	return &Host{program: p}
}

func (h *Host) Mount(c pedal.Content) error {
	h.program.Send(MountMsg{Content: c})
	return nil
}

func (h *Host) Update(c pedal.Content) {
	h.program.Send(UpdateMsg{Content: c})
}

// SetState reports a board state change to the TUI
func (h *Host) SetState(state string) {
	h.program.Send(StateMsg{State: state})
}

// SetMetadata reports the source's track information to the TUI
func (h *Host) SetMetadata(title, artist, album string) {
	h.program.Send(MetadataMsg{Title: title, Artist: artist, Album: album})
}

// NewModel creates a new TUI model
func NewModel(control Control) Model {
	return Model{
		state:   "uninitialized",
		control: control,
	}
}

// Run creates the TUI program. The caller starts it with Run on the returned program.
func Run(control Control) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(control), tea.WithAltScreen())
	return p, nil
}
