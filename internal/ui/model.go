// ABOUTME: Bubbletea model for the pedalboard TUI
// ABOUTME: Shows each pedal's knobs and maps keys to board actions
package ui

import (
	"fmt"
	"strings"

	"github.com/Resonate-Protocol/pedalboard-go/pkg/pedal"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// knob steps per full sweep for the arrow keys
const knobSteps = 20

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	bypassStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle     = lipgloss.NewStyle().Faint(true)
)

// Model represents the TUI state
type Model struct {
	control Control

	// Pedals
	pedals   []pedal.Content
	selected int

	// Playback
	state  string
	title  string
	artist string
	album  string

	lastErr   string
	showDebug bool

	// Dimensions
	width  int
	height int
}

// MountMsg adds a pedal to the board view
type MountMsg struct {
	Content pedal.Content
}

// UpdateMsg replaces a mounted pedal's content
type UpdateMsg struct {
	Content pedal.Content
}

// StateMsg carries the board's lifecycle state
type StateMsg struct {
	State string
}

// MetadataMsg carries track information
type MetadataMsg struct {
	Title  string
	Artist string
	Album  string
}

// ErrMsg reports a failed board action
type ErrMsg struct {
	Err error
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case MountMsg:
		m.pedals = append(m.pedals, msg.Content)
	case UpdateMsg:
		for i := range m.pedals {
			if m.pedals[i].ID == msg.Content.ID {
				m.pedals[i] = msg.Content
			}
		}
	case StateMsg:
		m.state = msg.State
	case MetadataMsg:
		m.title = msg.Title
		m.artist = msg.Artist
		m.album = msg.Album
	case ErrMsg:
		if msg.Err != nil {
			m.lastErr = msg.Err.Error()
		} else {
			m.lastErr = ""
		}
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderPedals()

	if m.showDebug {
		s += m.renderDebug()
	}

	s += m.renderHelp()

	return s
}

// renderHeader renders playback state and track
func (m Model) renderHeader() string {
	track := "Test tone"
	if m.title != "" {
		track = m.title
		if m.artist != "" {
			track += " - " + m.artist
		}
	}

	return titleStyle.Render("┌─ Pedalboard ─────────────────────────────────────────┐") + fmt.Sprintf(`
│ State: %-46s │
│ Track: %-46s │
├──────────────────────────────────────────────────────┤
`, m.state, truncate(track, 46))
}

// renderPedals renders one row per pedal with its knobs
func (m Model) renderPedals() string {
	if len(m.pedals) == 0 {
		return "│ No pedals                                            │\n"
	}

	s := ""
	for i, p := range m.pedals {
		cursor := " "
		if i == m.selected {
			cursor = ">"
		}
		led := "○"
		if p.Switch {
			led = "●"
		}
		line := fmt.Sprintf("│%s %s %-49s │", cursor, led, truncate(p.Title, 49))
		switch {
		case i == m.selected:
			line = selectedStyle.Render(line)
		case !p.Switch:
			line = bypassStyle.Render(line)
		}
		s += line + "\n"
		for _, k := range p.Knobs {
			s += fmt.Sprintf("│     %-8s [%s] %6.2f%-21s │\n",
				truncate(k.Label, 8), renderBar(k.Value-k.Min, k.Max-k.Min, 10), k.Value, "")
		}
	}

	if m.lastErr != "" {
		s += errorStyle.Render(fmt.Sprintf("│ ! %-50s │", truncate(m.lastErr, 50))) + "\n"
	}
	return s
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return helpStyle.Render("│ space:Play/Stop ←/→:Pedal ↑/↓:Knob b:Bypass q:Quit   │") + `
└──────────────────────────────────────────────────────┘
`
}

// renderDebug renders debug information
func (m Model) renderDebug() string {
	s := "│ DEBUG:                                               │\n"
	for _, p := range m.pedals {
		s += fmt.Sprintf("│   %-50s │\n", truncate(p.Kind+" "+p.ID, 50))
	}
	return s
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ", "space":
		return m, m.act(func(c Control) error { return c.Toggle() })
	case "left":
		if m.selected > 0 {
			m.selected--
		}
	case "right":
		if m.selected < len(m.pedals)-1 {
			m.selected++
		}
	case "up":
		return m, m.turnKnob(1)
	case "down":
		return m, m.turnKnob(-1)
	case "b":
		if p, ok := m.current(); ok {
			return m, m.act(func(c Control) error { return c.Engage(p.Kind, !p.Switch) })
		}
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

// turnKnob moves the selected pedal's first knob by one step
func (m Model) turnKnob(dir float64) tea.Cmd {
	p, ok := m.current()
	if !ok || len(p.Knobs) == 0 {
		return nil
	}
	k := p.Knobs[0]
	value := k.Value + dir*(k.Max-k.Min)/knobSteps
	value = min(max(value, k.Min), k.Max)
	if value == k.Value {
		return nil
	}
	return m.act(func(c Control) error { return c.Set(p.Kind, k.Name, value) })
}

func (m Model) current() (pedal.Content, bool) {
	if m.selected < 0 || m.selected >= len(m.pedals) {
		return pedal.Content{}, false
	}
	return m.pedals[m.selected], true
}

// act runs a board action off the event loop; the board pushes content
// updates back into the program while the action runs.
func (m Model) act(fn func(Control) error) tea.Cmd {
	if m.control == nil {
		return nil
	}
	control := m.control
	return func() tea.Msg {
		return ErrMsg{Err: fn(control)}
	}
}

// Utility functions
func renderBar(value, span float64, width int) string {
	filled := 0
	if span > 0 {
		filled = min(max(int(value/span*float64(width)), 0), width)
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}
