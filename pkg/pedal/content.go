// ABOUTME: Presentation content for effects
// ABOUTME: Serializable pedal descriptors and the Host they are displayed on
package pedal

import (
	"fmt"
	"log"
	"strings"
)

// Knob is one rotary control on a pedal face
type Knob struct {
	Name  string  `json:"name"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Content describes how a pedal is presented
type Content struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Title  string `json:"title"`
	Knobs  []Knob `json:"knobs"`
	Switch bool   `json:"switch"`
}

// Knob returns the knob with the given name
func (c Content) Knob(name string) (Knob, bool) {
	for _, k := range c.Knobs {
		if k.Name == name {
			return k, true
		}
	}
	return Knob{}, false
}

func (c Content) String() string {
	var b strings.Builder
	state := "off"
	if c.Switch {
		state = "on"
	}
	fmt.Fprintf(&b, "%s [%s]", c.Title, state)
	for _, k := range c.Knobs {
		fmt.Fprintf(&b, " %s=%.2f", k.Name, k.Value)
	}
	return b.String()
}

// Param describes a settable effect parameter and its valid domain
type Param struct {
	Name    string  `json:"name"`
	Label   string  `json:"label"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
}

// Host displays pedal content
type Host interface {
	// Mount adds a pedal's placeholder to the display
	Mount(c Content) error

	// Update replaces a mounted pedal's content
	Update(c Content)
}

// LogHost writes pedal content to the standard logger
type LogHost struct{}

func (LogHost) Mount(c Content) error {
	log.Printf("Mounted pedal: %s", c)
	return nil
}

func (LogHost) Update(c Content) {
	log.Printf("Pedal changed: %s", c)
}

// Hosts fans pedal content out to several hosts
type Hosts []Host

// Mount mounts on every host in order and stops at the first error
func (hs Hosts) Mount(c Content) error {
	for _, h := range hs {
		if err := h.Mount(c); err != nil {
			return err
		}
	}
	return nil
}

func (hs Hosts) Update(c Content) {
	for _, h := range hs {
		h.Update(c)
	}
}
