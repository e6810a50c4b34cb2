// ABOUTME: Reverb pedal
// ABOUTME: Freeverb-style comb and allpass reverb with level and room size
package pedal

import (
	"github.com/Resonate-Protocol/pedalboard-go/pkg/engine"
	"github.com/cwbudde/algo-dsp/dsp/effects"
)

// Freeverb room scaling
const (
	roomScale  = 0.28
	roomOffset = 0.7
)

// Reverb adds a room tail to the dry signal
type Reverb struct {
	*effect
	tanks []*effects.Reverb
}

// NewReverb registers a reverb stage on ctx
func NewReverb(ctx *engine.Context) (*Reverb, error) {
	r := &Reverb{}
	for ch := 0; ch < ctx.Channels(); ch++ {
		r.tanks = append(r.tanks, effects.NewReverb())
	}

	params := []Param{
		{Name: "level", Label: "Level", Min: 0, Max: 10, Default: 0},
		{Name: "room", Label: "Room", Min: 0, Max: 1, Default: 0.5},
	}

	e, err := newEffect(ctx, "reverb", "Reverb", params, r.apply, r.process)
	if err != nil {
		return nil, err
	}
	r.effect = e
	if err := r.applyDefaults(); err != nil {
		return nil, err
	}
	return r, nil
}

// SetLevel sets the wet level, 0 (dry) to 10
func (r *Reverb) SetLevel(v float64) error { return r.Set("level", v) }

// SetRoomSize sets the room size, 0 to 1
func (r *Reverb) SetRoomSize(v float64) error { return r.Set("room", v) }

func (r *Reverb) apply(param string, v float64) error {
	for _, t := range r.tanks {
		switch param {
		case "level":
			t.SetWet(v / 10)
		case "room":
			t.SetRoomSize(v*roomScale + roomOffset)
		}
	}
	return nil
}

func (r *Reverb) process(ch int, buf []float64) error {
	r.tanks[ch].ProcessInPlace(buf)
	return nil
}
