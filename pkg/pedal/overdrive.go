// ABOUTME: Overdrive pedal
// ABOUTME: Tanh waveshaping distortion with drive and output level
package pedal

import (
	"fmt"

	"github.com/Resonate-Protocol/pedalboard-go/pkg/engine"
	"github.com/cwbudde/algo-dsp/dsp/effects"
)

// smallest drive the waveshaper accepts; a drive knob at 0 maps here
const minDrive = 0.01

// Overdrive saturates the signal through a tanh curve
type Overdrive struct {
	*effect
	shapers []*effects.Distortion
}

// NewOverdrive registers an overdrive stage on ctx
func NewOverdrive(ctx *engine.Context) (*Overdrive, error) {
	o := &Overdrive{}
	for ch := 0; ch < ctx.Channels(); ch++ {
		d, err := effects.NewDistortion(float64(ctx.SampleRate()),
			effects.WithDistortionMode(effects.DistortionModeTanh))
		if err != nil {
			return nil, fmt.Errorf("overdrive: %w", err)
		}
		o.shapers = append(o.shapers, d)
	}

	params := []Param{
		{Name: "drive", Label: "Drive", Min: 0, Max: 20, Default: 1},
		{Name: "level", Label: "Level", Min: 0, Max: 1, Default: 1},
	}

	e, err := newEffect(ctx, "overdrive", "Overdrive", params, o.apply, o.process)
	if err != nil {
		return nil, err
	}
	o.effect = e
	if err := o.applyDefaults(); err != nil {
		return nil, err
	}
	return o, nil
}

// SetDrive sets the input gain into the waveshaper, 0 to 20
func (o *Overdrive) SetDrive(v float64) error { return o.Set("drive", v) }

// SetLevel sets the output level, 0 to 1
func (o *Overdrive) SetLevel(v float64) error { return o.Set("level", v) }

func (o *Overdrive) apply(param string, v float64) error {
	for _, d := range o.shapers {
		var err error
		switch param {
		case "drive":
			err = d.SetDrive(max(v, minDrive))
		case "level":
			err = d.SetOutputLevel(v)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (o *Overdrive) process(ch int, buf []float64) error {
	o.shapers[ch].ProcessInPlace(buf)
	return nil
}
