// ABOUTME: Volume pedal
// ABOUTME: Linear gain stage
package pedal

import "github.com/Resonate-Protocol/pedalboard-go/pkg/engine"

// Volume scales the signal
type Volume struct {
	*effect
	gain float64
}

// NewVolume registers a volume stage on ctx
func NewVolume(ctx *engine.Context) (*Volume, error) {
	v := &Volume{}

	params := []Param{
		{Name: "level", Label: "Level", Min: 0, Max: 10, Default: 1},
	}

	e, err := newEffect(ctx, "volume", "Volume", params, v.apply, v.process)
	if err != nil {
		return nil, err
	}
	v.effect = e
	if err := v.applyDefaults(); err != nil {
		return nil, err
	}
	return v, nil
}

// SetLevel sets the linear gain, 0 to 10
func (v *Volume) SetLevel(level float64) error { return v.Set("level", level) }

func (v *Volume) apply(_ string, level float64) error {
	v.gain = level
	return nil
}

func (v *Volume) process(_ int, buf []float64) error {
	for i, s := range buf {
		buf[i] = min(max(s*v.gain, -1), 1)
	}
	return nil
}
