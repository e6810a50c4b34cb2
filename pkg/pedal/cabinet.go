// ABOUTME: Speaker cabinet pedal
// ABOUTME: Convolves the signal with a synthesized guitar speaker impulse response
package pedal

import (
	"fmt"
	"math"

	"github.com/Resonate-Protocol/pedalboard-go/pkg/engine"
	"github.com/cwbudde/algo-dsp/dsp/effects/reverb"
)

const (
	cabinetKernelLength = 2048
	cabinetLowCut       = 90.0   // Hz
	cabinetHighCut      = 4000.0 // Hz
	cabinetBlockOrder   = 6      // 64 samples latency
)

// Cabinet simulates a guitar speaker cabinet
type Cabinet struct {
	*effect
	speakers []*reverb.ConvolutionReverb
}

// NewCabinet registers a cabinet stage on ctx
func NewCabinet(ctx *engine.Context) (*Cabinet, error) {
	c := &Cabinet{}
	kernel := SpeakerImpulse(ctx.SampleRate(), cabinetKernelLength)
	for ch := 0; ch < ctx.Channels(); ch++ {
		conv, err := reverb.NewConvolutionReverb(kernel, cabinetBlockOrder)
		if err != nil {
			return nil, fmt.Errorf("cabinet: %w", err)
		}
		c.speakers = append(c.speakers, conv)
	}

	params := []Param{
		{Name: "level", Label: "Mix", Min: 0, Max: 1, Default: 1},
	}

	e, err := newEffect(ctx, "cabinet", "Speaker Cabinet", params, c.apply, c.process)
	if err != nil {
		return nil, err
	}
	c.effect = e
	if err := c.applyDefaults(); err != nil {
		return nil, err
	}
	return c, nil
}

// SetLevel sets the cabinet mix, 0 (dry) to 1 (fully through the speaker)
func (c *Cabinet) SetLevel(v float64) error { return c.Set("level", v) }

func (c *Cabinet) apply(_ string, v float64) error {
	for _, s := range c.speakers {
		s.SetWetDry(v, 1-v)
	}
	return nil
}

func (c *Cabinet) process(ch int, buf []float64) error {
	return c.speakers[ch].ProcessInPlace(buf)
}

// SpeakerImpulse builds a band-limited speaker response: the difference of a
// fast and a slow one-pole lowpass impulse, which rolls off below the low cut
// and above the high cut.
func SpeakerImpulse(sampleRate, length int) []float64 {
	fast := math.Exp(-2 * math.Pi * cabinetHighCut / float64(sampleRate))
	slow := math.Exp(-2 * math.Pi * cabinetLowCut / float64(sampleRate))

	kernel := make([]float64, length)
	fastTap, slowTap := 1-fast, 1-slow
	for n := range kernel {
		kernel[n] = fastTap - slowTap
		fastTap *= fast
		slowTap *= slow
	}
	return kernel
}
