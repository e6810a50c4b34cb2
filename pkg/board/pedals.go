// ABOUTME: Standard pedal set and startup settings
// ABOUTME: Overdrive, reverb, volume and speaker cabinet in signal order
package board

import (
	"github.com/Resonate-Protocol/pedalboard-go/pkg/engine"
	"github.com/Resonate-Protocol/pedalboard-go/pkg/pedal"
)

// Setting is one parameter value applied to a named pedal
type Setting struct {
	Effect string  `json:"effect"`
	Param  string  `json:"param"`
	Value  float64 `json:"value"`
}

// DefaultSettings are applied at the end of Init
var DefaultSettings = []Setting{
	{Effect: "overdrive", Param: "drive", Value: 10},
	{Effect: "volume", Param: "level", Value: 1},
	{Effect: "reverb", Param: "level", Value: 3},
}

// StandardEffects creates the board's pedals in signal order
func StandardEffects(ctx *engine.Context) ([]pedal.Effect, error) {
	overdrive, err := pedal.NewOverdrive(ctx)
	if err != nil {
		return nil, err
	}
	reverb, err := pedal.NewReverb(ctx)
	if err != nil {
		return nil, err
	}
	volume, err := pedal.NewVolume(ctx)
	if err != nil {
		return nil, err
	}
	cabinet, err := pedal.NewCabinet(ctx)
	if err != nil {
		return nil, err
	}
	return []pedal.Effect{overdrive, reverb, volume, cabinet}, nil
}
