// ABOUTME: Pedalboard units package
// ABOUTME: Capability contract plus source, sink and effect pedals over the engine
// Package pedal defines the units a pedalboard chain is made of.
//
// Every unit implements Unit: an identity, a capability set and a stage
// registered on an engine.Context. A Source can only send, a Sink can only
// receive, and an Effect does both and can also be parameterized and
// rendered on a Host.
//
// Effects shipped here:
//
//	overdrive  drive [0,20], level [0,1]   tanh waveshaper
//	reverb     level [0,10], room [0,1]    Freeverb-style reverb
//	volume     level [0,10]                linear gain
//	cabinet    level [0,1]                 speaker impulse response convolution
//
// Parameter changes are applied on the next processed block.
package pedal
