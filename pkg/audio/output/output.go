// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for audio playback backends
package output

import "fmt"

// Output represents an audio output device
type Output interface {
	// Open initializes the output device
	Open(sampleRate, channels int) error

	// Write outputs audio samples (blocks until written)
	Write(samples []int32) error

	// Close releases output resources
	Close() error
}

// New returns an output backend by name
func New(name string) (Output, error) {
	switch name {
	case "", "oto":
		return NewOto(), nil
	case "portaudio":
		return NewPortAudio(), nil
	case "null":
		return NewCapture(0), nil
	default:
		return nil, fmt.Errorf("unknown output backend: %s (supported: oto, portaudio, null)", name)
	}
}
