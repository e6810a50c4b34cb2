// ABOUTME: Test tone stream
// ABOUTME: Generates a 440Hz sine wave when no audio file is given
package decode

import (
	"io"
	"math"
	"sync"

	"github.com/Resonate-Protocol/pedalboard-go/pkg/audio"
)

const (
	DefaultSampleRate = 48000
	DefaultChannels   = 2
)

// Tone generates a sine test tone
type Tone struct {
	sampleIndex uint64
	sampleMu    sync.Mutex
	frequency   float64
	sampleRate  int
	channels    int
	limit       uint64 // frames; 0 means endless
}

// NewTone creates a 440Hz test tone generator
func NewTone(sampleRate, channels int) *Tone {
	if sampleRate == 0 {
		sampleRate = DefaultSampleRate
	}
	if channels == 0 {
		channels = DefaultChannels
	}

	return &Tone{
		frequency:  440.0, // A4 note
		sampleRate: sampleRate,
		channels:   channels,
	}
}

// WithLimit makes the tone end with io.EOF after the given number of frames
func (s *Tone) WithLimit(frames int) *Tone {
	s.limit = uint64(frames)
	return s
}

func (s *Tone) Read(samples []int32) (int, error) {
	s.sampleMu.Lock()
	defer s.sampleMu.Unlock()

	numFrames := uint64(len(samples) / s.channels)
	if s.limit > 0 {
		if s.sampleIndex >= s.limit {
			return 0, io.EOF
		}
		if remaining := s.limit - s.sampleIndex; numFrames > remaining {
			numFrames = remaining
		}
	}

	for i := uint64(0); i < numFrames; i++ {
		t := float64(s.sampleIndex+i) / float64(s.sampleRate)
		sample := math.Sin(2 * math.Pi * s.frequency * t)

		// 50% volume to leave headroom for the drive stage
		pcmValue := int32(sample * audio.Max24Bit * 0.5)

		for ch := 0; ch < s.channels; ch++ {
			samples[int(i)*s.channels+ch] = pcmValue
		}
	}

	s.sampleIndex += numFrames

	return int(numFrames) * s.channels, nil
}

func (s *Tone) SampleRate() int { return s.sampleRate }
func (s *Tone) Channels() int   { return s.channels }
func (s *Tone) Metadata() (string, string, string) {
	return "Test Tone", "Pedalboard", "Test Signal"
}
func (s *Tone) Close() error { return nil }
