// ABOUTME: Encoder interface definition
// ABOUTME: Common interface for all audio encoders and codec lookup
package encode

import (
	"fmt"

	"github.com/Resonate-Protocol/pedalboard-go/pkg/audio"
)

// Encoder encodes PCM int32 samples to various formats
type Encoder interface {
	// Encode converts PCM samples to encoded audio data
	Encode(samples []int32) ([]byte, error)

	// FrameSamples is the exact number of interleaved samples Encode expects,
	// or 0 when any length is accepted
	FrameSamples() int

	// Format returns the format the encoder was created for
	Format() audio.Format

	// Close releases encoder resources
	Close() error
}

// New creates an encoder for format.Codec
func New(format audio.Format) (Encoder, error) {
	switch format.Codec {
	case "pcm":
		return NewPCM(format)
	case "opus":
		return NewOpus(format)
	default:
		return nil, fmt.Errorf("unsupported codec: %s (supported: pcm, opus)", format.Codec)
	}
}
