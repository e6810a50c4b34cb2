// ABOUTME: Opus audio encoder
// ABOUTME: Encodes 20ms frames of int32 samples to Opus packets
package encode

import (
	"fmt"

	"github.com/Resonate-Protocol/pedalboard-go/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

// maxOpusPacket is the largest packet libopus recommends allocating for
const maxOpusPacket = 4000

// OpusEncoder encodes Opus audio
type OpusEncoder struct {
	encoder   *opus.Encoder
	format    audio.Format
	frameSize int // frames per channel in one 20ms packet
	pcm       []int16
	packet    []byte
}

// NewOpus creates a new Opus encoder
func NewOpus(format audio.Format) (Encoder, error) {
	if format.Codec != "opus" {
		return nil, fmt.Errorf("invalid codec for Opus encoder: %s", format.Codec)
	}

	switch format.SampleRate {
	case 8000, 12000, 16000, 24000, 48000:
	default:
		return nil, fmt.Errorf("unsupported opus sample rate: %d", format.SampleRate)
	}

	encoder, err := opus.NewEncoder(format.SampleRate, format.Channels, opus.AppAudio)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus encoder: %w", err)
	}

	frameSize := format.SampleRate / 50 // 20ms

	return &OpusEncoder{
		encoder:   encoder,
		format:    format,
		frameSize: frameSize,
		pcm:       make([]int16, frameSize*format.Channels),
		packet:    make([]byte, maxOpusPacket),
	}, nil
}

// Encode converts exactly one frame of int32 samples to an Opus packet
func (e *OpusEncoder) Encode(samples []int32) ([]byte, error) {
	if len(samples) != len(e.pcm) {
		return nil, fmt.Errorf("opus frame must be %d samples, got %d", len(e.pcm), len(samples))
	}

	for i, sample := range samples {
		e.pcm[i] = audio.SampleToInt16(sample)
	}

	n, err := e.encoder.Encode(e.pcm, e.packet)
	if err != nil {
		return nil, fmt.Errorf("opus encode error: %w", err)
	}

	out := make([]byte, n)
	copy(out, e.packet[:n])
	return out, nil
}

func (e *OpusEncoder) FrameSamples() int    { return len(e.pcm) }
func (e *OpusEncoder) Format() audio.Format { return e.format }
func (e *OpusEncoder) Close() error         { return nil }
