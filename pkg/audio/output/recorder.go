// ABOUTME: Recording audio output
// ABOUTME: Encodes the chain output to a writer as raw PCM or length-prefixed Opus packets
package output

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"

	"github.com/Resonate-Protocol/pedalboard-go/pkg/audio"
	"github.com/Resonate-Protocol/pedalboard-go/pkg/audio/encode"
	"github.com/Resonate-Protocol/pedalboard-go/pkg/audio/resample"
)

// opusRate is the rate Opus recordings are resampled to when the chain runs at another rate
const opusRate = 48000

// Recorder writes encoded audio instead of playing it
type Recorder struct {
	w        io.Writer
	codec    string
	bitDepth int

	encoder   encode.Encoder
	resampler *resample.Resampler
	pending   []int32
	scratch   []int32
	packets   int
}

// NewRecorder creates a recorder. codec is "pcm" or "opus"; bitDepth applies to PCM.
func NewRecorder(w io.Writer, codec string, bitDepth int) *Recorder {
	if bitDepth == 0 {
		bitDepth = 16
	}
	return &Recorder{w: w, codec: codec, bitDepth: bitDepth}
}

// Open creates the encoder, resampling Opus input to 48kHz if needed
func (r *Recorder) Open(sampleRate, channels int) error {
	rate := sampleRate
	if r.codec == "opus" && !opusSupportsRate(sampleRate) {
		rate = opusRate
		r.resampler = resample.New(sampleRate, rate, channels)
		log.Printf("Recorder resampling %dHz -> %dHz for opus", sampleRate, rate)
	}

	encoder, err := encode.New(audio.Format{
		Codec:      r.codec,
		SampleRate: rate,
		Channels:   channels,
		BitDepth:   r.bitDepth,
	})
	if err != nil {
		return fmt.Errorf("failed to create recorder encoder: %w", err)
	}
	r.encoder = encoder

	log.Printf("Recording %s: %dHz, %d channels", r.codec, rate, channels)
	return nil
}

// Write encodes samples; fixed-frame codecs buffer until a whole frame is available
func (r *Recorder) Write(samples []int32) error {
	if r.encoder == nil {
		return fmt.Errorf("output not initialized")
	}

	if r.resampler != nil {
		need := r.resampler.OutputSamplesNeeded(len(samples)) + r.encoder.Format().Channels*2
		if cap(r.scratch) < need {
			r.scratch = make([]int32, need)
		}
		n := r.resampler.Resample(samples, r.scratch[:need])
		samples = r.scratch[:n]
	}

	frame := r.encoder.FrameSamples()
	if frame == 0 {
		return r.emit(samples)
	}

	r.pending = append(r.pending, samples...)
	for len(r.pending) >= frame {
		if err := r.emit(r.pending[:frame]); err != nil {
			return err
		}
		r.pending = r.pending[frame:]
	}
	return nil
}

// emit encodes and writes one chunk; Opus packets get a big-endian uint16 length prefix
func (r *Recorder) emit(samples []int32) error {
	data, err := r.encoder.Encode(samples)
	if err != nil {
		return err
	}

	if r.encoder.FrameSamples() > 0 {
		var prefix [2]byte
		binary.BigEndian.PutUint16(prefix[:], uint16(len(data)))
		if _, err := r.w.Write(prefix[:]); err != nil {
			return fmt.Errorf("recorder write failed: %w", err)
		}
	}

	if _, err := r.w.Write(data); err != nil {
		return fmt.Errorf("recorder write failed: %w", err)
	}
	r.packets++
	return nil
}

// Close pads and flushes a partial frame, then closes the writer if it is closable
func (r *Recorder) Close() error {
	if r.encoder != nil {
		if frame := r.encoder.FrameSamples(); frame > 0 && len(r.pending) > 0 {
			padded := make([]int32, frame)
			copy(padded, r.pending)
			r.pending = nil
			if err := r.emit(padded); err != nil {
				return err
			}
		}
		r.encoder.Close()
		r.encoder = nil
	}

	if c, ok := r.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Packets returns the number of encoded chunks written
func (r *Recorder) Packets() int {
	return r.packets
}

func opusSupportsRate(rate int) bool {
	switch rate {
	case 8000, 12000, 16000, 24000, 48000:
		return true
	}
	return false
}
