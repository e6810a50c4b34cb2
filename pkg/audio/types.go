// ABOUTME: Audio type definitions
// ABOUTME: Defines audio formats, processing blocks and sample conversions
package audio

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23

	fullScale24 = 8388608.0
)

// Format describes audio stream format
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// Block is one chunk of interleaved audio flowing through the chain.
// Samples are normalized to [-1, 1].
type Block struct {
	Samples  []float64
	Channels int
}

// NewBlock allocates a block holding frames*channels samples
func NewBlock(frames, channels int) *Block {
	if channels < 1 {
		channels = 1
	}
	return &Block{
		Samples:  make([]float64, frames*channels),
		Channels: channels,
	}
}

// Frames returns the number of frames in the block
func (b *Block) Frames() int {
	if b.Channels == 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Channel copies one channel out of the interleaved block into dst
// (reallocated when too short) and returns it.
func (b *Block) Channel(ch int, dst []float64) []float64 {
	frames := b.Frames()
	if cap(dst) < frames {
		dst = make([]float64, frames)
	}
	dst = dst[:frames]
	for i := 0; i < frames; i++ {
		dst[i] = b.Samples[i*b.Channels+ch]
	}
	return dst
}

// SetChannel writes src back into one channel of the interleaved block
func (b *Block) SetChannel(ch int, src []float64) {
	frames := b.Frames()
	if len(src) < frames {
		frames = len(src)
	}
	for i := 0; i < frames; i++ {
		b.Samples[i*b.Channels+ch] = src[i]
	}
}

// FromInt32 fills the block from 24-bit int32 samples and trims it to their length
func (b *Block) FromInt32(samples []int32) {
	if cap(b.Samples) < len(samples) {
		b.Samples = make([]float64, len(samples))
	}
	b.Samples = b.Samples[:len(samples)]
	for i, s := range samples {
		b.Samples[i] = SampleToFloat(s)
	}
}

// Int32 converts the block to 24-bit int32 samples, clamping out-of-range values
func (b *Block) Int32(dst []int32) []int32 {
	if cap(dst) < len(b.Samples) {
		dst = make([]int32, len(b.Samples))
	}
	dst = dst[:len(b.Samples)]
	for i, s := range b.Samples {
		dst[i] = SampleFromFloat(s)
	}
	return dst
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	// Right-shift to convert 24-bit to 16-bit range
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	return int32(sample) << 8
}

// SampleTo24Bit converts int32 to 24-bit packed bytes (little-endian)
func SampleTo24Bit(sample int32) [3]byte {
	return [3]byte{
		byte(sample),
		byte(sample >> 8),
		byte(sample >> 16),
	}
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF
	}
	return val
}

// SampleToFloat converts a 24-bit int32 sample to [-1, 1)
func SampleToFloat(sample int32) float64 {
	return float64(sample) / fullScale24
}

// SampleFromFloat converts a normalized float sample to 24-bit int32 with clipping
func SampleFromFloat(sample float64) int32 {
	scaled := sample * fullScale24
	if scaled > Max24Bit {
		return Max24Bit
	}
	if scaled < Min24Bit {
		return Min24Bit
	}
	// NaN fails both comparisons above
	if scaled != scaled {
		return 0
	}
	return int32(scaled)
}
