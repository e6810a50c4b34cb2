// ABOUTME: Audio encoder package for bouncing the chain output to files
// ABOUTME: Provides Encoder interface and implementations for PCM, Opus
// Package encode provides audio encoders used by the recording sink.
//
// Supports: PCM (16-bit and 24-bit little-endian), Opus
//
// All encoders accept int32 samples in 24-bit range. Encoders with a
// fixed frame size (Opus) report it through FrameSamples so callers can
// accumulate whole frames.
//
// Example:
//
//	encoder, err := encode.NewOpus(audio.Format{Codec: "opus", SampleRate: 48000, Channels: 2})
//	data, err := encoder.Encode(samples[:encoder.FrameSamples()])
package encode
