// ABOUTME: Audio stream decoding package for pedalboard sources
// ABOUTME: Opens MP3, FLAC and WAV files (or a test tone) as PCM streams
// Package decode turns audio assets into PCM streams for the chain's source.
//
// Supports: MP3 (go-mp3), FLAC (mewkiz/flac), WAV (youpy/go-wav), and a
// generated test tone.
//
// All streams implement the Stream interface and output int32 samples
// in 24-bit range, interleaved by channel.
//
// Example:
//
//	stream, err := decode.Open("audio/samples/sample.mp3", decode.Options{Loop: true})
//	n, err := stream.Read(samples)
package decode
