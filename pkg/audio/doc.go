// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Block types and sample conversion functions
// Package audio provides fundamental audio types shared by the pedalboard.
//
// This package defines core types used throughout the pedalboard:
//   - Format: Describes an audio stream format (codec, sample rate, channels, bit depth)
//   - Block: One processing block of interleaved float samples travelling down the chain
//
// Sources and sinks speak int32 samples in 24-bit range; effects work on
// normalized float64 samples. The conversions between the two live here:
//   - 16-bit ↔ 24-bit conversions
//   - int32 ↔ packed byte conversions
//   - int32 ↔ float64 conversions
//
// Example:
//
//	block := audio.NewBlock(512, 2)
//	block.FromInt32(samples)
//	left := block.Channel(0, nil)
package audio
