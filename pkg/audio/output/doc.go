// ABOUTME: Audio output package for the chain's sink
// ABOUTME: Provides Output interface with speaker, capture and recorder backends
// Package output provides the devices a pedalboard sink delivers audio to.
//
// Backends:
//   - Oto: default speaker output (ebitengine/oto)
//   - PortAudio: speaker output when built with -tags portaudio
//   - Capture: in-memory output for tests and dry runs
//   - Recorder: encodes to an io.Writer (PCM or Opus)
//
// Example:
//
//	out := output.NewOto()
//	err := out.Open(48000, 2)
//	err = out.Write(samples)
package output
