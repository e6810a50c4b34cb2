// ABOUTME: Stream interface and file-type dispatch
// ABOUTME: Opens local audio files as PCM streams by extension
package decode

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Stream provides PCM audio samples
type Stream interface {
	// Read reads interleaved PCM samples (int32, 24-bit range) into the buffer.
	// At the end of the stream it returns io.EOF, possibly together with n > 0.
	Read(samples []int32) (int, error)

	// SampleRate returns the sample rate of the audio
	SampleRate() int

	// Channels returns the number of channels
	Channels() int

	// Metadata returns title, artist, album
	Metadata() (title, artist, album string)

	// Close closes the stream
	Close() error
}

// Options controls how a file stream is opened
type Options struct {
	// Loop rewinds the file at end of stream instead of returning io.EOF
	Loop bool
}

// Open creates a stream from a local file path.
// An empty path returns a test tone.
func Open(path string, opts Options) (Stream, error) {
	if path == "" {
		log.Printf("No audio file given, using test tone")
		return NewTone(DefaultSampleRate, DefaultChannels), nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("audio file not found: %s", path)
	}

	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".mp3":
		return NewMP3(path, opts)
	case ".flac":
		return NewFLAC(path, opts)
	case ".wav":
		return NewWAV(path, opts)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s (supported: .mp3, .flac, .wav)", ext)
	}
}

// titleFromPath extracts the file name without extension
func titleFromPath(path string) string {
	filename := filepath.Base(path)
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// scaleTo24Bit converts a signed sample of the given bit depth to 24-bit range
func scaleTo24Bit(sample int32, bitDepth int) int32 {
	switch {
	case bitDepth == 24:
		return sample
	case bitDepth < 24:
		return sample << (24 - bitDepth)
	default:
		return sample >> (bitDepth - 24)
	}
}
