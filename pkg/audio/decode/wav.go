// ABOUTME: WAV file stream
// ABOUTME: Decodes PCM WAV files to int32 samples with go-wav
package decode

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/youpy/go-wav"
)

// WAVStream reads from a PCM WAV file (mono or stereo)
type WAVStream struct {
	file       *os.File
	reader     *wav.Reader
	loop       bool
	sampleRate int
	channels   int
	bitDepth   int
	title      string
}

// NewWAV opens a WAV file stream
func NewWAV(path string, opts Options) (*WAVStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAV file: %w", err)
	}

	reader := wav.NewReader(f)
	format, err := reader.Format()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode WAV: %w", err)
	}

	if format.NumChannels < 1 || format.NumChannels > 2 {
		f.Close()
		return nil, fmt.Errorf("unsupported WAV channel count: %d (supported: 1, 2)", format.NumChannels)
	}

	title := titleFromPath(path)
	log.Printf("Loaded WAV: %s (sample rate: %d Hz, channels: %d, bit depth: %d)",
		title, format.SampleRate, format.NumChannels, format.BitsPerSample)

	return &WAVStream{
		file:       f,
		reader:     reader,
		loop:       opts.Loop,
		sampleRate: int(format.SampleRate),
		channels:   int(format.NumChannels),
		bitDepth:   int(format.BitsPerSample),
		title:      title,
	}, nil
}

func (s *WAVStream) Read(samples []int32) (int, error) {
	frames := len(samples) / s.channels
	if frames == 0 {
		return 0, nil
	}

	read, err := s.reader.ReadSamples(uint32(frames))
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("wav decode error: %w", err)
	}

	n := 0
	for _, frame := range read {
		for ch := 0; ch < s.channels; ch++ {
			value := s.reader.IntValue(frame, uint(ch))
			if s.bitDepth == 8 {
				// 8-bit WAV is unsigned
				value -= 128
			}
			samples[n] = scaleTo24Bit(int32(value), s.bitDepth)
			n++
		}
	}

	if err == io.EOF {
		if !s.loop {
			return n, io.EOF
		}
		if rewindErr := s.rewind(); rewindErr != nil {
			return n, rewindErr
		}
	}

	return n, nil
}

// rewind seeks back to the start and recreates the reader
func (s *WAVStream) rewind() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to start: %w", err)
	}
	s.reader = wav.NewReader(s.file)
	if _, err := s.reader.Format(); err != nil {
		return fmt.Errorf("failed to reread WAV header: %w", err)
	}
	return nil
}

func (s *WAVStream) SampleRate() int { return s.sampleRate }
func (s *WAVStream) Channels() int   { return s.channels }
func (s *WAVStream) Metadata() (string, string, string) {
	return s.title, "Unknown Artist", "Unknown Album"
}
func (s *WAVStream) Close() error {
	return s.file.Close()
}
