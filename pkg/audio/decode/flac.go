// ABOUTME: FLAC file stream
// ABOUTME: Decodes FLAC frames to int32 samples with mewkiz/flac
package decode

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/mewkiz/flac"
)

// FLACStream reads from a FLAC file
type FLACStream struct {
	file       *os.File
	stream     *flac.Stream
	loop       bool
	sampleRate int
	channels   int
	bitDepth   int
	title      string

	// samples decoded from the last frame that did not fit the caller's buffer
	pending []int32
}

// NewFLAC opens a FLAC file stream
func NewFLAC(path string, opts Options) (*FLACStream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open FLAC file: %w", err)
	}

	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	info := stream.Info
	title := titleFromPath(path)

	log.Printf("Loaded FLAC: %s (sample rate: %d Hz, channels: %d, bit depth: %d)",
		title, info.SampleRate, info.NChannels, info.BitsPerSample)

	return &FLACStream{
		file:       f,
		stream:     stream,
		loop:       opts.Loop,
		sampleRate: int(info.SampleRate),
		channels:   int(info.NChannels),
		bitDepth:   int(info.BitsPerSample),
		title:      title,
	}, nil
}

func (s *FLACStream) Read(samples []int32) (int, error) {
	samplesRead := copy(samples, s.pending)
	s.pending = s.pending[samplesRead:]

	for samplesRead < len(samples) {
		frame, err := s.stream.ParseNext()
		if err == io.EOF {
			if !s.loop {
				return samplesRead, io.EOF
			}
			if err := s.rewind(); err != nil {
				return samplesRead, err
			}
			continue
		}
		if err != nil {
			return samplesRead, fmt.Errorf("flac decode error: %w", err)
		}

		for i := 0; i < int(frame.BlockSize); i++ {
			for ch := 0; ch < s.channels; ch++ {
				sample := scaleTo24Bit(frame.Subframes[ch].Samples[i], s.bitDepth)
				if samplesRead < len(samples) {
					samples[samplesRead] = sample
					samplesRead++
				} else {
					s.pending = append(s.pending, sample)
				}
			}
		}
	}

	return samplesRead, nil
}

// rewind seeks back to the start and recreates the FLAC stream
func (s *FLACStream) rewind() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to start: %w", err)
	}
	stream, err := flac.New(s.file)
	if err != nil {
		return fmt.Errorf("failed to create new stream: %w", err)
	}
	s.stream = stream
	return nil
}

func (s *FLACStream) SampleRate() int { return s.sampleRate }
func (s *FLACStream) Channels() int   { return s.channels }
func (s *FLACStream) Metadata() (string, string, string) {
	return s.title, "Unknown Artist", "Unknown Album"
}
func (s *FLACStream) Close() error {
	return s.file.Close()
}
