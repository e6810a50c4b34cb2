// ABOUTME: MP3 file stream
// ABOUTME: Decodes MP3 files to int32 samples with go-mp3
package decode

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/Resonate-Protocol/pedalboard-go/pkg/audio"
	"github.com/hajimehoshi/go-mp3"
)

// MP3Stream reads from an MP3 file
type MP3Stream struct {
	file       *os.File
	decoder    *mp3.Decoder
	loop       bool
	sampleRate int
	channels   int
	title      string
	buf        []byte
}

// NewMP3 opens an MP3 file stream
func NewMP3(path string, opts Options) (*MP3Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	title := titleFromPath(path)
	log.Printf("Loaded MP3: %s (sample rate: %d Hz)", title, decoder.SampleRate())

	return &MP3Stream{
		file:       f,
		decoder:    decoder,
		loop:       opts.Loop,
		sampleRate: decoder.SampleRate(),
		channels:   2, // go-mp3 always outputs stereo
		title:      title,
	}, nil
}

func (s *MP3Stream) Read(samples []int32) (int, error) {
	// go-mp3 outputs int16 = 2 bytes per sample
	numBytes := len(samples) * 2
	if cap(s.buf) < numBytes {
		s.buf = make([]byte, numBytes)
	}
	buf := s.buf[:numBytes]

	n, err := s.decoder.Read(buf)
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("mp3 decode error: %w", err)
	}

	numSamples := n / 2
	for i := 0; i < numSamples; i++ {
		sample16 := int16(binary.LittleEndian.Uint16(buf[i*2 : i*2+2]))
		samples[i] = audio.SampleFromInt16(sample16)
	}

	if err == io.EOF {
		if !s.loop {
			return numSamples, io.EOF
		}
		if rewindErr := s.rewind(); rewindErr != nil {
			return numSamples, rewindErr
		}
	}

	return numSamples, nil
}

// rewind seeks back to the start and recreates the decoder
func (s *MP3Stream) rewind() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to start: %w", err)
	}
	decoder, err := mp3.NewDecoder(s.file)
	if err != nil {
		return fmt.Errorf("failed to create new decoder: %w", err)
	}
	s.decoder = decoder
	return nil
}

func (s *MP3Stream) SampleRate() int { return s.sampleRate }
func (s *MP3Stream) Channels() int   { return s.channels }
func (s *MP3Stream) Metadata() (string, string, string) {
	return s.title, "Unknown Artist", "Unknown Album"
}
func (s *MP3Stream) Close() error {
	return s.file.Close()
}
