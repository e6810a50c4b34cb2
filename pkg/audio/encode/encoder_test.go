// ABOUTME: Unit tests for PCM and Opus encoders
// ABOUTME: Tests codec validation, frame sizes and encoded output
package encode

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/Resonate-Protocol/pedalboard-go/pkg/audio"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		format      audio.Format
		errContains string
	}{
		{"pcm 16-bit", audio.Format{Codec: "pcm", SampleRate: 44100, Channels: 2, BitDepth: 16}, ""},
		{"pcm 24-bit", audio.Format{Codec: "pcm", SampleRate: 96000, Channels: 2, BitDepth: 24}, ""},
		{"pcm 32-bit", audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 32}, "unsupported bit depth"},
		{"opus stereo", audio.Format{Codec: "opus", SampleRate: 48000, Channels: 2, BitDepth: 16}, ""},
		{"opus 44.1kHz", audio.Format{Codec: "opus", SampleRate: 44100, Channels: 2, BitDepth: 16}, "unsupported opus sample rate"},
		{"unknown codec", audio.Format{Codec: "aac", SampleRate: 48000, Channels: 2}, "unsupported codec"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoder, err := New(tt.format)
			if tt.errContains != "" {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.errContains)
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("expected error containing %q, got %q", tt.errContains, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer encoder.Close()

			if encoder.Format() != tt.format {
				t.Errorf("expected format %+v, got %+v", tt.format, encoder.Format())
			}
		})
	}
}

func TestPCMEncode16Bit(t *testing.T) {
	encoder, err := NewPCM(audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 16})
	if err != nil {
		t.Fatalf("NewPCM() failed: %v", err)
	}

	samples := []int32{0, 0x7FFF00, -0x800000, 0x123400}
	output, err := encoder.Encode(samples)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	if len(output) != len(samples)*2 {
		t.Fatalf("expected %d bytes, got %d", len(samples)*2, len(output))
	}
	for i, sample := range samples {
		got := int16(binary.LittleEndian.Uint16(output[i*2:]))
		if got != audio.SampleToInt16(sample) {
			t.Errorf("sample %d: got %d, want %d", i, got, audio.SampleToInt16(sample))
		}
	}
	if encoder.FrameSamples() != 0 {
		t.Errorf("expected PCM to accept any length, got frame size %d", encoder.FrameSamples())
	}
}

func TestPCMEncode24Bit(t *testing.T) {
	encoder, err := NewPCM(audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 24})
	if err != nil {
		t.Fatalf("NewPCM() failed: %v", err)
	}

	output, err := encoder.Encode([]int32{0x123456, -256})
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	want := []byte{0x56, 0x34, 0x12, 0x00, 0xFF, 0xFF}
	if string(output) != string(want) {
		t.Errorf("got %x, want %x", output, want)
	}
}

func TestOpusEncode(t *testing.T) {
	encoder, err := NewOpus(audio.Format{Codec: "opus", SampleRate: 48000, Channels: 2, BitDepth: 16})
	if err != nil {
		t.Fatalf("NewOpus() failed: %v", err)
	}
	defer encoder.Close()

	if encoder.FrameSamples() != 960*2 {
		t.Fatalf("expected 1920 samples per frame, got %d", encoder.FrameSamples())
	}

	samples := make([]int32, encoder.FrameSamples())
	for i := range samples {
		samples[i] = int32((i % 1000) * 8388)
	}

	packet, err := encoder.Encode(samples)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if len(packet) == 0 || len(packet) > maxOpusPacket {
		t.Errorf("unexpected packet size %d", len(packet))
	}

	if _, err := encoder.Encode(samples[:100]); err == nil {
		t.Error("expected error for a partial frame")
	}
}
