// ABOUTME: Tests for audio types
// ABOUTME: Tests sample conversion functions and block channel access
package audio

import "testing"

func TestSampleFromInt16(t *testing.T) {
	tests := []struct {
		name     string
		input    int16
		expected int32
	}{
		{"zero", 0, 0},
		{"positive", 100, 100 << 8},
		{"negative", -100, -100 << 8},
		{"max", 32767, 32767 << 8},
		{"min", -32768, -32768 << 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleFromInt16(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestSampleToInt16(t *testing.T) {
	tests := []struct {
		name     string
		input    int32
		expected int16
	}{
		{"zero", 0, 0},
		{"positive", 100 << 8, 100},
		{"negative", -100 << 8, -100},
		{"24bit positive", 1000000, 3906}, // 1000000 >> 8 = 3906
		{"24bit negative", -1000000, -3907},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleToInt16(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestSampleTo24Bit(t *testing.T) {
	tests := []struct {
		name     string
		input    int32
		expected [3]byte
	}{
		{"zero", 0, [3]byte{0, 0, 0}},
		{"positive", 0x123456, [3]byte{0x56, 0x34, 0x12}},
		{"negative", -256, [3]byte{0x00, 0xFF, 0xFF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleTo24Bit(tt.input)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestSampleFrom24Bit(t *testing.T) {
	tests := []struct {
		name     string
		input    [3]byte
		expected int32
	}{
		{"zero", [3]byte{0, 0, 0}, 0},
		{"positive", [3]byte{0x56, 0x34, 0x12}, 0x123456},
		{"negative", [3]byte{0x00, 0xFF, 0xFF}, -256},
		{"max positive", [3]byte{0xFF, 0xFF, 0x7F}, Max24Bit},
		{"max negative", [3]byte{0x00, 0x00, 0x80}, Min24Bit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleFrom24Bit(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestSampleFloatConversion(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected int32
	}{
		{"zero", 0, 0},
		{"half", 0.5, 4194304},
		{"negative half", -0.5, -4194304},
		{"clip high", 1.5, Max24Bit},
		{"clip low", -1.5, Min24Bit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SampleFromFloat(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}

	if got := SampleToFloat(4194304); got != 0.5 {
		t.Errorf("expected 0.5, got %f", got)
	}
}

func TestBlockChannels(t *testing.T) {
	block := NewBlock(3, 2)
	block.FromInt32([]int32{0, 4194304, 0, -4194304, 0, 4194304})

	if block.Frames() != 3 {
		t.Fatalf("expected 3 frames, got %d", block.Frames())
	}

	right := block.Channel(1, nil)
	want := []float64{0.5, -0.5, 0.5}
	for i := range want {
		if right[i] != want[i] {
			t.Errorf("right[%d]: expected %f, got %f", i, want[i], right[i])
		}
	}

	for i := range right {
		right[i] *= 2
	}
	block.SetChannel(1, right)

	out := block.Int32(nil)
	if out[1] != Max24Bit {
		t.Errorf("expected clipped sample %d, got %d", Max24Bit, out[1])
	}
	if out[3] != Min24Bit {
		t.Errorf("expected clipped sample %d, got %d", Min24Bit, out[3])
	}
	if out[0] != 0 || out[2] != 0 {
		t.Errorf("left channel changed: %v", out)
	}
}

func TestBlockFromInt32Trims(t *testing.T) {
	block := NewBlock(4, 2)
	block.FromInt32([]int32{256, 256})

	if len(block.Samples) != 2 {
		t.Fatalf("expected 2 samples after short read, got %d", len(block.Samples))
	}
	if block.Frames() != 1 {
		t.Errorf("expected 1 frame, got %d", block.Frames())
	}
}
