// ABOUTME: Unit tests for PCM encoder
// ABOUTME: Checks byte layout and round trips through the PCM decode engine
package encode

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/Sendspin/audiobob/pkg/audio"
	"github.com/Sendspin/audiobob/pkg/audio/decode"
)

func TestNewPCM(t *testing.T) {
	tests := []struct {
		name        string
		format      audio.Format
		errContains string
	}{
		{"valid 16-bit PCM", audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 16}, ""},
		{"valid 24-bit PCM", audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 24}, ""},
		{"invalid codec", audio.Format{Codec: "opus", SampleRate: 48000, Channels: 2, BitDepth: 16}, "invalid codec"},
		{"unsupported bit depth", audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 32}, "unsupported bit depth"},
		{"no sample rate", audio.Format{Codec: "pcm", Channels: 2, BitDepth: 16}, "invalid sample rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoder, err := NewPCM(tt.format)
			if tt.errContains != "" {
				if err == nil {
					t.Fatal("NewPCM() expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("NewPCM() error = %v, want error containing %v", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewPCM() unexpected error = %v", err)
			}
			if encoder.FrameSize() != 960 {
				t.Errorf("FrameSize() = %d, want 960", encoder.FrameSize())
			}
		})
	}
}

func TestPCMEncoder_Encode16Bit(t *testing.T) {
	encoder, err := NewPCM(audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 16})
	if err != nil {
		t.Fatalf("NewPCM() failed: %v", err)
	}
	defer encoder.Close()

	samples := []int32{0, 0x7FFF00, -0x800000, 0x123400, -0x567800}

	output, err := encoder.Encode(samples)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	if len(output) != len(samples)*2 {
		t.Fatalf("Encode() output size = %d, want %d", len(output), len(samples)*2)
	}

	for i, sample := range samples {
		expected := audio.SampleToInt16(sample)
		actual := int16(binary.LittleEndian.Uint16(output[i*2:]))
		if actual != expected {
			t.Errorf("Sample %d: got %d, want %d", i, actual, expected)
		}
	}
}

func TestPCMEncoder_RoundTrip(t *testing.T) {
	for _, depth := range []int{16, 24} {
		format := audio.Format{Codec: "pcm", SampleRate: 44100, Channels: 2, BitDepth: depth}

		encoder, err := NewPCM(format)
		if err != nil {
			t.Fatalf("NewPCM() failed: %v", err)
		}
		engine, err := decode.NewPCM(format, 3)
		if err != nil {
			t.Fatalf("decode.NewPCM() failed: %v", err)
		}

		// 16-bit loses the low byte, so use values that survive it
		samples := []int32{0, 0x100, -0x100, 0x7FFF00, -0x800000, 0x123400}
		data, err := encoder.Encode(samples)
		if err != nil {
			t.Fatalf("Encode() failed: %v", err)
		}

		n, err := engine.Send(data, 0, audio.TimeBaseMillis)
		if err != nil || n != len(data) {
			t.Fatalf("Send() = %d, %v; want %d, nil", n, err, len(data))
		}
		unit, err := engine.Receive()
		if err != nil {
			t.Fatalf("Receive() failed: %v", err)
		}
		for i := range samples {
			if unit.Samples[i] != samples[i] {
				t.Errorf("%d-bit sample %d: got %d, want %d", depth, i, unit.Samples[i], samples[i])
			}
		}
	}
}

func TestNew(t *testing.T) {
	if _, err := New(audio.Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 16}); err != nil {
		t.Errorf("New(pcm) failed: %v", err)
	}
	if _, err := New(audio.Format{Codec: "flac", SampleRate: 48000, Channels: 2, BitDepth: 16}); err == nil {
		t.Error("New(flac) expected error")
	}
}
