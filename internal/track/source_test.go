// ABOUTME: Tests for track sources
// ABOUTME: Covers location parsing, tone generation and sample scaling
package track

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseTone(t *testing.T) {
	tests := []struct {
		location   string
		wantErr    bool
		wantHz     float64
		wantFrames int64
	}{
		{"tone:440", false, 440, 0},
		{"tone:1000:0.5", false, 1000, 24000},
		{"tone:", true, 0, 0},
		{"tone:abc", true, 0, 0},
		{"tone:-5", true, 0, 0},
		{"tone:30000", true, 0, 0},
		{"tone:440:0", true, 0, 0},
		{"tone:440:1:2", true, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			src, err := ParseTone(tt.location)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if src.frequency != tt.wantHz {
				t.Errorf("frequency = %v, want %v", src.frequency, tt.wantHz)
			}
			if src.totalFrames != tt.wantFrames {
				t.Errorf("totalFrames = %d, want %d", src.totalFrames, tt.wantFrames)
			}
		})
	}
}

func TestToneSourceEnds(t *testing.T) {
	src := NewToneSource(440, 0.01) // 480 frames
	buf := make([]int32, 400*2)

	n, err := src.Read(buf)
	if err != nil || n != 800 {
		t.Fatalf("first read = %d, %v; want 800, nil", n, err)
	}
	n, err = src.Read(buf)
	if err != nil || n != 160 {
		t.Fatalf("second read = %d, %v; want 160, nil", n, err)
	}
	if _, err := src.Read(buf); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestToneSourceSignal(t *testing.T) {
	src := NewToneSource(1000, 0)
	buf := make([]int32, 96)
	src.Read(buf)

	if buf[0] != 0 {
		t.Errorf("sine should start at zero, got %d", buf[0])
	}
	for i := 0; i < len(buf); i += 2 {
		if buf[i] != buf[i+1] {
			t.Fatalf("frame %d: channels differ", i/2)
		}
		if buf[i] > 4194304 || buf[i] < -4194304 {
			t.Fatalf("frame %d: sample %d above half scale", i/2, buf[i])
		}
	}

	title, _, _ := src.Metadata()
	if !strings.Contains(title, "1000Hz") {
		t.Errorf("unexpected title %q", title)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	wav := filepath.Join(dir, "clip.wav")
	if err := os.WriteFile(wav, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name        string
		location    string
		errContains string
	}{
		{"tone", "tone:440:1", ""},
		{"missing file", filepath.Join(dir, "nope.mp3"), "audio file not found"},
		{"unsupported extension", wav, "unsupported audio format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := Open(tt.location)
			if tt.errContains == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				src.Close()
				return
			}
			if err == nil {
				src.Close()
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("error %q does not contain %q", err, tt.errContains)
			}
		})
	}
}

func TestScaleTo24(t *testing.T) {
	tests := []struct {
		sample   int32
		bitDepth int
		want     int32
	}{
		{1000, 16, 256000},
		{-1, 16, -256},
		{123456, 24, 123456},
		{1 << 20, 32, 1 << 12},
		{3, 8, 3 << 16},
	}
	for _, tt := range tests {
		if got := scaleTo24(tt.sample, tt.bitDepth); got != tt.want {
			t.Errorf("scaleTo24(%d, %d) = %d, want %d", tt.sample, tt.bitDepth, got, tt.want)
		}
	}
}

func TestTitleFromPath(t *testing.T) {
	if got := titleFromPath("/music/Some Song.flac"); got != "Some Song" {
		t.Errorf("titleFromPath = %q", got)
	}
}
