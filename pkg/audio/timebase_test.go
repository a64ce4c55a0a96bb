// ABOUTME: Tests for time base rescaling
// ABOUTME: Tests rounding, monotonicity and duration conversion
package audio

import (
	"testing"
	"time"
)

func TestRescale(t *testing.T) {
	tests := []struct {
		name     string
		v        int64
		from, to Rational
		expected int64
	}{
		{"identity", 1024, TimeBase48kHz, TimeBase48kHz, 1024},
		{"samples to millis", 4800, TimeBase48kHz, TimeBaseMillis, 100},
		{"millis to samples", 100, TimeBaseMillis, TimeBase48kHz, 4800},
		{"44.1k to 48k", 44100, TimeBase44kHz, TimeBase48kHz, 48000},
		{"round half up", 1, NewRational(1, 2), NewRational(1, 1), 1},
		{"round down", 1, NewRational(1, 3), NewRational(1, 1), 0},
		{"negative round half away", -1, NewRational(1, 2), NewRational(1, 1), -1},
		{"negative", -4800, TimeBase48kHz, TimeBaseMillis, -100},
		{"no timestamp", NoTimestamp, TimeBase48kHz, TimeBaseMillis, NoTimestamp},
		{"invalid from", 10, Rational{}, TimeBaseMillis, NoTimestamp},
		{"invalid to", 10, TimeBaseMillis, Rational{Num: 1, Den: 0}, NoTimestamp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Rescale(tt.v, tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestRescaleMonotonic(t *testing.T) {
	from := TimeBase44kHz
	to := NewRational(1, 7919)

	prev := Rescale(0, from, to)
	for v := int64(1); v < 50000; v += 7 {
		cur := Rescale(v, from, to)
		if cur < prev {
			t.Fatalf("rescale not monotonic at %d: %d < %d", v, cur, prev)
		}
		prev = cur
	}
}

func TestRescaleLargeValues(t *testing.T) {
	// 10 hours of 192kHz audio rescaled to nanoseconds must not overflow
	v := int64(192000) * 3600 * 10
	got := Rescale(v, NewRational(1, 192000), NewRational(1, int64(time.Second)))
	want := int64(10 * time.Hour)
	if got != want {
		t.Errorf("expected %d, got %d", want, got)
	}
}

func TestToDuration(t *testing.T) {
	if d := ToDuration(48000, TimeBase48kHz); d != time.Second {
		t.Errorf("expected 1s, got %v", d)
	}
	if d := ToDuration(NoTimestamp, TimeBase48kHz); d != 0 {
		t.Errorf("expected 0 for missing timestamp, got %v", d)
	}
}

func TestFrameDuration(t *testing.T) {
	f := Frame{SampleCount: 960, SampleRate: 48000, Timestamp: 48000, TimeBase: TimeBase48kHz}
	if d := f.Duration(); d != 20*time.Millisecond {
		t.Errorf("expected 20ms, got %v", d)
	}
	if p := f.Position(); p != time.Second {
		t.Errorf("expected 1s position, got %v", p)
	}
}
