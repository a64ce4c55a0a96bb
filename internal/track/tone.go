// ABOUTME: Test tone generator track source
// ABOUTME: Generates a stereo sine wave of fixed or unbounded length
package track

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

const (
	// ToneSampleRate is the rate tones are generated at
	ToneSampleRate = 48000
	// ToneChannels is the channel count of generated tones
	ToneChannels = 2
)

// ToneSource generates a sine test tone
type ToneSource struct {
	frequency   float64
	totalFrames int64 // 0 means endless
	sampleIndex int64
}

// NewToneSource creates a tone generator. A non-positive duration never ends.
func NewToneSource(frequency float64, seconds float64) *ToneSource {
	var total int64
	if seconds > 0 {
		total = int64(math.Round(seconds * ToneSampleRate))
	}
	return &ToneSource{
		frequency:   frequency,
		totalFrames: total,
	}
}

// ParseTone parses "tone:<hz>[:<seconds>]"
func ParseTone(location string) (*ToneSource, error) {
	parts := strings.Split(strings.TrimPrefix(location, "tone:"), ":")
	if len(parts) > 2 || parts[0] == "" {
		return nil, fmt.Errorf("invalid tone location %q (want tone:<hz>[:<seconds>])", location)
	}

	hz, err := strconv.ParseFloat(parts[0], 64)
	if err != nil || hz <= 0 || hz >= ToneSampleRate/2 {
		return nil, fmt.Errorf("invalid tone frequency %q", parts[0])
	}

	var seconds float64
	if len(parts) == 2 {
		seconds, err = strconv.ParseFloat(parts[1], 64)
		if err != nil || seconds <= 0 {
			return nil, fmt.Errorf("invalid tone duration %q", parts[1])
		}
	}

	return NewToneSource(hz, seconds), nil
}

func (s *ToneSource) Read(samples []int32) (int, error) {
	frames := len(samples) / ToneChannels
	if s.totalFrames > 0 {
		left := s.totalFrames - s.sampleIndex
		if left <= 0 {
			return 0, io.EOF
		}
		frames = int(min(int64(frames), left))
	}

	for i := 0; i < frames; i++ {
		t := float64(s.sampleIndex+int64(i)) / ToneSampleRate
		// 50% of 24-bit full scale
		v := int32(math.Sin(2*math.Pi*s.frequency*t) * 8388607.0 * 0.5)
		samples[i*2] = v
		samples[i*2+1] = v
	}

	s.sampleIndex += int64(frames)
	return frames * ToneChannels, nil
}

func (s *ToneSource) SampleRate() int { return ToneSampleRate }
func (s *ToneSource) Channels() int   { return ToneChannels }
func (s *ToneSource) Metadata() (string, string, string) {
	return fmt.Sprintf("Test Tone %gHz", s.frequency), "audiobob", "Test Signals"
}
func (s *ToneSource) Close() error { return nil }
