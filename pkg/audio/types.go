// ABOUTME: Audio type definitions
// ABOUTME: Defines audio formats, decoded frames and sample conversions
package audio

import "time"

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Format describes audio stream format
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// BytesPerSample returns the width of one PCM sample for the format's bit depth
func (f Format) BytesPerSample() int {
	if f.BitDepth == 24 {
		return 3
	}
	return 2
}

// Frame is one decoded unit of raw audio.
//
// Samples are interleaved and owned by the frame. Timestamp is expressed in
// TimeBase units, which the decoder sets to 1/SampleRate.
type Frame struct {
	Samples     []int32
	SampleCount int // per channel
	Channels    int
	SampleRate  int
	Timestamp   int64
	TimeBase    Rational
}

// Duration returns how long the frame plays
func (f *Frame) Duration() time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(f.SampleCount) * time.Second / time.Duration(f.SampleRate)
}

// Position returns the frame timestamp as an offset from zero
func (f *Frame) Position() time.Duration {
	return ToDuration(f.Timestamp, f.TimeBase)
}

// Reset clears the frame so it can be reused by the decoder
func (f *Frame) Reset() {
	f.Samples = f.Samples[:0]
	f.SampleCount = 0
	f.Channels = 0
	f.SampleRate = 0
	f.Timestamp = NoTimestamp
	f.TimeBase = Rational{}
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	// Right-shift to convert 24-bit (or 16-bit) to 16-bit range
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	return int32(sample) << 8
}

// SampleTo24Bit converts int32 to 24-bit packed bytes (little-endian)
func SampleTo24Bit(sample int32) [3]byte {
	return [3]byte{
		byte(sample),
		byte(sample >> 8),
		byte(sample >> 16),
	}
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF
	}
	return val
}
