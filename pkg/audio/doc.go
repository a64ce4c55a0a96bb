// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Frame, Rational time bases and sample conversion
// Package audio provides fundamental audio types shared by the audiobob
// decoding pipeline.
//
// This package defines:
//   - Format: Describes an audio stream (codec, sample rate, channels, bit depth)
//   - Frame: One decoded unit of interleaved PCM with a rebased timestamp
//   - Rational: A time base used to express and rescale timestamps
//
// Samples are carried as int32 in 24-bit range throughout the pipeline.
//
// Example:
//
//	tb := audio.NewRational(1, 48000)
//	ms := audio.Rescale(4800, tb, audio.NewRational(1, 1000)) // 100
package audio
