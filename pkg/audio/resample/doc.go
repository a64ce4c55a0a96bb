// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts streamed audio chunks between sample rates
// Package resample provides audio sample rate conversion.
//
// A Resampler is stateful: it carries the last input frame and the
// fractional read position across calls, so a stream resampled chunk by
// chunk has no discontinuities at chunk boundaries.
//
// Example:
//
//	r := resample.New(44100, 48000, 2)
//	out := r.Process(chunk)
package resample
