// ABOUTME: Audio output package for playing decoded frames
// ABOUTME: Provides the Output interface with malgo, oto and null backends
// Package output provides audio playback backends.
//
// Malgo (miniaudio) supports 16, 24 and 32-bit devices; Oto is 16-bit only.
// Null discards audio at device speed or as fast as possible and is used
// headless and in tests. All backends apply volume and mute in software.
//
// Example:
//
//	out, err := output.New("malgo")
//	err = out.Open(48000, 2, 24)
//	err = out.Write(samples)
package output
