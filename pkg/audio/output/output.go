// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for audio playback backends and backend selection
package output

import (
	"errors"
	"fmt"
)

// ErrNotOpen is returned by Write before Open or after Close
var ErrNotOpen = errors.New("output not initialized")

// Output represents an audio output device
type Output interface {
	// Open initializes the output device
	Open(sampleRate, channels, bitDepth int) error

	// Write outputs audio samples (blocks until queued)
	Write(samples []int32) error

	// Close releases output resources
	Close() error
}

// VolumeControl is implemented by outputs with software volume
type VolumeControl interface {
	SetVolume(volume int)
	SetMuted(muted bool)
	Volume() int
	Muted() bool
}

// Backends lists the names accepted by New
var Backends = []string{"malgo", "oto", "null"}

// New creates an output by backend name
func New(backend string) (Output, error) {
	switch backend {
	case "malgo", "":
		return NewMalgo(), nil
	case "oto":
		return NewOto(), nil
	case "null":
		return NewNull(true), nil
	default:
		return nil, fmt.Errorf("unknown output backend: %s (supported: %v)", backend, Backends)
	}
}
