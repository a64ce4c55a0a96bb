// ABOUTME: Null audio output
// ABOUTME: Discards samples, optionally at device speed, and keeps counters
package output

import (
	"sync"
	"time"

	"github.com/Sendspin/audiobob/pkg/audio"
)

// Null discards audio. With realtime set, Write sleeps for the duration of
// the written audio so a headless player runs at playback speed.
type Null struct {
	volumeState

	realtime   bool
	sampleRate int
	channels   int
	bitDepth   int
	open       bool

	mu      sync.Mutex
	written int64 // samples per channel
	record  bool
	samples []int32
	opens   int
}

// NewNull creates a null output
func NewNull(realtime bool) *Null {
	n := &Null{realtime: realtime}
	n.resetVolume()
	return n
}

// NewRecorder creates a null output that keeps every sample written, after volume
func NewRecorder() *Null {
	n := NewNull(false)
	n.record = true
	return n
}

// Open records the format
func (n *Null) Open(sampleRate, channels, bitDepth int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sampleRate = sampleRate
	n.channels = channels
	n.bitDepth = bitDepth
	n.open = true
	n.opens++
	return nil
}

// Write counts and optionally keeps samples
func (n *Null) Write(samples []int32) error {
	n.mu.Lock()
	if !n.open {
		n.mu.Unlock()
		return ErrNotOpen
	}
	frames := len(samples) / max(n.channels, 1)
	n.written += int64(frames)
	if n.record {
		n.samples = append(n.samples, n.apply(samples)...)
	}
	rate := n.sampleRate
	n.mu.Unlock()

	if n.realtime && rate > 0 {
		time.Sleep(audio.ToDuration(int64(frames), audio.SampleTimeBase(rate)))
	}
	return nil
}

// Close marks the output closed
func (n *Null) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.open = false
	return nil
}

// Written returns the number of samples per channel written so far
func (n *Null) Written() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.written
}

// Samples returns a copy of the recorded samples
func (n *Null) Samples() []int32 {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]int32, len(n.samples))
	copy(out, n.samples)
	return out
}

// Format returns the format passed to the last Open
func (n *Null) Format() (sampleRate, channels, bitDepth int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sampleRate, n.channels, n.bitDepth
}

// Opens returns how many times Open was called
func (n *Null) Opens() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.opens
}
