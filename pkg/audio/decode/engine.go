// ABOUTME: Decode engine interface definition
// ABOUTME: Send/receive contract shared by all codec contexts
package decode

import (
	"errors"
	"fmt"

	"github.com/Sendspin/audiobob/pkg/audio"
)

var (
	// ErrNeedMoreInput means the engine cannot produce a unit until it gets more bytes
	ErrNeedMoreInput = errors.New("decode: need more input")
	// ErrInvalidData means the submitted bytes could not be decoded
	ErrInvalidData = errors.New("decode: invalid data")
	// ErrEngineClosed means the engine was closed and can no longer be used
	ErrEngineClosed = errors.New("decode: engine closed")
)

// Unit is one decoded block of audio returned by an Engine
type Unit struct {
	Samples     []int32 // interleaved, owned by the caller
	SampleCount int     // per channel
	Channels    int
	SampleRate  int
	// PTS of the unit in the time base of the packet it started in,
	// or audio.NoTimestamp when the unit does not start at a packet boundary
	PTS int64
	// TimeBase is the one passed to Send along with PTS
	TimeBase audio.Rational
}

// Engine is a stateful codec context.
//
// Send may accept fewer bytes than offered; the caller re-offers the rest
// later. A nil or empty data slice means no new input is available and the
// engine should drain what it has buffered. Receive returns ErrNeedMoreInput
// when nothing can be produced yet and ErrInvalidData for corrupt input.
type Engine interface {
	// Send offers compressed bytes and returns how many were accepted.
	// pts is the timestamp of data[0] in units of tb if it starts a packet,
	// else audio.NoTimestamp.
	Send(data []byte, pts int64, tb audio.Rational) (int, error)

	// Receive returns the next decoded unit
	Receive() (Unit, error)

	// Flush discards all buffered state
	Flush() error

	// Close releases engine resources
	Close() error
}

// NewEngine creates an engine for the format.
// frameSamples sets the per-channel unit size for codecs without framing (PCM).
func NewEngine(format audio.Format, frameSamples int) (Engine, error) {
	switch format.Codec {
	case "pcm":
		return NewPCM(format, frameSamples)
	case "opus":
		return NewOpus(format)
	default:
		return nil, fmt.Errorf("unsupported codec: %s", format.Codec)
	}
}
