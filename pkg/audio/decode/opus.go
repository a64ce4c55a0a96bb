// ABOUTME: Opus decode engine
// ABOUTME: Decodes one Opus packet per unit to int32 samples
package decode

import (
	"fmt"

	"github.com/Sendspin/audiobob/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

// maxOpusFrameSamples is 120ms at 48kHz, the longest Opus packet duration
const maxOpusFrameSamples = 5760

// OpusEngine decodes Opus audio
type OpusEngine struct {
	decoder    *opus.Decoder
	format     audio.Format
	pcm16      []int16
	pending    []byte
	pendingPTS int64
	pendingTB  audio.Rational
	hasPending bool
	closed     bool
}

// NewOpus creates a new Opus engine
func NewOpus(format audio.Format) (*OpusEngine, error) {
	if format.Codec != "opus" {
		return nil, fmt.Errorf("invalid codec for Opus decoder: %s", format.Codec)
	}

	dec, err := opus.NewDecoder(format.SampleRate, format.Channels)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus decoder: %w", err)
	}

	return &OpusEngine{
		decoder:    dec,
		format:     format,
		pcm16:      make([]int16, maxOpusFrameSamples*format.Channels),
		pendingPTS: audio.NoTimestamp,
	}, nil
}

// Send takes a whole Opus packet. Nothing is accepted while one is pending.
func (e *OpusEngine) Send(data []byte, pts int64, tb audio.Rational) (int, error) {
	if e.closed {
		return 0, ErrEngineClosed
	}
	if len(data) == 0 || e.hasPending {
		return 0, nil
	}

	e.pending = data
	e.pendingPTS = pts
	e.pendingTB = tb
	e.hasPending = true
	return len(data), nil
}

// Receive decodes the pending packet
func (e *OpusEngine) Receive() (Unit, error) {
	if e.closed {
		return Unit{}, ErrEngineClosed
	}
	if !e.hasPending {
		return Unit{}, ErrNeedMoreInput
	}

	data, pts, tb := e.pending, e.pendingPTS, e.pendingTB
	e.pending = nil
	e.pendingPTS = audio.NoTimestamp
	e.hasPending = false

	n, err := e.decoder.Decode(data, e.pcm16)
	if err != nil {
		return Unit{}, fmt.Errorf("%w: opus decode failed: %v", ErrInvalidData, err)
	}

	// Opus is always 16-bit
	actualSamples := n * e.format.Channels
	pcm32 := make([]int32, actualSamples)
	for i := 0; i < actualSamples; i++ {
		pcm32[i] = audio.SampleFromInt16(e.pcm16[i])
	}

	return Unit{
		Samples:     pcm32,
		SampleCount: n,
		Channels:    e.format.Channels,
		SampleRate:  e.format.SampleRate,
		PTS:         pts,
		TimeBase:    tb,
	}, nil
}

// Flush drops the pending packet and resets the codec state
func (e *OpusEngine) Flush() error {
	if e.closed {
		return ErrEngineClosed
	}
	e.pending = nil
	e.pendingPTS = audio.NoTimestamp
	e.hasPending = false

	if err := e.decoder.Init(e.format.SampleRate, e.format.Channels); err != nil {
		return fmt.Errorf("failed to reset opus decoder: %w", err)
	}
	return nil
}

// Close releases decoder resources
func (e *OpusEngine) Close() error {
	e.closed = true
	e.pending = nil
	return nil
}
