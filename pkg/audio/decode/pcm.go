// ABOUTME: PCM decode engine
// ABOUTME: Regroups 16-bit and 24-bit PCM bytes into fixed-size int32 units
package decode

import (
	"encoding/binary"
	"fmt"

	"github.com/Sendspin/audiobob/pkg/audio"
)

// PCMEngine decodes raw little-endian PCM.
//
// Bytes are regrouped into units of FrameSamples per channel regardless of
// packet boundaries, so one packet may yield several units and several
// packets may be needed for one.
type PCMEngine struct {
	format       audio.Format
	frameSamples int
	frameBytes   int
	buf          []byte
	bufPTS       int64
	bufTB        audio.Rational
	closed       bool
}

// NewPCM creates a new PCM engine
func NewPCM(format audio.Format, frameSamples int) (*PCMEngine, error) {
	if format.Codec != "pcm" {
		return nil, fmt.Errorf("invalid codec for PCM decoder: %s", format.Codec)
	}

	if format.BitDepth != 16 && format.BitDepth != 24 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 16, 24)", format.BitDepth)
	}

	if format.Channels <= 0 || format.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid PCM format: %dHz %dch", format.SampleRate, format.Channels)
	}

	if frameSamples <= 0 {
		return nil, fmt.Errorf("invalid frame size: %d", frameSamples)
	}

	frameBytes := frameSamples * format.Channels * format.BytesPerSample()
	return &PCMEngine{
		format:       format,
		frameSamples: frameSamples,
		frameBytes:   frameBytes,
		buf:          make([]byte, 0, frameBytes),
		bufPTS:       audio.NoTimestamp,
	}, nil
}

// Send buffers up to one unit worth of bytes
func (e *PCMEngine) Send(data []byte, pts int64, tb audio.Rational) (int, error) {
	if e.closed {
		return 0, ErrEngineClosed
	}

	space := e.frameBytes - len(e.buf)
	if len(data) == 0 || space == 0 {
		return 0, nil
	}

	if len(e.buf) == 0 {
		e.bufPTS, e.bufTB = pts, tb
	}

	n := min(space, len(data))
	e.buf = append(e.buf, data[:n]...)
	return n, nil
}

// Receive returns a unit once a full one is buffered
func (e *PCMEngine) Receive() (Unit, error) {
	if e.closed {
		return Unit{}, ErrEngineClosed
	}
	if len(e.buf) < e.frameBytes {
		return Unit{}, ErrNeedMoreInput
	}

	unit := Unit{
		Samples:     e.convert(e.buf),
		SampleCount: e.frameSamples,
		Channels:    e.format.Channels,
		SampleRate:  e.format.SampleRate,
		PTS:         e.bufPTS,
		TimeBase:    e.bufTB,
	}

	e.buf = e.buf[:0]
	e.bufPTS = audio.NoTimestamp
	return unit, nil
}

func (e *PCMEngine) convert(data []byte) []int32 {
	if e.format.BitDepth == 24 {
		// 24-bit PCM: 3 bytes per sample
		numSamples := len(data) / 3
		samples := make([]int32, numSamples)
		for i := 0; i < numSamples; i++ {
			b := [3]byte{data[i*3], data[i*3+1], data[i*3+2]}
			samples[i] = audio.SampleFrom24Bit(b)
		}
		return samples
	}

	// 16-bit PCM: 2 bytes per sample
	numSamples := len(data) / 2
	samples := make([]int32, numSamples)
	for i := 0; i < numSamples; i++ {
		sample16 := int16(binary.LittleEndian.Uint16(data[i*2:]))
		samples[i] = audio.SampleFromInt16(sample16)
	}
	return samples
}

// Flush drops any partially buffered unit
func (e *PCMEngine) Flush() error {
	if e.closed {
		return ErrEngineClosed
	}
	e.buf = e.buf[:0]
	e.bufPTS = audio.NoTimestamp
	return nil
}

// Buffered returns the number of bytes waiting for a complete unit
func (e *PCMEngine) Buffered() int {
	return len(e.buf)
}

// Close releases resources
func (e *PCMEngine) Close() error {
	e.closed = true
	e.buf = nil
	return nil
}
