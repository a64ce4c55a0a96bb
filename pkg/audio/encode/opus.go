// ABOUTME: Opus audio encoder
// ABOUTME: Encodes 20ms int32 chunks to Opus packets
package encode

import (
	"fmt"

	"github.com/Sendspin/audiobob/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

// maxOpusPacket is the largest payload libopus is asked to produce
const maxOpusPacket = 4000

// OpusEncoder encodes Opus audio
type OpusEncoder struct {
	encoder   *opus.Encoder
	channels  int
	frameSize int
	pcm       []int16
	buf       []byte
}

// NewOpus creates a new Opus encoder
func NewOpus(format audio.Format) (*OpusEncoder, error) {
	if format.Codec != "opus" {
		return nil, fmt.Errorf("invalid codec for Opus encoder: %s", format.Codec)
	}

	encoder, err := opus.NewEncoder(format.SampleRate, format.Channels, opus.AppAudio)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus encoder: %w", err)
	}

	frameSize := frameSize20ms(format.SampleRate)
	return &OpusEncoder{
		encoder:   encoder,
		channels:  format.Channels,
		frameSize: frameSize,
		pcm:       make([]int16, frameSize*format.Channels),
		buf:       make([]byte, maxOpusPacket),
	}, nil
}

// Encode converts exactly one frame of int32 samples to an Opus packet
func (e *OpusEncoder) Encode(samples []int32) ([]byte, error) {
	if len(samples) != len(e.pcm) {
		return nil, fmt.Errorf("opus encode: expected %d samples, got %d", len(e.pcm), len(samples))
	}

	for i, sample := range samples {
		e.pcm[i] = audio.SampleToInt16(sample)
	}

	n, err := e.encoder.Encode(e.pcm, e.buf)
	if err != nil {
		return nil, fmt.Errorf("opus encode error: %w", err)
	}

	// the payload outlives this call inside the packet queue
	out := make([]byte, n)
	copy(out, e.buf[:n])
	return out, nil
}

// FrameSize returns samples per channel per packet (20ms)
func (e *OpusEncoder) FrameSize() int {
	return e.frameSize
}

// Close releases resources
func (e *OpusEncoder) Close() error {
	return nil
}
