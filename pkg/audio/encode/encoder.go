// ABOUTME: Encoder interface definition
// ABOUTME: Common interface for all audio encoders
package encode

import (
	"fmt"

	"github.com/Sendspin/audiobob/pkg/audio"
)

// Encoder encodes PCM int32 samples to packet payloads
type Encoder interface {
	// Encode converts one chunk of interleaved samples
	Encode(samples []int32) ([]byte, error)

	// FrameSize is the number of samples per channel in one chunk
	FrameSize() int

	// Close releases encoder resources
	Close() error
}

// New creates an encoder for the format's codec
func New(format audio.Format) (Encoder, error) {
	switch format.Codec {
	case "pcm":
		return NewPCM(format)
	case "opus":
		return NewOpus(format)
	default:
		return nil, fmt.Errorf("unsupported codec: %s", format.Codec)
	}
}

// frameSize20ms is 20ms of samples at rate
func frameSize20ms(rate int) int {
	return rate / 50
}
