// ABOUTME: Packet tagged union and consumption cursor
// ABOUTME: Audio, Flush and Close entries share one queue to keep ordering
package packet

import (
	"fmt"

	"github.com/Sendspin/audiobob/pkg/audio"
)

// Kind tags what a queue entry means
type Kind uint8

const (
	// KindAudio carries compressed audio bytes
	KindAudio Kind = iota
	// KindFlush marks a discontinuity; decoder state must be reset
	KindFlush
	// KindClose marks the end of the stream
	KindClose
)

func (k Kind) String() string {
	switch k {
	case KindAudio:
		return "audio"
	case KindFlush:
		return "flush"
	case KindClose:
		return "close"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Packet is one entry of the packet queue.
//
// Data must not be modified once the packet is pushed. PTS is expressed in
// TimeBase units, or audio.NoTimestamp when unknown.
type Packet struct {
	Kind     Kind
	Data     []byte
	PTS      int64
	TimeBase audio.Rational
	QueueID  int
}

// Audio builds an audio packet
func Audio(data []byte, pts int64, tb audio.Rational, queueID int) Packet {
	return Packet{
		Kind:     KindAudio,
		Data:     data,
		PTS:      pts,
		TimeBase: tb,
		QueueID:  queueID,
	}
}

// Flush builds a flush marker
func Flush() Packet {
	return Packet{Kind: KindFlush, PTS: audio.NoTimestamp}
}

// Close builds an end-of-stream marker
func Close() Packet {
	return Packet{Kind: KindClose, PTS: audio.NoTimestamp}
}

// Len returns the payload length in bytes
func (p Packet) Len() int {
	return len(p.Data)
}

// Cursor is a read view over a packet's payload.
//
// It never copies the payload; Advance only narrows the view.
type Cursor struct {
	data   []byte
	offset int
}

// NewCursor returns a cursor over the full payload of p
func NewCursor(p Packet) Cursor {
	return Cursor{data: p.Data}
}

// Bytes returns the unconsumed part of the payload
func (c Cursor) Bytes() []byte {
	return c.data[c.offset:]
}

// Remaining returns the number of unconsumed bytes
func (c Cursor) Remaining() int {
	return len(c.data) - c.offset
}

// Offset returns the number of consumed bytes
func (c Cursor) Offset() int {
	return c.offset
}

// Advance marks n bytes as consumed. Values outside [0, Remaining] are clamped.
func (c *Cursor) Advance(n int) {
	if n <= 0 {
		return
	}
	if n > c.Remaining() {
		n = c.Remaining()
	}
	c.offset += n
}
