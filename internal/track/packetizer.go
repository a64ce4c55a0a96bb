// ABOUTME: Packetizer feeding track audio into the packet queue
// ABOUTME: Remixes, resamples and encodes sources into one stream format
package track

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/Sendspin/audiobob/pkg/audio"
	"github.com/Sendspin/audiobob/pkg/audio/encode"
	"github.com/Sendspin/audiobob/pkg/audio/packet"
	"github.com/Sendspin/audiobob/pkg/audio/resample"
)

// maxEmptyReads bounds consecutive zero-sample reads before a source is considered stuck
const maxEmptyReads = 100

// Packetizer encodes track sources into packets of one stream format.
//
// Packet timestamps run on a single timeline in 1/SampleRate units across
// all tracks streamed through the same Packetizer.
type Packetizer struct {
	queue   *packet.Queue
	format  audio.Format
	encoder encode.Encoder
	tb      audio.Rational
	pts     int64

	packets atomic.Int64
	bytes   atomic.Int64
}

// NewPacketizer creates a packetizer pushing format-encoded packets into q
func NewPacketizer(q *packet.Queue, format audio.Format) (*Packetizer, error) {
	if format.Channels <= 0 || format.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid stream format: %dHz %dch", format.SampleRate, format.Channels)
	}

	enc, err := encode.New(format)
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}

	return &Packetizer{
		queue:   q,
		format:  format,
		encoder: enc,
		tb:      audio.SampleTimeBase(format.SampleRate),
	}, nil
}

// Format returns the stream format
func (p *Packetizer) Format() audio.Format {
	return p.format
}

// FrameSize returns samples per channel in each full packet
func (p *Packetizer) FrameSize() int {
	return p.encoder.FrameSize()
}

// PTS returns the timestamp the next packet will carry
func (p *Packetizer) PTS() int64 {
	return p.pts
}

// PacketsQueued returns the number of packets pushed so far
func (p *Packetizer) PacketsQueued() int64 {
	return p.packets.Load()
}

// BytesQueued returns the payload bytes pushed so far
func (p *Packetizer) BytesQueued() int64 {
	return p.bytes.Load()
}

// Stream reads src to the end and pushes its packets tagged with queueID.
// It returns the number of samples per channel queued. The source is not closed.
func (p *Packetizer) Stream(ctx context.Context, src Source, queueID int) (int64, error) {
	srcChannels := src.Channels()
	if srcChannels <= 0 || src.SampleRate() <= 0 {
		return 0, fmt.Errorf("invalid source format: %dHz %dch", src.SampleRate(), srcChannels)
	}

	frameSize := p.encoder.FrameSize()
	chunk := frameSize * p.format.Channels
	rs := resample.New(src.SampleRate(), p.format.SampleRate, p.format.Channels)

	readBuf := make([]int32, frameSize*srcChannels)
	pending := make([]int32, 0, chunk*2)
	var queued int64
	emptyReads := 0

	for {
		if err := ctx.Err(); err != nil {
			return queued, err
		}

		n, err := src.Read(readBuf)
		if n > 0 {
			emptyReads = 0
			mixed := remix(readBuf[:n-n%srcChannels], srcChannels, p.format.Channels)
			pending = append(pending, rs.Process(mixed)...)

			for len(pending) >= chunk {
				if err := p.emit(ctx, pending[:chunk], queueID); err != nil {
					return queued, err
				}
				pending = append(pending[:0], pending[chunk:]...)
				queued += int64(frameSize)
			}
		}

		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return queued, fmt.Errorf("failed to read track: %w", err)
		}
		if n == 0 {
			emptyReads++
			if emptyReads >= maxEmptyReads {
				return queued, fmt.Errorf("failed to read track: %w", io.ErrNoProgress)
			}
		}
	}

	if len(pending) > 0 {
		tail := len(pending) / p.format.Channels
		if p.format.Codec == "opus" {
			// Opus needs whole frames; pad with silence
			pending = append(pending, make([]int32, chunk-len(pending))...)
		}
		if err := p.emit(ctx, pending, queueID); err != nil {
			return queued, err
		}
		queued += int64(tail)
	}

	return queued, nil
}

func (p *Packetizer) emit(ctx context.Context, samples []int32, queueID int) error {
	data, err := p.encoder.Encode(samples)
	if err != nil {
		return fmt.Errorf("failed to encode packet: %w", err)
	}

	if err := p.queue.PushAudio(ctx, data, p.pts, p.tb, queueID); err != nil {
		return err
	}

	p.pts += int64(len(samples) / p.format.Channels)
	p.packets.Add(1)
	p.bytes.Add(int64(len(data)))
	return nil
}

// Close releases the encoder
func (p *Packetizer) Close() error {
	return p.encoder.Close()
}

// remix converts interleaved samples between channel counts.
// Downmixing to mono averages; other conversions map channels by index.
func remix(samples []int32, in, out int) []int32 {
	if in == out {
		return samples
	}

	frames := len(samples) / in
	result := make([]int32, frames*out)
	for f := 0; f < frames; f++ {
		src := samples[f*in : (f+1)*in]
		if out == 1 {
			var sum int64
			for _, s := range src {
				sum += int64(s)
			}
			result[f] = int32(sum / int64(in))
			continue
		}
		for ch := 0; ch < out; ch++ {
			result[f*out+ch] = src[min(ch, in-1)]
		}
	}
	return result
}
