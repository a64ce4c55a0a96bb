// ABOUTME: Packet-to-frame decoder adapter
// ABOUTME: Pulls packets from a queue, drives an engine and emits rebased frames
package decode

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/Sendspin/audiobob/pkg/audio"
	"github.com/Sendspin/audiobob/pkg/audio/packet"
)

var (
	// ErrEndOfStream is returned once the source is closed and drained.
	// It is terminal: every later call returns it again.
	ErrEndOfStream = errors.New("decode: end of stream")
	// ErrNoData is returned by PollFrame when the source is empty but still open
	ErrNoData = errors.New("decode: no data available")
	// ErrEngineFailure wraps engine errors the decoder cannot recover from
	ErrEngineFailure = errors.New("decode: engine failure")
	// ErrDecoderClosed is returned after Close
	ErrDecoderClosed = errors.New("decode: decoder closed")
)

// Source is the consumer side of a packet queue
type Source interface {
	// Pop blocks until a packet is available; packet.ErrClosed once drained
	Pop(ctx context.Context) (packet.Packet, error)
	// TryPop returns immediately; ok is false when nothing is queued
	TryPop() (p packet.Packet, ok bool, err error)
}

// State is the position of the decoder in its pull/decode cycle
type State int32

const (
	StateEmpty    State = iota // no held packet
	StateHolding               // cursor has unconsumed bytes
	StateDraining              // cursor exhausted, engine may still emit
	StateFlushing              // flush marker observed, baseline being reset
	StateClosed                // source exhausted, terminal
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateHolding:
		return "holding"
	case StateDraining:
		return "draining"
	case StateFlushing:
		return "flushing"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// DecoderConfig holds PacketDecoder configuration
type DecoderConfig struct {
	// InitialTimestamp and InitialTimeBase anchor playback time after a
	// flush. When the time base is not valid or the timestamp is
	// audio.NoTimestamp, the first audio packet provides the baseline.
	InitialTimestamp int64
	InitialTimeBase  audio.Rational
}

// DecoderStats tracks decoder metrics
type DecoderStats struct {
	PacketsPulled  int64
	PacketsSkipped int64
	FramesDecoded  int64
	SamplesDecoded int64
	Flushes        int64
}

// PacketDecoder adapts a packet queue to a pull-based frame interface.
//
// The engine is borrowed: it must outlive the decoder and is never closed by
// it. A PacketDecoder is not safe for concurrent use, except for
// LastQueueID, State and Stats which may be read from any goroutine.
// In particular Close must not run while FillFrame or PollFrame does.
type PacketDecoder struct {
	engine Engine
	src    Source

	holding bool
	pkt     packet.Packet
	cursor  packet.Cursor
	ptsTB   audio.Rational

	hasBaseline bool
	initialTS   int64
	initialTB   audio.Rational
	nextTS      int64
	nextTB      audio.Rational

	// offset maps engine timestamps onto the running timeline; set by the
	// first timestamped unit after construction or flush
	anchored bool
	offset   int64

	lastQueueID atomic.Int64
	state       atomic.Int32
	closed      bool

	packetsPulled  atomic.Int64
	packetsSkipped atomic.Int64
	framesDecoded  atomic.Int64
	samplesDecoded atomic.Int64
	flushes        atomic.Int64
}

// NewPacketDecoder binds a decoder to one engine and one packet source
func NewPacketDecoder(engine Engine, src Source, cfg DecoderConfig) (*PacketDecoder, error) {
	if engine == nil {
		return nil, fmt.Errorf("%w: nil engine", ErrEngineFailure)
	}
	if src == nil {
		return nil, errors.New("decode: nil packet source")
	}

	d := &PacketDecoder{
		engine: engine,
		src:    src,
	}
	if cfg.InitialTimeBase.Valid() && cfg.InitialTimestamp != audio.NoTimestamp {
		d.setBaseline(cfg.InitialTimestamp, cfg.InitialTimeBase)
	}
	return d, nil
}

// FillFrame decodes the next frame into frame, blocking on the source as
// needed. It returns the per-channel sample count of the frame.
func (d *PacketDecoder) FillFrame(ctx context.Context, frame *audio.Frame) (int, error) {
	return d.fill(ctx, frame, true)
}

// PollFrame is FillFrame without blocking: it returns ErrNoData when the
// source is starved. Partial progress is kept for the next call.
func (d *PacketDecoder) PollFrame(frame *audio.Frame) (int, error) {
	return d.fill(context.Background(), frame, false)
}

// LastQueueID returns the queue id of the most recently pulled audio packet
func (d *PacketDecoder) LastQueueID() int {
	return int(d.lastQueueID.Load())
}

// State returns the current decoder state
func (d *PacketDecoder) State() State {
	return State(d.state.Load())
}

// Stats returns decoder statistics
func (d *PacketDecoder) Stats() DecoderStats {
	return DecoderStats{
		PacketsPulled:  d.packetsPulled.Load(),
		PacketsSkipped: d.packetsSkipped.Load(),
		FramesDecoded:  d.framesDecoded.Load(),
		SamplesDecoded: d.samplesDecoded.Load(),
		Flushes:        d.flushes.Load(),
	}
}

// Close releases the held packet and drops the engine and source references.
// The caller must make sure no FillFrame or PollFrame call is in progress.
func (d *PacketDecoder) Close() error {
	d.release()
	d.engine = nil
	d.src = nil
	d.closed = true
	return nil
}

func (d *PacketDecoder) fill(ctx context.Context, frame *audio.Frame, block bool) (int, error) {
	if d.closed {
		return 0, ErrDecoderClosed
	}
	if d.State() == StateClosed {
		return 0, ErrEndOfStream
	}
	if d.engine == nil {
		return 0, fmt.Errorf("%w: no engine", ErrEngineFailure)
	}

	for {
		if !d.holding {
			p, err := d.pull(ctx, block)
			if err != nil {
				return 0, err
			}

			switch p.Kind {
			case packet.KindFlush:
				if err := d.flush(); err != nil {
					return 0, err
				}
				continue
			case packet.KindClose:
				d.finish()
				return 0, ErrEndOfStream
			}

			d.hold(p)
		}

		pts := audio.NoTimestamp
		if d.cursor.Offset() == 0 {
			pts = d.pkt.PTS
		}
		var data []byte
		if d.cursor.Remaining() > 0 {
			data = d.cursor.Bytes()
		}

		n, err := d.engine.Send(data, pts, d.ptsTB)
		if err != nil {
			if errors.Is(err, ErrInvalidData) {
				d.skip(err, false)
				continue
			}
			return 0, d.fatal(err)
		}
		d.cursor.Advance(n)
		if d.cursor.Remaining() == 0 {
			d.setState(StateDraining)
		}

		unit, err := d.engine.Receive()
		switch {
		case err == nil:
			if unit.SampleRate <= 0 || unit.Channels <= 0 {
				d.skip(fmt.Errorf("%w: unit without format (%dHz %dch)", ErrInvalidData, unit.SampleRate, unit.Channels), false)
				continue
			}
			return d.emit(unit, frame), nil

		case errors.Is(err, ErrNeedMoreInput):
			if d.cursor.Remaining() == 0 {
				d.release()
			} else if n == 0 {
				d.skip(fmt.Errorf("%w: engine stalled with %d bytes left", ErrInvalidData, d.cursor.Remaining()), true)
			}
			continue

		case errors.Is(err, ErrInvalidData):
			d.skip(err, false)
			continue

		default:
			return 0, d.fatal(err)
		}
	}
}

// pull takes the next entry from the source
func (d *PacketDecoder) pull(ctx context.Context, block bool) (packet.Packet, error) {
	var (
		p   packet.Packet
		ok  bool
		err error
	)

	if block {
		p, err = d.src.Pop(ctx)
	} else {
		p, ok, err = d.src.TryPop()
		if err == nil && !ok {
			return p, ErrNoData
		}
	}

	if err != nil {
		if errors.Is(err, packet.ErrClosed) {
			d.finish()
			return p, ErrEndOfStream
		}
		return p, err
	}
	return p, nil
}

// hold makes p the packet being decoded
func (d *PacketDecoder) hold(p packet.Packet) {
	if !d.hasBaseline {
		ts, tb := p.PTS, p.TimeBase
		if !tb.Valid() {
			tb = audio.TimeBaseMillis
		}
		if ts == audio.NoTimestamp {
			ts = 0
		}
		d.setBaseline(ts, tb)
	}

	d.lastQueueID.Store(int64(p.QueueID))
	d.packetsPulled.Add(1)

	d.pkt = p
	d.cursor = packet.NewCursor(p)
	d.holding = true
	if p.TimeBase.Valid() {
		d.ptsTB = p.TimeBase
	}
	d.setState(StateHolding)
}

// release drops the held packet
func (d *PacketDecoder) release() {
	d.pkt = packet.Packet{}
	d.cursor = packet.Cursor{}
	d.holding = false
	if d.State() != StateClosed {
		d.setState(StateEmpty)
	}
}

// skip discards the held packet after a decode error
func (d *PacketDecoder) skip(err error, resetEngine bool) {
	log.Printf("Skipping packet (queue %d, %d bytes): %v", d.pkt.QueueID, d.pkt.Len(), err)
	d.packetsSkipped.Add(1)
	d.release()

	if resetEngine {
		if ferr := d.engine.Flush(); ferr != nil {
			log.Printf("Engine reset after skip failed: %v", ferr)
		}
	}
}

// flush handles a flush marker: engine state and the running timeline are reset
func (d *PacketDecoder) flush() error {
	d.setState(StateFlushing)
	d.release()
	d.setState(StateFlushing)

	if err := d.engine.Flush(); err != nil {
		return d.fatal(err)
	}

	if d.hasBaseline {
		d.nextTS, d.nextTB = d.initialTS, d.initialTB
	}
	d.anchored = false
	d.offset = 0
	d.flushes.Add(1)

	d.setState(StateEmpty)
	return nil
}

// finish moves the decoder to its terminal state
func (d *PacketDecoder) finish() {
	d.setState(StateClosed)
	d.release()
}

func (d *PacketDecoder) fatal(err error) error {
	return fmt.Errorf("%w: %w", ErrEngineFailure, err)
}

func (d *PacketDecoder) setBaseline(ts int64, tb audio.Rational) {
	d.hasBaseline = true
	d.initialTS, d.initialTB = ts, tb
	d.nextTS, d.nextTB = ts, tb
}

func (d *PacketDecoder) setState(s State) {
	d.state.Store(int32(s))
}

// emit rebases the unit onto the running timeline and writes it into frame.
//
// The running time base is 1/SampleRate. The first timestamped unit after
// construction or a flush fixes the offset between engine time and running
// time, so it lands exactly on the baseline; later units keep their spacing
// but are never placed before the end of the previous frame.
func (d *PacketDecoder) emit(unit Unit, frame *audio.Frame) int {
	runTB := audio.SampleTimeBase(unit.SampleRate)
	next := audio.Rescale(d.nextTS, d.nextTB, runTB)

	ptsTB := unit.TimeBase
	if !ptsTB.Valid() {
		ptsTB = d.ptsTB
	}

	ts := next
	if unit.PTS != audio.NoTimestamp {
		if raw := audio.Rescale(unit.PTS, ptsTB, runTB); raw != audio.NoTimestamp {
			if !d.anchored {
				d.offset = next - raw
				d.anchored = true
			}
			ts = max(raw+d.offset, next)
		}
	}

	frame.Samples = append(frame.Samples[:0], unit.Samples...)
	frame.SampleCount = unit.SampleCount
	frame.Channels = unit.Channels
	frame.SampleRate = unit.SampleRate
	frame.Timestamp = ts
	frame.TimeBase = runTB

	d.nextTS = ts + int64(unit.SampleCount)
	d.nextTB = runTB

	d.framesDecoded.Add(1)
	d.samplesDecoded.Add(int64(unit.SampleCount))
	return unit.SampleCount
}
