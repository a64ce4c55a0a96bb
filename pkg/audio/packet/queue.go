// ABOUTME: Blocking packet queue between the producer and the decoder
// ABOUTME: Channel-backed with an explicit closed state and in-band markers
package packet

import (
	"context"
	"errors"
	"sync"

	"github.com/Sendspin/audiobob/pkg/audio"
)

// ErrClosed is returned by Push after Close and by Pop once a closed queue is drained
var ErrClosed = errors.New("packet queue closed")

// DefaultCapacity is the queue size used when NewQueue gets a non-positive capacity
const DefaultCapacity = 64

// Queue is an ordered, bounded packet queue.
//
// Any number of goroutines may push; a single consumer is expected to pop.
// Closing the queue does not discard buffered packets: Pop keeps returning
// them and reports ErrClosed only when nothing is left.
type Queue struct {
	packets   chan Packet
	done      chan struct{}
	closeOnce sync.Once
}

// NewQueue creates a queue holding up to capacity packets
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{
		packets: make(chan Packet, capacity),
		done:    make(chan struct{}),
	}
}

// Push appends p, blocking while the queue is full
func (q *Queue) Push(ctx context.Context, p Packet) error {
	if q.Closed() {
		return ErrClosed
	}

	select {
	case q.packets <- p:
		return nil
	case <-q.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PushAudio appends an audio packet
func (q *Queue) PushAudio(ctx context.Context, data []byte, pts int64, tb audio.Rational, queueID int) error {
	return q.Push(ctx, Audio(data, pts, tb, queueID))
}

// Flush drops every queued audio packet and enqueues a flush marker.
// A queued close marker survives and is re-enqueued after the flush.
// It returns the number of dropped packets.
func (q *Queue) Flush(ctx context.Context) (int, error) {
	dropped := 0
	closing := false

drain:
	for {
		select {
		case p := <-q.packets:
			if p.Kind == KindClose {
				closing = true
				continue
			}
			dropped++
		default:
			break drain
		}
	}

	if err := q.Push(ctx, Flush()); err != nil {
		return dropped, err
	}
	if closing {
		return dropped, q.Push(ctx, Close())
	}
	return dropped, nil
}

// Finish enqueues a close marker behind everything already queued
func (q *Queue) Finish(ctx context.Context) error {
	return q.Push(ctx, Close())
}

// Pop removes the next packet, blocking until one is available, the queue
// is closed and drained, or ctx is done.
func (q *Queue) Pop(ctx context.Context) (Packet, error) {
	select {
	case p := <-q.packets:
		return p, nil
	case <-q.done:
		select {
		case p := <-q.packets:
			return p, nil
		default:
			return Packet{}, ErrClosed
		}
	case <-ctx.Done():
		return Packet{}, ctx.Err()
	}
}

// TryPop removes the next packet without blocking.
// ok is false when nothing is queued; err is ErrClosed when nothing ever will be.
func (q *Queue) TryPop() (p Packet, ok bool, err error) {
	select {
	case p = <-q.packets:
		return p, true, nil
	default:
	}

	if q.Closed() {
		return Packet{}, false, ErrClosed
	}
	return Packet{}, false, nil
}

// Len returns the number of queued packets
func (q *Queue) Len() int {
	return len(q.packets)
}

// Cap returns the queue capacity
func (q *Queue) Cap() int {
	return cap(q.packets)
}

// Close closes the queue. Further pushes fail; buffered packets still drain.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		close(q.done)
	})
}

// Closed reports whether Close was called
func (q *Queue) Closed() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}
