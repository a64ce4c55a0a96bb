// ABOUTME: Tests for the packet queue
// ABOUTME: Tests ordering, blocking, closing and flush markers
package packet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Sendspin/audiobob/pkg/audio"
)

func TestQueueOrder(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(8)

	for i := 1; i <= 3; i++ {
		if err := q.PushAudio(ctx, []byte{byte(i)}, int64(i), audio.TimeBase48kHz, i); err != nil {
			t.Fatalf("push %d failed: %v", i, err)
		}
	}
	if q.Len() != 3 {
		t.Errorf("expected 3 queued, got %d", q.Len())
	}

	for i := 1; i <= 3; i++ {
		p, err := q.Pop(ctx)
		if err != nil {
			t.Fatalf("pop failed: %v", err)
		}
		if p.QueueID != i {
			t.Errorf("expected queue id %d, got %d", i, p.QueueID)
		}
	}
}

func TestQueueDefaultCapacity(t *testing.T) {
	if c := NewQueue(0).Cap(); c != DefaultCapacity {
		t.Errorf("expected capacity %d, got %d", DefaultCapacity, c)
	}
}

func TestQueuePopBlocksUntilPush(t *testing.T) {
	q := NewQueue(1)
	got := make(chan Packet, 1)

	go func() {
		p, err := q.Pop(context.Background())
		if err == nil {
			got <- p
		}
	}()

	select {
	case <-got:
		t.Fatal("pop returned before anything was pushed")
	case <-time.After(20 * time.Millisecond):
	}

	if err := q.PushAudio(context.Background(), []byte{1}, 0, audio.TimeBase48kHz, 4); err != nil {
		t.Fatalf("push failed: %v", err)
	}

	select {
	case p := <-got:
		if p.QueueID != 4 {
			t.Errorf("expected queue id 4, got %d", p.QueueID)
		}
	case <-time.After(time.Second):
		t.Fatal("pop did not wake up after push")
	}
}

func TestQueueCloseDrainsBuffered(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(4)
	q.PushAudio(ctx, []byte{1}, 0, audio.TimeBase48kHz, 1)
	q.Close()

	if err := q.PushAudio(ctx, []byte{2}, 0, audio.TimeBase48kHz, 1); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed on push after close, got %v", err)
	}

	if _, err := q.Pop(ctx); err != nil {
		t.Fatalf("expected buffered packet after close, got %v", err)
	}
	if _, err := q.Pop(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed once drained, got %v", err)
	}
	if !q.Closed() {
		t.Error("expected Closed to report true")
	}
}

func TestQueueCloseWakesBlockedPop(t *testing.T) {
	q := NewQueue(1)
	errc := make(chan error, 1)

	go func() {
		_, err := q.Pop(context.Background())
		errc <- err
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case err := <-errc:
		if !errors.Is(err, ErrClosed) {
			t.Errorf("expected ErrClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("close did not wake blocked pop")
	}
}

func TestQueuePopContextCancel(t *testing.T) {
	q := NewQueue(1)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := q.Pop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestQueuePushBlocksWhenFull(t *testing.T) {
	q := NewQueue(1)
	ctx := context.Background()
	q.PushAudio(ctx, []byte{1}, 0, audio.TimeBase48kHz, 1)

	tctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	if err := q.PushAudio(tctx, []byte{2}, 0, audio.TimeBase48kHz, 1); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected push to block until deadline, got %v", err)
	}
}

func TestQueueTryPop(t *testing.T) {
	q := NewQueue(2)

	if _, ok, err := q.TryPop(); ok || err != nil {
		t.Errorf("expected empty queue, got ok=%v err=%v", ok, err)
	}

	q.PushAudio(context.Background(), []byte{1}, 0, audio.TimeBase48kHz, 3)
	p, ok, err := q.TryPop()
	if !ok || err != nil || p.QueueID != 3 {
		t.Errorf("expected queued packet, got %+v ok=%v err=%v", p, ok, err)
	}

	q.Close()
	if _, ok, err := q.TryPop(); ok || !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got ok=%v err=%v", ok, err)
	}
}

func TestQueueFlush(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(8)
	q.PushAudio(ctx, []byte{1}, 0, audio.TimeBase48kHz, 1)
	q.PushAudio(ctx, []byte{2}, 960, audio.TimeBase48kHz, 1)

	dropped, err := q.Flush(ctx)
	if err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if dropped != 2 {
		t.Errorf("expected 2 dropped packets, got %d", dropped)
	}

	p, _ := q.Pop(ctx)
	if p.Kind != KindFlush {
		t.Errorf("expected flush marker, got %v", p.Kind)
	}
	if q.Len() != 0 {
		t.Errorf("expected empty queue after flush marker, got %d", q.Len())
	}
}

func TestQueueFlushKeepsCloseMarker(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(8)
	q.PushAudio(ctx, []byte{1}, 0, audio.TimeBase48kHz, 1)
	q.Finish(ctx)

	if _, err := q.Flush(ctx); err != nil {
		t.Fatalf("flush failed: %v", err)
	}

	kinds := []Kind{}
	for q.Len() > 0 {
		p, _ := q.Pop(ctx)
		kinds = append(kinds, p.Kind)
	}
	if len(kinds) != 2 || kinds[0] != KindFlush || kinds[1] != KindClose {
		t.Errorf("expected [flush close], got %v", kinds)
	}
}
