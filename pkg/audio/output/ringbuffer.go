// ABOUTME: Thread-safe ring buffer between writers and device callbacks
// ABOUTME: Writers block while full; readers zero-fill on underrun
package output

import (
	"sync"
)

// RingBuffer provides thread-safe circular buffer for audio samples
type RingBuffer struct {
	buffer   []int32
	readPos  int
	writePos int
	size     int
	count    int // Number of samples currently in buffer
	closed   bool

	underruns int64
	mu        sync.Mutex
	space     *sync.Cond
}

// NewRingBuffer creates a ring buffer with given capacity (in samples)
func NewRingBuffer(capacity int) *RingBuffer {
	rb := &RingBuffer{
		buffer: make([]int32, capacity),
		size:   capacity,
	}
	rb.space = sync.NewCond(&rb.mu)
	return rb
}

// Write adds as many samples as fit and returns how many were written
func (rb *RingBuffer) Write(samples []int32) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.write(samples)
}

func (rb *RingBuffer) write(samples []int32) int {
	written := 0
	for i := 0; i < len(samples) && rb.count < rb.size; i++ {
		rb.buffer[rb.writePos] = samples[i]
		rb.writePos = (rb.writePos + 1) % rb.size
		rb.count++
		written++
	}
	return written
}

// WriteAll blocks until every sample is buffered or the buffer is closed.
// It returns false if the buffer was closed first.
func (rb *RingBuffer) WriteAll(samples []int32) bool {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	for len(samples) > 0 {
		if rb.closed {
			return false
		}
		n := rb.write(samples)
		samples = samples[n:]
		if n == 0 {
			rb.space.Wait()
		}
	}
	return true
}

// Read retrieves samples from the ring buffer
func (rb *RingBuffer) Read(samples []int32) int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	read := 0
	for i := 0; i < len(samples) && rb.count > 0; i++ {
		samples[i] = rb.buffer[rb.readPos]
		rb.readPos = (rb.readPos + 1) % rb.size
		rb.count--
		read++
	}

	// Zero-fill remaining if underrun
	for i := read; i < len(samples); i++ {
		samples[i] = 0
	}
	if read < len(samples) && read > 0 {
		rb.underruns++
	}

	if read > 0 {
		rb.space.Broadcast()
	}
	return read
}

// Available returns the number of samples available to read
func (rb *RingBuffer) Available() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}

// Free returns the number of free slots in the buffer
func (rb *RingBuffer) Free() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.size - rb.count
}

// Underruns returns how many reads ran dry part way through
func (rb *RingBuffer) Underruns() int64 {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.underruns
}

// Close wakes blocked writers; later WriteAll calls return false
func (rb *RingBuffer) Close() {
	rb.mu.Lock()
	rb.closed = true
	rb.mu.Unlock()
	rb.space.Broadcast()
}
