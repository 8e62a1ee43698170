package audio

import (
	"fmt"
	"sync"
)

// RingBuffer holds the most recent window of a continuous PCM stream.
// Writes overwrite the oldest audio once the window is full, so the
// buffer always contains the last Capacity() bytes that arrived.
// Snapshot returns those bytes in chronological order.
type RingBuffer struct {
	mu       sync.Mutex
	buffer   []byte
	writePos int
	written  uint64
}

// NewRingBuffer creates a ring buffer holding size bytes of audio
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		panic(fmt.Sprintf("audio: invalid ring buffer size %d", size))
	}
	return &RingBuffer{
		buffer: make([]byte, size),
	}
}

// Write copies data into the buffer, overwriting the oldest bytes when
// the window is full. It never fails and always consumes the whole
// chunk, so RingBuffer satisfies io.Writer.
func (rb *RingBuffer) Write(data []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	n := len(data)
	if n == 0 {
		return 0, nil
	}

	size := len(rb.buffer)
	if n >= size {
		// The chunk laps the entire window; only its final size bytes
		// survive. The write position still advances as if every byte
		// had been written one at a time.
		pos := (rb.writePos + n) % size
		tail := data[n-size:]
		m := copy(rb.buffer[pos:], tail)
		copy(rb.buffer[:pos], tail[m:])
		rb.writePos = pos
		rb.written += uint64(n)
		return n, nil
	}

	m := copy(rb.buffer[rb.writePos:], data)
	if m < n {
		copy(rb.buffer, data[m:])
	}
	rb.writePos = (rb.writePos + n) % size
	rb.written += uint64(n)
	return n, nil
}

// Snapshot returns a copy of the window in chronological order: the
// oldest byte first, the most recently written byte last. The result
// always has exactly Capacity() bytes; if less than a full window has
// been written so far the leading bytes are zero.
func (rb *RingBuffer) Snapshot() []byte {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	out := make([]byte, len(rb.buffer))
	n := copy(out, rb.buffer[rb.writePos:])
	copy(out[n:], rb.buffer[:rb.writePos])
	return out
}

// Capacity returns the size of the window in bytes
func (rb *RingBuffer) Capacity() int {
	return len(rb.buffer)
}

// Written returns the total number of bytes written since creation or
// the last Reset
func (rb *RingBuffer) Written() uint64 {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.written
}

// Fill returns how much of the window holds real audio, from 0.0 for
// an empty buffer to 1.0 once a full window has been written
func (rb *RingBuffer) Fill() float64 {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.written >= uint64(len(rb.buffer)) {
		return 1.0
	}
	return float64(rb.written) / float64(len(rb.buffer))
}

// Reset clears the buffer back to silence
func (rb *RingBuffer) Reset() {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	for i := range rb.buffer {
		rb.buffer[i] = 0
	}
	rb.writePos = 0
	rb.written = 0
}
