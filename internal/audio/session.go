package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/emmett/rewind/internal/log"
)

// ErrSpawn wraps capture start failures. Spawn failures are fatal for
// the session; there is no retry.
var ErrSpawn = errors.New("audio: failed to start capture")

// SessionState identifies the capture session lifecycle
type SessionState int

const (
	SessionIdle SessionState = iota
	SessionRunning
	SessionStopped
)

func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionRunning:
		return "running"
	case SessionStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// SessionStatus is a point-in-time view of a capture session
type SessionStatus struct {
	State        SessionState
	BufferFill   float64   // 0.0 to 1.0
	BytesWritten uint64    // total audio received
	LastChunk    time.Time // arrival time of the most recent chunk
	Level        float64   // RMS level of the most recent chunk, 0.0 to 1.0
	LastError    error     // most recent capture error, if any
}

// Stale reports whether the buffer has stopped receiving audio
func (s SessionStatus) Stale(maxAge time.Duration) bool {
	if s.State != SessionRunning {
		return true
	}
	if s.LastChunk.IsZero() {
		return s.BytesWritten == 0
	}
	return time.Since(s.LastChunk) > maxAge
}

// CaptureSession owns one capturer and one ring buffer and pumps every
// received chunk into the buffer, verbatim and in arrival order. The
// buffer therefore always holds the most recent window of the stream.
type CaptureSession struct {
	capturer Capturer
	ring     *RingBuffer

	mu        sync.Mutex
	state     SessionState
	lastChunk time.Time
	lastLevel float64
	lastErr   error
	wg        sync.WaitGroup
}

// NewCaptureSession creates a session feeding ring from capturer
func NewCaptureSession(capturer Capturer, ring *RingBuffer) *CaptureSession {
	return &CaptureSession{
		capturer: capturer,
		ring:     ring,
	}
}

// Start begins capture and the pump goroutine. Starting a session that
// is not idle is an error, as is a capture spawn failure.
func (s *CaptureSession) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != SessionIdle {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("capture session already %s", state)
	}
	s.state = SessionRunning
	s.mu.Unlock()

	if err := s.capturer.Start(ctx); err != nil {
		s.mu.Lock()
		s.state = SessionStopped
		s.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrSpawn, err)
	}

	s.wg.Add(1)
	go s.pump(ctx)

	return nil
}

// pump moves chunks from the capturer into the ring buffer until the
// capturer's channels close or the context is cancelled.
func (s *CaptureSession) pump(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case sample, ok := <-s.capturer.Samples():
			if !ok {
				return
			}
			s.ring.Write(sample.Data)
			s.mu.Lock()
			s.lastChunk = sample.Timestamp
			s.lastLevel = Level(sample.Data)
			s.mu.Unlock()

		case err, ok := <-s.capturer.Errors():
			if !ok {
				return
			}
			// Capture trouble degrades the session but never kills
			// it: the buffer simply stops refreshing and Status goes
			// stale.
			log.Warn("capture error", "error", err)
			s.mu.Lock()
			s.lastErr = err
			s.mu.Unlock()
		}
	}
}

// Stop ends capture and waits for the pump to drain. Idempotent.
func (s *CaptureSession) Stop() error {
	s.mu.Lock()
	if s.state != SessionRunning {
		s.mu.Unlock()
		return nil
	}
	s.state = SessionStopped
	s.mu.Unlock()

	err := s.capturer.Stop()
	s.wg.Wait()
	if err != nil {
		return fmt.Errorf("failed to stop capture: %w", err)
	}
	return nil
}

// Snapshot returns the current window in chronological order
func (s *CaptureSession) Snapshot() []byte {
	return s.ring.Snapshot()
}

// Status returns a point-in-time view of the session
func (s *CaptureSession) Status() SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	return SessionStatus{
		State:        s.state,
		BufferFill:   s.ring.Fill(),
		BytesWritten: s.ring.Written(),
		LastChunk:    s.lastChunk,
		Level:        s.lastLevel,
		LastError:    s.lastErr,
	}
}

// State returns the current lifecycle state
func (s *CaptureSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
