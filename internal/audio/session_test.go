package audio

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCapturer feeds scripted chunks through the Capturer interface
type fakeCapturer struct {
	samples  chan AudioSample
	errs     chan error
	startErr error

	mu       sync.Mutex
	running  bool
	stopped  int
}

func newFakeCapturer() *fakeCapturer {
	return &fakeCapturer{
		samples: make(chan AudioSample, 16),
		errs:    make(chan error, 4),
	}
}

func (f *fakeCapturer) Start(ctx context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.mu.Lock()
	f.running = true
	f.mu.Unlock()
	return nil
}

func (f *fakeCapturer) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running {
		return nil
	}
	f.running = false
	f.stopped++
	close(f.samples)
	close(f.errs)
	return nil
}

func (f *fakeCapturer) Samples() <-chan AudioSample { return f.samples }
func (f *fakeCapturer) Errors() <-chan error        { return f.errs }

func (f *fakeCapturer) IsRunning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *fakeCapturer) stopCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

func (f *fakeCapturer) emit(data []byte) {
	f.samples <- AudioSample{Data: data, Timestamp: time.Now(), Frames: uint32(len(data) / 2)}
}

func TestSessionPumpsChunksInOrder(t *testing.T) {
	fake := newFakeCapturer()
	ring := NewRingBuffer(8)
	session := NewCaptureSession(fake, ring)

	require.NoError(t, session.Start(context.Background()))
	assert.Equal(t, SessionRunning, session.State())

	fake.emit([]byte{1, 2, 3, 4})
	fake.emit([]byte{5, 6, 7, 8, 9})

	require.Eventually(t, func() bool {
		return ring.Written() == 9
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []byte{2, 3, 4, 5, 6, 7, 8, 9}, session.Snapshot())

	status := session.Status()
	assert.Equal(t, 1.0, status.BufferFill)
	assert.False(t, status.LastChunk.IsZero())
	assert.False(t, status.Stale(time.Minute))

	require.NoError(t, session.Stop())
	assert.Equal(t, SessionStopped, session.State())
}

func TestSessionSpawnFailureIsFatal(t *testing.T) {
	fake := newFakeCapturer()
	fake.startErr = errors.New("sox: command not found")

	session := NewCaptureSession(fake, NewRingBuffer(8))
	err := session.Start(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSpawn))
	assert.Equal(t, SessionStopped, session.State())
}

func TestSessionDoubleStart(t *testing.T) {
	fake := newFakeCapturer()
	session := NewCaptureSession(fake, NewRingBuffer(8))

	require.NoError(t, session.Start(context.Background()))
	assert.Error(t, session.Start(context.Background()))

	session.Stop()
}

func TestSessionStopIsIdempotent(t *testing.T) {
	fake := newFakeCapturer()
	session := NewCaptureSession(fake, NewRingBuffer(8))

	require.NoError(t, session.Start(context.Background()))
	require.NoError(t, session.Stop())
	require.NoError(t, session.Stop())

	assert.Equal(t, 1, fake.stopCount())
}

func TestSessionRecordsCaptureErrors(t *testing.T) {
	fake := newFakeCapturer()
	session := NewCaptureSession(fake, NewRingBuffer(8))

	require.NoError(t, session.Start(context.Background()))

	fake.errs <- errors.New("stream broke")

	require.Eventually(t, func() bool {
		return session.Status().LastError != nil
	}, time.Second, 5*time.Millisecond)

	// The session survives the error; it is degraded, not dead
	assert.Equal(t, SessionRunning, session.State())

	session.Stop()
}

func TestSessionStatusStale(t *testing.T) {
	fake := newFakeCapturer()
	session := NewCaptureSession(fake, NewRingBuffer(8))

	// Idle sessions are always stale
	assert.True(t, session.Status().Stale(time.Minute))

	require.NoError(t, session.Start(context.Background()))
	// Running but silent: stale until the first chunk lands
	assert.True(t, session.Status().Stale(time.Minute))

	fake.emit([]byte{1, 2})
	require.Eventually(t, func() bool {
		return !session.Status().Stale(time.Minute)
	}, time.Second, 5*time.Millisecond)

	session.Stop()
	assert.True(t, session.Status().Stale(time.Minute))
}
