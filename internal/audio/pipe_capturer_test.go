package audio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipeTestConfig(command ...string) CaptureConfig {
	cfg := DefaultConfig()
	cfg.WindowSeconds = 1
	cfg.ChunkFrames = 128
	cfg.Command = command
	cfg.StopTimeout = 2 * time.Second
	return cfg
}

func collectPipeBytes(t *testing.T, p *PipeCapturer, want int) []byte {
	t.Helper()
	var got []byte
	deadline := time.After(3 * time.Second)
	for len(got) < want {
		select {
		case s, ok := <-p.Samples():
			if !ok {
				t.Fatalf("samples channel closed after %d of %d bytes", len(got), want)
			}
			assert.Equal(t, uint32(len(s.Data)/2), s.Frames)
			got = append(got, s.Data...)
		case <-deadline:
			t.Fatalf("timed out after %d of %d bytes", len(got), want)
		}
	}
	return got
}

func waitPipeError(t *testing.T, p *PipeCapturer) error {
	t.Helper()
	select {
	case err := <-p.Errors():
		return err
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for a capture error")
		return nil
	}
}

func TestPipeCapturerReadsProcessOutput(t *testing.T) {
	p, err := NewPipeCapturer(pipeTestConfig("head", "-c", "600", "/dev/zero"))
	require.NoError(t, err)
	assert.Equal(t, "head", p.Command().Binary)

	require.NoError(t, p.Start(context.Background()))
	assert.True(t, p.IsRunning())

	got := collectPipeBytes(t, p, 600)
	assert.Equal(t, make([]byte, 600), got)

	// The finite source exiting mid-session is an unexpected death
	err = waitPipeError(t, p)
	assert.True(t, errors.Is(err, ErrCaptureExited), "got: %v", err)

	require.NoError(t, p.Stop())
	assert.False(t, p.IsRunning())
	for range p.Samples() {
	}
}

func TestPipeCapturerStopInterruptsProcess(t *testing.T) {
	p, err := NewPipeCapturer(pipeTestConfig("cat", "/dev/zero"))
	require.NoError(t, err)

	require.NoError(t, p.Start(context.Background()))
	collectPipeBytes(t, p, 1)

	require.NoError(t, p.Stop())
	assert.False(t, p.IsRunning())
	for range p.Samples() {
	}
}

func TestPipeCapturerStopEscalatesToKill(t *testing.T) {
	cfg := pipeTestConfig("sh", "-c", "trap '' INT; exec cat /dev/zero")
	cfg.StopTimeout = 300 * time.Millisecond

	p, err := NewPipeCapturer(cfg)
	require.NoError(t, err)

	require.NoError(t, p.Start(context.Background()))
	collectPipeBytes(t, p, 1)

	require.NoError(t, p.Stop())
	assert.False(t, p.IsRunning())
}

func TestPipeCapturerSpawnFailure(t *testing.T) {
	p, err := NewPipeCapturer(pipeTestConfig("/nonexistent/capture-util"))
	require.NoError(t, err)

	err = p.Start(context.Background())
	require.Error(t, err)
	assert.False(t, p.IsRunning())
}

func TestPipeCapturerRejectsZeroChunk(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ChunkFrames = 0
	_, err := NewPipeCapturer(cfg)
	assert.Error(t, err)
}

func TestPipeCapturerDoubleStart(t *testing.T) {
	p, err := NewPipeCapturer(pipeTestConfig("cat", "/dev/zero"))
	require.NoError(t, err)

	require.NoError(t, p.Start(context.Background()))
	assert.Error(t, p.Start(context.Background()))

	require.NoError(t, p.Stop())
}
