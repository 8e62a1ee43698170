package audio

import (
	"context"
	"fmt"
	"time"
)

// Fixed PCM stream format. Everything downstream of capture, from the
// ring buffer to the WAV wrapper, assumes this layout.
const (
	DefaultSampleRate = 44100 // Hz
	DefaultChannels   = 1     // mono
	DefaultBitDepth   = 16    // signed little-endian
)

// Backend names accepted by NewCapturer
const (
	BackendPipe  = "pipe"  // external capture process on stdout
	BackendMalgo = "malgo" // in-process miniaudio capture
)

// CaptureConfig holds configuration for audio capture
type CaptureConfig struct {
	// SampleRate is the number of samples per second (Hz)
	SampleRate uint32

	// Channels is the number of audio channels (1 = mono)
	Channels uint32

	// BitDepth is the number of bits per sample
	BitDepth uint32

	// WindowSeconds is how much trailing audio the ring buffer keeps
	WindowSeconds int

	// ChunkFrames is the number of frames read from the source per
	// chunk. 4410 frames is 100ms at 44.1kHz.
	ChunkFrames uint32

	// SampleBufferSize is the size of the channel buffer for audio
	// chunks between the capturer and the session pump
	SampleBufferSize int

	// Backend selects the capture implementation (pipe or malgo)
	Backend string

	// Device is the capture device name. Empty means the system
	// default device, which is what the input routing points at.
	Device string

	// Command overrides the capture process invocation for the pipe
	// backend: first element is the binary, the rest its arguments.
	// The process must emit raw PCM in the configured format on
	// stdout.
	Command []string

	// StopTimeout bounds how long Stop waits for the capture process
	// to exit before killing it
	StopTimeout time.Duration
}

// DefaultConfig returns the capture configuration for song
// identification: CD-rate mono with a 12 second window
func DefaultConfig() CaptureConfig {
	return CaptureConfig{
		SampleRate:       DefaultSampleRate,
		Channels:         DefaultChannels,
		BitDepth:         DefaultBitDepth,
		WindowSeconds:    12,
		ChunkFrames:      4410, // 100ms
		SampleBufferSize: 32,
		Backend:          BackendPipe,
		StopTimeout:      5 * time.Second,
	}
}

// BytesPerFrame returns the size of one frame across all channels
func (c CaptureConfig) BytesPerFrame() int {
	return int(c.Channels) * int(c.BitDepth) / 8
}

// BytesPerSecond returns the stream rate in bytes
func (c CaptureConfig) BytesPerSecond() int {
	return int(c.SampleRate) * c.BytesPerFrame()
}

// WindowBytes returns the ring buffer capacity for this format
func (c CaptureConfig) WindowBytes() int {
	return c.BytesPerSecond() * c.WindowSeconds
}

// ChunkBytes returns the read size for one capture chunk
func (c CaptureConfig) ChunkBytes() int {
	return int(c.ChunkFrames) * c.BytesPerFrame()
}

// AudioSample represents a chunk of captured audio data
type AudioSample struct {
	Data      []byte    // Raw audio data
	Timestamp time.Time // When the chunk was read
	Frames    uint32    // Number of audio frames in this chunk
}

// Capturer is the interface for audio capture implementations
type Capturer interface {
	// Start begins audio capture
	Start(ctx context.Context) error

	// Stop stops audio capture
	Stop() error

	// Samples returns a channel that receives audio chunks
	Samples() <-chan AudioSample

	// Errors returns a channel that receives capture errors
	Errors() <-chan error

	// IsRunning returns true if capture is currently active
	IsRunning() bool
}

// NewCapturer creates an audio capturer for the configured backend
func NewCapturer(config CaptureConfig) (Capturer, error) {
	switch config.Backend {
	case "", BackendPipe:
		return NewPipeCapturer(config)
	case BackendMalgo:
		return NewMalgoCapturer(config)
	default:
		return nil, fmt.Errorf("unknown capture backend: %s (valid: %s, %s)",
			config.Backend, BackendPipe, BackendMalgo)
	}
}
