package audio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
)

// MalgoCapturer implements the Capturer interface with an in-process
// miniaudio capture device. It reads whatever device the OS considers
// default and does not need an external utility, but it also bypasses
// the routed loopback path, so it is mainly useful for microphone
// capture and for machines without sox or arecord.
type MalgoCapturer struct {
	config       CaptureConfig
	device       *malgo.Device
	malgoContext *malgo.AllocatedContext
	samples      chan AudioSample
	errors       chan error
	running      bool
	mu           sync.RWMutex
	stopChan     chan struct{}
}

// NewMalgoCapturer creates a new malgo-based audio capturer
func NewMalgoCapturer(config CaptureConfig) (*MalgoCapturer, error) {
	bufSize := config.SampleBufferSize
	if bufSize <= 0 {
		bufSize = 32
	}
	return &MalgoCapturer{
		config:   config,
		samples:  make(chan AudioSample, bufSize),
		errors:   make(chan error, 8),
		stopChan: make(chan struct{}),
	}, nil
}

// Start begins audio capture
func (m *MalgoCapturer) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("capturer is already running")
	}
	m.running = true
	m.mu.Unlock()

	malgoCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		m.setRunning(false)
		return fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	m.malgoContext = malgoCtx

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = m.config.Channels
	deviceConfig.SampleRate = m.config.SampleRate
	deviceConfig.PeriodSizeInFrames = m.config.ChunkFrames

	var callbacks malgo.DeviceCallbacks
	callbacks.Data = func(pOutputSample, pInputSamples []byte, framecount uint32) {
		// Copy out of the miniaudio-owned buffer before handing off
		data := make([]byte, len(pInputSamples))
		copy(data, pInputSamples)

		sample := AudioSample{
			Data:      data,
			Timestamp: time.Now(),
			Frames:    framecount,
		}

		select {
		case m.samples <- sample:
		default:
			select {
			case m.errors <- fmt.Errorf("sample buffer overflow, dropping %d frames", framecount):
			default:
			}
		}
	}

	device, err := malgo.InitDevice(m.malgoContext.Context, deviceConfig, callbacks)
	if err != nil {
		m.malgoContext.Uninit()
		m.malgoContext.Free()
		m.setRunning(false)
		return fmt.Errorf("failed to initialize capture device: %w", err)
	}
	m.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		m.malgoContext.Uninit()
		m.malgoContext.Free()
		m.setRunning(false)
		return fmt.Errorf("failed to start capture device: %w", err)
	}

	// Tie the device lifetime to the context. Not part of a wait
	// group: when the context itself triggers the stop, the goroutine
	// is inside Stop and must not be waited on there.
	go func() {
		select {
		case <-ctx.Done():
			m.Stop()
		case <-m.stopChan:
		}
	}()

	return nil
}

// Stop stops audio capture
func (m *MalgoCapturer) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	m.mu.Unlock()

	close(m.stopChan)

	if m.device != nil {
		if err := m.device.Stop(); err != nil {
			return fmt.Errorf("failed to stop capture device: %w", err)
		}
		m.device.Uninit()
	}

	if m.malgoContext != nil {
		m.malgoContext.Uninit()
		m.malgoContext.Free()
	}

	close(m.samples)
	close(m.errors)

	return nil
}

// Samples returns a channel that receives audio chunks
func (m *MalgoCapturer) Samples() <-chan AudioSample {
	return m.samples
}

// Errors returns a channel that receives capture errors
func (m *MalgoCapturer) Errors() <-chan error {
	return m.errors
}

// IsRunning returns true if capture is currently active
func (m *MalgoCapturer) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

func (m *MalgoCapturer) setRunning(v bool) {
	m.mu.Lock()
	m.running = v
	m.mu.Unlock()
}
