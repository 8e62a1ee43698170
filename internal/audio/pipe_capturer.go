package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"
)

// ErrCaptureExited is delivered on the error channel when the capture
// process dies while a session is still running.
var ErrCaptureExited = errors.New("audio: capture process exited")

// PipeCapturer implements the Capturer interface by spawning an
// external capture utility once per session and reading the unbounded
// raw PCM stream it writes to stdout. The process is started with the
// configured sample format and reads the system default input device,
// so device routing decides what it hears.
type PipeCapturer struct {
	config  CaptureConfig
	command CaptureCommand

	cmd     *exec.Cmd
	stdout  io.ReadCloser
	samples chan AudioSample
	errors  chan error
	waitErr chan error

	mu       sync.RWMutex
	running  bool
	stopping bool
	wg       sync.WaitGroup
}

// NewPipeCapturer creates a subprocess-based audio capturer
func NewPipeCapturer(config CaptureConfig) (*PipeCapturer, error) {
	if config.ChunkFrames == 0 {
		return nil, fmt.Errorf("chunk frames must be positive")
	}
	bufSize := config.SampleBufferSize
	if bufSize <= 0 {
		bufSize = 32
	}
	return &PipeCapturer{
		config:  config,
		command: captureCommand(config),
		samples: make(chan AudioSample, bufSize),
		errors:  make(chan error, 8),
		waitErr: make(chan error, 1),
	}, nil
}

// Command returns the resolved capture command line, for logging
func (p *PipeCapturer) Command() CaptureCommand {
	return p.command
}

// Start spawns the capture process and begins reading chunks from its
// stdout. A spawn failure is returned immediately; it is fatal for the
// session, there is no retry.
func (p *PipeCapturer) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("capturer is already running")
	}
	p.running = true
	p.mu.Unlock()

	cmd := exec.Command(p.command.Binary, p.command.Args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		p.setRunning(false)
		return fmt.Errorf("failed to open capture pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		p.setRunning(false)
		return fmt.Errorf("failed to start %s: %w", p.command.Binary, err)
	}
	p.cmd = cmd
	p.stdout = stdout

	// Wait only after the read loop has drained stdout. Wait closes
	// the pipe, discarding anything unread.
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.readLoop(ctx)
		err := cmd.Wait()
		p.waitErr <- err
		if !p.isStopping() {
			p.sendError(fmt.Errorf("%w: %v", ErrCaptureExited, exitReason(err)))
		}
	}()

	return nil
}

// readLoop reads fixed-size chunks off the pipe and forwards them in
// arrival order. It returns when the stream ends or the context is
// cancelled.
func (p *PipeCapturer) readLoop(ctx context.Context) {
	chunkBytes := p.config.ChunkBytes()
	buf := make([]byte, chunkBytes)

	for {
		if ctx.Err() != nil {
			return
		}

		n, err := p.stdout.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			sample := AudioSample{
				Data:      data,
				Timestamp: time.Now(),
				Frames:    uint32(n / p.config.BytesPerFrame()),
			}
			select {
			case p.samples <- sample:
			default:
				p.sendError(fmt.Errorf("sample buffer overflow, dropping %d frames", sample.Frames))
			}
		}
		if err != nil {
			// EOF means the process closed stdout; the Wait that
			// follows reports the death if it was not requested.
			return
		}
	}
}

// Stop terminates the capture process: interrupt first, then a bounded
// wait, then a hard kill. Safe to call more than once.
func (p *PipeCapturer) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.stopping = true
	p.mu.Unlock()

	var stopErr error
	if p.cmd != nil && p.cmd.Process != nil {
		if err := p.cmd.Process.Signal(os.Interrupt); err != nil && !errors.Is(err, os.ErrProcessDone) {
			stopErr = err
		}

		timeout := p.config.StopTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}

		select {
		case <-p.waitErr:
			stopErr = nil
		case <-time.After(timeout):
			if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				stopErr = fmt.Errorf("failed to kill capture process: %w", err)
			}
			<-p.waitErr
		}
	}

	p.wg.Wait()
	close(p.samples)
	close(p.errors)

	return stopErr
}

// Samples returns a channel that receives audio chunks
func (p *PipeCapturer) Samples() <-chan AudioSample {
	return p.samples
}

// Errors returns a channel that receives capture errors
func (p *PipeCapturer) Errors() <-chan error {
	return p.errors
}

// IsRunning returns true if capture is currently active
func (p *PipeCapturer) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

func (p *PipeCapturer) setRunning(v bool) {
	p.mu.Lock()
	p.running = v
	p.mu.Unlock()
}

func (p *PipeCapturer) isStopping() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stopping
}

func (p *PipeCapturer) sendError(err error) {
	select {
	case p.errors <- err:
	default:
	}
}

// exitReason renders a Wait error; sox and arecord exit nonzero on
// SIGINT, which is not worth a scary message.
func exitReason(err error) string {
	if err == nil {
		return "exit status 0"
	}
	return err.Error()
}
