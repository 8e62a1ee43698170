package input

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// StdinTrigger fires an identification event for every line read from
// its reader. It is the fallback for environments where a global
// hotkey cannot be registered, such as SSH sessions or containers.
type StdinTrigger struct {
	reader   io.Reader
	events   chan time.Time
	stopped  chan struct{}
	stopOnce sync.Once
}

// NewStdinTrigger creates a trigger reading from r. A nil reader reads
// from standard input.
func NewStdinTrigger(r io.Reader) *StdinTrigger {
	if r == nil {
		r = os.Stdin
	}
	return &StdinTrigger{
		reader:  r,
		events:  make(chan time.Time, 1),
		stopped: make(chan struct{}),
	}
}

// Events delivers one timestamp per line
func (s *StdinTrigger) Events() <-chan time.Time {
	return s.events
}

// Start begins reading lines. Typing q or quit ends the trigger, as
// does end of input.
func (s *StdinTrigger) Start(ctx context.Context) error {
	go func() {
		defer close(s.events)
		scanner := bufio.NewScanner(s.reader)
		for scanner.Scan() {
			select {
			case <-ctx.Done():
				return
			case <-s.stopped:
				return
			default:
			}

			switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
			case "q", "quit", "exit":
				return
			}

			select {
			case s.events <- time.Now():
			default:
				// An identification is already pending, drop the line.
			}
		}
	}()
	return nil
}

// Stop ends the trigger. The reader goroutine is blocked in a read and
// only notices after the next line, which is acceptable for stdin.
func (s *StdinTrigger) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopped)
	})
}
