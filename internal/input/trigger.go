// Package input provides the triggers that start a song identification,
// either a global hotkey or lines read from standard input.
package input

import (
	"context"
	"time"
)

// Trigger is a source of identification requests
type Trigger interface {
	// Start begins listening. It returns an error when the trigger
	// cannot be set up, for example when the hotkey is taken.
	Start(ctx context.Context) error

	// Events delivers one timestamp per trigger press. The channel
	// is closed when the trigger terminates.
	Events() <-chan time.Time

	// Stop stops listening and releases the trigger
	Stop()
}
