package mcp

import (
	"context"
	"sync"
	"time"

	"github.com/emmett/rewind/internal/app"
)

// readyTimeout bounds how long a tool call waits for the listener to
// finish warming up before giving up.
const readyTimeout = 30 * time.Second

// IdentifyService wraps the listener for tool calls. Calls are
// serialized and wait for the listener to become ready, because the
// listener warms its buffer in the background while the MCP transport
// is already accepting requests.
type IdentifyService struct {
	listener *app.Listener
	mu       sync.Mutex
}

// NewIdentifyService creates a service around a listener
func NewIdentifyService(listener *app.Listener) *IdentifyService {
	return &IdentifyService{listener: listener}
}

// Identify waits for the listener to be ready, then identifies the
// buffered audio
func (svc *IdentifyService) Identify(ctx context.Context) (*app.Identification, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if err := svc.listener.WaitReady(ctx, readyTimeout); err != nil {
		return nil, err
	}
	return svc.listener.IdentifyNow(ctx)
}

// Status returns the listener's current status
func (svc *IdentifyService) Status() app.ListenerStatus {
	return svc.listener.Status()
}

// SaveSnapshot writes the buffered audio as a WAV file into dir
func (svc *IdentifyService) SaveSnapshot(ctx context.Context, dir string) (string, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if err := svc.listener.WaitReady(ctx, readyTimeout); err != nil {
		return "", err
	}
	if dir == "" {
		dir = "."
	}
	return svc.listener.SaveSnapshot(dir)
}

// Close shuts the listener down
func (svc *IdentifyService) Close() error {
	svc.listener.Shutdown()
	return nil
}
