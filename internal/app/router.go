package app

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/emmett/rewind/internal/log"
)

// ErrDeviceControl indicates the platform device-control utility is
// missing or failing. Hitting it before any device has been touched is
// fatal for a session.
var ErrDeviceControl = errors.New("app: device control utility unavailable")

// routingTool describes the platform utility that reads and sets the
// system default input device. Filled in per platform by
// defaultRoutingTool.
type routingTool struct {
	binary    string
	queryArgs []string
	setArgs   func(device string) []string
}

// commandRunner abstracts the utility invocation so the router can be
// tested without touching the host's audio devices.
type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("%s: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// DeviceRouter switches the system default input device through the
// platform device-control utility (SwitchAudioSource on macOS, pactl
// on Linux). Pointing the default input at a loopback device is what
// lets the capture process hear system audio instead of the
// microphone.
type DeviceRouter struct {
	runner commandRunner
	tool   routingTool
}

// NewDeviceRouter creates a router for the current platform
func NewDeviceRouter() *DeviceRouter {
	return &DeviceRouter{
		runner: execRunner{},
		tool:   defaultRoutingTool(),
	}
}

// Current returns the name of the active input device. A failure here
// means the utility is missing or broken and no device has been
// touched yet.
func (r *DeviceRouter) Current(ctx context.Context) (string, error) {
	if r.tool.binary == "" {
		return "", fmt.Errorf("%w: no routing support on this platform", ErrDeviceControl)
	}

	out, err := r.runner.Run(ctx, r.tool.binary, r.tool.queryArgs...)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrDeviceControl, r.tool.binary, err)
	}
	if out == "" {
		return "", fmt.Errorf("%w: %s reported no input device", ErrDeviceControl, r.tool.binary)
	}
	return out, nil
}

// Switch sets the active input device
func (r *DeviceRouter) Switch(ctx context.Context, device string) error {
	if r.tool.binary == "" {
		return fmt.Errorf("%w: no routing support on this platform", ErrDeviceControl)
	}

	if _, err := r.runner.Run(ctx, r.tool.binary, r.tool.setArgs(device)...); err != nil {
		return fmt.Errorf("failed to switch input to %q: %w", device, err)
	}
	return nil
}

// Route records the current input device, then switches to the given
// one. It returns a guard that restores the original device whenever
// the original could be determined, even if the switch itself failed:
// in that case the error is returned alongside the guard and the
// device is left unchanged, but restoration at teardown stays armed.
func (r *DeviceRouter) Route(ctx context.Context, device string) (*RouteGuard, error) {
	original, err := r.Current(ctx)
	if err != nil {
		return nil, err
	}

	guard := &RouteGuard{router: r, original: original}

	if err := r.Switch(ctx, device); err != nil {
		return guard, err
	}
	guard.switched = true
	log.Debug("input routed", "from", original, "to", device)
	return guard, nil
}

// RouteGuard restores the original input device. Restore acts exactly
// once no matter how many exit paths reach it.
type RouteGuard struct {
	router   *DeviceRouter
	original string
	switched bool
	once     sync.Once
}

// Original returns the device that was active when the guard was
// created
func (g *RouteGuard) Original() string {
	return g.original
}

// Switched reports whether the switch to the capture source succeeded
func (g *RouteGuard) Switched() bool {
	return g.switched
}

// Restore switches the input back to the original device. Only the
// first call acts; later calls return nil. A restore failure is
// reported for logging but there is nothing more to do about it.
func (g *RouteGuard) Restore(ctx context.Context) error {
	var err error
	g.once.Do(func() {
		err = g.router.Switch(ctx, g.original)
		if err == nil {
			log.Debug("input restored", "device", g.original)
		}
	})
	return err
}
