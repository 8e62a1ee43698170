package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner scripts the device-control utility
type fakeRunner struct {
	mu       sync.Mutex
	current  string
	queryErr error
	setErr   error
	setCalls []string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(args) > 0 && args[0] == "query" {
		if f.queryErr != nil {
			return "", f.queryErr
		}
		return f.current + "\n", nil
	}

	// set <device>
	if f.setErr != nil {
		return "", f.setErr
	}
	f.setCalls = append(f.setCalls, args[1])
	f.current = args[1]
	return "", nil
}

func (f *fakeRunner) sets() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.setCalls...)
}

func testRouter(runner commandRunner) *DeviceRouter {
	return &DeviceRouter{
		runner: runner,
		tool: routingTool{
			binary:    "fakectl",
			queryArgs: []string{"query"},
			setArgs: func(device string) []string {
				return []string{"set", device}
			},
		},
	}
}

func TestRouterCurrentTrimsOutput(t *testing.T) {
	runner := &fakeRunner{current: "MacBook Pro Microphone"}
	router := testRouter(runner)

	got, err := router.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "MacBook Pro Microphone", got)
}

func TestRouterQueryFailureIsDeviceControlError(t *testing.T) {
	runner := &fakeRunner{queryErr: errors.New("command not found")}
	router := testRouter(runner)

	_, err := router.Current(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDeviceControl))

	guard, err := router.Route(context.Background(), "BlackHole 2ch")
	assert.Nil(t, guard)
	assert.True(t, errors.Is(err, ErrDeviceControl))
}

func TestRouterRouteAndRestore(t *testing.T) {
	runner := &fakeRunner{current: "Built-in Mic"}
	router := testRouter(runner)

	guard, err := router.Route(context.Background(), "BlackHole 2ch")
	require.NoError(t, err)
	require.NotNil(t, guard)
	assert.Equal(t, "Built-in Mic", guard.Original())
	assert.True(t, guard.Switched())
	assert.Equal(t, []string{"BlackHole 2ch"}, runner.sets())

	require.NoError(t, guard.Restore(context.Background()))
	assert.Equal(t, []string{"BlackHole 2ch", "Built-in Mic"}, runner.sets())
}

func TestRouteGuardRestoresExactlyOnce(t *testing.T) {
	runner := &fakeRunner{current: "Built-in Mic"}
	router := testRouter(runner)

	guard, err := router.Route(context.Background(), "BlackHole 2ch")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, guard.Restore(context.Background()))
	}

	restores := 0
	for _, dev := range runner.sets() {
		if dev == "Built-in Mic" {
			restores++
		}
	}
	assert.Equal(t, 1, restores)
}

func TestRouterSwitchFailureStillArmsGuard(t *testing.T) {
	runner := &fakeRunner{current: "Built-in Mic", setErr: fmt.Errorf("no such device")}
	router := testRouter(runner)

	guard, err := router.Route(context.Background(), "BlackHole 2ch")
	require.Error(t, err)
	require.NotNil(t, guard)
	assert.False(t, guard.Switched())
	assert.Equal(t, "Built-in Mic", guard.Original())

	// Restoration still runs; with the utility healthy again it works
	runner.mu.Lock()
	runner.setErr = nil
	runner.mu.Unlock()

	require.NoError(t, guard.Restore(context.Background()))
	assert.Equal(t, []string{"Built-in Mic"}, runner.sets())
}

func TestRouterUnsupportedPlatform(t *testing.T) {
	router := &DeviceRouter{runner: &fakeRunner{}, tool: routingTool{}}

	_, err := router.Current(context.Background())
	assert.True(t, errors.Is(err, ErrDeviceControl))

	err = router.Switch(context.Background(), "anything")
	assert.True(t, errors.Is(err, ErrDeviceControl))
}
