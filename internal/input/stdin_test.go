package input

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Trigger = (*StdinTrigger)(nil)
	_ Trigger = (*HotkeyTrigger)(nil)
)

func waitEvent(t *testing.T, events <-chan time.Time) (time.Time, bool) {
	t.Helper()
	select {
	case ev, ok := <-events:
		return ev, ok
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for trigger event")
		return time.Time{}, false
	}
}

func TestStdinTriggerEmitsPerLine(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	trigger := NewStdinTrigger(pr)
	require.NoError(t, trigger.Start(context.Background()))
	defer trigger.Stop()

	_, err := io.WriteString(pw, "\n")
	require.NoError(t, err)
	_, ok := waitEvent(t, trigger.Events())
	assert.True(t, ok)

	_, err = io.WriteString(pw, "identify\n")
	require.NoError(t, err)
	_, ok = waitEvent(t, trigger.Events())
	assert.True(t, ok)
}

func TestStdinTriggerQuitLine(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	trigger := NewStdinTrigger(pr)
	require.NoError(t, trigger.Start(context.Background()))

	_, err := io.WriteString(pw, "q\n")
	require.NoError(t, err)

	_, ok := waitEvent(t, trigger.Events())
	assert.False(t, ok, "quit line should close the event channel")
}

func TestStdinTriggerEndOfInput(t *testing.T) {
	pr, pw := io.Pipe()

	trigger := NewStdinTrigger(pr)
	require.NoError(t, trigger.Start(context.Background()))

	require.NoError(t, pw.Close())

	_, ok := waitEvent(t, trigger.Events())
	assert.False(t, ok, "EOF should close the event channel")
}

func TestStdinTriggerStopIsIdempotent(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	trigger := NewStdinTrigger(pr)
	require.NoError(t, trigger.Start(context.Background()))

	trigger.Stop()
	trigger.Stop()
}
