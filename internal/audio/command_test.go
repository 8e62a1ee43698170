package audio

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureCommandOverride(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Command = []string{"ffmpeg", "-f", "avfoundation", "-i", ":0", "-f", "s16le", "-"}

	cmd := captureCommand(cfg)
	assert.Equal(t, "ffmpeg", cmd.Binary)
	assert.Equal(t, cfg.Command[1:], cmd.Args)
}

func TestCaptureCommandPlatformDefault(t *testing.T) {
	cfg := DefaultConfig()

	cmd := captureCommand(cfg)
	require.NotEmpty(t, cmd.Binary)
	assert.Contains(t, cmd.Args, strconv.Itoa(DefaultSampleRate))
	assert.Contains(t, cmd.String(), cmd.Binary)
}

func TestCaptureConfigDerivedSizes(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 2, cfg.BytesPerFrame())
	assert.Equal(t, 88200, cfg.BytesPerSecond())
	assert.Equal(t, 88200*12, cfg.WindowBytes())
	assert.Equal(t, 8820, cfg.ChunkBytes())
}
