package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emmett/rewind/internal/app"
	"github.com/emmett/rewind/internal/audio"
	"github.com/emmett/rewind/internal/songid"
	"github.com/emmett/rewind/internal/video"
)

type stubRecognizer struct{}

func (stubRecognizer) Recognize(ctx context.Context, pcm []byte) (*songid.Match, error) {
	return nil, songid.ErrNoMatch
}

func (stubRecognizer) Name() string { return "stub" }

func TestIdentifyResponseMapping(t *testing.T) {
	ident := &app.Identification{
		Index: 3,
		Found: true,
		Match: &songid.Match{
			Artist:      "Boards of Canada",
			Title:       "Roygbiv",
			Album:       "Music Has the Right to Children",
			ReleaseDate: "1998-04-20",
			Label:       "Warp",
			Timecode:    "00:42",
			SongLink:    "https://lis.tn/Roygbiv",
		},
		Videos: []video.Video{
			{Title: "Roygbiv", Channel: "WarpRecords", URL: "https://www.youtube.com/watch?v=yT0gRc2c2wQ"},
		},
		Elapsed: 730 * time.Millisecond,
	}

	resp := identifyResponse(ident)

	assert.True(t, resp.Found)
	assert.Equal(t, "Boards of Canada", resp.Artist)
	assert.Equal(t, "Roygbiv", resp.Title)
	assert.Equal(t, "Warp", resp.Label)
	assert.Equal(t, "00:42", resp.Timecode)
	assert.Equal(t, int64(730), resp.ElapsedMs)
	require.Len(t, resp.Videos, 1)
	assert.Equal(t, "https://www.youtube.com/watch?v=yT0gRc2c2wQ", resp.Videos[0].Url)
	assert.Equal(t, "WarpRecords", resp.Videos[0].Channel)
}

func TestIdentifyResponseNoMatch(t *testing.T) {
	resp := identifyResponse(&app.Identification{Index: 1, Elapsed: 400 * time.Millisecond})

	assert.False(t, resp.Found)
	assert.Empty(t, resp.Artist)
	assert.Empty(t, resp.Videos)
	assert.Equal(t, int64(400), resp.ElapsedMs)
}

func TestStatusResponseMapping(t *testing.T) {
	st := app.ListenerStatus{
		State:           app.StateAwaitingTrigger,
		Identifications: 4,
		Routed:          true,
		Source:          "BlackHole 2ch",
		OriginalInput:   "MacBook Pro Microphone",
		Uptime:          90 * time.Second,
		Capture: audio.SessionStatus{
			State:        audio.SessionRunning,
			BufferFill:   0.5,
			BytesWritten: 1_058_400,
			LastChunk:    time.Now().Add(-2 * time.Second),
		},
	}

	resp := statusResponse(st)

	assert.Equal(t, "awaiting_trigger", resp.State)
	assert.Equal(t, 0.5, resp.BufferFill)
	assert.Equal(t, uint64(1_058_400), resp.BytesCaptured)
	assert.Equal(t, int64(4), resp.Identifications)
	assert.True(t, resp.Routed)
	assert.Equal(t, "MacBook Pro Microphone", resp.OriginalInput)
	assert.Equal(t, int64(90), resp.UptimeSeconds)
	assert.GreaterOrEqual(t, resp.LastAudioMs, int64(2000))
}

func TestStatusResponseNoAudioYet(t *testing.T) {
	st := app.ListenerStatus{
		State: app.StateWarmingUp,
		Capture: audio.SessionStatus{
			State: audio.SessionIdle,
		},
	}

	resp := statusResponse(st)

	assert.Equal(t, int64(-1), resp.LastAudioMs)
}

func TestIdentifyRejectsShutDownListener(t *testing.T) {
	listener, err := app.NewListener(app.ListenerConfig{}, app.ListenerDeps{
		Recognizer: stubRecognizer{},
	})
	require.NoError(t, err)
	listener.Shutdown()

	service := NewIdentifyService(listener)
	_, err = service.Identify(context.Background(), &IdentifyRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shut down")
}
