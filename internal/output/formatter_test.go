package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emmett/rewind/internal/video"
)

var (
	_ Formatter = (*JSONFormatter)(nil)
	_ Formatter = (*PlainTextFormatter)(nil)
)

func sampleResult() MatchResult {
	return MatchResult{
		Index:        1,
		Found:        true,
		Artist:       "Daft Punk",
		Title:        "One More Time",
		Album:        "Discovery",
		ReleaseDate:  "2001-03-12",
		Label:        "Virgin",
		Timecode:     "01:07",
		SongLink:     "https://lis.tn/OneMoreTime",
		RecognizedAt: time.Date(2024, 6, 1, 21, 30, 0, 0, time.UTC),
		ElapsedMs:    840,
		Videos: []video.Video{
			{ID: "FGBhQbmPwH8", Title: "One More Time (Official Video)", URL: "https://www.youtube.com/watch?v=FGBhQbmPwH8"},
		},
	}
}

func TestJSONFormatterEncodesMatch(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(&buf)

	require.NoError(t, f.WriteMatch(sampleResult()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, true, decoded["found"])
	assert.Equal(t, "Daft Punk", decoded["artist"])
	assert.Equal(t, float64(840), decoded["elapsed_ms"])

	videos, ok := decoded["videos"].([]any)
	require.True(t, ok)
	assert.Len(t, videos, 1)

	assert.Len(t, f.GetResults(), 1)
}

func TestJSONFormatterKeepsOnlyFoundResults(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(&buf)

	require.NoError(t, f.WriteMatch(MatchResult{Index: 1, Found: false}))
	require.NoError(t, f.WriteMatch(sampleResult()))

	assert.Len(t, f.GetResults(), 1)
}

func TestPlainTextFormatterMatch(t *testing.T) {
	var buf bytes.Buffer
	f := NewPlainTextFormatter(&buf)

	require.NoError(t, f.WriteMatch(sampleResult()))

	out := buf.String()
	assert.Contains(t, out, "Daft Punk - One More Time")
	assert.Contains(t, out, "Discovery, 2001-03-12, Virgin")
	assert.Contains(t, out, "at 01:07 (840ms)")
	assert.Contains(t, out, "https://www.youtube.com/watch?v=FGBhQbmPwH8")
}

func TestPlainTextFormatterNoMatch(t *testing.T) {
	var buf bytes.Buffer
	f := NewPlainTextFormatter(&buf)

	require.NoError(t, f.WriteMatch(MatchResult{RecognizedAt: time.Now(), ElapsedMs: 412}))

	assert.Contains(t, buf.String(), "no match")
}

func TestPlainTextFormatterEvent(t *testing.T) {
	var buf bytes.Buffer
	f := NewPlainTextFormatter(&buf)

	require.NoError(t, f.WriteEvent("listener", "awaiting trigger"))

	assert.Contains(t, buf.String(), "[listener] awaiting trigger")
}

func TestMatchResultSong(t *testing.T) {
	assert.Equal(t, "Daft Punk - One More Time", sampleResult().Song())
	assert.Equal(t, "Untitled Broadcast", MatchResult{Title: "Untitled Broadcast"}.Song())
}
