package audio

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeWAVRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	samples := []int16{0, 100, -100, 32767, -32768, 42}
	pcm := pcmFromSamples(samples)

	data, err := EncodeWAV(pcm, cfg)
	require.NoError(t, err)

	// 44-byte canonical header plus the payload
	require.Equal(t, 44+len(pcm), len(data))
	assert.Equal(t, "RIFF", string(data[0:4]))
	assert.Equal(t, "WAVE", string(data[8:12]))

	dec := wav.NewDecoder(bytes.NewReader(data))
	require.True(t, dec.IsValidFile())

	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)
	assert.Equal(t, int(cfg.SampleRate), buf.Format.SampleRate)
	assert.Equal(t, int(cfg.Channels), buf.Format.NumChannels)
	require.Len(t, buf.Data, len(samples))
	for i, want := range samples {
		assert.Equal(t, int(want), buf.Data[i], "sample %d", i)
	}
}

func TestEncodeWAVRejectsUnalignedData(t *testing.T) {
	_, err := EncodeWAV([]byte{1, 2, 3}, DefaultConfig())
	assert.Error(t, err)
}

func TestSaveWAV(t *testing.T) {
	cfg := DefaultConfig()
	pcm := pcmFromSamples([]int16{1, 2, 3, 4})
	path := filepath.Join(t.TempDir(), "snapshot.wav")

	require.NoError(t, SaveWAV(path, pcm, cfg))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec := wav.NewDecoder(f)
	assert.True(t, dec.IsValidFile())
}

func TestWriteSeekBuffer(t *testing.T) {
	b := &writeSeekBuffer{}

	_, err := b.Write([]byte("abcdef"))
	require.NoError(t, err)

	pos, err := b.Seek(1, 0)
	require.NoError(t, err)
	require.Equal(t, int64(1), pos)

	_, err = b.Write([]byte("XY"))
	require.NoError(t, err)
	assert.Equal(t, "aXYdef", string(b.data))

	_, err = b.Seek(-2, 2)
	require.NoError(t, err)
	b.Write([]byte("ZZZZ"))
	assert.Equal(t, "aXYdZZZZ", string(b.data))
}
