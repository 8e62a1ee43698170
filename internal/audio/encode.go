package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// EncodeWAV wraps raw PCM in a WAV container in memory, for handing a
// snapshot to the recognition service.
func EncodeWAV(pcm []byte, cfg CaptureConfig) ([]byte, error) {
	buf := &writeSeekBuffer{}
	if err := encodeWAV(buf, pcm, cfg); err != nil {
		return nil, err
	}
	return buf.data, nil
}

// SaveWAV writes raw PCM to path as a WAV file
func SaveWAV(path string, pcm []byte, cfg CaptureConfig) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create wav file: %w", err)
	}

	if err := encodeWAV(f, pcm, cfg); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func encodeWAV(w io.WriteSeeker, pcm []byte, cfg CaptureConfig) error {
	if len(pcm)%2 != 0 {
		return fmt.Errorf("pcm data length %d is not sample-aligned", len(pcm))
	}

	samples := make([]int, len(pcm)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}

	enc := wav.NewEncoder(w, int(cfg.SampleRate), int(cfg.BitDepth), int(cfg.Channels), 1)
	buf := &gaudio.IntBuffer{
		Data:           samples,
		Format:         &gaudio.Format{NumChannels: int(cfg.Channels), SampleRate: int(cfg.SampleRate)},
		SourceBitDepth: int(cfg.BitDepth),
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write wav samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize wav: %w", err)
	}
	return nil
}

// writeSeekBuffer is an in-memory io.WriteSeeker. The wav encoder
// seeks back to patch chunk sizes into the header, so a plain
// bytes.Buffer is not enough.
type writeSeekBuffer struct {
	data []byte
	pos  int
}

func (b *writeSeekBuffer) Write(p []byte) (int, error) {
	if need := b.pos + len(p); need > len(b.data) {
		grown := make([]byte, need)
		copy(grown, b.data)
		b.data = grown
	}
	copy(b.data[b.pos:], p)
	b.pos += len(p)
	return len(p), nil
}

func (b *writeSeekBuffer) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = int64(b.pos) + offset
	case io.SeekEnd:
		pos = int64(len(b.data)) + offset
	default:
		return 0, fmt.Errorf("invalid seek whence: %d", whence)
	}
	if pos < 0 {
		return 0, fmt.Errorf("negative seek position: %d", pos)
	}
	b.pos = int(pos)
	return pos, nil
}
