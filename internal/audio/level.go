package audio

import (
	"math"
	"sync"
)

// Level calculates the RMS level of a chunk of 16-bit signed
// little-endian PCM, normalized to the 0.0 to 1.0 range. Silence is
// 0.0; a full-scale square wave approaches 1.0.
func Level(data []byte) float64 {
	sampleCount := len(data) / 2
	if sampleCount == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < sampleCount; i++ {
		sample := int16(data[i*2]) | int16(data[i*2+1])<<8
		normalized := float64(sample) / 32768.0
		sum += normalized * normalized
	}

	return math.Sqrt(sum / float64(sampleCount))
}

// LevelMeter tracks the recent signal level of a PCM stream for
// display: the level of the last chunk plus a slowly decaying peak.
type LevelMeter struct {
	mu      sync.Mutex
	current float64
	peak    float64
}

// NewLevelMeter creates a level meter
func NewLevelMeter() *LevelMeter {
	return &LevelMeter{}
}

// Update feeds a chunk into the meter and returns its level
func (m *LevelMeter) Update(chunk []byte) float64 {
	level := Level(chunk)

	m.mu.Lock()
	m.current = level
	// Peak decays a little on every update so old spikes fade out.
	m.peak *= 0.95
	if level > m.peak {
		m.peak = level
	}
	m.mu.Unlock()

	return level
}

// Current returns the level of the most recent chunk
func (m *LevelMeter) Current() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Peak returns the decaying peak level
func (m *LevelMeter) Peak() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peak
}

// Reset clears the meter
func (m *LevelMeter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = 0
	m.peak = 0
}
