// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"io"
	"math"
)

// MockSource is a test helper that generates audio data for testing.
// It implements the audio.Source interface without importing it.
type MockSource struct {
	sampleRate int
	channels   int
	frames     int // total frames to generate
	generated  int
	waveform   func(frame int, channel int) float32

	// Err, when set, is returned once FailAt frames have been produced.
	Err    error
	FailAt int

	Closed bool
}

// NewMockSource creates a source of frames frames computed by waveform.
func NewMockSource(sampleRate, channels, frames int, waveform func(frame int, channel int) float32) *MockSource {
	return &MockSource{
		sampleRate: sampleRate,
		channels:   channels,
		frames:     frames,
		waveform:   waveform,
	}
}

// NewSilentSource creates a mock source that generates silence (all zeros).
func NewSilentSource(sampleRate, channels, frames int) *MockSource {
	return NewConstantSource(sampleRate, channels, frames, 0)
}

// NewSineSource creates a mock source that generates a sine wave.
func NewSineSource(sampleRate, channels, frames int, frequency float64) *MockSource {
	return NewMockSource(sampleRate, channels, frames, func(frame int, _ int) float32 {
		return Sine(sampleRate, frequency, frame)
	})
}

// NewConstantSource creates a mock source with constant value.
func NewConstantSource(sampleRate, channels, frames int, value float32) *MockSource {
	return NewMockSource(sampleRate, channels, frames, func(int, int) float32 {
		return value
	})
}

// NewImpulseSource emits 1.0 on the first frame of every channel and silence after.
func NewImpulseSource(sampleRate, channels, frames int) *MockSource {
	return NewMockSource(sampleRate, channels, frames, func(frame int, _ int) float32 {
		if frame == 0 {
			return 1
		}
		return 0
	})
}

// NewChannelSource emits a constant per channel: channel c yields values[c].
func NewChannelSource(sampleRate, frames int, values ...float32) *MockSource {
	return NewMockSource(sampleRate, len(values), frames, func(_ int, c int) float32 {
		return values[c]
	})
}

// Sine returns sample frame of a unit sine at frequency Hz.
func Sine(sampleRate int, frequency float64, frame int) float32 {
	t := float64(frame) / float64(sampleRate)
	return float32(math.Sin(2 * math.Pi * frequency * t))
}

func (m *MockSource) SampleRate() int { return m.sampleRate }
func (m *MockSource) Channels() int   { return m.channels }
func (m *MockSource) BufSize() int    { return 4096 }

func (m *MockSource) Close() error {
	m.Closed = true
	return nil
}

// Reset rewinds the generator.
func (m *MockSource) Reset() {
	m.generated = 0
}

func (m *MockSource) ReadSamples(dst []float32) (int, error) {
	if m.Err != nil && m.generated >= m.FailAt {
		return 0, m.Err
	}
	if m.generated >= m.frames {
		return 0, io.EOF
	}

	n := min(len(dst)/m.channels, m.frames-m.generated)
	if m.Err != nil {
		n = min(n, m.FailAt-m.generated)
	}

	for f := range n {
		for c := range m.channels {
			dst[f*m.channels+c] = m.waveform(m.generated+f, c)
		}
	}
	m.generated += n

	if m.generated >= m.frames {
		return n * m.channels, io.EOF
	}
	return n * m.channels, nil
}
