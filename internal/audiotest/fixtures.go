// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// SineSamples builds frames of interleaved sine data, identical on every channel.
func SineSamples(sampleRate, channels, frames int, frequency float64, amplitude float32) []float32 {
	out := make([]float32, frames*channels)
	for f := range frames {
		v := amplitude * Sine(sampleRate, frequency, f)
		for c := range channels {
			out[f*channels+c] = v
		}
	}
	return out
}

func toIntBuffer(sampleRate, channels, bitDepth int, samples []float32) *goaudio.IntBuffer {
	scale := float32(int(1)<<(bitDepth-1) - 1)
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(max(-1, min(1, s)) * scale)
	}

	return &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
}

// WriteWAV writes a PCM WAV fixture into dir and returns its path.
func WriteWAV(tb testing.TB, dir, name string, sampleRate, channels, bitDepth int, samples []float32) string {
	tb.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		tb.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, 1)
	if err := enc.Write(toIntBuffer(sampleRate, channels, bitDepth, samples)); err != nil {
		tb.Fatalf("write wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		tb.Fatalf("close wav: %v", err)
	}

	return path
}

// WriteAIFF writes an AIFF fixture into dir and returns its path.
func WriteAIFF(tb testing.TB, dir, name string, sampleRate, channels, bitDepth int, samples []float32) string {
	tb.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		tb.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	enc := aiff.NewEncoder(f, sampleRate, bitDepth, channels)
	if err := enc.Write(toIntBuffer(sampleRate, channels, bitDepth, samples)); err != nil {
		tb.Fatalf("write aiff: %v", err)
	}
	if err := enc.Close(); err != nil {
		tb.Fatalf("close aiff: %v", err)
	}

	return path
}

// WriteFile writes raw bytes into dir and returns the path.
func WriteFile(tb testing.TB, dir, name string, data []byte) string {
	tb.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}
	return path
}
