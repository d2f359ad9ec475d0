// SPDX-License-Identifier: EPL-2.0

package audio_test

import (
	"errors"
	"io"
	"math"
	"testing"

	"github.com/ik5/tapdelay/audio"
	"github.com/ik5/tapdelay/internal/audiotest"
)

func readAll(t *testing.T, src audio.Source, bufSize int) []float32 {
	t.Helper()

	buf := make([]float32, bufSize)
	var out []float32
	for {
		n, err := src.ReadSamples(buf)
		out = append(out, buf[:n]...)
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("ReadSamples() error = %v", err)
		}
	}
}

func TestResampler_Metadata(t *testing.T) {
	t.Parallel()

	src := audiotest.NewSilentSource(44100, 2, 1000)
	resampler := audio.NewResampler(src, 8000)

	if resampler.SampleRate() != 8000 {
		t.Errorf("SampleRate() = %d, want 8000", resampler.SampleRate())
	}
	if resampler.Channels() != 2 {
		t.Errorf("Channels() = %d, want 2", resampler.Channels())
	}
	if resampler.BufSize() != src.BufSize() {
		t.Errorf("BufSize() = %d, want %d", resampler.BufSize(), src.BufSize())
	}
}

func TestResampler_SameRatePassesThrough(t *testing.T) {
	t.Parallel()

	src := audiotest.NewMockSource(8000, 1, 100, func(f, _ int) float32 { return float32(f) / 100 })
	got := readAll(t, audio.NewResampler(src, 8000), 64)

	if len(got) != 100 {
		t.Fatalf("got %d samples, want 100", len(got))
	}
	for i, v := range got {
		if v != float32(i)/100 {
			t.Fatalf("sample %d = %v, want %v", i, v, float32(i)/100)
		}
	}
}

func TestResampler_OutputLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		srcRate  int
		dstRate  int
		channels int
		frames   int
		want     int // frames
	}{
		{name: "48k to 16k", srcRate: 48000, dstRate: 16000, channels: 1, frames: 48000, want: 16000},
		{name: "16k to 48k stereo", srcRate: 16000, dstRate: 48000, channels: 2, frames: 1600, want: 4800},
		{name: "44.1k to 8k", srcRate: 44100, dstRate: 8000, channels: 1, frames: 44100, want: 8000},
		{name: "single frame", srcRate: 44100, dstRate: 22050, channels: 1, frames: 1, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := audiotest.NewSineSource(tt.srcRate, tt.channels, tt.frames, 440)
			got := readAll(t, audio.NewResampler(src, tt.dstRate), 1024*tt.channels)

			frames := len(got) / tt.channels
			if diff := frames - tt.want; diff < -2 || diff > 2 {
				t.Errorf("got %d frames, want ≈%d", frames, tt.want)
			}
		})
	}
}

func TestResampler_ConstantSignalStaysConstant(t *testing.T) {
	t.Parallel()

	src := audiotest.NewConstantSource(44100, 2, 4410, 0.5)
	got := readAll(t, audio.NewResampler(src, 48000), 512)

	for i, v := range got {
		if math.Abs(float64(v-0.5)) > 1e-4 {
			t.Fatalf("sample %d = %v, want 0.5", i, v)
		}
	}
}

func TestResampler_SineStaysBounded(t *testing.T) {
	t.Parallel()

	src := audiotest.NewSineSource(44100, 1, 44100, 440)
	got := readAll(t, audio.NewResampler(src, 16000), 1000)

	var peak float64
	for _, v := range got {
		peak = math.Max(peak, math.Abs(float64(v)))
	}
	if peak > 1.05 || peak < 0.5 {
		t.Errorf("peak amplitude = %v, want within (0.5, 1.05]", peak)
	}
}

func TestResampler_InvalidDstSize(t *testing.T) {
	t.Parallel()

	resampler := audio.NewResampler(audiotest.NewSilentSource(44100, 2, 100), 8000)
	if _, err := resampler.ReadSamples(make([]float32, 3)); !errors.Is(err, audio.ErrInvalidDstSize) {
		t.Errorf("ReadSamples() error = %v, want ErrInvalidDstSize", err)
	}
}

func TestResampler_PropagatesSourceError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	src := audiotest.NewSineSource(44100, 1, 44100, 440)
	src.Err, src.FailAt = boom, 1000

	resampler := audio.NewResampler(src, 8000)
	buf := make([]float32, 256)
	for range 100 {
		_, err := resampler.ReadSamples(buf)
		if errors.Is(err, boom) {
			return
		}
		if err != nil {
			t.Fatalf("ReadSamples() error = %v, want boom", err)
		}
	}
	t.Fatal("source error never surfaced")
}

func TestResampler_Close(t *testing.T) {
	t.Parallel()

	src := audiotest.NewSilentSource(44100, 1, 10)
	if err := audio.NewResampler(src, 8000).Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !src.Closed {
		t.Error("Close() did not close the source")
	}
}

func BenchmarkResampler_44kTo16k(b *testing.B) {
	buf := make([]float32, 4096)
	b.ReportAllocs()

	for range b.N {
		r := audio.NewResampler(audiotest.NewSineSource(44100, 2, 44100, 440), 16000)
		for {
			if _, err := r.ReadSamples(buf); err != nil {
				break
			}
		}
	}
}
