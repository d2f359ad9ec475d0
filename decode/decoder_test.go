// SPDX-License-Identifier: EPL-2.0

package decode_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ik5/tapdelay/audio"
	"github.com/ik5/tapdelay/decode"
	"github.com/ik5/tapdelay/formats/aiff"
	"github.com/ik5/tapdelay/formats/wav"
	"github.com/ik5/tapdelay/internal/audiotest"
)

type decoderFunc func(io.Reader) (audio.Source, error)

func (f decoderFunc) Decode(r io.Reader) (audio.Source, error) { return f(r) }

func sniffPrefix(p string) audio.SniffFunc {
	return func(h []byte) bool { return bytes.HasPrefix(h, []byte(p)) }
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestOutputPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"/a/b/song.mp3", "/a/b/song.wav"},
		{"/a/b/song.tar.ogg", "/a/b/song.tar.wav"},
		{"/a/b/noext", "/a/b/noext.wav"},
		{"rel/take.WAV", "rel/take.wav"},
		{"rel/take.wav", "rel/take.wav"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, decode.OutputPath(tt.in), tt.in)
	}
}

func TestDecode_AIFF(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	samples := audiotest.SineSamples(44100, 2, 4410, 440, 0.5)
	src := audiotest.WriteAIFF(t, dir, "tone.aiff", 44100, 2, 16, samples)

	out, err := decode.New().Decode(src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tone.wav"), out)

	info, err := wav.ProbeFile(out)
	require.NoError(t, err)
	assert.Equal(t, wav.Info{SampleRate: 44100, Channels: 2, BitDepth: 16, Frames: 4410}, info)
	assert.ElementsMatch(t, []string{"tone.aiff", "tone.wav"}, listDir(t, dir))
}

func TestDecode_Idempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	samples := audiotest.SineSamples(22050, 1, 5000, 330, 0.8)
	src := audiotest.WriteAIFF(t, dir, "loop.aif", 22050, 1, 24, samples)
	d := decode.New(decode.WithBitDepth(24))

	out, err := d.Decode(src)
	require.NoError(t, err)
	first, err := os.ReadFile(out)
	require.NoError(t, err)

	out2, err := d.Decode(src)
	require.NoError(t, err)
	require.Equal(t, out, out2)
	second, err := os.ReadFile(out2)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	info, err := wav.ProbeFile(out)
	require.NoError(t, err)
	assert.Equal(t, 24, info.BitDepth)
}

func TestDecode_ResampleAndMono(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	samples := audiotest.SineSamples(44100, 2, 44100, 440, 0.5)
	src := audiotest.WriteAIFF(t, dir, "tone.aiff", 44100, 2, 16, samples)

	d := decode.New(decode.WithSampleRate(22050), decode.WithMono(true), decode.WithBufferSize(1000))
	out, err := d.Decode(src)
	require.NoError(t, err)

	info, err := wav.ProbeFile(out)
	require.NoError(t, err)
	assert.Equal(t, 22050, info.SampleRate)
	assert.Equal(t, 1, info.Channels)
	assert.InDelta(t, 22050, info.Frames, 50)
}

func TestDecode_WavInPlaceIsNoop(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := audiotest.WriteWAV(t, dir, "take.wav", 8000, 1, 16, audiotest.SineSamples(8000, 1, 800, 200, 0.5))
	before, err := os.ReadFile(src)
	require.NoError(t, err)

	out, err := decode.New(decode.WithSampleRate(16000)).Decode(src)
	require.NoError(t, err)
	assert.Equal(t, src, out)

	after, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestDecode_ForeignContentNamedWavIsKept(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	aiffPath := audiotest.WriteAIFF(t, dir, "song.aiff", 8000, 1, 16, audiotest.SineSamples(8000, 1, 400, 200, 0.5))
	src := filepath.Join(dir, "song.wav")
	require.NoError(t, os.Rename(aiffPath, src))
	before, err := os.ReadFile(src)
	require.NoError(t, err)

	out, err := decode.New().Decode(src)
	require.ErrorIs(t, err, decode.ErrUnsupportedFormat)
	assert.Empty(t, out)

	after, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, "FORM", string(after[:4]))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDecode_WavWithOtherExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := audiotest.WriteWAV(t, dir, "take.wave", 8000, 2, 16, audiotest.SineSamples(8000, 2, 800, 200, 0.5))

	out, err := decode.New().Decode(src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "take.wav"), out)

	info, err := wav.ProbeFile(out)
	require.NoError(t, err)
	assert.Equal(t, int64(800), info.Frames)
}

func TestDecode_SniffsBeforeExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	// AIFF content behind an .mp3 name.
	src := audiotest.WriteAIFF(t, dir, "mislabeled.mp3", 8000, 1, 16, audiotest.SineSamples(8000, 1, 400, 200, 0.5))

	out, err := decode.New().Decode(src)
	require.NoError(t, err)

	info, err := wav.ProbeFile(out)
	require.NoError(t, err)
	assert.Equal(t, int64(400), info.Frames)
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	reg := audio.NewRegistry()
	reg.Register("wav", wav.Decoder{}, wav.Sniff, "wav")
	reg.Register("aiff", aiff.Decoder{}, aiff.Sniff, "aiff")

	m4a := append([]byte{0, 0, 0, 0x20}, []byte("ftypM4A \x00\x00\x02\x00M4A mp42isom")...)

	tests := []struct {
		name string
		path string
		opts []decode.Option
		want error
	}{
		{"missing", filepath.Join(dir, "missing.mp3"), nil, decode.ErrIOFailure},
		{"unknown", audiotest.WriteFile(t, dir, "notes.txt", []byte("plain text")), nil, decode.ErrUnsupportedFormat},
		{"m4a without delegate", audiotest.WriteFile(t, dir, "song.m4a", m4a), []decode.Option{decode.WithRegistry(reg)}, decode.ErrUnsupportedFormat},
		{"garbage mp3", audiotest.WriteFile(t, dir, "broken.mp3", []byte("definitely not an mpeg audio stream")), nil, decode.ErrCorruptInput},
		{"truncated aiff", audiotest.WriteFile(t, dir, "cut.aiff", []byte("FORM\x00\x00\x00\x04AIFF")), nil, decode.ErrCorruptInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := decode.New(tt.opts...).Decode(tt.path)
			require.ErrorIs(t, err, tt.want)
			assert.Empty(t, out)

			var de *decode.Error
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.path, de.Path)

			_, statErr := os.Stat(decode.OutputPath(tt.path))
			assert.ErrorIs(t, statErr, os.ErrNotExist)
		})
	}
}

func TestDecode_MidStreamFailureLeavesNothing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := audiotest.WriteFile(t, dir, "take.fake", []byte("FAKE"))
	boom := errors.New("bad frame")

	reg := audio.NewRegistry()
	reg.Register("fake", decoderFunc(func(io.Reader) (audio.Source, error) {
		s := audiotest.NewSineSource(8000, 1, 8000, 100)
		s.Err = boom
		s.FailAt = 3000
		return s, nil
	}), sniffPrefix("FAKE"))

	_, err := decode.New(decode.WithRegistry(reg)).Decode(src)
	require.ErrorIs(t, err, decode.ErrCorruptInput)
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, decode.ErrIOFailure)

	assert.Equal(t, []string{"take.fake"}, listDir(t, dir))
}

func TestDecode_SharesInFlightDecode(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var calls atomic.Int32
	gate := make(chan struct{})

	reg := audio.NewRegistry()
	reg.Register("slow", decoderFunc(func(io.Reader) (audio.Source, error) {
		calls.Add(1)
		<-gate
		return audiotest.NewConstantSource(8000, 1, 800, 0.25), nil
	}), sniffPrefix("SLOW"))

	same := audiotest.WriteFile(t, dir, "same.slow", []byte("SLOW"))
	other := audiotest.WriteFile(t, dir, "other.slow", []byte("SLOW"))
	d := decode.New(decode.WithRegistry(reg))

	var wg sync.WaitGroup
	results := make(chan string, 9)
	for i := range 9 {
		path := same
		if i == 0 {
			path = other
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := d.Decode(path)
			assert.NoError(t, err)
			results <- out
		}()
	}

	// Both paths decode at once; the rest join the in-flight one.
	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	close(gate)
	wg.Wait()
	close(results)

	assert.Equal(t, int32(2), calls.Load())
	for out := range results {
		assert.Contains(t, []string{decode.OutputPath(same), decode.OutputPath(other)}, out)
	}
}

func TestDefaultRegistry(t *testing.T) {
	t.Parallel()

	d := decode.New()
	assert.Subset(t, d.Formats(), []string{"wav", "mp3", "vorbis", "aiff"})
}

func TestError(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk full")
	err := error(&decode.Error{Kind: decode.ErrIOFailure, Path: "/x.mp3", Err: cause})

	assert.ErrorIs(t, err, decode.ErrIOFailure)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, decode.ErrCorruptInput)
	assert.Equal(t, "decode /x.mp3: audio I/O failure: disk full", err.Error())
}
