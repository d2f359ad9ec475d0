// SPDX-License-Identifier: EPL-2.0

package decode

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/ik5/tapdelay/audio"
	"github.com/ik5/tapdelay/formats/aiff"
	"github.com/ik5/tapdelay/formats/ffmpeg"
	"github.com/ik5/tapdelay/formats/mp3"
	"github.com/ik5/tapdelay/formats/vorbis"
	"github.com/ik5/tapdelay/formats/wav"
)

const (
	DefaultBitDepth   = 16
	DefaultBufferSize = 4096
)

// DefaultRegistry knows WAV, MP3, Ogg Vorbis and AIFF. When an ffmpeg
// binary is in PATH it also handles MP4/M4A, raw AAC and FLAC.
func DefaultRegistry() *audio.Registry {
	r := audio.NewRegistry()
	r.Register("wav", wav.Decoder{}, wav.Sniff, "wav", "wave")
	r.Register("mp3", mp3.Decoder{}, mp3.Sniff, "mp3")
	r.Register("vorbis", vorbis.Decoder{}, vorbis.Sniff, "ogg", "oga")
	r.Register("aiff", aiff.Decoder{}, aiff.Sniff, "aiff", "aif", "aifc")

	if bin, ok := ffmpeg.Available(); ok {
		d := ffmpeg.Decoder{Binary: bin}
		r.Register("mp4", d, ffmpeg.SniffMP4, "m4a", "mp4", "m4b")
		r.Register("adts", d, ffmpeg.SniffADTS, "aac")
		r.Register("flac", d, ffmpeg.SniffFLAC, "flac")
	}

	return r
}

type Option func(*Decoder)

func WithRegistry(r *audio.Registry) Option { return func(d *Decoder) { d.registry = r } }

// WithSampleRate resamples the output to hz. Zero keeps the source rate.
func WithSampleRate(hz int) Option { return func(d *Decoder) { d.sampleRate = hz } }

// WithMono down-mixes the output to one channel.
func WithMono(mono bool) Option { return func(d *Decoder) { d.mono = mono } }

// WithBitDepth selects 16 or 24-bit output.
func WithBitDepth(bits int) Option { return func(d *Decoder) { d.bitDepth = bits } }

func WithBufferSize(n int) Option { return func(d *Decoder) { d.bufSize = n } }

// Decoder turns audio files into PCM WAV files next to them. It is safe for
// concurrent use; requests for the same file share one decode.
type Decoder struct {
	registry   *audio.Registry
	sampleRate int
	mono       bool
	bitDepth   int
	bufSize    int

	group singleflight.Group
}

func New(opts ...Option) *Decoder {
	d := &Decoder{
		bitDepth: DefaultBitDepth,
		bufSize:  DefaultBufferSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.registry == nil {
		d.registry = DefaultRegistry()
	}
	if d.bitDepth != 16 && d.bitDepth != 24 {
		d.bitDepth = DefaultBitDepth
	}
	if d.bufSize <= 0 {
		d.bufSize = DefaultBufferSize
	}

	return d
}

// Formats lists the registered format names.
func (d *Decoder) Formats() []string { return d.registry.Formats() }

// OutputPath is where Decode writes the PCM version of src.
func OutputPath(src string) string {
	return strings.TrimSuffix(src, filepath.Ext(src)) + ".wav"
}

// Decode writes the PCM WAV version of sourcePath to OutputPath(sourcePath)
// and returns that path. The file is replaced atomically, so a failed
// decode leaves any previous output untouched. A source whose output path
// is itself is never rewritten.
func (d *Decoder) Decode(sourcePath string) (string, error) {
	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		return "", newError(ErrIOFailure, sourcePath, err)
	}
	key := filepath.Clean(abs)

	v, err, shared := d.group.Do(key, func() (any, error) {
		return d.decode(key)
	})
	if shared {
		logrus.WithFields(logrus.Fields{
			"function": "Decode",
			"path":     key,
		}).Debug("Joined in-flight decode")
	}
	if err != nil {
		return "", err
	}

	return v.(string), nil
}

func (d *Decoder) decode(path string) (string, error) {
	start := time.Now()
	log := logrus.WithFields(logrus.Fields{
		"function": "decode",
		"path":     path,
	})
	log.Debug("Decoding audio file")

	out, info, err := d.convert(path)
	if err != nil {
		log.WithError(err).Warn("Decode failed")
		return "", err
	}

	log.WithFields(logrus.Fields{
		"output":      out,
		"format":      info.format,
		"sample_rate": info.sampleRate,
		"channels":    info.channels,
		"frames":      info.frames,
		"elapsed":     time.Since(start).String(),
	}).Info("Decoded audio file")

	return out, nil
}

type result struct {
	format     string
	sampleRate int
	channels   int
	frames     int64
}

func (d *Decoder) convert(path string) (string, result, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", result{}, newError(ErrIOFailure, path, err)
	}
	defer f.Close()

	header := make([]byte, audio.SniffLen)
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", result{}, newError(ErrIOFailure, path, err)
	}
	header = header[:n]
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", result{}, newError(ErrIOFailure, path, err)
	}

	name, dec, err := d.registry.Lookup(header, path)
	if err != nil {
		if ffmpeg.SniffMP4(header) {
			err = fmt.Errorf("no AAC decoder available: %w", err)
		}
		return "", result{}, newError(ErrUnsupportedFormat, path, err)
	}

	out := OutputPath(path)
	if out == path && name != "wav" {
		return "", result{}, newError(ErrUnsupportedFormat, path,
			fmt.Errorf("%s content named %s would be overwritten by its output", name, filepath.Base(path)))
	}
	if out == path {
		info, err := wav.Probe(f)
		if err != nil {
			return "", result{}, newError(ErrUnsupportedFormat, path, err)
		}
		return path, result{
			format:     name,
			sampleRate: info.SampleRate,
			channels:   info.Channels,
			frames:     info.Frames,
		}, nil
	}

	src, err := dec.Decode(f)
	if err != nil {
		return "", result{}, newError(ErrCorruptInput, path, err)
	}
	defer src.Close()

	var s audio.Source = src
	if d.sampleRate > 0 && s.SampleRate() != d.sampleRate {
		s = audio.NewResampler(s, d.sampleRate)
	}
	if d.mono && s.Channels() > 1 {
		s = audio.NewMonoMixer(s)
	}

	frames, err := d.write(out, s)
	if err != nil {
		var de *Error
		if errors.As(err, &de) {
			de.Path = path
		}
		return "", result{}, err
	}

	return out, result{
		format:     name,
		sampleRate: s.SampleRate(),
		channels:   s.Channels(),
		frames:     frames,
	}, nil
}

// sinkTracker remembers whether a Copy failure came from the sink.
type sinkTracker struct {
	sink audio.Sink
	err  error
}

func (t *sinkTracker) WriteSamples(samples []float32) error {
	if err := t.sink.WriteSamples(samples); err != nil {
		t.err = err
		return err
	}
	return nil
}

// write renders s into a temp file next to out and renames it into place.
func (d *Decoder) write(out string, s audio.Source) (int64, error) {
	dir, base := filepath.Split(out)
	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return 0, newError(ErrIOFailure, out, err)
	}
	tmpName := tmp.Name()

	frames, err := d.encode(tmp, out, s)
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = newError(ErrIOFailure, out, cerr)
	}
	if err == nil {
		if rerr := os.Rename(tmpName, out); rerr != nil {
			err = newError(ErrIOFailure, out, rerr)
		}
	}
	if err != nil {
		os.Remove(tmpName)
		return 0, err
	}

	return frames, nil
}

func (d *Decoder) encode(f *os.File, out string, s audio.Source) (int64, error) {
	w, err := wav.NewWriter(f, s.SampleRate(), s.Channels(), d.bitDepth)
	if err != nil {
		return 0, newError(ErrCorruptInput, out, err)
	}

	t := &sinkTracker{sink: w}
	frames, err := audio.Copy(t, s, make([]float32, d.bufSize))
	if err != nil {
		if t.err != nil {
			return 0, newError(ErrIOFailure, out, err)
		}
		return 0, newError(ErrCorruptInput, out, err)
	}

	if err := w.Close(); err != nil {
		return 0, newError(ErrIOFailure, out, err)
	}

	return frames, nil
}
