// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"

	"github.com/ik5/tapdelay/audio"
)

// ErrInvalidStream is returned when the Ogg/Vorbis headers cannot be parsed.
var ErrInvalidStream = errors.New("invalid Ogg Vorbis stream")

// oggReader is the part of oggvorbis.Reader used by source.
type oggReader interface {
	SampleRate() int
	Channels() int
	// Read fills p with interleaved samples and returns the number of
	// values written, not frames.
	Read(p []float32) (int, error)
}

type source struct {
	dec        oggReader
	sampleRate int
	channels   int
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int    { return 4096 }

func (s *source) ReadSamples(dst []float32) (int, error) {
	want := len(dst) - len(dst)%s.channels
	if want == 0 {
		return 0, nil
	}

	n, err := s.dec.Read(dst[:want])
	switch {
	case errors.Is(err, io.EOF):
		if n == 0 {
			return 0, io.EOF
		}
		return n, nil
	case err != nil:
		return n, fmt.Errorf("vorbis: %w", err)
	}
	return n, nil
}

// Sniff reports whether header starts an Ogg page.
func Sniff(header []byte) bool {
	return bytes.HasPrefix(header, []byte("OggS"))
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidStream, err)
	}

	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		channels:   dec.Channels(),
	}, nil
}
