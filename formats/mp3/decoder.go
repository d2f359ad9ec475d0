// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/ik5/tapdelay/audio"
	"github.com/ik5/tapdelay/utils"
)

// ErrInvalidStream is returned when go-mp3 cannot find a valid frame.
var ErrInvalidStream = errors.New("invalid MP3 stream")

// go-mp3 always produces 16-bit little-endian stereo.
const (
	channels       = 2
	bytesPerSample = 2
	bytesPerFrame  = channels * bytesPerSample
)

// mp3Reader is the part of gomp3.Decoder used by source.
type mp3Reader interface {
	Read([]byte) (int, error)
	SampleRate() int
	Length() int64
}

type source struct {
	dec        mp3Reader
	sampleRate int
	buf        []byte
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return channels }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int    { return cap(s.buf) / bytesPerSample }

// Frames is the decoded length, or -1 when the stream is not seekable.
func (s *source) Frames() int64 {
	n := s.dec.Length()
	if n < 0 {
		return -1
	}
	return n / bytesPerFrame
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	want := (len(dst) - len(dst)%channels) * bytesPerSample
	if want == 0 {
		return 0, nil
	}
	if cap(s.buf) < want {
		s.buf = make([]byte, want)
	}
	s.buf = s.buf[:want]

	n, err := io.ReadFull(s.dec, s.buf)
	samples := (n - n%bytesPerFrame) / bytesPerSample
	for i := range samples {
		v := int16(uint16(s.buf[2*i]) | uint16(s.buf[2*i+1])<<8)
		dst[i] = utils.Int16ToFloat32(v)
	}

	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		if samples == 0 {
			return 0, io.EOF
		}
		return samples, nil
	case err != nil:
		return samples, fmt.Errorf("mp3: %w", err)
	}
	return samples, nil
}

// Sniff reports whether header starts with an ID3v2 tag or an MPEG audio
// frame header.
func Sniff(header []byte) bool {
	if len(header) >= 3 && bytes.Equal(header[:3], []byte("ID3")) {
		return true
	}
	if len(header) < 2 {
		return false
	}
	// 11-bit sync, and a non-zero layer so AAC ADTS (layer 00) is excluded.
	return header[0] == 0xFF && header[1]&0xE0 == 0xE0 && header[1]&0x06 != 0
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidStream, err)
	}

	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		buf:        make([]byte, 8192),
	}, nil
}
