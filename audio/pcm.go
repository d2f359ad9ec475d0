// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"

	"github.com/ik5/tapdelay/utils"
)

// PCMReader is the read side shared by the go-audio wav and aiff decoders.
type PCMReader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// IntSource adapts a PCMReader to Source, normalising integer PCM to [-1,1].
type IntSource struct {
	r          PCMReader
	sampleRate int
	channels   int
	bitDepth   int
	bias       int // subtracted before scaling, 128 for unsigned 8-bit data
	buf        *goaudio.IntBuffer
	closer     io.Closer
}

// NewIntSource wraps r. unsigned8 marks 8-bit data stored as unsigned bytes.
func NewIntSource(r PCMReader, sampleRate, channels, bitDepth int, unsigned8 bool) *IntSource {
	s := &IntSource{
		r:          r,
		sampleRate: sampleRate,
		channels:   channels,
		bitDepth:   bitDepth,
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
			Data:           make([]int, 4096-4096%channels),
			SourceBitDepth: bitDepth,
		},
	}
	if unsigned8 && bitDepth == 8 {
		s.bias = 128
	}
	return s
}

// SetCloser registers c to be closed with the source.
func (s *IntSource) SetCloser(c io.Closer) { s.closer = c }

// Reset swaps the underlying reader, e.g. after seeking back to the data chunk.
func (s *IntSource) Reset(r PCMReader) { s.r = r }

func (s *IntSource) SampleRate() int { return s.sampleRate }
func (s *IntSource) Channels() int   { return s.channels }
func (s *IntSource) BitDepth() int   { return s.bitDepth }
func (s *IntSource) BufSize() int    { return cap(s.buf.Data) }

func (s *IntSource) Close() error {
	if s.closer == nil {
		return nil
	}
	if err := s.closer.Close(); err != nil {
		return fmt.Errorf("close pcm source: %w", err)
	}
	return nil
}

func (s *IntSource) ReadSamples(dst []float32) (int, error) {
	want := len(dst) - len(dst)%s.channels
	if want == 0 {
		return 0, nil
	}

	if cap(s.buf.Data) < want {
		s.buf.Data = make([]int, want)
	}
	s.buf.Data = s.buf.Data[:want]

	n, err := s.r.PCMBuffer(s.buf)
	for i, v := range s.buf.Data[:n] {
		dst[i] = utils.IntToFloat32(v-s.bias, s.bitDepth)
	}

	switch {
	case err != nil && !errors.Is(err, io.EOF):
		return n, fmt.Errorf("read pcm: %w", err)
	case n == 0:
		return 0, io.EOF
	}
	return n, nil
}

// Seekable returns r as an io.ReadSeeker, buffering it in memory when r
// cannot seek.
func Seekable(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("buffer input: %w", err)
	}
	return bytes.NewReader(data), nil
}
