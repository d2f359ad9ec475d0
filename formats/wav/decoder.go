// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-audio/wav"

	"github.com/ik5/tapdelay/audio"
	"github.com/ik5/tapdelay/utils"
)

const (
	formatPCM        = 1
	formatExtensible = 0xFFFE
)

// Info describes the PCM stream of a WAV file.
type Info struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Frames     int64
}

// Duration of the stream.
func (i Info) Duration() time.Duration {
	return utils.FramesToDuration(i.Frames, i.SampleRate)
}

// Sniff reports whether header starts a RIFF/WAVE file.
func Sniff(header []byte) bool {
	return len(header) >= 12 &&
		bytes.Equal(header[:4], []byte("RIFF")) &&
		bytes.Equal(header[8:12], []byte("WAVE"))
}

// open parses the header of rs and leaves the decoder at the first PCM byte.
func open(rs io.ReadSeeker) (*wav.Decoder, Info, error) {
	dec := wav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, Info{}, ErrNotWavFile
	}

	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return nil, Info{}, fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}

	if dec.WavAudioFormat != formatPCM && dec.WavAudioFormat != formatExtensible {
		return nil, Info{}, fmt.Errorf("%w: format tag %#x", ErrUnsupportedEncoding, dec.WavAudioFormat)
	}

	info := Info{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}

	switch info.BitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, Info{}, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, info.BitDepth)
	}
	if info.SampleRate <= 0 || info.Channels <= 0 {
		return nil, Info{}, ErrInvalidHeader
	}

	if err := dec.FwdToPCM(); err != nil {
		return nil, Info{}, fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}
	info.Frames = int64(dec.PCMSize) / int64(info.Channels*info.BitDepth/8)

	return dec, info, nil
}

// Probe reads only the header of rs.
func Probe(rs io.ReadSeeker) (Info, error) {
	_, info, err := open(rs)
	return info, err
}

// ProbeFile reads only the header of the file at path.
func ProbeFile(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	return Probe(f)
}

// Source streams PCM frames from a WAV file and can be rewound.
type Source struct {
	*audio.IntSource

	rs   io.ReadSeeker
	info Info
}

// NewSource parses the header of rs and positions the stream at the first frame.
func NewSource(rs io.ReadSeeker) (*Source, error) {
	dec, info, err := open(rs)
	if err != nil {
		return nil, err
	}

	return &Source{
		IntSource: audio.NewIntSource(dec, info.SampleRate, info.Channels, info.BitDepth, true),
		rs:        rs,
		info:      info,
	}, nil
}

// OpenFile opens path as a Source that owns the file handle.
func OpenFile(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}

	src, err := NewSource(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	src.SetCloser(f)

	return src, nil
}

func (s *Source) Info() Info { return s.info }

// Rewind moves the stream back to the first frame.
func (s *Source) Rewind() error {
	if _, err := s.rs.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind wav: %w", err)
	}

	dec, _, err := open(s.rs)
	if err != nil {
		return fmt.Errorf("rewind wav: %w", err)
	}
	s.Reset(dec)

	return nil
}

type Decoder struct{}

// Decode implements audio.Decoder. Non-seekable readers are buffered in memory.
func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	rs, err := audio.Seekable(r)
	if err != nil {
		return nil, err
	}

	return NewSource(rs)
}
