// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-audio/aiff"

	"github.com/ik5/tapdelay/audio"
)

// Sniff reports whether header starts an AIFF or AIFF-C file.
func Sniff(header []byte) bool {
	if len(header) < 12 || !bytes.Equal(header[:4], []byte("FORM")) {
		return false
	}
	kind := header[8:12]
	return bytes.Equal(kind, []byte("AIFF")) || bytes.Equal(kind, []byte("AIFC"))
}

type Decoder struct{}

// Decode implements audio.Decoder. go-audio needs an io.ReadSeeker, so
// other readers are buffered in memory.
func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	rs, err := audio.Seekable(r)
	if err != nil {
		return nil, fmt.Errorf("reading aiff data: %w", err)
	}

	dec := aiff.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotAiffFile
	}
	dec.ReadInfo()

	format := dec.Format()
	if format == nil || format.NumChannels <= 0 || format.SampleRate <= 0 {
		return nil, ErrUnsupportedAiffLayout
	}

	depth := int(dec.BitDepth)
	switch depth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, depth)
	}

	// AIFF stores 8-bit samples signed, unlike WAV.
	return audio.NewIntSource(dec, format.SampleRate, format.NumChannels, depth, false), nil
}
