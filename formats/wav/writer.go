// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ik5/tapdelay/utils"
)

// Writer streams float32 samples into an integer PCM WAV file.
// The header sizes are patched on Close.
type Writer struct {
	enc      *wav.Encoder
	buf      *goaudio.IntBuffer
	channels int
	bitDepth int
	frames   int64
	closer   io.Closer
	closed   bool
}

// NewWriter starts a WAV stream on ws. bitDepth must be 16 or 24.
func NewWriter(ws io.WriteSeeker, sampleRate, channels, bitDepth int) (*Writer, error) {
	if bitDepth != 16 && bitDepth != 24 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}
	if sampleRate <= 0 || channels <= 0 {
		return nil, ErrInvalidHeader
	}

	return &Writer{
		enc: wav.NewEncoder(ws, sampleRate, bitDepth, channels, formatPCM),
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
			SourceBitDepth: bitDepth,
		},
		channels: channels,
		bitDepth: bitDepth,
	}, nil
}

// Create truncates or creates path and returns a Writer owning the file.
func Create(path string, sampleRate, channels, bitDepth int) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create wav: %w", err)
	}

	w, err := NewWriter(f, sampleRate, channels, bitDepth)
	if err != nil {
		f.Close()
		return nil, err
	}
	w.closer = f

	return w, nil
}

// WriteSamples appends interleaved samples; values outside [-1,1] are clipped.
func (w *Writer) WriteSamples(samples []float32) error {
	if w.closed {
		return ErrWriterClosed
	}
	if len(samples) == 0 {
		return nil
	}

	if cap(w.buf.Data) < len(samples) {
		w.buf.Data = make([]int, len(samples))
	}
	w.buf.Data = w.buf.Data[:len(samples)]

	for i, s := range samples {
		w.buf.Data[i] = utils.Float32ToInt(s, w.bitDepth)
	}

	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	w.frames += int64(len(samples) / w.channels)

	return nil
}

// Frames written so far.
func (w *Writer) Frames() int64 { return w.frames }

// Close finalises the header and closes the file when the Writer owns it.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	var err error
	if w.frames == 0 {
		// the encoder emits its header on the first write
		w.buf.Data = w.buf.Data[:0]
		err = w.enc.Write(w.buf)
	}
	if cerr := w.enc.Close(); err == nil {
		err = cerr
	}
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return fmt.Errorf("close wav: %w", err)
	}
	return nil
}
