// SPDX-License-Identifier: EPL-2.0

package delay

import (
	"errors"
	"math"

	"github.com/ik5/tapdelay/utils"
)

// ErrInvalidSize is returned for a negative maximum offset.
var ErrInvalidSize = errors.New("delay line size must not be negative")

// Line is a circular history of the last Len() samples written.
//
// Offsets are measured from the most recent write: Read(0) returns the
// sample just written, Read(MaxOffset()) the oldest one still held. The
// buffer is allocated once; Write, Read and Reset never allocate.
type Line struct {
	buf []float32
	pos int // index of the most recent write
}

// SamplesFor returns the largest offset, in samples, a line must hold to
// delay by maxDelayMs at sampleRate.
func SamplesFor(maxDelayMs float64, sampleRate int) int {
	return int(math.Ceil(utils.MsToSamples(maxDelayMs, sampleRate)))
}

// NewLine allocates a line able to serve every offset in [0, maxOffset].
func NewLine(maxOffset int) (*Line, error) {
	if maxOffset < 0 {
		return nil, ErrInvalidSize
	}

	return &Line{buf: make([]float32, maxOffset+1)}, nil
}

// Len is the buffer length in samples.
func (l *Line) Len() int { return len(l.buf) }

// MaxOffset is the largest offset Read accepts.
func (l *Line) MaxOffset() int { return len(l.buf) - 1 }

// Write appends x, overwriting the oldest sample.
func (l *Line) Write(x float32) {
	l.pos++
	if l.pos == len(l.buf) {
		l.pos = 0
	}
	l.buf[l.pos] = x
}

// Read returns the sample written offset writes ago. Offsets past
// MaxOffset are clamped to it.
func (l *Line) Read(offset int) float32 {
	if offset > len(l.buf)-1 {
		offset = len(l.buf) - 1
	} else if offset < 0 {
		offset = 0
	}

	idx := l.pos - offset
	if idx < 0 {
		idx += len(l.buf)
	}
	return l.buf[idx]
}

// Reset zeroes the history in place.
func (l *Line) Reset() {
	clear(l.buf)
	l.pos = 0
}
