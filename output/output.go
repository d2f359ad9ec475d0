// SPDX-License-Identifier: EPL-2.0

// Package output drives a render callback at a given format.
//
// A Driver owns the goroutine (or device thread) that calls the RenderFunc.
// Stop returns only once no render call is in flight, so after Stop the
// caller may touch state the render path reads.
package output

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ik5/tapdelay/utils"
)

var (
	ErrInvalidFormat  = errors.New("invalid output format")
	ErrClosed         = errors.New("output driver closed")
	ErrFormatMismatch = errors.New("device already open with another format")
)

// RenderFunc fills out with interleaved samples. It must not block.
type RenderFunc func(out []float32)

type Driver interface {
	Start(render RenderFunc) error
	Stop() error
	Close() error
}

// Realtime is implemented by drivers that do not call render on a clock.
// Such drivers return false, and callers may then do blocking work in
// render.
type Realtime interface {
	Realtime() bool
}

// IsRealtime reports whether d paces render by a clock or device.
func IsRealtime(d Driver) bool {
	if rt, ok := d.(Realtime); ok {
		return rt.Realtime()
	}
	return true
}

// Format of the rendered stream.
type Format struct {
	SampleRate  int
	Channels    int
	BlockFrames int
}

func (f Format) Validate() error {
	if f.SampleRate <= 0 || f.Channels <= 0 || f.BlockFrames <= 0 {
		return fmt.Errorf("%w: %+v", ErrInvalidFormat, f)
	}
	return nil
}

// BlockSamples is the number of interleaved values per block.
func (f Format) BlockSamples() int { return f.BlockFrames * f.Channels }

// BlockDuration is the playback time of one block.
func (f Format) BlockDuration() time.Duration {
	return utils.FramesToDuration(int64(f.BlockFrames), f.SampleRate)
}

// Factory opens a driver for a format.
type Factory func(Format) (Driver, error)

// putFloat32LE encodes samples into dst, which must hold 4 bytes per sample.
func putFloat32LE(dst []byte, samples []float32) {
	for i, s := range samples {
		binary.LittleEndian.PutUint32(dst[4*i:], math.Float32bits(s))
	}
}
