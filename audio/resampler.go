// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/tapdelay/utils"
)

// Resampler streams from src to a target sample rate using cubic interpolation.
// Works on interleaved samples and preserves the channel count. A one-pole
// low-pass runs on the input when downsampling.
type Resampler struct {
	src      Source
	dstRate  int
	step     float64 // source frames consumed per output frame
	channels int

	// win holds the frames t-1, t0, t+1, t+2 around the read position.
	win    [4][]float32
	have   [4]bool
	primed bool
	frac   float64

	buf    []float32
	bufPos int
	bufLen int
	srcErr error

	lp       []float32
	lpAlpha  float32
	lpPrimed bool
}

func NewResampler(src Source, dstRate int) *Resampler {
	ch := src.Channels()

	r := &Resampler{
		src:      src,
		dstRate:  dstRate,
		step:     float64(src.SampleRate()) / float64(dstRate),
		channels: ch,
		lp:       make([]float32, ch),
	}

	if r.step > 1.0 {
		r.lpAlpha = 0.5
	}

	size := src.BufSize()
	if size < ch {
		size = 4096
	}
	r.buf = make([]float32, size-size%ch)

	for i := range r.win {
		r.win[i] = make([]float32, ch)
	}

	return r
}

func (r *Resampler) SampleRate() int { return r.dstRate }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("resampler: %w", err)
	}
	return nil
}

// pull copies the next source frame into dst.
func (r *Resampler) pull(dst []float32) (bool, error) {
	for r.bufPos >= r.bufLen {
		if r.srcErr != nil {
			return false, r.srcErr
		}

		n, err := r.src.ReadSamples(r.buf)
		r.bufPos, r.bufLen = 0, n-n%r.channels
		if err != nil {
			r.srcErr = err
		} else if n == 0 {
			r.srcErr = io.ErrNoProgress
		}
	}

	copy(dst, r.buf[r.bufPos:r.bufPos+r.channels])
	r.bufPos += r.channels

	if r.lpAlpha > 0 {
		if !r.lpPrimed {
			copy(r.lp, dst)
			r.lpPrimed = true
		}
		for c := range dst {
			// y[n] = a*x[n] + (1-a)*y[n-1]
			dst[c] = r.lpAlpha*dst[c] + (1-r.lpAlpha)*r.lp[c]
			r.lp[c] = dst[c]
		}
	}

	return true, nil
}

func (r *Resampler) fill(slot int) error {
	ok, err := r.pull(r.win[slot])
	r.have[slot] = ok
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// shift advances the window by one source frame.
func (r *Resampler) shift() error {
	first := r.win[0]
	copy(r.win[:], r.win[1:])
	r.win[3] = first
	copy(r.have[:], r.have[1:])

	return r.fill(3)
}

func (r *Resampler) prime() error {
	for slot := 1; slot < 4; slot++ {
		if err := r.fill(slot); err != nil {
			return err
		}
	}
	r.primed = true
	return nil
}

// ReadSamples produces dst samples at the target rate.
// dst length should be a multiple of the channel count.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	if r.step == 1.0 {
		return r.src.ReadSamples(dst)
	}

	if !r.primed {
		if err := r.prime(); err != nil {
			return 0, fmt.Errorf("resampler: %w", err)
		}
	}

	frames := len(dst) / r.channels
	written := 0

	for written < frames {
		for r.frac >= 1.0 {
			r.frac -= 1.0
			if err := r.shift(); err != nil {
				return written * r.channels, fmt.Errorf("resampler: %w", err)
			}
		}

		if !r.have[1] {
			return written * r.channels, io.EOF
		}

		y0, y1, y2, y3 := r.win[1], r.win[1], r.win[1], r.win[1]
		if r.have[0] {
			y0 = r.win[0]
		}
		if r.have[2] {
			y2 = r.win[2]
			y3 = y2
		}
		if r.have[3] {
			y3 = r.win[3]
		}

		x := float32(r.frac)
		out := dst[written*r.channels : (written+1)*r.channels]
		for c := range out {
			out[c] = utils.CubicInterpolate(y0[c], y1[c], y2[c], y3[c], x)
		}

		written++
		r.frac += r.step
	}

	return written * r.channels, nil
}
