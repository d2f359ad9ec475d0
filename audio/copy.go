// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"
)

// Copy streams src into dst until src reports io.EOF and returns the number
// of frames written. buf may be nil, in which case one is sized from
// src.BufSize().
func Copy(dst Sink, src Source, buf []float32) (int64, error) {
	ch := src.Channels()
	if ch <= 0 {
		return 0, ErrInvalidDstSize
	}

	if len(buf) < ch {
		size := max(src.BufSize(), ch)
		buf = make([]float32, size)
	}
	buf = buf[:len(buf)-len(buf)%ch]

	var frames int64
	for {
		n, err := src.ReadSamples(buf)
		n -= n % ch
		if n > 0 {
			if werr := dst.WriteSamples(buf[:n]); werr != nil {
				return frames, fmt.Errorf("write samples: %w", werr)
			}
			frames += int64(n / ch)
		}

		if errors.Is(err, io.EOF) {
			return frames, nil
		}
		if err != nil {
			return frames, fmt.Errorf("read samples: %w", err)
		}
		if n == 0 {
			return frames, io.ErrNoProgress
		}
	}
}
