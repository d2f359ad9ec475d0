// SPDX-License-Identifier: EPL-2.0

package player

import (
	"errors"
	"io"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/ik5/tapdelay/audio"
)

// streamer keeps the ring topped up from the source. fill runs on the
// control side (prefill on Start), on the streamer goroutine, or inline
// from render when the driver is not real-time; never on two at once.
type streamer struct {
	src  audio.Source
	ring *ring
	wake chan struct{}
	eof  atomic.Bool

	buf     []float32
	pending []float32
	drained bool
	err     error
}

func newStreamer(src audio.Source, q *ring, blockSamples int) *streamer {
	return &streamer{
		src:  src,
		ring: q,
		wake: make(chan struct{}, 1),
		buf:  make([]float32, blockSamples),
	}
}

// fill moves samples into the ring until it is full or the source is
// drained. It reports whether the whole source is now in the ring.
func (s *streamer) fill() bool {
	for {
		if len(s.pending) == 0 {
			if s.drained {
				s.eof.Store(true)
				return true
			}

			n, err := s.src.ReadSamples(s.buf)
			s.pending = s.buf[:n]
			if err != nil {
				s.drained = true
				if !errors.Is(err, io.EOF) {
					s.err = err
				}
			}
			continue
		}

		if len(s.pending) < s.ring.frame {
			if s.drained {
				s.pending = nil
				continue
			}
			s.topUp()
			continue
		}

		w := s.ring.Write(s.pending)
		s.pending = s.pending[w:]
		if len(s.pending) >= s.ring.frame {
			return false
		}
	}
}

// topUp completes a split frame left in pending with the next read.
func (s *streamer) topUp() {
	k := copy(s.buf, s.pending)
	n, err := s.src.ReadSamples(s.buf[k:])
	s.pending = s.buf[:k+n]
	if err != nil {
		s.drained = true
		if !errors.Is(err, io.EOF) {
			s.err = err
		}
	}
}

// notify wakes the streamer goroutine without blocking.
func (s *streamer) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *streamer) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for !s.fill() {
		select {
		case <-stop:
			return
		case <-s.wake:
		}
	}

	if s.err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "streamer.run",
			"error":    s.err.Error(),
		}).Error("Source read failed, ending stream early")
	}
}

// reset drops buffered state after the source was rewound.
func (s *streamer) reset() {
	s.ring.Reset()
	s.pending = nil
	s.drained = false
	s.err = nil
	s.eof.Store(false)
	select {
	case <-s.wake:
	default:
	}
}
