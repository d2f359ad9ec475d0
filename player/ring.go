// SPDX-License-Identifier: EPL-2.0

package player

import "sync/atomic"

// ring is a single-producer single-consumer sample queue. The streamer
// writes, the render path reads; neither side blocks. Both sides move whole
// frames only, so a partial read never splits interleaved channels. Reset
// may only be called while both sides are stopped.
type ring struct {
	buf   []float32
	frame int

	r atomic.Uint64
	w atomic.Uint64
}

// newRing holds at least size samples, rounded up to whole frames.
func newRing(size, frame int) *ring {
	frame = max(frame, 1)
	frames := max((size+frame-1)/frame, 1)
	return &ring{buf: make([]float32, frames*frame), frame: frame}
}

// Cap is the capacity in samples; always a multiple of the frame size.
func (q *ring) Cap() int { return len(q.buf) }

// Len is the number of samples ready to read.
func (q *ring) Len() int { return int(q.w.Load() - q.r.Load()) }

// whole rounds n down to complete frames.
func (q *ring) whole(n int) int { return n - n%q.frame }

// Write copies the whole frames of p that fit and returns the sample count.
func (q *ring) Write(p []float32) int {
	w := q.w.Load()
	free := len(q.buf) - int(w-q.r.Load())
	n := q.whole(min(free, len(p)))

	size := uint64(len(q.buf))
	for i := range n {
		q.buf[(w+uint64(i))%size] = p[i]
	}
	q.w.Store(w + uint64(n))

	return n
}

// Read moves up to len(p) samples, in whole frames, into p and returns the
// count.
func (q *ring) Read(p []float32) int {
	r := q.r.Load()
	n := q.whole(min(int(q.w.Load()-r), len(p)))

	size := uint64(len(q.buf))
	for i := range n {
		p[i] = q.buf[(r+uint64(i))%size]
	}
	q.r.Store(r + uint64(n))

	return n
}

func (q *ring) Reset() {
	q.r.Store(0)
	q.w.Store(0)
}
