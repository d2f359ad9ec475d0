// SPDX-License-Identifier: EPL-2.0

package output

import (
	"fmt"
	"sync"

	"github.com/ik5/tapdelay/audio"
)

// Offline renders as fast as possible into a sample sink, for bouncing to
// a file. It stops by itself after limit frames when limit is positive.
type Offline struct {
	format Format
	sink   audio.Sink
	limit  int64

	mu       sync.Mutex
	stop     chan struct{}
	done     chan struct{}
	closed   bool
	frames   int64
	err      error
	finished chan struct{}
	finOnce  sync.Once
}

func NewOffline(f Format, sink audio.Sink, limit int64) (*Offline, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &Offline{format: f, sink: sink, limit: limit, finished: make(chan struct{})}, nil
}

// OfflineFactory adapts NewOffline to Factory. The created driver is also
// sent to created, when non-nil, so callers can wait on Done.
func OfflineFactory(sink audio.Sink, limit int64, created chan<- *Offline) Factory {
	return func(f Format) (Driver, error) {
		o, err := NewOffline(f, sink, limit)
		if err != nil {
			return nil, err
		}
		if created != nil {
			created <- o
		}
		return o, nil
	}
}

// Realtime is false: render is called back to back.
func (o *Offline) Realtime() bool { return false }

func (o *Offline) Start(render RenderFunc) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return ErrClosed
	}
	if o.stop != nil {
		return nil
	}

	o.stop = make(chan struct{})
	o.done = make(chan struct{})
	go o.run(render, o.stop, o.done)

	return nil
}

func (o *Offline) run(render RenderFunc, stop, done chan struct{}) {
	defer close(done)

	ch := o.format.Channels
	buf := make([]float32, o.format.BlockSamples())

	for {
		select {
		case <-stop:
			return
		default:
		}

		o.mu.Lock()
		frames := o.frames
		o.mu.Unlock()

		block := buf
		if o.limit > 0 {
			left := o.limit - frames
			if left <= 0 {
				o.finish()
				return
			}
			block = buf[:min(int64(len(buf)), left*int64(ch))]
		}

		render(block)

		if err := o.sink.WriteSamples(block); err != nil {
			o.mu.Lock()
			o.err = fmt.Errorf("offline sink: %w", err)
			o.mu.Unlock()
			o.finish()
			return
		}

		o.mu.Lock()
		o.frames += int64(len(block) / ch)
		o.mu.Unlock()
	}
}

func (o *Offline) finish() {
	o.finOnce.Do(func() { close(o.finished) })
}

// Done is closed once the frame limit is reached or the sink fails.
func (o *Offline) Done() <-chan struct{} { return o.finished }

func (o *Offline) Stop() error {
	o.mu.Lock()
	stop, done := o.stop, o.done
	o.stop, o.done = nil, nil
	o.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)
	<-done

	return nil
}

func (o *Offline) Close() error {
	err := o.Stop()

	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()

	return err
}

// Frames written to the sink.
func (o *Offline) Frames() int64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.frames
}

// Err returns the sink error that ended rendering, if any.
func (o *Offline) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.err
}
