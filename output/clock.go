// SPDX-License-Identifier: EPL-2.0

package output

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Clock calls render once per block duration from its own goroutine,
// emulating a device without needing one. Rendered blocks go to an
// optional io.Writer as float32 little-endian.
type Clock struct {
	format Format
	sink   io.Writer

	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	closed  bool
	blocks  int64
	sinkErr error
}

// NewClock returns a stopped Clock. sink may be nil.
func NewClock(f Format, sink io.Writer) (*Clock, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &Clock{format: f, sink: sink}, nil
}

// ClockFactory adapts NewClock to Factory.
func ClockFactory(sink io.Writer) Factory {
	return func(f Format) (Driver, error) {
		return NewClock(f, sink)
	}
}

// Start is a no-op while running.
func (c *Clock) Start(render RenderFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.stop != nil {
		return nil
	}

	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go c.run(render, c.stop, c.done)

	return nil
}

func (c *Clock) run(render RenderFunc, stop, done chan struct{}) {
	defer close(done)

	buf := make([]float32, c.format.BlockSamples())
	var raw []byte
	if c.sink != nil {
		raw = make([]byte, 4*len(buf))
	}

	ticker := time.NewTicker(c.format.BlockDuration())
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		render(buf)

		c.mu.Lock()
		c.blocks++
		c.mu.Unlock()

		if raw == nil {
			continue
		}
		putFloat32LE(raw, buf)
		if _, err := c.sink.Write(raw); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Clock.run",
				"error":    err.Error(),
			}).Error("Clock sink write failed, discarding further output")

			c.mu.Lock()
			c.sinkErr = fmt.Errorf("clock sink: %w", err)
			c.mu.Unlock()
			raw = nil
		}
	}
}

// Stop waits for the in-flight block, at most one block duration.
func (c *Clock) Stop() error {
	c.mu.Lock()
	stop, done := c.stop, c.done
	c.stop, c.done = nil, nil
	c.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)
	<-done

	return nil
}

func (c *Clock) Close() error {
	err := c.Stop()

	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	return err
}

// Blocks rendered so far.
func (c *Clock) Blocks() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.blocks
}

// Err returns the first sink error, if any.
func (c *Clock) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sinkErr
}
