// SPDX-License-Identifier: EPL-2.0

package output

import (
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/sirupsen/logrus"
)

// oto allows a single context per process, so the first Oto driver fixes
// the device format.
var (
	otoOnce   sync.Once
	otoCtx    *oto.Context
	otoFormat Format
	otoErr    error
)

func otoContext(f Format) (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   f.SampleRate,
			ChannelCount: f.Channels,
			Format:       oto.FormatFloat32LE,
			BufferSize:   2 * f.BlockDuration(),
		}

		var ready chan struct{}
		otoCtx, ready, otoErr = oto.NewContext(op)
		if otoErr != nil {
			otoErr = fmt.Errorf("oto context: %w", otoErr)
			return
		}
		<-ready
		otoFormat = f

		logrus.WithFields(logrus.Fields{
			"function":    "otoContext",
			"sample_rate": f.SampleRate,
			"channels":    f.Channels,
			"buffer":      op.BufferSize,
		}).Info("Audio device opened")
	})

	if otoErr != nil {
		return nil, otoErr
	}
	if otoFormat.SampleRate != f.SampleRate || otoFormat.Channels != f.Channels {
		return nil, fmt.Errorf("%w: have %d Hz x%d, want %d Hz x%d", ErrFormatMismatch,
			otoFormat.SampleRate, otoFormat.Channels, f.SampleRate, f.Channels)
	}
	return otoCtx, nil
}

// Oto plays through the default audio device.
type Oto struct {
	format Format
	ctx    *oto.Context

	mu     sync.Mutex
	player *oto.Player
	closed bool
}

// NewOto has the Factory signature.
func NewOto(f Format) (Driver, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	ctx, err := otoContext(f)
	if err != nil {
		return nil, err
	}
	return &Oto{format: f, ctx: ctx}, nil
}

func (o *Oto) Start(render RenderFunc) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return ErrClosed
	}
	if o.player != nil {
		return nil
	}

	o.player = o.ctx.NewPlayer(newPullReader(render, o.format))
	o.player.Play()
	return nil
}

// Stop closes the device player. oto stops reading before Close returns.
func (o *Oto) Stop() error {
	o.mu.Lock()
	p := o.player
	o.player = nil
	o.mu.Unlock()

	if p == nil {
		return nil
	}
	p.Pause()
	if err := p.Close(); err != nil {
		return fmt.Errorf("oto player: %w", err)
	}
	return nil
}

func (o *Oto) Close() error {
	err := o.Stop()

	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()

	return err
}

// pullReader turns a RenderFunc into the io.Reader oto pulls from.
type pullReader struct {
	render   RenderFunc
	channels int
	buf      []float32
}

func newPullReader(render RenderFunc, f Format) *pullReader {
	return &pullReader{
		render:   render,
		channels: f.Channels,
		buf:      make([]float32, f.BlockSamples()),
	}
}

// Read renders whole frames, at most one block per call.
func (r *pullReader) Read(p []byte) (int, error) {
	frames := len(p) / (4 * r.channels)
	n := min(frames*r.channels, len(r.buf))
	if n == 0 {
		return 0, nil
	}

	block := r.buf[:n]
	r.render(block)
	putFloat32LE(p, block)

	return 4 * n, nil
}
