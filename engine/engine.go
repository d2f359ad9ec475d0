// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"fmt"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ik5/tapdelay/delay"
)

// Engine is a multi-tap delay with one delay line per channel.
//
// Setters may be called from any goroutine; they are serialised by a
// control mutex and publish an immutable snapshot that Process loads once
// per block. Process itself takes no lock and does not allocate, but must
// not be called from two goroutines at once.
type Engine struct {
	sampleRate int
	maxDelayMs float64
	channels   int
	maxBlock   int
	budget     float64
	now        func() time.Time

	lines   []*delay.Line
	scratch []float32

	state      atomic.Pointer[snapshot]
	resetReq   atomic.Bool
	faults     chan Fault
	faultCount atomic.Int64

	ctl       sync.Mutex
	params    Params
	observers []func(Params)
}

// Option configures an Engine.
type Option func(*Engine)

// WithChannels sets the number of delay lines (interleaved channels).
func WithChannels(n int) Option { return func(e *Engine) { e.channels = n } }

// WithMaxBlock sizes the dry copy used for passthrough recovery. Larger
// blocks are processed in chunks of this many frames.
func WithMaxBlock(frames int) Option { return func(e *Engine) { e.maxBlock = frames } }

// WithBudget sets the render budget as a fraction of the block duration.
// Zero disables the check.
func WithBudget(fraction float64) Option { return func(e *Engine) { e.budget = fraction } }

// WithClock replaces time.Now for the budget check.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithFaultBuffer sets the capacity of the Faults channel.
func WithFaultBuffer(n int) Option {
	return func(e *Engine) { e.faults = make(chan Fault, max(n, 0)) }
}

// WithParams sets the initial state instead of DefaultParams.
func WithParams(p Params) Option { return func(e *Engine) { e.params = p } }

// New configures an engine for sampleRate with lines long enough for
// maxDelayMs.
func New(sampleRate int, maxDelayMs float64, opts ...Option) (*Engine, error) {
	if sampleRate <= 0 || sampleRate > MaxSampleRate {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}
	if math.IsNaN(maxDelayMs) || maxDelayMs <= 0 || maxDelayMs > MaxDelayLimitMs {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMaxDelay, maxDelayMs)
	}

	e := &Engine{
		sampleRate: sampleRate,
		maxDelayMs: maxDelayMs,
		channels:   1,
		maxBlock:   DefaultMaxBlock,
		budget:     1,
		now:        time.Now,
		params:     DefaultParams(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.channels < 1 || e.channels > MaxChannels {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChannels, e.channels)
	}
	if e.maxBlock <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMaxBlock, e.maxBlock)
	}
	if e.faults == nil {
		e.faults = make(chan Fault, 16)
	}

	maxOffset := delay.SamplesFor(maxDelayMs, sampleRate)
	e.lines = make([]*delay.Line, e.channels)
	for c := range e.lines {
		line, err := delay.NewLine(maxOffset)
		if err != nil {
			return nil, err
		}
		e.lines[c] = line
	}
	e.scratch = make([]float32, e.maxBlock*e.channels)

	e.params = e.params.clamp(maxDelayMs)
	e.state.Store(newSnapshot(e.params, sampleRate))

	logrus.WithFields(logrus.Fields{
		"function":     "New",
		"sample_rate":  sampleRate,
		"max_delay_ms": maxDelayMs,
		"max_offset":   maxOffset,
		"channels":     e.channels,
		"taps":         e.params.Taps,
		"delay_ms":     e.params.TotalDelayMs,
	}).Debug("Delay engine configured")

	return e, nil
}

// update applies fn to a copy of the control state, clamps and publishes
// it, then notifies observers outside the lock.
func (e *Engine) update(fn func(*Params)) {
	e.ctl.Lock()
	p := e.params
	fn(&p)
	p = p.clamp(e.maxDelayMs)
	e.params = p
	e.state.Store(newSnapshot(p, e.sampleRate))
	observers := e.observers
	e.ctl.Unlock()

	for _, fn := range observers {
		fn(p)
	}
}

// SetEnabled switches the effect on or off. Lines keep filling while off.
func (e *Engine) SetEnabled(enabled bool) {
	e.update(func(p *Params) { p.Enabled = enabled })
}

// SetTaps sets the tap count and the delay of the last tap in one commit.
func (e *Engine) SetTaps(count int, totalDelayMs float64) {
	e.update(func(p *Params) {
		p.Taps = count
		p.TotalDelayMs = totalDelayMs
	})
}

// SetTotalDelay moves the last tap, keeping the count.
func (e *Engine) SetTotalDelay(totalDelayMs float64) {
	e.update(func(p *Params) { p.TotalDelayMs = totalDelayMs })
}

// SetWet sets the wet share of the mix, clamped to [0, 1].
func (e *Engine) SetWet(wet float64) {
	e.update(func(p *Params) { p.Wet = wet })
}

// SetAttenuation sets the per-tap decay, clamped to [MinAttenuation, 1].
func (e *Engine) SetAttenuation(a float64) {
	if a == 0 {
		a = delay.MinAttenuation
	}
	e.update(func(p *Params) { p.Attenuation = a })
}

// Apply replaces the whole state in one commit.
func (e *Engine) Apply(params Params) {
	e.update(func(p *Params) { *p = params })
}

// Reset clears every delay line at the next block boundary.
func (e *Engine) Reset() { e.resetReq.Store(true) }

// OnCommit registers fn to run after every commit, on the committing
// goroutine.
func (e *Engine) OnCommit(fn func(Params)) {
	e.ctl.Lock()
	defer e.ctl.Unlock()

	e.observers = append(slices.Clip(e.observers), fn)
}

// SampleRate is the rate the engine was configured with.
func (e *Engine) SampleRate() int { return e.sampleRate }

// MaxDelayMs is the longest total delay the lines can hold.
func (e *Engine) MaxDelayMs() float64 { return e.maxDelayMs }

// Channels is the number of delay lines.
func (e *Engine) Channels() int { return e.channels }

// Params returns the committed, clamped parameters.
func (e *Engine) Params() Params { return e.state.Load().params }

// Enabled reports whether the effect is applied.
func (e *Engine) Enabled() bool { return e.Params().Enabled }

// TapCount is the committed number of taps.
func (e *Engine) TapCount() int { return e.Params().Taps }

// TotalDelayMs is the delay of the last tap.
func (e *Engine) TotalDelayMs() float64 { return e.Params().TotalDelayMs }

// Wet is the committed wet share of the mix.
func (e *Engine) Wet() float64 { return e.Params().Wet }

// Attenuation is the committed per-tap decay.
func (e *Engine) Attenuation() float64 { return e.Params().Attenuation }

// Taps returns a copy of the committed tap table.
func (e *Engine) Taps() delay.Taps { return slices.Clone(e.state.Load().taps) }

// Process filters a mono block in place.
func (e *Engine) Process(block []float32) { e.ProcessInterleaved(block, 1) }

// ProcessInterleaved filters an interleaved block in place. Any fault
// leaves the block exactly as it came in.
func (e *Engine) ProcessInterleaved(block []float32, channels int) {
	if len(block) == 0 {
		return
	}
	if channels <= 0 || channels > len(e.lines) {
		e.report(Fault{Kind: FaultChannels, At: e.now(), Frames: len(block) / max(channels, 1), Channels: channels})
		return
	}

	if e.resetReq.CompareAndSwap(true, false) {
		for _, l := range e.lines {
			l.Reset()
		}
	}

	s := e.state.Load()
	chunk := e.maxBlock * channels
	block = block[:len(block)-len(block)%channels]
	for start := 0; start < len(block); start += chunk {
		e.processChunk(block[start:min(start+chunk, len(block))], channels, s)
	}
}

func (e *Engine) processChunk(block []float32, channels int, s *snapshot) {
	dry := e.scratch[:len(block)]
	copy(dry, block)
	frames := len(block) / channels

	var start time.Time
	if e.budget > 0 {
		start = e.now()
	}

	defer func() {
		if r := recover(); r != nil {
			copy(block, dry)
			e.report(Fault{Kind: FaultPanic, At: e.now(), Frames: frames, Channels: channels, Value: r})
		}
	}()

	e.mix(block, channels, s)

	if e.budget > 0 {
		elapsed := e.now().Sub(start)
		limit := time.Duration(e.budget * float64(frames) * float64(time.Second) / float64(e.sampleRate))
		if elapsed > limit {
			copy(block, dry)
			e.report(Fault{Kind: FaultRenderOverrun, At: start, Frames: frames, Channels: channels, Elapsed: elapsed})
		}
	}
}

func (e *Engine) mix(block []float32, channels int, s *snapshot) {
	lines := e.lines[:channels]

	if !s.params.Enabled {
		for i, x := range block {
			lines[i%channels].Write(x)
		}
		return
	}

	for i, x := range block {
		line := lines[i%channels]
		line.Write(x)

		var acc float32
		for _, tap := range s.taps {
			acc += tap.Gain * line.Read(tap.Offset)
		}
		block[i] = s.dry*x + s.wet*acc
	}
}

// Filter processes block with ctx, which must be an *Engine. It matches the
// filter.Func signature so an engine can be registered on a player.
func Filter(ctx any, block []float32, channels int) {
	if e, ok := ctx.(*Engine); ok {
		e.ProcessInterleaved(block, channels)
	}
}
