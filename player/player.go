// SPDX-License-Identifier: EPL-2.0

package player

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ik5/tapdelay/filter"
	"github.com/ik5/tapdelay/formats/wav"
	"github.com/ik5/tapdelay/output"
	"github.com/ik5/tapdelay/utils"
)

const (
	DefaultBlockFrames = 512
	DefaultReadAhead   = 8
)

type Option func(*Player)

// WithDriver sets the factory used to open a driver for each file.
func WithDriver(f output.Factory) Option { return func(p *Player) { p.factory = f } }

// WithBlockFrames sets the frames per render block.
func WithBlockFrames(n int) Option { return func(p *Player) { p.blockFrames = n } }

// WithReadAhead sets the ring size in blocks.
func WithReadAhead(blocks int) Option { return func(p *Player) { p.readAhead = blocks } }

// Player streams a PCM WAV file through a filter chain into an output
// driver. Transport methods are safe for concurrent use; Render is the
// driver's callback.
type Player struct {
	factory     output.Factory
	blockFrames int
	readAhead   int

	chain filter.Chain

	state     atomic.Int32
	gen       atomic.Uint64
	frames    atomic.Int64
	underruns atomic.Int64
	eos       chan uint64

	// Set under mu while no render can run.
	channels int
	inline   bool
	stream   *streamer

	mu       sync.Mutex
	path     string
	src      *wav.Source
	info     wav.Info
	driver   output.Driver
	done     chan struct{}
	stopPump chan struct{}
	pumpDone chan struct{}
	stopSup  chan struct{}
}

// New returns a closed player.
func New(opts ...Option) *Player {
	p := &Player{
		factory:     output.ClockFactory(nil),
		blockFrames: DefaultBlockFrames,
		readAhead:   DefaultReadAhead,
		eos:         make(chan uint64, 1),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.blockFrames <= 0 {
		p.blockFrames = DefaultBlockFrames
	}
	if p.readAhead < 2 {
		p.readAhead = 2
	}

	return p
}

// State is safe to call from the render path.
func (p *Player) State() State { return State(p.state.Load()) }

func (p *Player) setState(s State) { p.state.Store(int32(s)) }

// Frames is the number of frames rendered since the last Start from Ready.
func (p *Player) Frames() int64 { return p.frames.Load() }

// Underruns counts blocks padded with silence because the ring ran dry.
func (p *Player) Underruns() int64 { return p.underruns.Load() }

// Position is the playback time of the frames rendered so far.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	rate := p.info.SampleRate
	p.mu.Unlock()

	return utils.FramesToDuration(p.frames.Load(), rate)
}

// Status is a consistent view of the open file and transport.
func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Status{
		Path:       p.path,
		Position:   utils.FramesToDuration(p.frames.Load(), p.info.SampleRate),
		State:      p.State(),
		SampleRate: p.info.SampleRate,
		Channels:   p.info.Channels,
	}
}

// Done is closed when the current playback reaches the end of the file.
// Each Start from Ready replaces it.
func (p *Player) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.done
}

// RegisterFilter appends fn to the chain run on every rendered block.
func (p *Player) RegisterFilter(fn filter.Func, ctx any) filter.Handle {
	return p.chain.Register(fn, ctx)
}

// UnregisterFilter removes the filter registered under h. A block already
// being rendered may still call it once.
func (p *Player) UnregisterFilter(h filter.Handle) bool {
	return p.chain.Unregister(h)
}

// Open closes any open file and prepares path for playback.
func (p *Player) Open(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closeLocked()
	p.setState(Opening)

	err := p.openLocked(path)
	if err != nil {
		p.setState(Closed)
		logrus.WithFields(logrus.Fields{
			"function": "Open",
			"path":     path,
			"error":    err.Error(),
		}).Warn("Failed to open audio file")
		return err
	}

	p.setState(Ready)
	logrus.WithFields(logrus.Fields{
		"function":    "Open",
		"path":        path,
		"sample_rate": p.info.SampleRate,
		"channels":    p.info.Channels,
		"frames":      p.info.Frames,
		"realtime":    !p.inline,
	}).Info("Opened audio file")

	return nil
}

func (p *Player) openLocked(path string) error {
	st, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrFileNotFound, path)
	case err != nil:
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	case !st.Mode().IsRegular():
		return fmt.Errorf("%w: %s is not a regular file", ErrIOFailure, path)
	}

	src, err := wav.OpenFile(path)
	if err != nil {
		if errors.Is(err, wav.ErrNotWavFile) || errors.Is(err, wav.ErrUnsupportedEncoding) ||
			errors.Is(err, wav.ErrUnsupportedBitDepth) || errors.Is(err, wav.ErrInvalidHeader) {
			return fmt.Errorf("%w: %s: %w", ErrUnsupportedFormat, path, err)
		}
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	info := src.Info()
	format := output.Format{
		SampleRate:  info.SampleRate,
		Channels:    info.Channels,
		BlockFrames: p.blockFrames,
	}
	drv, err := p.factory(format)
	if err != nil {
		src.Close()
		return fmt.Errorf("%w: open driver: %w", ErrIOFailure, err)
	}

	p.path = path
	p.src = src
	p.info = info
	p.driver = drv
	p.channels = info.Channels
	p.inline = !output.IsRealtime(drv)
	p.stream = newStreamer(src, newRing(p.readAhead*format.BlockSamples(), info.Channels), format.BlockSamples())
	p.frames.Store(0)
	p.underruns.Store(0)

	p.stopSup = make(chan struct{})
	go p.supervise(p.stopSup)

	return nil
}

// Start begins playback from Ready or resumes it from Paused.
func (p *Player) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch st := p.State(); st {
	case Playing:
		return nil
	case Paused:
		p.setState(Playing)
		logrus.WithFields(logrus.Fields{
			"function": "Start",
			"path":     p.path,
		}).Debug("Resumed playback")
		return nil
	case Ready:
	default:
		return fmt.Errorf("%w: start from %s", ErrInvalidStateTransition, st)
	}

	p.gen.Add(1)
	p.done = make(chan struct{})

	if !p.inline && !p.stream.fill() {
		p.stopPump = make(chan struct{})
		p.pumpDone = make(chan struct{})
		go p.stream.run(p.stopPump, p.pumpDone)
	}

	p.setState(Playing)
	if err := p.driver.Start(p.Render); err != nil {
		p.setState(Ready)
		p.haltPump()
		_ = p.rewindLocked()
		return fmt.Errorf("%w: start driver: %w", ErrIOFailure, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "Start",
		"path":     p.path,
	}).Info("Started playback")

	return nil
}

// Pause keeps the driver running but renders silence.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch st := p.State(); st {
	case Paused:
		return nil
	case Playing:
		p.setState(Paused)
		logrus.WithFields(logrus.Fields{
			"function": "Pause",
			"path":     p.path,
		}).Debug("Paused playback")
		return nil
	default:
		return fmt.Errorf("%w: pause from %s", ErrInvalidStateTransition, st)
	}
}

// Resume continues a paused playback. Unlike Start it never begins
// playback from Ready.
func (p *Player) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch st := p.State(); st {
	case Playing:
		return nil
	case Paused:
		p.setState(Playing)
		logrus.WithFields(logrus.Fields{
			"function": "Resume",
			"path":     p.path,
		}).Debug("Resumed playback")
		return nil
	default:
		return fmt.Errorf("%w: resume from %s", ErrInvalidStateTransition, st)
	}
}

// Stop returns to Ready with the source rewound to its first frame.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch st := p.State(); st {
	case Ready:
		return nil
	case Playing, Paused:
		err := p.stopLocked()
		logrus.WithFields(logrus.Fields{
			"function": "Stop",
			"path":     p.path,
		}).Info("Stopped playback")
		return err
	default:
		return fmt.Errorf("%w: stop from %s", ErrInvalidStateTransition, st)
	}
}

func (p *Player) stopLocked() error {
	p.setState(Ready)

	var errs []error
	if err := p.driver.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("%w: stop driver: %w", ErrIOFailure, err))
	}
	p.haltPump()
	if err := p.rewindLocked(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// haltPump stops the streamer goroutine if one is running.
func (p *Player) haltPump() {
	if p.stopPump == nil {
		return
	}
	close(p.stopPump)
	<-p.pumpDone
	p.stopPump, p.pumpDone = nil, nil
}

func (p *Player) rewindLocked() error {
	p.frames.Store(0)
	select {
	case <-p.eos:
	default:
	}

	p.stream.reset()
	if err := p.src.Rewind(); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return nil
}

// Close releases the file and the driver. It is a no-op when closed.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	path := p.path
	if err := p.closeLocked(); err != nil {
		return err
	}
	if path != "" {
		logrus.WithFields(logrus.Fields{
			"function": "Close",
			"path":     path,
		}).Info("Closed audio file")
	}

	return nil
}

func (p *Player) closeLocked() error {
	if p.src == nil {
		p.setState(Closed)
		return nil
	}

	p.setState(Closed)
	close(p.stopSup)

	var errs []error
	if err := p.driver.Close(); err != nil {
		errs = append(errs, fmt.Errorf("%w: close driver: %w", ErrIOFailure, err))
	}
	p.haltPump()
	if err := p.src.Close(); err != nil {
		errs = append(errs, fmt.Errorf("%w: close file: %w", ErrIOFailure, err))
	}

	select {
	case <-p.eos:
	default:
	}
	p.path = ""
	p.src = nil
	p.info = wav.Info{}
	p.driver = nil
	p.stream = nil
	p.stopSup = nil

	return errors.Join(errs...)
}

// supervise performs the implicit stop when render reaches the end of the
// file. It exits when the file is closed.
func (p *Player) supervise(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case gen := <-p.eos:
			p.finish(stop, gen)
		}
	}
}

func (p *Player) finish(stop <-chan struct{}, gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	select {
	case <-stop:
		return
	default:
	}
	if gen != p.gen.Load() || p.State() != Playing {
		return
	}

	frames := p.frames.Load()
	err := p.stopLocked()
	close(p.done)

	entry := logrus.WithFields(logrus.Fields{
		"function":  "supervise",
		"path":      p.path,
		"frames":    frames,
		"underruns": p.underruns.Load(),
	})
	if err != nil {
		entry.WithError(err).Error("Playback finished with errors")
		return
	}
	entry.Info("Playback finished")
}

// Render fills out with the next block of the file, run through the filter
// chain. It emits silence unless playing.
func (p *Player) Render(out []float32) {
	if p.State() != Playing {
		clear(out)
		return
	}

	s := p.stream
	ended := s.eof.Load()
	if p.inline && !ended {
		ended = s.fill()
	}

	n := s.ring.Read(out)
	if n < len(out) {
		clear(out[n:])
		if ended {
			select {
			case p.eos <- p.gen.Load():
			default:
			}
		} else {
			p.underruns.Add(1)
		}
	}
	if n > 0 && !p.inline {
		s.notify()
	}

	p.chain.Run(out, p.channels)
	p.frames.Add(int64(n / p.channels))
}
