// SPDX-License-Identifier: EPL-2.0

package tapdelay

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ik5/tapdelay/audio"
	"github.com/ik5/tapdelay/catalog"
	"github.com/ik5/tapdelay/decode"
	"github.com/ik5/tapdelay/engine"
	"github.com/ik5/tapdelay/filter"
	"github.com/ik5/tapdelay/output"
	"github.com/ik5/tapdelay/player"
)

var ErrSessionClosed = errors.New("session closed")

type sessionOptions struct {
	driver   output.Factory
	registry *audio.Registry
	engine   []engine.Option
}

type SessionOption func(*sessionOptions)

// WithDriver sets the output driver factory of the player.
func WithDriver(f output.Factory) SessionOption {
	return func(o *sessionOptions) { o.driver = f }
}

// WithRegistry replaces the decoder's format registry.
func WithRegistry(r *audio.Registry) SessionOption {
	return func(o *sessionOptions) { o.registry = r }
}

// WithEngineOptions passes extra options to engine.New.
func WithEngineOptions(opts ...engine.Option) SessionOption {
	return func(o *sessionOptions) { o.engine = append(o.engine, opts...) }
}

// Session plays catalog assets through one delay engine.
type Session struct {
	cfg     Config
	engine  *engine.Engine
	decoder *decode.Decoder
	player  *player.Player
	catalog *catalog.Catalog

	mu     sync.Mutex
	handle filter.Handle
	cancel context.CancelFunc
	closed bool
}

func NewSession(cfg Config, opts ...SessionOption) (*Session, error) {
	so := sessionOptions{driver: output.ClockFactory(nil)}
	for _, opt := range opts {
		opt(&so)
	}

	engOpts := []engine.Option{
		engine.WithChannels(cfg.channels()),
		engine.WithMaxBlock(max(cfg.BlockFrames, 1)),
		engine.WithParams(cfg.Params),
	}
	eng, err := engine.New(cfg.SampleRate, cfg.MaxDelayMs, append(engOpts, so.engine...)...)
	if err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}

	decOpts := []decode.Option{
		decode.WithSampleRate(cfg.SampleRate),
		decode.WithMono(cfg.Mono),
		decode.WithBitDepth(cfg.BitDepth),
	}
	if so.registry != nil {
		decOpts = append(decOpts, decode.WithRegistry(so.registry))
	}

	s := &Session{
		cfg:     cfg,
		engine:  eng,
		decoder: decode.New(decOpts...),
		player: player.New(
			player.WithDriver(so.driver),
			player.WithBlockFrames(cfg.BlockFrames),
			player.WithReadAhead(cfg.ReadAhead),
		),
		catalog: catalog.New(decode.OutputPath),
	}
	s.handle = s.player.RegisterFilter(engine.Filter, eng)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go eng.WatchFaults(ctx)

	return s, nil
}

func (s *Session) Engine() *engine.Engine    { return s.engine }
func (s *Session) Player() *player.Player    { return s.player }
func (s *Session) Catalog() *catalog.Catalog { return s.catalog }
func (s *Session) Config() Config            { return s.cfg }

// AddAsset adds path to the catalog.
func (s *Session) AddAsset(path string) catalog.Descriptor {
	return s.catalog.Add(path)
}

// Assets lists the catalog sorted by name.
func (s *Session) Assets() []catalog.Descriptor {
	return s.catalog.List()
}

// Prepare decodes the asset unless its WAV already exists and returns the
// WAV path. A failed decode leaves the asset marked as not decoded.
func (s *Session) Prepare(name string) (string, error) {
	d, ok := s.catalog.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", catalog.ErrUnknownAsset, name)
	}

	if d.Decoded {
		path, err := s.catalog.DecodedPath(name)
		if err != nil {
			return "", err
		}
		if st, err := os.Stat(path); err == nil && st.Mode().IsRegular() {
			return path, nil
		}
	}

	out, err := s.decoder.Decode(d.Path)
	if err != nil {
		_ = s.catalog.MarkDecoded(name, false)
		return "", err
	}
	if err := s.catalog.MarkDecoded(name, true); err != nil {
		return "", err
	}

	return out, nil
}

// Play prepares name and starts it from the beginning with a clean delay
// tail.
func (s *Session) Play(name string) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrSessionClosed
	}

	path, err := s.Prepare(name)
	if err != nil {
		return err
	}
	if err := s.player.Open(path); err != nil {
		return err
	}

	st := s.player.Status()
	if st.SampleRate != s.engine.SampleRate() || st.Channels > s.engine.Channels() {
		logrus.WithFields(logrus.Fields{
			"function":        "Play",
			"asset":           name,
			"sample_rate":     st.SampleRate,
			"engine_rate":     s.engine.SampleRate(),
			"channels":        st.Channels,
			"engine_channels": s.engine.Channels(),
		}).Warn("Asset format differs from the engine, delays will be off or bypassed")
	}

	s.engine.Reset()
	return s.player.Start()
}

func (s *Session) Stop() error {
	return s.player.Stop()
}

// Close detaches the engine and closes the player. It is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	s.player.UnregisterFilter(s.handle)
	err := s.player.Close()
	s.cancel()

	return err
}
