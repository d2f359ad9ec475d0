// SPDX-License-Identifier: EPL-2.0

package tapdelay

import (
	"github.com/ik5/tapdelay/decode"
	"github.com/ik5/tapdelay/engine"
	"github.com/ik5/tapdelay/player"
)

// Config sizes a Session.
type Config struct {
	// SampleRate of the engine; decoded assets are resampled to it.
	SampleRate int
	// MaxDelayMs is the longest total delay the engine accepts.
	MaxDelayMs float64
	// Channels is the number of delay lines. Mono forces 1.
	Channels    int
	BlockFrames int
	ReadAhead   int
	Mono        bool
	BitDepth    int

	// Params is the initial delay state.
	Params engine.Params
}

func DefaultConfig() Config {
	return Config{
		SampleRate:  44100,
		MaxDelayMs:  5000,
		Channels:    2,
		BlockFrames: player.DefaultBlockFrames,
		ReadAhead:   player.DefaultReadAhead,
		BitDepth:    decode.DefaultBitDepth,
		Params:      engine.DefaultParams(),
	}
}

func (c Config) channels() int {
	if c.Mono {
		return 1
	}
	return c.Channels
}
