// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"github.com/ik5/tapdelay/delay"
	"github.com/ik5/tapdelay/utils"
)

// Limits of the engine configuration.
const (
	MaxTaps         = 64
	MaxChannels     = 8
	MaxSampleRate   = 192000
	MaxDelayLimitMs = 10000.0
	DefaultMaxBlock = 4096
)

// Params is the user-facing delay state. Values outside their range are
// clamped on commit, and the clamped values are what getters report.
type Params struct {
	Enabled      bool
	Taps         int     // [1, MaxTaps]
	TotalDelayMs float64 // [0, max delay]; the last tap sits here
	Wet          float64 // [0, 1]; 0 is dry only
	Attenuation  float64 // [0.25, 1] per-tap gain ratio; 0 selects 1
}

// DefaultParams is one enabled tap at 200 ms, half wet, equal gains.
func DefaultParams() Params {
	return Params{
		Enabled:      true,
		Taps:         1,
		TotalDelayMs: 200,
		Wet:          0.5,
		Attenuation:  1,
	}
}

func (p Params) clamp(maxDelayMs float64) Params {
	p.Taps = min(max(p.Taps, 1), MaxTaps)
	p.TotalDelayMs = utils.Clamp(p.TotalDelayMs, 0, maxDelayMs)
	p.Wet = utils.Clamp(p.Wet, 0, 1)
	if p.Attenuation == 0 {
		p.Attenuation = delay.MaxAttenuation
	}
	p.Attenuation = utils.Clamp(p.Attenuation, delay.MinAttenuation, delay.MaxAttenuation)
	return p
}

// snapshot is the immutable state read by the render path.
type snapshot struct {
	params Params
	taps   delay.Taps
	wet    float32
	dry    float32
}

func newSnapshot(p Params, sampleRate int) *snapshot {
	return &snapshot{
		params: p,
		taps:   delay.Layout(make(delay.Taps, 0, p.Taps), p.Taps, utils.MsToSamples(p.TotalDelayMs, sampleRate), p.Attenuation),
		wet:    float32(p.Wet),
		dry:    float32(1 - p.Wet),
	}
}
