// SPDX-License-Identifier: EPL-2.0

package utils

import (
	"math"
	"time"
)

// MsToSamples converts a duration in milliseconds to a (fractional) number of
// samples at sampleRate.
func MsToSamples(ms float64, sampleRate int) float64 {
	return ms * float64(sampleRate) / 1000.0
}

// SamplesToMs is the inverse of MsToSamples.
func SamplesToMs(samples float64, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return samples * 1000.0 / float64(sampleRate)
}

// FramesToDuration returns how long frames last at sampleRate.
func FramesToDuration(frames int64, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(frames) * time.Second / time.Duration(sampleRate)
}

// Clamp limits v to [lo, hi]. NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
