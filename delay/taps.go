// SPDX-License-Identifier: EPL-2.0

package delay

import "math"

// Attenuation bounds for Layout.
const (
	MinAttenuation = 0.25
	MaxAttenuation = 1.0
)

// Tap is one read point of a multi-tap delay.
type Tap struct {
	Offset int     // samples behind the current write
	Gain   float32 // contribution to the wet sum
}

// Taps is an ordered tap table, nearest tap first.
type Taps []Tap

// MaxOffset returns the farthest offset in the table, 0 when empty.
func (t Taps) MaxOffset() int {
	if len(t) == 0 {
		return 0
	}
	return t[len(t)-1].Offset
}

// GainSum is the wet gain of an impulse passing through every tap.
func (t Taps) GainSum() float32 {
	var sum float32
	for _, tap := range t {
		sum += tap.Gain
	}
	return sum
}

// Layout spreads count taps evenly over totalSamples: tap i (0-based) sits
// at round(totalSamples*(i+1)/count), so the last tap lands exactly on the
// total delay. Gains follow a^i normalised to a unit sum, with a the
// attenuation; a = 1 gives every tap 1/count.
//
// count below 1 is treated as 1 and attenuation is clamped to
// [MinAttenuation, MaxAttenuation]. The result reuses dst's storage.
func Layout(dst Taps, count int, totalSamples float64, attenuation float64) Taps {
	count = max(count, 1)
	totalSamples = math.Max(totalSamples, 0)
	if math.IsNaN(attenuation) || attenuation < MinAttenuation {
		attenuation = MinAttenuation
	} else if attenuation > MaxAttenuation {
		attenuation = MaxAttenuation
	}

	var norm float64
	w := 1.0
	for range count {
		norm += w
		w *= attenuation
	}

	dst = dst[:0]
	w = 1.0
	for i := range count {
		dst = append(dst, Tap{
			Offset: int(math.Round(totalSamples * float64(i+1) / float64(count))),
			Gain:   float32(w / norm),
		})
		w *= attenuation
	}

	return dst
}
