// SPDX-License-Identifier: EPL-2.0

package audiotest

import "sync"

// Recorder is a sample sink that keeps everything written to it.
type Recorder struct {
	mu      sync.Mutex
	samples []float32

	// Err, when set, is returned by WriteSamples.
	Err error
}

func (r *Recorder) WriteSamples(samples []float32) error {
	if r.Err != nil {
		return r.Err
	}

	r.mu.Lock()
	r.samples = append(r.samples, samples...)
	r.mu.Unlock()
	return nil
}

// Samples returns a copy of the recorded samples.
func (r *Recorder) Samples() []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]float32, len(r.samples))
	copy(out, r.samples)
	return out
}

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.samples)
}
