// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// FaultKind classifies a render-path fault.
type FaultKind int

const (
	// FaultRenderOverrun: a block took longer than its budget.
	FaultRenderOverrun FaultKind = iota + 1
	// FaultPanic: processing panicked and was recovered.
	FaultPanic
	// FaultChannels: the block had more channels than the engine has lines.
	FaultChannels
)

func (k FaultKind) String() string {
	switch k {
	case FaultRenderOverrun:
		return "render overrun"
	case FaultPanic:
		return "panic"
	case FaultChannels:
		return "channel mismatch"
	default:
		return fmt.Sprintf("fault(%d)", int(k))
	}
}

// Fault describes a block that was passed through dry instead of processed.
type Fault struct {
	Kind     FaultKind
	At       time.Time
	Frames   int
	Channels int
	Elapsed  time.Duration // overruns only
	Value    any           // recovered value, panics only
}

// report never blocks: when the channel is full the fault is only counted.
func (e *Engine) report(f Fault) {
	e.faultCount.Add(1)
	select {
	case e.faults <- f:
	default:
	}
}

// Faults delivers render faults. Entries are dropped while the buffer is full.
func (e *Engine) Faults() <-chan Fault { return e.faults }

// FaultCount is the number of faults since construction, dropped ones included.
func (e *Engine) FaultCount() int64 { return e.faultCount.Load() }

// WatchFaults logs faults until ctx is done.
func (e *Engine) WatchFaults(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-e.faults:
			fields := logrus.Fields{
				"function": "WatchFaults",
				"kind":     f.Kind.String(),
				"frames":   f.Frames,
				"channels": f.Channels,
				"total":    e.FaultCount(),
			}
			switch f.Kind {
			case FaultRenderOverrun:
				fields["elapsed"] = f.Elapsed
			case FaultPanic:
				fields["value"] = f.Value
			}
			logrus.WithFields(fields).Warn("Delay block passed through dry")
		}
	}
}
