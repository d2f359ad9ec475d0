// SPDX-License-Identifier: EPL-2.0

package player

import (
	"fmt"
	"time"
)

// State of the transport.
type State int32

const (
	Closed State = iota
	Opening
	Ready
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Opening:
		return "opening"
	case Ready:
		return "ready"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Status is a point-in-time view of the player.
type Status struct {
	Path       string
	Position   time.Duration
	State      State
	SampleRate int
	Channels   int
}
