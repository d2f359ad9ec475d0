// SPDX-License-Identifier: EPL-2.0

package engine

import "errors"

var (
	ErrInvalidSampleRate = errors.New("sample rate must be in (0, 192000]")
	ErrInvalidMaxDelay   = errors.New("max delay must be in (0, 10000] ms")
	ErrInvalidChannels   = errors.New("channel count must be in [1, 8]")
	ErrInvalidMaxBlock   = errors.New("max block must be positive")
)
