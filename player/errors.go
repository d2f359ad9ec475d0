// SPDX-License-Identifier: EPL-2.0

package player

import "errors"

var (
	ErrFileNotFound           = errors.New("audio file not found")
	ErrUnsupportedFormat      = errors.New("unsupported audio file format, a PCM WAV file is required")
	ErrIOFailure              = errors.New("audio I/O failure")
	ErrInvalidStateTransition = errors.New("invalid player state transition")
)
