// SPDX-License-Identifier: EPL-2.0

package decode

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrCorruptInput      = errors.New("corrupt audio input")
	ErrIOFailure         = errors.New("audio I/O failure")
)

// Error reports a failed decode. Kind is one of the sentinel errors above
// and matches with errors.Is; Err is the underlying cause.
type Error struct {
	Kind error
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("decode %s: %v", e.Path, e.Kind)
	}
	return fmt.Sprintf("decode %s: %v: %v", e.Path, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == e.Kind }

func newError(kind error, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}
