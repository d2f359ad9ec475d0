// SPDX-License-Identifier: EPL-2.0

package wav

import "errors"

var (
	ErrNotWavFile          = errors.New("not a WAV file")
	ErrUnsupportedEncoding = errors.New("unsupported WAV encoding, only integer PCM is supported")
	ErrUnsupportedBitDepth = errors.New("unsupported WAV bit depth")
	ErrInvalidHeader       = errors.New("invalid WAV header")
	ErrWriterClosed        = errors.New("WAV writer closed")
)
