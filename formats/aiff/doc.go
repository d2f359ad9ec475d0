// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes AIFF files through github.com/go-audio/aiff.
//
// Integer PCM at 8, 16, 24 and 32 bits is supported. Samples are returned
// as float32 in [-1, 1] by audio.IntSource, the same adapter the wav
// package uses.
package aiff
