// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis streams through github.com/jfreymuth/oggvorbis.
//
// The decoder already produces float32, so samples are handed through
// without conversion; the channel count and rate come from the
// identification header.
package vorbis
