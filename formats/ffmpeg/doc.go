// SPDX-License-Identifier: EPL-2.0

// Package ffmpeg delegates containers with no native Go decoder (AAC in
// MP4/M4A, raw ADTS, FLAC) to an external ffmpeg binary.
//
// The child process writes s16le PCM to a pipe which the Source reads
// incrementally. When the input is an *os.File ffmpeg opens the path
// itself, so it can seek in MP4 files whose moov box trails the data.
package ffmpeg
