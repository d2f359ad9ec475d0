// SPDX-License-Identifier: EPL-2.0

package ffmpeg

import "bytes"

// SniffMP4 matches ISO base media files (MP4, M4A) by their ftyp box.
func SniffMP4(header []byte) bool {
	return len(header) >= 8 && bytes.Equal(header[4:8], []byte("ftyp"))
}

// SniffADTS matches a raw AAC stream with ADTS framing.
func SniffADTS(header []byte) bool {
	return len(header) >= 2 && header[0] == 0xFF && header[1]&0xF6 == 0xF0
}

// SniffFLAC matches the native FLAC stream marker.
func SniffFLAC(header []byte) bool {
	return bytes.HasPrefix(header, []byte("fLaC"))
}
