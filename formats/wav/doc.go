// SPDX-License-Identifier: EPL-2.0

// Package wav reads and writes integer PCM WAV files on top of
// github.com/go-audio/wav.
//
// # Decoding
//
// Source streams 8, 16, 24 or 32-bit PCM (format tag 1 or
// WAVE_FORMAT_EXTENSIBLE) as float32 in [-1, 1] and can be rewound, which
// the player relies on for Stop:
//
//	src, err := wav.OpenFile("take.wav")
//	if err != nil {
//	    return err
//	}
//	defer src.Close()
//
//	buf := make([]float32, 4096)
//	n, err := src.ReadSamples(buf)
//
// Decoder adapts the same logic to audio.Decoder for use in a registry.
// Probe and ProbeFile read only the header.
//
// # Encoding
//
// Writer accepts float32 blocks and writes 16 or 24-bit PCM. Sizes in the
// header are patched on Close, so the underlying file must be seekable:
//
//	w, err := wav.Create("out.wav", 44100, 2, 16)
//	...
//	err = w.WriteSamples(block)
//	...
//	err = w.Close()
package wav
