// SPDX-License-Identifier: EPL-2.0

// Package decode converts compressed or foreign audio files into PCM WAV
// files the player can stream.
//
// The format is detected from the first bytes of the file and, failing
// that, from its extension:
//
//	d := decode.New(decode.WithSampleRate(44100))
//	out, err := d.Decode("assets/intro.mp3") // assets/intro.wav
//	if errors.Is(err, decode.ErrUnsupportedFormat) {
//	    ...
//	}
//
// Output goes to a temporary file that is renamed over OutputPath(src) only
// after the whole stream was written, so readers never see a partial file.
// Decoding the same input again produces byte-identical output. The source
// is never written: a PCM WAV at its own output path is returned as is, and
// any other content behind a .wav name fails with ErrUnsupportedFormat.
//
// MP4/M4A, raw AAC and FLAC are handled through ffmpeg when it is installed;
// without it those inputs fail with ErrUnsupportedFormat.
package decode
