// SPDX-License-Identifier: EPL-2.0

// Package audio holds the streaming primitives shared by the decoders, the
// decode stage and the player.
//
// A Source yields interleaved float32 samples in [-1, 1]; a Sink consumes
// them. Sources compose:
//
//	src, _ := wav.OpenFile("take.wav")
//	mono := audio.NewMonoMixer(audio.NewResampler(src, 16000))
//	frames, err := audio.Copy(writer, mono, nil)
//
// ReadSamples returns io.EOF, possibly together with the last samples, once
// the stream is finished. Any other error ends the stream early.
//
// # Registry
//
// A Registry maps format names to decoders. Each format carries a sniff
// function over the first SniffLen bytes of a file and a list of file
// extensions; Lookup tries the content first and the extension second:
//
//	r := audio.NewRegistry()
//	r.Register("wav", wav.Decoder{}, wav.Sniff, "wav", "wave")
//	name, dec, err := r.Lookup(header, "input.wav")
//
// # Integer PCM
//
// IntSource turns integer PCM buffers from go-audio into float32 samples
// and is embedded by the WAV and AIFF sources.
package audio
