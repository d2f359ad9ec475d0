// SPDX-License-Identifier: EPL-2.0

// Package tapdelay plays audio files through a real-time multi-tap delay.
//
// A Session ties the pieces together: a catalog of assets, a decoder that
// turns them into PCM WAV files, a streaming player and the delay engine
// registered as the player's filter.
//
//	s, err := tapdelay.NewSession(tapdelay.DefaultConfig(),
//	    tapdelay.WithDriver(output.NewOto))
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	s.AddAsset("assets/guitar.mp3")
//	if err := s.Play("guitar"); err != nil {
//	    return err
//	}
//	s.Engine().SetTaps(4, 400)
//	s.Engine().SetWet(0.6)
//
// The engine can also be used on its own; see package engine. Parameter
// changes are safe from any goroutine and take effect at the next block.
//
// # Packages
//
//   - delay: the circular delay line and the tap layout
//   - engine: the multi-tap delay processor
//   - filter: the render-path filter chain
//   - player: WAV streaming and transport
//   - output: clock, offline and device drivers
//   - decode: compressed audio to WAV
//   - catalog: asset bookkeeping
//   - audio, formats/...: sources, decoders, resampling
package tapdelay
