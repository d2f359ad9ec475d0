// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG-1/2 Layer III through github.com/hajimehoshi/go-mp3.
//
// go-mp3 always yields 16-bit stereo, so the Source reports two channels
// even for mono files; down-mix with audio.NewMonoMixer when needed:
//
//	src, err := mp3.Decoder{}.Decode(f)
//	if err != nil {
//	    return err
//	}
//	mono := audio.NewMonoMixer(src)
package mp3
