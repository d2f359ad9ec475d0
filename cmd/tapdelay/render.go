// SPDX-License-Identifier: EPL-2.0

package main

import (
	"errors"
	"flag"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ik5/tapdelay/delay"
	"github.com/ik5/tapdelay/engine"
	"github.com/ik5/tapdelay/formats/wav"
	"github.com/ik5/tapdelay/internal/config"
	"github.com/ik5/tapdelay/output"
	"github.com/ik5/tapdelay/player"
	"github.com/ik5/tapdelay/utils"
)

func runRender(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	ef := addEffectFlags(fs, cfg)
	rate := fs.Int("rate", 0, "resample the input first, 0 keeps its rate")
	bits := fs.Int("bits", cfg.BitDepth, "output bit depth, 16 or 24")
	block := fs.Int("block", cfg.BlockFrames, "frames per render block")
	noTail := fs.Bool("no-tail", false, "cut the output at the end of the input")
	fs.Parse(args)

	if fs.NArg() != 2 {
		return errors.New("render: need an input file and an output WAV")
	}
	in, out := fs.Arg(0), fs.Arg(1)

	src, err := newDecoder(*rate, cfg.Mono, *bits).Decode(in)
	if err != nil {
		return err
	}
	if a, b := absPath(src), absPath(out); a == b {
		return fmt.Errorf("render: output %s would overwrite its input", out)
	}

	info, err := wav.ProbeFile(src)
	if err != nil {
		return err
	}
	if info.Frames == 0 {
		return fmt.Errorf("render: %s has no audio", src)
	}

	eng, err := engine.New(info.SampleRate, ef.maxDelay,
		engine.WithChannels(min(info.Channels, engine.MaxChannels)),
		engine.WithMaxBlock(*block),
		engine.WithParams(ef.Params()),
		engine.WithBudget(0),
	)
	if err != nil {
		return err
	}

	w, err := wav.Create(out, info.SampleRate, info.Channels, *bits)
	if err != nil {
		return err
	}
	defer w.Close()

	start := time.Now()
	created := make(chan *output.Offline, 1)
	p := player.New(
		player.WithDriver(output.OfflineFactory(w, info.Frames, created)),
		player.WithBlockFrames(*block),
	)
	defer p.Close()

	h := p.RegisterFilter(engine.Filter, eng)
	defer p.UnregisterFilter(h)

	if err := p.Open(src); err != nil {
		return err
	}
	drv := <-created
	if err := p.Start(); err != nil {
		return err
	}
	<-drv.Done()
	if err := p.Stop(); err != nil {
		return err
	}
	if err := drv.Err(); err != nil {
		return err
	}

	var tail int64
	if !*noTail && eng.Enabled() {
		tail, err = renderTail(w, eng, info.Channels, *block)
		if err != nil {
			return err
		}
	}

	if err := w.Close(); err != nil {
		return err
	}

	total := w.Frames()
	fmt.Printf("%s %s  %s  %s\n",
		green("✓"), bold(out),
		cyan("%d frames (%s)", total, utils.FramesToDuration(total, info.SampleRate).Round(time.Millisecond)),
		faint("tail %d, %d taps over %.0f ms, wet %.2f, took %s",
			tail, eng.TapCount(), eng.TotalDelayMs(), eng.Wet(), time.Since(start).Round(time.Millisecond)),
	)

	return nil
}

// renderTail lets the delay ring out after the input ended.
func renderTail(w *wav.Writer, eng *engine.Engine, channels, block int) (int64, error) {
	frames := int64(delay.SamplesFor(eng.TotalDelayMs(), eng.SampleRate()))
	buf := make([]float32, block*channels)

	for left := frames; left > 0; {
		n := min(left, int64(block))
		chunk := buf[:n*int64(channels)]
		clear(chunk)
		eng.ProcessInterleaved(chunk, channels)
		if err := w.WriteSamples(chunk); err != nil {
			return 0, err
		}
		left -= n
	}

	return frames, nil
}

func absPath(p string) string {
	if a, err := filepath.Abs(p); err == nil {
		return a
	}
	return filepath.Clean(p)
}
