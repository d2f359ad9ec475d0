// SPDX-License-Identifier: EPL-2.0

package main

import (
	"flag"
	"fmt"

	"github.com/ik5/tapdelay/decode"
	"github.com/ik5/tapdelay/internal/config"
)

func newDecoder(rate int, mono bool, bits int) *decode.Decoder {
	return decode.New(
		decode.WithSampleRate(rate),
		decode.WithMono(mono),
		decode.WithBitDepth(bits),
	)
}

func runDecode(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	rate := fs.Int("rate", 0, "output sample rate, 0 keeps the source rate")
	mono := fs.Bool("mono", cfg.Mono, "mix down to one channel")
	bits := fs.Int("bits", cfg.BitDepth, "output bit depth, 16 or 24")
	fs.Parse(args)

	if fs.NArg() == 0 {
		return fmt.Errorf("decode: missing input file")
	}

	d := newDecoder(*rate, *mono, *bits)

	failed := 0
	for _, src := range fs.Args() {
		out, err := d.Decode(src)
		if err != nil {
			failed++
			fmt.Println(red("✗ %s: %v", src, err))
			continue
		}
		fmt.Println(green("✓ %s", out))
	}

	if failed > 0 {
		return fmt.Errorf("decode: %d of %d files failed", failed, fs.NArg())
	}
	return nil
}
