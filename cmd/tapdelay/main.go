// SPDX-License-Identifier: EPL-2.0

// Command tapdelay decodes audio files and plays or renders them through a
// multi-tap delay.
//
//	tapdelay decode <file>...
//	tapdelay render [flags] <in> <out.wav>
//	tapdelay play [flags] <file>
//
// Defaults come from TAPDELAY_* environment variables; flags override them.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"github.com/ik5/tapdelay/engine"
	"github.com/ik5/tapdelay/internal/config"
)

var (
	bold  = color.New(color.Bold).SprintFunc()
	green = color.New(color.FgGreen).SprintfFunc()
	red   = color.New(color.FgRed).SprintfFunc()
	cyan  = color.New(color.FgCyan).SprintfFunc()
	faint = color.New(color.Faint).SprintfFunc()
)

func usage() {
	fmt.Fprint(os.Stderr, `usage: tapdelay <command> [flags] [args]

commands:
  decode <file>...          convert audio files to PCM WAV next to them
  render [flags] <in> <out> bounce a file through the delay into a WAV
  play [flags] <file>       play a file through the delay

Run "tapdelay <command> -h" for the flags of a command.
`)
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("tapdelay: ")

	cfg := config.Load()
	logrus.SetLevel(cfg.Level())

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "decode":
		err = runDecode(cfg, args)
	case "render":
		err = runRender(cfg, args)
	case "play":
		err = runPlay(cfg, args)
	case "help", "-h", "-help", "--help":
		usage()
	default:
		usage()
		log.Fatalf("unknown command %q", cmd)
	}
	if err != nil {
		log.Fatal(err)
	}
}

// effectFlags binds the delay parameters to fs, defaulting to p.
type effectFlags struct {
	params   engine.Params
	noEffect bool
	maxDelay float64
}

func addEffectFlags(fs *flag.FlagSet, cfg config.Config) *effectFlags {
	ef := &effectFlags{params: cfg.Params, maxDelay: cfg.MaxDelayMs}

	fs.IntVar(&ef.params.Taps, "taps", cfg.Params.Taps, "number of taps")
	fs.Float64Var(&ef.params.TotalDelayMs, "delay", cfg.Params.TotalDelayMs, "total delay in milliseconds, where the last tap sits")
	fs.Float64Var(&ef.params.Wet, "wet", cfg.Params.Wet, "wet mix between 0 and 1")
	fs.Float64Var(&ef.params.Attenuation, "atten", cfg.Params.Attenuation, "per-tap gain ratio between 0.25 and 1")
	fs.BoolVar(&ef.noEffect, "no-effect", !cfg.Params.Enabled, "bypass the delay")
	fs.Float64Var(&ef.maxDelay, "max-delay", cfg.MaxDelayMs, "longest allowed delay in milliseconds")

	return ef
}

func (ef *effectFlags) Params() engine.Params {
	p := ef.params
	p.Enabled = !ef.noEffect
	return p
}
