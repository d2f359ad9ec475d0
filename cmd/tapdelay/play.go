// SPDX-License-Identifier: EPL-2.0

package main

import (
	"errors"
	"flag"
	"fmt"
	"sync"
	"time"

	"atomicgo.dev/keyboard"
	"atomicgo.dev/keyboard/keys"
	"github.com/sirupsen/logrus"

	"github.com/ik5/tapdelay"
	"github.com/ik5/tapdelay/engine"
	"github.com/ik5/tapdelay/internal/config"
	"github.com/ik5/tapdelay/output"
	"github.com/ik5/tapdelay/player"
)

const (
	escape     = "\x1b["
	hideCursor = escape + "?25l"
	showCursor = escape + "?25h"
	clearLine  = "\r" + escape + "K"

	delayStep = 50.0
	wetStep   = 0.05
)

func runPlay(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	ef := addEffectFlags(fs, cfg)
	null := fs.Bool("null", !cfg.Device, "run on a clock instead of the audio device")
	fs.Parse(args)

	path := cfg.Asset
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	if path == "" {
		return errors.New("play: missing input file")
	}

	sc := cfg.Config
	sc.MaxDelayMs = ef.maxDelay
	sc.Params = ef.Params()

	factory := output.Factory(output.NewOto)
	if *null {
		factory = output.ClockFactory(nil)
	}

	s, err := tapdelay.NewSession(sc, tapdelay.WithDriver(factory))
	if err != nil {
		return err
	}
	defer s.Close()

	eng := s.Engine()
	eng.OnCommit(func(p engine.Params) {
		logrus.WithFields(logrus.Fields{
			"function": "OnCommit",
			"enabled":  p.Enabled,
			"taps":     p.Taps,
			"delay_ms": p.TotalDelayMs,
			"wet":      p.Wet,
		}).Debug("Delay parameters committed")
	})

	asset := s.AddAsset(path)
	if !asset.Decoded {
		fmt.Println(faint("decoding %s", path))
	}
	if err := s.Play(asset.Name); err != nil {
		return err
	}

	fmt.Println(bold(asset.Name))
	fmt.Println(faint("e effect  ←/→ taps  ↑/↓ delay  w/s wet  p pause  r reset  q quit"))
	fmt.Print(hideCursor)

	quit := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		showStatus(s, quit)
	}()

	err = keyboard.Listen(func(key keys.Key) (bool, error) {
		return handleKey(s, key), nil
	})

	close(quit)
	wg.Wait()
	fmt.Print(showCursor + "\n")

	for _, kv := range config.Environ(path, eng.Params()) {
		fmt.Println(faint("export %s", kv))
	}

	return err
}

// handleKey applies one key press and reports whether to quit.
func handleKey(s *tapdelay.Session, key keys.Key) bool {
	eng := s.Engine()

	switch key.Code {
	case keys.CtrlC, keys.Escape:
		return true
	case keys.Left:
		eng.SetTaps(eng.TapCount()-1, eng.TotalDelayMs())
	case keys.Right:
		eng.SetTaps(eng.TapCount()+1, eng.TotalDelayMs())
	case keys.Up:
		eng.SetTotalDelay(eng.TotalDelayMs() + delayStep)
	case keys.Down:
		eng.SetTotalDelay(eng.TotalDelayMs() - delayStep)
	case keys.Space:
		togglePause(s.Player())
	case keys.RuneKey:
		if len(key.Runes) == 0 {
			break
		}
		switch key.Runes[0] {
		case 'q':
			return true
		case 'e':
			eng.SetEnabled(!eng.Enabled())
		case 'w':
			eng.SetWet(eng.Wet() + wetStep)
		case 's':
			eng.SetWet(eng.Wet() - wetStep)
		case 'p':
			togglePause(s.Player())
		case 'r':
			eng.Reset()
		}
	}

	return false
}

func togglePause(p *player.Player) {
	var err error
	switch p.State() {
	case player.Playing:
		err = p.Pause()
	case player.Paused:
		err = p.Resume()
	case player.Ready:
		err = p.Start()
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "togglePause",
			"error":    err.Error(),
		}).Error("Transport command failed")
	}
}

func showStatus(s *tapdelay.Session, quit <-chan struct{}) {
	t := time.NewTicker(100 * time.Millisecond)
	defer t.Stop()

	for {
		select {
		case <-quit:
			return
		case <-t.C:
		}

		eng, st := s.Engine(), s.Player().Status()

		state := cyan("%-7s", st.State)
		if st.State == player.Ready {
			state = faint("%-7s", "stopped")
		}
		effect := green("on ")
		if !eng.Enabled() {
			effect = red("off")
		}

		fmt.Printf("%s%s %s  %s %s  %s %2d  %s %6.0f ms  %s %.2f  %s",
			clearLine,
			state, st.Position.Round(100*time.Millisecond),
			bold("delay"), effect,
			bold("taps"), eng.TapCount(),
			bold("total"), eng.TotalDelayMs(),
			bold("wet"), eng.Wet(),
			faint("underruns %d", s.Player().Underruns()),
		)
	}
}
