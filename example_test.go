// SPDX-License-Identifier: EPL-2.0

package tapdelay_test

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ik5/tapdelay"
	"github.com/ik5/tapdelay/engine"
	"github.com/ik5/tapdelay/formats/wav"
	"github.com/ik5/tapdelay/output"
)

type collect []float32

func (c *collect) WriteSamples(s []float32) error {
	*c = append(*c, s...)
	return nil
}

// Example renders a click through four taps spread over 40 ms.
func Example() {
	dir, err := os.MkdirTemp("", "tapdelay")
	if err != nil {
		fmt.Println(err)
		return
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "click.wav")
	w, err := wav.Create(path, 8000, 1, 16)
	if err != nil {
		fmt.Println(err)
		return
	}
	click := make([]float32, 800)
	click[0] = 0.5
	w.WriteSamples(click)
	w.Close()

	cfg := tapdelay.DefaultConfig()
	cfg.SampleRate = 8000
	cfg.Channels = 1
	cfg.MaxDelayMs = 100
	cfg.Params = engine.Params{Enabled: true, Taps: 4, TotalDelayMs: 40, Wet: 1}

	var out collect
	created := make(chan *output.Offline, 1)
	s, err := tapdelay.NewSession(cfg,
		tapdelay.WithDriver(output.OfflineFactory(&out, 800, created)),
		tapdelay.WithEngineOptions(engine.WithBudget(0)),
	)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer s.Close()

	s.AddAsset(path)
	if err := s.Play("click"); err != nil {
		fmt.Println(err)
		return
	}
	<-(<-created).Done()
	s.Stop()

	for i, v := range out {
		if v > 0.01 {
			fmt.Printf("%d %.3f\n", i, v)
		}
	}
	// Output:
	// 80 0.125
	// 160 0.125
	// 240 0.125
	// 320 0.125
}
