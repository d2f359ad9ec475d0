// SPDX-License-Identifier: EPL-2.0

package main

import (
	"testing"

	"atomicgo.dev/keyboard/keys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ik5/tapdelay"
	"github.com/ik5/tapdelay/engine"
	"github.com/ik5/tapdelay/internal/audiotest"
	"github.com/ik5/tapdelay/output"
	"github.com/ik5/tapdelay/player"
)

func runeKey(r rune) keys.Key { return keys.Key{Code: keys.RuneKey, Runes: []rune{r}} }

func newTestSession(t *testing.T) *tapdelay.Session {
	t.Helper()

	cfg := tapdelay.DefaultConfig()
	cfg.SampleRate = 8000
	cfg.Channels = 1
	cfg.MaxDelayMs = 1000
	cfg.Params = engine.Params{Enabled: true, Taps: 2, TotalDelayMs: 200, Wet: 0.5, Attenuation: 1}

	s, err := tapdelay.NewSession(cfg, tapdelay.WithDriver(output.ClockFactory(nil)))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func TestHandleKey_EffectControls(t *testing.T) {
	t.Parallel()

	s := newTestSession(t)
	eng := s.Engine()

	tests := []struct {
		key   keys.Key
		check func() bool
	}{
		{keys.Key{Code: keys.Right}, func() bool { return eng.TapCount() == 3 }},
		{keys.Key{Code: keys.Left}, func() bool { return eng.TapCount() == 2 }},
		{keys.Key{Code: keys.Up}, func() bool { return eng.TotalDelayMs() == 250 }},
		{keys.Key{Code: keys.Down}, func() bool { return eng.TotalDelayMs() == 200 }},
		{runeKey('w'), func() bool { return eng.Wet() > 0.54 && eng.Wet() < 0.56 }},
		{runeKey('s'), func() bool { return eng.Wet() > 0.49 && eng.Wet() < 0.51 }},
		{runeKey('e'), func() bool { return !eng.Enabled() }},
		{runeKey('e'), func() bool { return eng.Enabled() }},
		{runeKey('r'), func() bool { return eng.Enabled() }},
	}

	for _, tt := range tests {
		assert.False(t, handleKey(s, tt.key))
		assert.True(t, tt.check(), "after %v", tt.key)
	}
}

func TestHandleKey_Quit(t *testing.T) {
	t.Parallel()

	s := newTestSession(t)
	for _, k := range []keys.Key{runeKey('q'), {Code: keys.Escape}, {Code: keys.CtrlC}} {
		assert.True(t, handleKey(s, k))
	}
	assert.False(t, handleKey(s, keys.Key{Code: keys.RuneKey}))
}

func TestHandleKey_Transport(t *testing.T) {
	t.Parallel()

	s := newTestSession(t)
	path := audiotest.WriteWAV(t, t.TempDir(), "loop.wav", 8000, 1, 16, audiotest.SineSamples(8000, 1, 80000, 220, 0.3))
	s.AddAsset(path)
	require.NoError(t, s.Play("loop"))

	handleKey(s, runeKey('p'))
	assert.Equal(t, player.Paused, s.Player().State())
	handleKey(s, keys.Key{Code: keys.Space})
	assert.Equal(t, player.Playing, s.Player().State())

	require.NoError(t, s.Stop())
	handleKey(s, runeKey('p'))
	assert.Equal(t, player.Playing, s.Player().State())
}
