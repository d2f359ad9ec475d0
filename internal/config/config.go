// SPDX-License-Identifier: EPL-2.0

// Package config loads tapdelay settings from the environment.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ik5/tapdelay"
	"github.com/ik5/tapdelay/engine"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	tapdelay.Config

	// Asset is the file played when none is given.
	Asset    string
	LogLevel string
	// Device selects the audio device driver; false uses the clock driver.
	Device bool
}

// Load reads configuration from environment variables with defaults from
// tapdelay.DefaultConfig.
func Load() Config {
	def := tapdelay.DefaultConfig()

	return Config{
		Config: tapdelay.Config{
			SampleRate:  envInt("TAPDELAY_SAMPLE_RATE", def.SampleRate),
			MaxDelayMs:  envFloat("TAPDELAY_MAX_DELAY_MS", def.MaxDelayMs),
			Channels:    envInt("TAPDELAY_CHANNELS", def.Channels),
			BlockFrames: envInt("TAPDELAY_BLOCK_FRAMES", def.BlockFrames),
			ReadAhead:   envInt("TAPDELAY_READ_AHEAD", def.ReadAhead),
			Mono:        envBool("TAPDELAY_MONO", def.Mono),
			BitDepth:    envInt("TAPDELAY_BIT_DEPTH", def.BitDepth),
			Params: engine.Params{
				Enabled:      envBool("TAPDELAY_ENABLED", def.Params.Enabled),
				Taps:         envInt("TAPDELAY_TAPS", def.Params.Taps),
				TotalDelayMs: envFloat("TAPDELAY_DELAY_MS", def.Params.TotalDelayMs),
				Wet:          envFloat("TAPDELAY_WET", def.Params.Wet),
				Attenuation:  envFloat("TAPDELAY_ATTENUATION", def.Params.Attenuation),
			},
		},

		Asset:    envStr("TAPDELAY_ASSET", ""),
		LogLevel: envStr("TAPDELAY_LOG_LEVEL", "warning"),
		Device:   envBool("TAPDELAY_DEVICE", true),
	}
}

// Level parses LogLevel, falling back to warning.
func (c Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.WarnLevel
	}
	return lvl
}

// Environ renders the delay state as environment assignments, the form a
// shell profile can persist.
func Environ(asset string, p engine.Params) []string {
	return []string{
		"TAPDELAY_ASSET=" + asset,
		"TAPDELAY_ENABLED=" + strconv.FormatBool(p.Enabled),
		"TAPDELAY_TAPS=" + strconv.Itoa(p.Taps),
		"TAPDELAY_DELAY_MS=" + strconv.FormatFloat(p.TotalDelayMs, 'g', -1, 64),
		"TAPDELAY_WET=" + strconv.FormatFloat(p.Wet, 'g', -1, 64),
		"TAPDELAY_ATTENUATION=" + strconv.FormatFloat(p.Attenuation, 'g', -1, 64),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
