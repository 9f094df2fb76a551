// Package game carries the round tuning and the overlay phase machine
// of Color Dot Rush. Rendering lives in the webview client; this side
// owns the numbers the client plays by and the screen-position math
// behind the overlay.
package game

import (
	_ "embed" // Support for go:embed resources
	"fmt"
	"math"

	"gopkg.in/ini.v1"

	"github.com/colordotrush/dotrush-backend/pkg/api"
)

//go:embed defaults.ini
var defaultTuning []byte

type RoundConfig struct {
	DurationSec    int `ini:"duration_sec"`
	CountdownSec   int `ini:"countdown_sec"`
	TargetSwitchMs int `ini:"target_switch_ms"`
}

type ScoringConfig struct {
	BaseDotScore    int     `ini:"base_dot_score"`
	ComboStep       float64 `ini:"combo_step"`
	MaxComboBonus   float64 `ini:"max_combo_bonus"`
	WrongTapPenalty int     `ini:"wrong_tap_penalty"`

	// MaxPerSecond is the hardest tap rate a human run can sustain;
	// the submit endpoint rejects scores that imply more.
	MaxPerSecond float64 `ini:"max_per_second"`
}

type DotConfig struct {
	SpawnIntervalMs int `ini:"spawn_interval_ms"`
	LifetimeMs      int `ini:"lifetime_ms"`
	MaxActive       int `ini:"max_active"`
	MinRadiusPx     int `ini:"min_radius_px"`
	MaxRadiusPx     int `ini:"max_radius_px"`
}

type ColorConfig struct {
	Palette []string `ini:"palette" delim:","`
}

type Config struct {
	Round   RoundConfig   `ini:"round"`
	Scoring ScoringConfig `ini:"scoring"`
	Dots    DotConfig     `ini:"dots"`
	Colors  ColorConfig   `ini:"colors"`
}

// Load reads the embedded defaults, then merges the override file on
// top when path names one.
func Load(path string) (*Config, error) {
	options := ini.LoadOptions{
		SkipUnrecognizableLines: true,
	}

	var (
		f   *ini.File
		err error
	)
	if path == "" {
		f, err = ini.LoadSources(options, defaultTuning)
	} else {
		f, err = ini.LoadSources(options, defaultTuning, path)
	}
	if err != nil {
		return nil, fmt.Errorf("load game tuning: %w", err)
	}

	cfg := new(Config)
	if err := f.MapTo(cfg); err != nil {
		return nil, fmt.Errorf("parse game tuning: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Round.DurationSec <= 0:
		return fmt.Errorf("game tuning: round duration %ds is not positive", c.Round.DurationSec)
	case c.Round.CountdownSec < 0:
		return fmt.Errorf("game tuning: countdown %ds is negative", c.Round.CountdownSec)
	case c.Scoring.BaseDotScore <= 0:
		return fmt.Errorf("game tuning: base dot score %d is not positive", c.Scoring.BaseDotScore)
	case c.Scoring.MaxPerSecond <= 0:
		return fmt.Errorf("game tuning: max taps per second %.2f is not positive", c.Scoring.MaxPerSecond)
	case c.Dots.SpawnIntervalMs <= 0:
		return fmt.Errorf("game tuning: spawn interval %dms is not positive", c.Dots.SpawnIntervalMs)
	case c.Dots.LifetimeMs <= 0:
		return fmt.Errorf("game tuning: dot lifetime %dms is not positive", c.Dots.LifetimeMs)
	case c.Dots.MaxActive <= 0:
		return fmt.Errorf("game tuning: max active dots %d is not positive", c.Dots.MaxActive)
	case c.Dots.MinRadiusPx <= 0 || c.Dots.MaxRadiusPx < c.Dots.MinRadiusPx:
		return fmt.Errorf("game tuning: dot radius range [%d, %d] is invalid", c.Dots.MinRadiusPx, c.Dots.MaxRadiusPx)
	case len(c.Colors.Palette) < 2:
		return fmt.Errorf("game tuning: palette needs at least a target and a decoy color, got %v", c.Colors.Palette)
	}
	return nil
}

// MaxPlausibleScore bounds what a run of sessionTime seconds can
// honestly produce: every spawn tapped at the maximum rate with the
// full combo bonus, plus one base score of grace for a tap landing on
// the buzzer.
func (c *Config) MaxPlausibleScore(sessionTime float64) int {
	perfect := sessionTime * c.Scoring.MaxPerSecond *
		float64(c.Scoring.BaseDotScore) * (1 + c.Scoring.MaxComboBonus)
	return int(math.Ceil(perfect)) + c.Scoring.BaseDotScore
}

// APIResponse is the tuning subset clients receive from
// GET /api/game-config.
func (c *Config) APIResponse() api.GameConfigResponse {
	return api.GameConfigResponse{
		RoundSeconds:     c.Round.DurationSec,
		CountdownSeconds: c.Round.CountdownSec,
		SpawnIntervalMs:  c.Dots.SpawnIntervalMs,
		DotLifetimeMs:    c.Dots.LifetimeMs,
		MaxActiveDots:    c.Dots.MaxActive,
		BaseDotScore:     c.Scoring.BaseDotScore,
		ComboStep:        c.Scoring.ComboStep,
		MaxComboBonus:    c.Scoring.MaxComboBonus,
		WrongTapPenalty:  c.Scoring.WrongTapPenalty,
		TargetSwitchMs:   c.Round.TargetSwitchMs,
		Palette:          c.Colors.Palette,
	}
}
