package backtest

import (
	"fmt"

	"github.com/yourusername/lotto-backtest/internal/config"
	"github.com/yourusername/lotto-backtest/internal/estimator"
	"github.com/yourusername/lotto-backtest/internal/ml"
	"github.com/yourusername/lotto-backtest/internal/models"
)

// Config holds everything one rolling backtest run needs
type Config struct {
	Game models.Game
	ML   ml.Config

	KValues     []int
	BlueKValues []int

	HalfLife    float64
	ShortWindow int
	LongWindow  int
	MixBetas    []float64
	AlphaFixed  float64
	ShrinkBeta  float64
	EMAAlpha    float64

	// BaselineShrinkBeta is the weekday shrink strength of the BASE_*
	// strategies. ShrinkBeta applies to the fused prior.
	BaselineShrinkBeta float64

	TauPrimary   float64
	TauSecondary float64

	StrictTraining bool

	// StartIndex and EndIndex are inclusive target indexes. AutoIndex means
	// the first index after SeqLen draws, and the last index.
	StartIndex int
	EndIndex   int
	MaxWindow  int
	MinWindow  int

	Seed       int64
	Workers    int
	Strategies []string
	OutputPath string

	Overlap OverlapConfig
}

// AutoIndex leaves StartIndex or EndIndex to be resolved from the history
const AutoIndex = -1

// DefaultConfig returns the stock run options for a game
func DefaultConfig(game models.Game) Config {
	mlCfg := ml.DefaultConfig()
	return Config{
		Game:         game,
		ML:           mlCfg,
		KValues:      []int{6, 10, 12, 16},
		BlueKValues:  []int{1, 2, 3, 4},
		HalfLife:     60,
		ShortWindow:  30,
		LongWindow:   180,
		MixBetas:     []float64{0.20, 0.35, 0.50},
		AlphaFixed:   0.40,
		ShrinkBeta:   40,
		EMAAlpha:     estimator.DefaultEMAAlpha,
		TauPrimary:   estimator.DefaultTauPrimary,
		TauSecondary: estimator.DefaultTauSecondary,
		StartIndex:   AutoIndex,
		EndIndex:     AutoIndex,
		MinWindow:    1,
		Seed:         mlCfg.Seed,
		Workers:      1,
		Overlap:      OverlapConfig{Window: 200, Sets: 5, RandomTrials: 2000},

		BaselineShrinkBeta: 20,
	}
}

// FromConfig converts app config to backtest config
func FromConfig(cfg *config.BacktestConfig) (Config, error) {
	if cfg == nil {
		return Config{}, fmt.Errorf("%w: backtest config is required", models.ErrConfiguration)
	}
	game, err := models.LookupGame(cfg.Game)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", models.ErrConfiguration, err)
	}

	bt := Config{
		Game: game,
		ML: ml.Config{
			SeqLen:       cfg.SeqLen,
			Epochs:       cfg.Epochs,
			HiddenSize:   cfg.HiddenSize,
			LearningRate: cfg.LearningRate,
			BatchSize:    cfg.BatchSize,
			Seed:         cfg.Seed,
		},
		KValues:        append([]int(nil), cfg.KValues...),
		BlueKValues:    append([]int(nil), cfg.BlueKValues...),
		HalfLife:       cfg.HalfLife,
		ShortWindow:    cfg.ShortWindow,
		LongWindow:     cfg.LongWindow,
		MixBetas:       append([]float64(nil), cfg.MixBetas...),
		AlphaFixed:     cfg.AlphaFixed,
		ShrinkBeta:     cfg.ShrinkBeta,
		EMAAlpha:       cfg.EMAAlpha,
		TauPrimary:     cfg.TauPrimary,
		TauSecondary:   cfg.TauSecondary,
		StrictTraining: cfg.StrictTraining,
		StartIndex:     cfg.StartIndex,
		EndIndex:       cfg.EndIndex,
		MaxWindow:      cfg.MaxWindow,
		MinWindow:      cfg.MinWindow,
		Seed:           cfg.Seed,
		Workers:        cfg.Workers,
		Strategies:     append([]string(nil), cfg.Strategies...),
		OutputPath:     cfg.OutputPath,
		Overlap: OverlapConfig{
			Window:       cfg.Overlap.Window,
			Sets:         cfg.Overlap.Sets,
			RandomTrials: cfg.Overlap.RandomTrials,
		},
	}
	bt.BaselineShrinkBeta = cfg.BaselineShrinkBeta
	if !game.HasSecondary() {
		bt.BlueKValues = nil
	}

	return bt, bt.Validate()
}

// Validate validates backtest config parameters. Every failure wraps
// models.ErrConfiguration.
func (c Config) Validate() error {
	if c.Game.Primary.Size == 0 {
		return configError("game is required")
	}
	if len(c.KValues) == 0 {
		return configError("k_values must not be empty")
	}
	for _, k := range c.KValues {
		if k <= 0 {
			return configError("k_values must be positive, got %d", k)
		}
	}
	for _, k := range c.BlueKValues {
		if k <= 0 {
			return configError("blue_k_values must be positive, got %d", k)
		}
	}
	if c.ShortWindow <= 0 || c.LongWindow <= 0 {
		return configError("short_window and long_window must be positive")
	}
	if c.MaxWindow < 0 || c.MinWindow < 0 {
		return configError("max_window and min_window cannot be negative")
	}
	if c.MaxWindow > 0 && c.MinWindow > c.MaxWindow {
		return configError("min_window %d exceeds max_window %d", c.MinWindow, c.MaxWindow)
	}
	if err := c.ML.Validate(); err != nil {
		return configError("%v", err)
	}
	for _, beta := range c.MixBetas {
		if beta < 0 || beta > 1 {
			return configError("mix beta must be within [0,1], got %g", beta)
		}
	}
	if c.AlphaFixed < 0 || c.AlphaFixed > 1 {
		return configError("alpha_fixed must be within [0,1], got %g", c.AlphaFixed)
	}
	if c.EMAAlpha < 0 || c.EMAAlpha > 1 {
		return configError("ema_alpha must be within [0,1], got %g", c.EMAAlpha)
	}
	if c.HalfLife < 0 || c.ShrinkBeta < 0 || c.BaselineShrinkBeta < 0 {
		return configError("half_life and shrink betas cannot be negative")
	}
	if c.TauPrimary < 0 || c.TauSecondary < 0 {
		return configError("temperatures cannot be negative")
	}
	if c.StartIndex < AutoIndex || c.EndIndex < AutoIndex {
		return configError("start_index and end_index must be %d (auto) or an index", AutoIndex)
	}
	if c.StartIndex != AutoIndex && c.EndIndex != AutoIndex && c.StartIndex > c.EndIndex {
		return configError("start_index %d is after end_index %d", c.StartIndex, c.EndIndex)
	}
	if c.Workers < 0 {
		return configError("workers cannot be negative")
	}
	return nil
}

func configError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", models.ErrConfiguration, fmt.Sprintf(format, args...))
}
