package estimator

import (
	"fmt"
	"math"

	"github.com/yourusername/lotto-backtest/internal/models"
)

// GlobalFrequency counts occurrences over the whole window. With a positive
// HalfLife a draw of age a (0 = most recent) contributes 0.5^(a/HalfLife).
type GlobalFrequency struct {
	HalfLife float64
}

func (GlobalFrequency) Name() string { return "global_frequency" }

func (g GlobalFrequency) Estimate(in Input, section models.Section) (Output, error) {
	spec, err := sectionSpec(in, section)
	if err != nil {
		return Output{}, err
	}
	return decayedFrequency(in.Window, spec, section, g.HalfLife)
}

// WindowFrequency is GlobalFrequency restricted to the most recent Window
// draws, giving the unconditioned recent-drift baseline.
type WindowFrequency struct {
	Window   int
	HalfLife float64
}

func (w WindowFrequency) Name() string { return fmt.Sprintf("window_frequency_%d", w.Window) }

func (w WindowFrequency) Estimate(in Input, section models.Section) (Output, error) {
	spec, err := sectionSpec(in, section)
	if err != nil {
		return Output{}, err
	}
	return decayedFrequency(Recent(in.Window, w.Window), spec, section, w.HalfLife)
}

// Recent returns the last n draws of the window, or the whole window when n <= 0.
func Recent(window []models.Draw, n int) []models.Draw {
	if n <= 0 || len(window) <= n {
		return window
	}
	return window[len(window)-n:]
}

// decayedFrequency returns normalized time-decayed occurrence frequencies.
func decayedFrequency(window []models.Draw, spec models.SectionSpec, section models.Section, halfLife float64) (Output, error) {
	return decayedFrequencyWhere(window, spec, section, halfLife, nil)
}

// decayedFrequencyWhere counts only the draws accepted by keep, while ages stay
// relative to the full window so a filtered draw decays exactly as it would
// unfiltered.
func decayedFrequencyWhere(window []models.Draw, spec models.SectionSpec, section models.Section, halfLife float64, keep func(models.Draw) bool) (Output, error) {
	if len(window) == 0 {
		return Output{}, fmt.Errorf("%w: empty window", models.ErrInsufficientHistory)
	}

	scores := make([]float64, spec.RangeSize())
	last := len(window) - 1
	for i, d := range window {
		if keep != nil && !keep(d) {
			continue
		}
		weight := 1.0
		if halfLife > 0 {
			weight = math.Pow(0.5, float64(last-i)/halfLife)
		}
		for _, n := range d.Numbers(section) {
			if spec.Contains(n) {
				scores[n-spec.Low] += weight
			}
		}
	}

	if !normalize(scores) {
		return Output{}, fmt.Errorf("%w: no %s numbers in window", models.ErrDegenerateDistribution, spec.Name)
	}
	return Output{Low: spec.Low, Scores: scores}, nil
}
