package estimator

import (
	"fmt"

	"github.com/yourusername/lotto-backtest/internal/models"
)

// WeekdayConditional estimates from draws sharing the target weekday, shrunk
// toward the global estimate with strength Beta. A positive Window first
// restricts the training window to its most recent draws.
type WeekdayConditional struct {
	HalfLife float64
	Beta     float64
	Window   int
}

func (w WeekdayConditional) Name() string {
	if w.Window > 0 {
		return fmt.Sprintf("weekday_conditional_%d", w.Window)
	}
	return "weekday_conditional"
}

func (w WeekdayConditional) Estimate(in Input, section models.Section) (Output, error) {
	spec, err := sectionSpec(in, section)
	if err != nil {
		return Output{}, err
	}

	window := Recent(in.Window, w.Window)
	global, err := decayedFrequency(window, spec, section, w.HalfLife)
	if err != nil {
		return Output{}, err
	}

	n := 0
	for _, d := range window {
		if d.Weekday() == in.TargetWeekday {
			n++
		}
	}
	if n == 0 {
		return global, nil
	}

	conditional, err := decayedFrequencyWhere(window, spec, section, w.HalfLife, func(d models.Draw) bool {
		return d.Weekday() == in.TargetWeekday
	})
	if err != nil {
		return global, nil
	}

	return Output{Low: spec.Low, Scores: Shrink(conditional.Scores, global.Scores, n, w.Beta)}, nil
}

// Shrink blends a conditional estimate toward a global one:
// n/(n+beta)*conditional + beta/(n+beta)*global. A non-positive beta keeps the
// conditional estimate unchanged.
func Shrink(conditional, global []float64, n int, beta float64) []float64 {
	weight := 1.0
	if beta > 0 {
		weight = float64(n) / (float64(n) + beta)
	}
	out := make([]float64, len(global))
	for i := range out {
		out[i] = weight*conditional[i] + (1-weight)*global[i]
	}
	return out
}
