package estimator

import (
	"fmt"

	"github.com/yourusername/lotto-backtest/internal/models"
)

// DefaultEMAAlpha is the smoothing factor used for keno trend weights.
const DefaultEMAAlpha = 0.25

// EMATrend scores each number by an exponential moving average of its
// presence, oldest draw to newest, seeded with the first draw's presence.
type EMATrend struct {
	Alpha float64
}

func (EMATrend) Name() string { return "ema_trend" }

func (e EMATrend) Estimate(in Input, section models.Section) (Output, error) {
	spec, err := sectionSpec(in, section)
	if err != nil {
		return Output{}, err
	}
	if len(in.Window) == 0 {
		return Output{}, fmt.Errorf("%w: empty window", models.ErrInsufficientHistory)
	}

	alpha := e.Alpha
	if alpha <= 0 || alpha > 1 {
		alpha = DefaultEMAAlpha
	}

	present := make([]float64, spec.RangeSize())
	scores := make([]float64, spec.RangeSize())
	for t, d := range in.Window {
		for i := range present {
			present[i] = 0
		}
		for _, n := range d.Numbers(section) {
			if spec.Contains(n) {
				present[n-spec.Low] = 1
			}
		}
		for i := range scores {
			if t == 0 {
				scores[i] = present[i]
				continue
			}
			scores[i] = alpha*present[i] + (1-alpha)*scores[i]
		}
	}

	if !normalize(scores) {
		return Output{}, fmt.Errorf("%w: ema trend has no mass", models.ErrDegenerateDistribution)
	}
	return Output{Low: spec.Low, Scores: scores}, nil
}
