package fusion

import (
	"math"
	"time"

	"github.com/yourusername/lotto-backtest/internal/models"
)

// Adaptive blending defaults
const (
	AlphaMin            = 0.20
	AlphaMax            = 0.60
	WeekdayRecentWindow = 24
	WeekdayMinCount     = 8
	lowSupportPenalty   = 0.85
	primaryDivergence   = 0.7
	secondaryDivergence = 0.3
)

// SymmetricKL returns KL(p||q) + KL(q||p) with both sides floored at 1e-12.
func SymmetricKL(p, q []float64) float64 {
	d := 0.0
	for i := range p {
		pi := math.Max(p[i], probabilityFloor)
		qi := math.Max(q[i], probabilityFloor)
		d += pi*math.Log(pi/qi) + qi*math.Log(qi/pi)
	}
	return d
}

// AlphaInputs carries what AdaptiveAlpha needs
type AlphaInputs struct {
	PriorPrimary, ModelPrimary     Distribution
	PriorSecondary, ModelSecondary *Distribution
	Recent                         []models.Draw
	TargetWeekday                  time.Weekday
}

// AdaptiveAlpha picks the model weight from how far the model departs from the
// prior: alpha = clip(1/(1+4d), 0.2, 0.6) with d = 0.7*symKL(primary) +
// 0.3*symKL(secondary). Alpha is scaled by 0.85 when the target weekday has
// fewer than 8 draws among the last 24.
func AdaptiveAlpha(in AlphaInputs) float64 {
	d := SymmetricKL(in.ModelPrimary.Probs, in.PriorPrimary.Probs)
	if in.PriorSecondary != nil && in.ModelSecondary != nil {
		d = primaryDivergence*d + secondaryDivergence*SymmetricKL(in.ModelSecondary.Probs, in.PriorSecondary.Probs)
	}

	alpha := 1 / (1 + 4*d)
	alpha = math.Min(AlphaMax, math.Max(AlphaMin, alpha))

	recent := in.Recent
	if len(recent) > WeekdayRecentWindow {
		recent = recent[len(recent)-WeekdayRecentWindow:]
	}
	n := 0
	for _, draw := range recent {
		if draw.Weekday() == in.TargetWeekday {
			n++
		}
	}
	if n < WeekdayMinCount {
		alpha *= lowSupportPenalty
	}
	return alpha
}

// Blend returns (1-alpha)*prior + alpha*model, normalized.
func Blend(prior, model Distribution, alpha float64, spec models.SectionSpec) (Distribution, error) {
	return Fuse([]Weighted{
		{Output: prior.Output(), Weight: 1 - alpha},
		{Output: model.Output(), Weight: alpha},
	}, spec)
}
