// Package estimator maps a causal training window to per-number scores for
// one section of the next draw.
package estimator

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/yourusername/lotto-backtest/internal/models"
)

// Input is everything an estimator may look at. It never carries the target draw.
type Input struct {
	Game          models.Game
	Window        []models.Draw
	TargetIndex   int
	TargetWeekday time.Weekday
}

// Output covers the full legal range of one section: Scores[i] is the score of number Low+i.
type Output struct {
	Low    int       `json:"low"`
	Scores []float64 `json:"scores"`
}

// Score returns the score for number n, or 0 outside the range
func (o Output) Score(n int) float64 {
	i := n - o.Low
	if i < 0 || i >= len(o.Scores) {
		return 0
	}
	return o.Scores[i]
}

// Len returns the number of candidates covered
func (o Output) Len() int {
	return len(o.Scores)
}

// Matches reports whether the output covers exactly the section's range
func (o Output) Matches(spec models.SectionSpec) bool {
	return o.Low == spec.Low && len(o.Scores) == spec.RangeSize()
}

// Estimator is one probability-estimation strategy.
type Estimator interface {
	Name() string
	Estimate(in Input, section models.Section) (Output, error)
}

// sectionSpec resolves the section and rejects absent ones.
func sectionSpec(in Input, section models.Section) (models.SectionSpec, error) {
	spec := in.Game.Spec(section)
	if spec.Size == 0 {
		return spec, fmt.Errorf("%w: game %s has no %s section", models.ErrConfiguration, in.Game.Code, section)
	}
	return spec, nil
}

// normalize scales v to sum to 1 in place. It reports false when v has no mass.
func normalize(v []float64) bool {
	total := floats.Sum(v)
	if total <= 0 {
		return false
	}
	floats.Scale(1/total, v)
	return true
}
