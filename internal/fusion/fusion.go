// Package fusion combines estimator outputs into normalized distributions and
// ranks them.
package fusion

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/yourusername/lotto-backtest/internal/estimator"
	"github.com/yourusername/lotto-backtest/internal/models"
)

// Canonical three-way prior weights
const (
	WeightShort   = 0.30
	WeightWeekday = 0.20
	WeightGlobal  = 0.50
)

const probabilityFloor = 1e-12

// Distribution is a normalized estimator.Output.
type Distribution struct {
	Low   int       `json:"low"`
	Probs []float64 `json:"probs"`
}

// Prob returns the probability of number n
func (d Distribution) Prob(n int) float64 {
	i := n - d.Low
	if i < 0 || i >= len(d.Probs) {
		return 0
	}
	return d.Probs[i]
}

// Output converts back to an estimator.Output
func (d Distribution) Output() estimator.Output {
	return estimator.Output{Low: d.Low, Scores: append([]float64(nil), d.Probs...)}
}

// Weighted is one fusion input
type Weighted struct {
	Output estimator.Output
	Weight float64
}

// Fuse returns the normalized weighted sum of the parts over spec's range.
// Weights must be non-negative and are normalized after the fact. No parts,
// all-zero weights or a zero-mass result fail with models.ErrDegenerateDistribution.
func Fuse(parts []Weighted, spec models.SectionSpec) (Distribution, error) {
	size := spec.RangeSize()
	if size == 0 {
		return Distribution{}, fmt.Errorf("%w: section %q is empty", models.ErrConfiguration, spec.Name)
	}

	total := 0.0
	for i, p := range parts {
		if p.Weight < 0 || math.IsNaN(p.Weight) {
			return Distribution{}, fmt.Errorf("%w: weight %d is %v", models.ErrConfiguration, i, p.Weight)
		}
		if p.Weight > 0 && !p.Output.Matches(spec) {
			return Distribution{}, fmt.Errorf("%w: part %d covers [%d, %d), section %q needs [%d, %d]",
				models.ErrConfiguration, i, p.Output.Low, p.Output.Low+p.Output.Len(), spec.Name, spec.Low, spec.High)
		}
		total += p.Weight
	}
	if total == 0 {
		return Distribution{}, fmt.Errorf("%w: no positive weights", models.ErrDegenerateDistribution)
	}

	probs := make([]float64, size)
	for _, p := range parts {
		if p.Weight == 0 {
			continue
		}
		floats.AddScaled(probs, p.Weight/total, p.Output.Scores)
	}

	mass := floats.Sum(probs)
	if mass <= 0 || math.IsNaN(mass) || math.IsInf(mass, 0) {
		return Distribution{}, fmt.Errorf("%w: fused mass is %v", models.ErrDegenerateDistribution, mass)
	}
	floats.Scale(1/mass, probs)
	return Distribution{Low: spec.Low, Probs: probs}, nil
}

// FromOutput normalizes a single output
func FromOutput(out estimator.Output, spec models.SectionSpec) (Distribution, error) {
	return Fuse([]Weighted{{Output: out, Weight: 1}}, spec)
}

// TemperatureSmooth returns normalize(exp(log p / tau)) with p floored at 1e-12.
// tau > 1 flattens, tau < 1 sharpens.
func TemperatureSmooth(d Distribution, tau float64) (Distribution, error) {
	if tau <= 0 || math.IsNaN(tau) {
		return Distribution{}, fmt.Errorf("%w: temperature must be positive, got %v", models.ErrConfiguration, tau)
	}
	out := make([]float64, len(d.Probs))
	for i, p := range d.Probs {
		out[i] = math.Exp(math.Log(math.Max(p, probabilityFloor)) / tau)
	}
	mass := floats.Sum(out)
	if mass <= 0 {
		return Distribution{}, fmt.Errorf("%w: smoothed mass is zero", models.ErrDegenerateDistribution)
	}
	floats.Scale(1/mass, out)
	return Distribution{Low: d.Low, Probs: out}, nil
}

// Ranking lists the numbers by descending probability, ties broken by the
// lower number.
func Ranking(d Distribution) []int {
	return RankScores(d.Low, d.Probs)
}

// RankScores ranks numbers low..low+len(scores)-1 by descending score.
func RankScores(low int, scores []float64) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})
	ranking := make([]int, len(order))
	for i, idx := range order {
		ranking[i] = low + idx
	}
	return ranking
}
