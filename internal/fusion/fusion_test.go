package fusion

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/lotto-backtest/internal/estimator"
	"github.com/yourusername/lotto-backtest/internal/models"
	"github.com/yourusername/lotto-backtest/internal/testutil"
)

var blue = models.SSQ.Secondary

func randomOutput(rng *rand.Rand, spec models.SectionSpec) estimator.Output {
	scores := make([]float64, spec.RangeSize())
	for i := range scores {
		scores[i] = rng.Float64() * 10
	}
	return estimator.Output{Low: spec.Low, Scores: scores}
}

func total(d Distribution) float64 {
	s := 0.0
	for _, p := range d.Probs {
		s += p
	}
	return s
}

func TestFuseSumsToOne(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 200; trial++ {
		n := 1 + rng.Intn(4)
		parts := make([]Weighted, n)
		for i := range parts {
			parts[i] = Weighted{Output: randomOutput(rng, blue), Weight: rng.Float64() * 5}
		}
		parts[0].Weight += 0.01

		d, err := Fuse(parts, blue)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, total(d), 1e-9)
		assert.Len(t, d.Probs, 16)
	}
}

func TestFuseWeightsAreRelative(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	a, b := randomOutput(rng, blue), randomOutput(rng, blue)

	d1, err := Fuse([]Weighted{{a, 1}, {b, 3}}, blue)
	require.NoError(t, err)
	d2, err := Fuse([]Weighted{{a, 10}, {b, 30}}, blue)
	require.NoError(t, err)

	for i := range d1.Probs {
		assert.InDelta(t, d1.Probs[i], d2.Probs[i], 1e-12)
	}
}

func TestFuseDegenerate(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	out := randomOutput(rng, blue)

	tests := []struct {
		name  string
		parts []Weighted
	}{
		{"no parts", nil},
		{"zero weights", []Weighted{{out, 0}, {out, 0}}},
		{"zero mass", []Weighted{{estimator.Output{Low: 1, Scores: make([]float64, 16)}, 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Fuse(tt.parts, blue)
			assert.True(t, errors.Is(err, models.ErrDegenerateDistribution))
			assert.Nil(t, d.Probs)
		})
	}
}

func TestFuseRejectsBadInputs(t *testing.T) {
	rng := rand.New(rand.NewSource(4))

	_, err := Fuse([]Weighted{{randomOutput(rng, blue), -1}}, blue)
	assert.True(t, errors.Is(err, models.ErrConfiguration))

	_, err = Fuse([]Weighted{{randomOutput(rng, models.SSQ.Primary), 1}}, blue)
	assert.True(t, errors.Is(err, models.ErrConfiguration))
}

func TestTemperatureSmooth(t *testing.T) {
	d := Distribution{Low: 1, Probs: []float64{0.6, 0.3, 0.1, 0}}

	flat, err := TemperatureSmooth(d, 2)
	require.NoError(t, err)
	sharp, err := TemperatureSmooth(d, 0.5)
	require.NoError(t, err)
	same, err := TemperatureSmooth(d, 1)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, total(flat), 1e-9)
	assert.InDelta(t, 1.0, total(sharp), 1e-9)
	assert.Less(t, flat.Probs[0], d.Probs[0])
	assert.Greater(t, sharp.Probs[0], d.Probs[0])
	assert.InDelta(t, 0.6, same.Probs[0], 1e-9)
	assert.Greater(t, flat.Probs[3], 0.0)
	assert.Equal(t, Ranking(d), Ranking(flat))

	_, err = TemperatureSmooth(d, 0)
	assert.True(t, errors.Is(err, models.ErrConfiguration))
}

func TestRankingTieBreak(t *testing.T) {
	d := Distribution{Low: 1, Probs: []float64{0.1, 0.3, 0.3, 0.2, 0.1}}
	assert.Equal(t, []int{2, 3, 4, 1, 5}, Ranking(d))
}

func TestSymmetricKL(t *testing.T) {
	p := []float64{0.5, 0.5}
	q := []float64{0.9, 0.1}

	assert.InDelta(t, 0.0, SymmetricKL(p, p), 1e-12)
	assert.Greater(t, SymmetricKL(p, q), 0.0)
	assert.InDelta(t, SymmetricKL(p, q), SymmetricKL(q, p), 1e-12)
}

func TestAdaptiveAlpha(t *testing.T) {
	uniform := Distribution{Low: 1, Probs: []float64{0.25, 0.25, 0.25, 0.25}}
	skewed := Distribution{Low: 1, Probs: []float64{0.97, 0.01, 0.01, 0.01}}

	recent := testutil.Draws(models.SSQ, 60, 1)
	wd := models.SSQ.NextDrawWeekday(recent[len(recent)-1].Date)

	same := AdaptiveAlpha(AlphaInputs{PriorPrimary: uniform, ModelPrimary: uniform, Recent: recent, TargetWeekday: wd})
	assert.InDelta(t, AlphaMax, same, 1e-9)

	far := AdaptiveAlpha(AlphaInputs{PriorPrimary: uniform, ModelPrimary: skewed, Recent: recent, TargetWeekday: wd})
	assert.InDelta(t, AlphaMin, far, 1e-9)

	sparse := AdaptiveAlpha(AlphaInputs{PriorPrimary: uniform, ModelPrimary: uniform, Recent: recent, TargetWeekday: time.Monday})
	assert.InDelta(t, AlphaMax*0.85, sparse, 1e-9)

	withSecondary := AdaptiveAlpha(AlphaInputs{
		PriorPrimary: uniform, ModelPrimary: uniform,
		PriorSecondary: &uniform, ModelSecondary: &skewed,
		Recent: recent, TargetWeekday: wd,
	})
	assert.Less(t, withSecondary, same)
}

func TestBlend(t *testing.T) {
	prior := Distribution{Low: 1, Probs: []float64{0.5, 0.5}}
	model := Distribution{Low: 1, Probs: []float64{1, 0}}
	spec := models.SectionSpec{Name: "x", Low: 1, High: 2, Size: 1}

	d, err := Blend(prior, model, 0.4, spec)
	require.NoError(t, err)
	assert.InDelta(t, 0.7, d.Prob(1), 1e-12)
	assert.InDelta(t, 0.3, d.Prob(2), 1e-12)
}
