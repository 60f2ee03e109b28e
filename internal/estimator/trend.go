package estimator

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/yourusername/lotto-backtest/internal/models"
)

// Forecast methods reported on a SumRange
const (
	ForecastAR        = "ar2_diff"
	ForecastEmpirical = "empirical"
	ForecastFallback  = "fallback"
)

const (
	minForecastDraws = 30
	empiricalSpread  = 20.0
	fallbackSpread   = 25.0
	rangePadding     = 5
)

// sumEnvelopes narrows the feasible sum range for games where extreme sums
// are never worth generating.
var sumEnvelopes = map[string][2]int{
	models.SSQ.Code: {60, 180},
}

// SumRange is an acceptance interval for the primary-section sum of a ticket.
type SumRange struct {
	Mean   float64 `json:"mean"`
	Low    int     `json:"low"`
	High   int     `json:"high"`
	Method string  `json:"method"`
}

// Contains reports whether sum falls inside the range
func (r SumRange) Contains(sum int) bool {
	return sum >= r.Low && sum <= r.High
}

// TrendConstraint forecasts the next primary-section sum with an AR(2) model
// on first differences and turns the forecast interval into a SumRange.
type TrendConstraint struct {
	// Confidence is the two-sided interval mass, 0.8 by default.
	Confidence float64
}

// Forecast fits on the window only. With fewer than 30 draws or a failed fit
// it falls back to the window mean with a fixed spread.
func (tc TrendConstraint) Forecast(game models.Game, window []models.Draw) (SumRange, error) {
	if len(window) == 0 {
		return SumRange{}, fmt.Errorf("%w: empty window", models.ErrInsufficientHistory)
	}

	series := make([]float64, len(window))
	for i, d := range window {
		series[i] = float64(models.Sum(d.Primary))
	}
	mean := stat.Mean(series, nil)

	if len(series) < minForecastDraws {
		return tc.clamp(game, mean, mean-empiricalSpread, mean+empiricalSpread, ForecastEmpirical), nil
	}

	mu, sigma, err := fitAR2Diff(series)
	if err != nil {
		return tc.clamp(game, mean, mean-fallbackSpread, mean+fallbackSpread, ForecastFallback), nil
	}

	confidence := tc.Confidence
	if confidence <= 0 || confidence >= 1 {
		confidence = 0.8
	}
	z := distuv.UnitNormal.Quantile(0.5 + confidence/2)
	return tc.clamp(game, mu, mu-z*sigma, mu+z*sigma, ForecastAR), nil
}

func (tc TrendConstraint) clamp(game models.Game, mu, low, high float64, method string) SumRange {
	minSum, maxSum := game.Primary.SumBounds()
	if env, ok := sumEnvelopes[game.Code]; ok {
		minSum, maxSum = env[0], env[1]
	}

	lo := int(low) - rangePadding
	hi := int(high) + rangePadding
	if lo < minSum {
		lo = minSum
	}
	if hi > maxSum {
		hi = maxSum
	}
	if lo > hi {
		lo, hi = minSum, maxSum
	}
	return SumRange{Mean: mu, Low: lo, High: hi, Method: method}
}

// fitAR2Diff regresses d[t] on (1, d[t-1], d[t-2]) where d is the first
// difference of series, and returns the one-step forecast of the level and the
// residual standard deviation.
func fitAR2Diff(series []float64) (float64, float64, error) {
	n := len(series)
	diff := make([]float64, n-1)
	for i := 1; i < n; i++ {
		diff[i-1] = series[i] - series[i-1]
	}

	rows := len(diff) - 2
	if rows < 4 {
		return 0, 0, fmt.Errorf("not enough observations for ar(2): %d", rows)
	}

	x := mat.NewDense(rows, 3, nil)
	y := mat.NewVecDense(rows, nil)
	for r := 0; r < rows; r++ {
		t := r + 2
		x.Set(r, 0, 1)
		x.Set(r, 1, diff[t-1])
		x.Set(r, 2, diff[t-2])
		y.SetVec(r, diff[t])
	}

	var beta mat.VecDense
	if err := beta.SolveVec(x, y); err != nil {
		return 0, 0, fmt.Errorf("ar(2) least squares: %w", err)
	}

	var fitted mat.VecDense
	fitted.MulVec(x, &beta)
	rss := 0.0
	for r := 0; r < rows; r++ {
		e := y.AtVec(r) - fitted.AtVec(r)
		rss += e * e
	}
	sigma := math.Sqrt(rss / float64(rows-3))

	last, prev := diff[len(diff)-1], diff[len(diff)-2]
	next := beta.AtVec(0) + beta.AtVec(1)*last + beta.AtVec(2)*prev
	mu := series[n-1] + next

	if math.IsNaN(mu) || math.IsInf(mu, 0) || math.IsNaN(sigma) || math.IsInf(sigma, 0) {
		return 0, 0, fmt.Errorf("ar(2) forecast is not finite")
	}
	return mu, sigma, nil
}
