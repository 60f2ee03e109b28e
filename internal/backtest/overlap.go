package backtest

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/yourusername/lotto-backtest/internal/estimator"
	"github.com/yourusername/lotto-backtest/internal/fusion"
	"github.com/yourusername/lotto-backtest/internal/history"
	"github.com/yourusername/lotto-backtest/internal/models"
	"github.com/yourusername/lotto-backtest/internal/payout"
	"github.com/yourusername/lotto-backtest/internal/recommend"
)

// OverlapConfig configures the ticket overlap backtest. Pick defaults to the
// game's primary draw size.
type OverlapConfig struct {
	Window       int
	Sets         int
	RandomTrials int
	Pick         int
}

// OverlapStats summarizes a sample of best-ticket overlaps
type OverlapStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P90    float64 `json:"p90"`
}

// OverlapResult compares EMA-trend tickets with uniformly random tickets
type OverlapResult struct {
	Game           string       `json:"game"`
	Window         int          `json:"window"`
	Sets           int          `json:"sets"`
	Pick           int          `json:"pick"`
	Samples        int          `json:"samples"`
	ModelOverlaps  []int        `json:"model_overlaps"`
	RandomOverlaps []int        `json:"random_overlaps"`
	Model          OverlapStats `json:"model"`
	Random         OverlapStats `json:"random"`
}

// RunOverlap trains EMA trend weights on each trailing window of cfg.Overlap.Window
// draws, samples Sets tickets and records the best overlap with the next draw.
// The random baseline draws the same number of tickets per trial, spreading
// RandomTrials evenly over the periods. Both streams are seeded from cfg.Seed.
func RunOverlap(ctx context.Context, h *history.History, cfg Config) (OverlapResult, error) {
	oc := cfg.Overlap
	game := h.Game()
	if oc.Window <= 0 || oc.Sets <= 0 {
		return OverlapResult{}, fmt.Errorf("%w: overlap window and sets must be positive", models.ErrConfiguration)
	}
	pick := oc.Pick
	if pick <= 0 || pick > game.Primary.RangeSize() {
		pick = game.Primary.Size
	}
	if h.Len() <= oc.Window {
		return OverlapResult{}, fmt.Errorf("%w: %d draws, overlap window %d", models.ErrInsufficientHistory, h.Len(), oc.Window)
	}

	periods := h.Len() - oc.Window
	trials := oc.RandomTrials / periods
	if trials < 1 {
		trials = 1
	}

	modelRNG := rand.New(rand.NewSource(cfg.Seed))
	randomRNG := rand.New(rand.NewSource(cfg.Seed + 1))
	trend := estimator.EMATrend{Alpha: cfg.EMAAlpha}

	result := OverlapResult{Game: game.Code, Window: oc.Window, Sets: oc.Sets, Pick: pick}
	for pos := oc.Window; pos < h.Len(); pos++ {
		if err := ctx.Err(); err != nil {
			return OverlapResult{}, err
		}
		target := h.At(pos)
		window, err := h.WindowBefore(target.Index, oc.Window, oc.Window)
		if err != nil {
			return OverlapResult{}, err
		}

		out, err := trend.Estimate(estimator.Input{
			Game:          game,
			Window:        window,
			TargetIndex:   target.Index,
			TargetWeekday: history.TargetWeekday(game, window),
		}, models.Primary)
		if err != nil {
			return OverlapResult{}, err
		}
		dist, err := fusion.FromOutput(out, game.Primary)
		if err != nil {
			return OverlapResult{}, err
		}

		best := 0
		for s := 0; s < oc.Sets; s++ {
			if hits := payout.Overlap(recommend.Sample(modelRNG, dist, pick), target.Primary); hits > best {
				best = hits
			}
		}
		result.ModelOverlaps = append(result.ModelOverlaps, best)

		for t := 0; t < trials; t++ {
			result.RandomOverlaps = append(result.RandomOverlaps, bestRandomOverlap(randomRNG, game.Primary, pick, oc.Sets, target.Primary))
		}
	}

	result.Samples = len(result.ModelOverlaps)
	result.Model = overlapStats(result.ModelOverlaps)
	result.Random = overlapStats(result.RandomOverlaps)
	return result, nil
}

func bestRandomOverlap(rng *rand.Rand, spec models.SectionSpec, pick, sets int, actual []int) int {
	best := 0
	for s := 0; s < sets; s++ {
		perm := rng.Perm(spec.RangeSize())[:pick]
		ticket := make([]int, pick)
		for i, p := range perm {
			ticket[i] = spec.Low + p
		}
		if hits := payout.Overlap(ticket, actual); hits > best {
			best = hits
		}
	}
	return best
}

func overlapStats(overlaps []int) OverlapStats {
	if len(overlaps) == 0 {
		return OverlapStats{}
	}
	values := make([]float64, len(overlaps))
	for i, v := range overlaps {
		values[i] = float64(v)
	}
	sort.Float64s(values)
	return OverlapStats{
		Mean:   stat.Mean(values, nil),
		Median: stat.Quantile(0.5, stat.Empirical, values, nil),
		P90:    stat.Quantile(0.9, stat.Empirical, values, nil),
	}
}
