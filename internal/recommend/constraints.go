package recommend

import (
	"fmt"

	"github.com/yourusername/lotto-backtest/internal/estimator"
	"github.com/yourusername/lotto-backtest/internal/models"
)

// Constraint accepts or rejects a candidate primary set.
type Constraint interface {
	Name() string
	Accept(numbers []int) bool
}

// OddEvenBalance rejects sets where |odd - even| exceeds MaxDiff.
type OddEvenBalance struct {
	MaxDiff int
}

func (c OddEvenBalance) Name() string { return fmt.Sprintf("odd_even<=%d", c.MaxDiff) }

func (c OddEvenBalance) Accept(numbers []int) bool {
	odd := models.OddCount(numbers)
	diff := odd - (len(numbers) - odd)
	if diff < 0 {
		diff = -diff
	}
	return diff <= c.MaxDiff
}

// SumWithin rejects sets whose sum falls outside the forecast range.
type SumWithin struct {
	Range estimator.SumRange
}

func (c SumWithin) Name() string { return fmt.Sprintf("sum[%d,%d]", c.Range.Low, c.Range.High) }

func (c SumWithin) Accept(numbers []int) bool {
	return c.Range.Contains(models.Sum(numbers))
}

// QuadrantSpread splits the range into equal buckets and rejects sets whose
// fullest and emptiest buckets differ by more than MaxSpread.
type QuadrantSpread struct {
	Low, High int
	Buckets   int
	MaxSpread int
}

func (c QuadrantSpread) Name() string { return fmt.Sprintf("quadrant_spread<=%d", c.MaxSpread) }

func (c QuadrantSpread) Accept(numbers []int) bool {
	width := (c.High - c.Low + 1) / c.Buckets
	counts := make([]int, c.Buckets)
	for _, n := range numbers {
		b := (n - c.Low) / width
		if b >= c.Buckets {
			b = c.Buckets - 1
		}
		counts[b]++
	}
	lo, hi := counts[0], counts[0]
	for _, v := range counts[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return hi-lo <= c.MaxSpread
}

// OddEvenLimit returns the allowed |odd - even| for a pick of n primary numbers.
// A full keno ticket allows 4; smaller picks allow max(2, n/3).
func OddEvenLimit(game models.Game, n int) int {
	if game.Code == models.KL8.Code && n == game.Primary.Size {
		return 4
	}
	if n/3 > 2 {
		return n / 3
	}
	return 2
}

// DefaultConstraints returns the shape constraints for a pick of n numbers,
// without any sum constraint.
func DefaultConstraints(game models.Game, n int) []Constraint {
	cs := []Constraint{OddEvenBalance{MaxDiff: OddEvenLimit(game, n)}}
	if game.Code == models.KL8.Code && n == game.Primary.Size {
		cs = append(cs, QuadrantSpread{Low: game.Primary.Low, High: game.Primary.High, Buckets: 4, MaxSpread: 5})
	}
	return cs
}

func acceptAll(cs []Constraint, numbers []int) bool {
	for _, c := range cs {
		if !c.Accept(numbers) {
			return false
		}
	}
	return true
}
