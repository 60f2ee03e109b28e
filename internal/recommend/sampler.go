// Package recommend turns fused distributions into ticket recommendations
// using seeded Monte Carlo sampling under side constraints.
package recommend

import (
	"math/rand"
	"sort"

	"github.com/yourusername/lotto-backtest/internal/fusion"
)

// Sample draws m distinct numbers from d by roulette selection without
// replacement and returns them sorted. When the remaining mass is zero the
// next number is chosen uniformly from what is left. All randomness comes
// from rng.
func Sample(rng *rand.Rand, d fusion.Distribution, m int) []int {
	if m > len(d.Probs) {
		m = len(d.Probs)
	}
	numbers := make([]int, len(d.Probs))
	weights := make([]float64, len(d.Probs))
	for i, p := range d.Probs {
		numbers[i] = d.Low + i
		weights[i] = p
	}

	chosen := make([]int, 0, m)
	for len(chosen) < m {
		total := 0.0
		for _, w := range weights {
			total += w
		}

		pick := len(numbers) - 1
		if total <= 0 {
			pick = rng.Intn(len(numbers))
		} else {
			r := rng.Float64() * total
			acc := 0.0
			for i, w := range weights {
				acc += w
				if acc > r {
					pick = i
					break
				}
			}
		}

		chosen = append(chosen, numbers[pick])
		numbers = append(numbers[:pick], numbers[pick+1:]...)
		weights = append(weights[:pick], weights[pick+1:]...)
	}

	sort.Ints(chosen)
	return chosen
}

// SampleOne draws a single number from d.
func SampleOne(rng *rand.Rand, d fusion.Distribution) int {
	return Sample(rng, d, 1)[0]
}
