package recommend

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/yourusername/lotto-backtest/internal/estimator"
	"github.com/yourusername/lotto-backtest/internal/fusion"
	"github.com/yourusername/lotto-backtest/internal/models"
)

// Generation defaults
const (
	DefaultCandidates = 2500
	DefaultSets       = 5
	HotWindow         = 10
	HotMinCount       = 2
	maxHotShare       = 0.40
	meanWeight        = 0.7
	entropyWeight     = 0.3
)

// Ticket is one recommended set of numbers.
type Ticket struct {
	Primary   []int   `json:"primary"`
	Secondary []int   `json:"secondary,omitempty"`
	Score     float64 `json:"score"`
	Entropy   float64 `json:"entropy_bits"`
}

// Key returns a stable identity for the ticket
func (t Ticket) Key() string {
	var b strings.Builder
	for _, n := range t.Primary {
		fmt.Fprintf(&b, "%02d ", n)
	}
	b.WriteString("+")
	for _, n := range t.Secondary {
		fmt.Fprintf(&b, " %02d", n)
	}
	return b.String()
}

// Options controls Generate
type Options struct {
	Sets         int
	Candidates   int
	Pick         int
	SumRange     *estimator.SumRange
	HotSecondary []int
}

// Generate samples candidate tickets from the distributions, keeps those that
// satisfy the constraints and returns the best Sets distinct primary sets by
// 0.7*mean(p) - 0.3*H/log2(pick). When the sum range rejects every candidate
// it retries once without it.
func Generate(ctx context.Context, game models.Game, primary fusion.Distribution, secondary *fusion.Distribution, opts Options, rng *rand.Rand) ([]Ticket, error) {
	if opts.Sets <= 0 {
		opts.Sets = DefaultSets
	}
	if opts.Candidates <= 0 {
		opts.Candidates = DefaultCandidates
	}
	if opts.Pick <= 0 {
		opts.Pick = game.Primary.Size
	}

	constraints := DefaultConstraints(game, opts.Pick)
	withSum := constraints
	if opts.SumRange != nil && opts.Pick == game.Primary.Size {
		withSum = append(append([]Constraint(nil), constraints...), SumWithin{Range: *opts.SumRange})
	}

	tickets, err := candidates(ctx, primary, secondary, opts, withSum, rng)
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 && len(withSum) != len(constraints) {
		tickets, err = candidates(ctx, primary, secondary, opts, constraints, rng)
		if err != nil {
			return nil, err
		}
	}
	if len(tickets) == 0 {
		return nil, fmt.Errorf("%w: no candidate satisfied the constraints", models.ErrDegenerateDistribution)
	}

	out := make([]Ticket, 0, opts.Sets)
	used := make(map[string]struct{})
	for _, t := range tickets {
		key := Ticket{Primary: t.Primary}.Key()
		if _, dup := used[key]; dup {
			continue
		}
		used[key] = struct{}{}
		out = append(out, t)
		if len(out) == opts.Sets {
			break
		}
	}
	return out, nil
}

func candidates(ctx context.Context, primary fusion.Distribution, secondary *fusion.Distribution, opts Options, cs []Constraint, rng *rand.Rand) ([]Ticket, error) {
	var mix *fusion.Distribution
	if secondary != nil {
		m := SecondaryMix(*secondary, opts.HotSecondary)
		mix = &m
	}

	best := make(map[string]Ticket)
	for i := 0; i < opts.Candidates; i++ {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		nums := Sample(rng, primary, opts.Pick)
		if !acceptAll(cs, nums) {
			continue
		}

		score, entropy := ScoreSet(primary, nums)
		t := Ticket{Primary: nums, Score: score, Entropy: entropy}
		if mix != nil {
			t.Secondary = []int{SampleOne(rng, *mix)}
		}
		key := t.Key()
		if prev, ok := best[key]; !ok || t.Score > prev.Score {
			best[key] = t
		}
	}

	out := make([]Ticket, 0, len(best))
	for _, t := range best {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Key() < out[j].Key()
	})
	return out, nil
}

// ScoreSet rewards chosen mass and penalizes spread: it returns
// 0.7*mean(p) - 0.3*H/log2(n) together with H, the entropy in bits of the
// chosen probabilities renormalized.
func ScoreSet(d fusion.Distribution, nums []int) (score, entropyBits float64) {
	q := make([]float64, len(nums))
	for i, n := range nums {
		q[i] = math.Max(d.Prob(n), 1e-12)
	}
	mean := stat.Mean(q, nil)
	floats.Scale(1/floats.Sum(q), q)
	entropyBits = stat.Entropy(q) / math.Ln2

	score = meanWeight * mean
	if len(nums) > 1 {
		score -= entropyWeight * entropyBits / math.Log2(float64(len(nums)))
	}
	return score, entropyBits
}

// HotNumbers returns the secondary numbers seen at least minCount times in
// the last window draws.
func HotNumbers(draws []models.Draw, section models.Section, window, minCount int) []int {
	if window > 0 && len(draws) > window {
		draws = draws[len(draws)-window:]
	}
	counts := make(map[int]int)
	for _, d := range draws {
		for _, n := range d.Numbers(section) {
			counts[n]++
		}
	}
	var hot []int
	for n, c := range counts {
		if c >= minCount {
			hot = append(hot, n)
		}
	}
	sort.Ints(hot)
	return hot
}

// AdaptiveTopK returns how many leading secondary candidates to keep: 6 for a
// uniform distribution, shrinking to 2 as it approaches one-hot.
func AdaptiveTopK(d fusion.Distribution) int {
	size := len(d.Probs)
	if size <= 2 {
		return size
	}
	sharp := (floats.Max(d.Probs)*float64(size) - 1) / float64(size-1)
	k := 6 - int(math.Round(4*sharp))
	if k < 2 {
		k = 2
	}
	if k > 6 {
		k = 6
	}
	if k > size {
		k = size
	}
	return k
}

// SecondaryMix restricts the secondary distribution to its adaptive top-k
// merged with the hot numbers, capping the hot group's total weight at 40%.
func SecondaryMix(d fusion.Distribution, hot []int) fusion.Distribution {
	ranking := fusion.Ranking(d)
	merged := make(map[int]bool)
	for _, n := range ranking[:AdaptiveTopK(d)] {
		merged[n] = false
	}
	for _, n := range hot {
		if n >= d.Low && n < d.Low+len(d.Probs) {
			merged[n] = true
		}
	}

	hotCount := 0
	hotMass, coldMass := 0.0, 0.0
	for n, isHot := range merged {
		if isHot {
			hotCount++
			hotMass += d.Prob(n)
		} else {
			coldMass += d.Prob(n)
		}
	}

	probs := make([]float64, len(d.Probs))
	mixed := hotCount > 0 && hotCount < len(merged) && hotMass > 0 && coldMass > 0
	hotShare := math.Min(maxHotShare, float64(hotCount)/float64(len(merged)))
	for n, isHot := range merged {
		p := d.Prob(n)
		switch {
		case !mixed:
			probs[n-d.Low] = p
		case isHot:
			probs[n-d.Low] = p / hotMass * hotShare
		default:
			probs[n-d.Low] = p / coldMass * (1 - hotShare)
		}
	}
	if total := floats.Sum(probs); total > 0 {
		floats.Scale(1/total, probs)
	}
	return fusion.Distribution{Low: d.Low, Probs: probs}
}
