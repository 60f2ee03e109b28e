// Package payout evaluates prize tiers and the expected value of KL8 pick-N
// tickets. Probabilities are float64; money amounts are decimal.Decimal.
package payout

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat/combin"

	"github.com/yourusername/lotto-backtest/internal/models"
)

// DefaultKellyResolution is the number of grid steps searched over f in [0,1].
const DefaultKellyResolution = 500

// Tier is an SSQ prize tier, 1 being the jackpot. TierNone means no prize.
type Tier int

const TierNone Tier = 0

// SSQFixedPrizes are the fixed-amount tiers; tiers 1 and 2 are pool-funded.
var SSQFixedPrizes = map[Tier]decimal.Decimal{
	3: decimal.NewFromInt(3000),
	4: decimal.NewFromInt(200),
	5: decimal.NewFromInt(10),
	6: decimal.NewFromInt(5),
}

// EvaluateSSQ returns the prize tier of a ticket against a draw.
func EvaluateSSQ(primary, secondary []int, draw models.Draw) Tier {
	red := overlap(primary, draw.Primary)
	blue := overlap(secondary, draw.Secondary) > 0

	switch {
	case red == 6 && blue:
		return 1
	case red == 6:
		return 2
	case red == 5 && blue:
		return 3
	case red == 5 || (red == 4 && blue):
		return 4
	case red == 4 || (red == 3 && blue):
		return 5
	case blue:
		return 6
	}
	return TierNone
}

// Overlap counts how many numbers of pick appear in actual.
func Overlap(pick, actual []int) int {
	return overlap(pick, actual)
}

func overlap(pick, actual []int) int {
	set := make(map[int]struct{}, len(actual))
	for _, n := range actual {
		set[n] = struct{}{}
	}
	hits := 0
	for _, n := range pick {
		if _, ok := set[n]; ok {
			hits++
		}
	}
	return hits
}

// Hypergeometric returns P(h hits) when n of total numbers are picked and
// drawn numbers are drawn.
func Hypergeometric(total, drawn, n, h int) float64 {
	if h < 0 || h > n || h > drawn || n > total || drawn-h > total-n {
		return 0
	}
	logP := combin.LogGeneralizedBinomial(float64(n), float64(h)) +
		combin.LogGeneralizedBinomial(float64(total-n), float64(drawn-h)) -
		combin.LogGeneralizedBinomial(float64(total), float64(drawn))
	return math.Exp(logP)
}

// HypergeometricPMF is Hypergeometric for the KL8 20-of-80 draw.
func HypergeometricPMF(n, h int) float64 {
	spec := models.KL8.Primary
	return Hypergeometric(spec.RangeSize(), spec.Size, n, h)
}

// Table is a pick-N prize table keyed by hit count.
type Table struct {
	Choose  int                     `json:"choose"`
	Price   decimal.Decimal         `json:"price_per_bet"`
	Payouts map[int]decimal.Decimal `json:"-"`
}

type tableJSON struct {
	Choose  int                        `json:"choose"`
	Price   decimal.Decimal            `json:"price_per_bet"`
	Payouts map[string]decimal.Decimal `json:"payouts"`
}

// ParseTable decodes a prize table of the form
// {"choose":7,"price_per_bet":2,"payouts":{"0":0,"4":28,"7":80000}}.
func ParseTable(r io.Reader) (Table, error) {
	var raw tableJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Table{}, fmt.Errorf("%w: decode payout table: %v", models.ErrConfiguration, err)
	}

	t := Table{Choose: raw.Choose, Price: raw.Price, Payouts: make(map[int]decimal.Decimal, len(raw.Payouts))}
	for k, v := range raw.Payouts {
		h, err := strconv.Atoi(k)
		if err != nil {
			return Table{}, fmt.Errorf("%w: payout key %q is not a hit count", models.ErrConfiguration, k)
		}
		t.Payouts[h] = v
	}
	return t, t.Validate()
}

// Validate checks the table against the KL8 pick range.
func (t Table) Validate() error {
	if t.Choose < 1 || t.Choose > 10 {
		return fmt.Errorf("%w: choose %d outside 1..10", models.ErrConfiguration, t.Choose)
	}
	if !t.Price.IsPositive() {
		return fmt.Errorf("%w: price_per_bet must be positive", models.ErrConfiguration)
	}
	for h, prize := range t.Payouts {
		if h < 0 || h > t.Choose {
			return fmt.Errorf("%w: payout for %d hits with choose %d", models.ErrConfiguration, h, t.Choose)
		}
		if prize.IsNegative() {
			return fmt.Errorf("%w: negative payout for %d hits", models.ErrConfiguration, h)
		}
	}
	return nil
}

func (t Table) hitCounts() []int {
	hits := make([]int, 0, len(t.Payouts))
	for h := range t.Payouts {
		hits = append(hits, h)
	}
	sort.Ints(hits)
	return hits
}

// ExpectedValue is the expected net return of one bet: sum(P(h)·prize(h)) − price.
func ExpectedValue(t Table) decimal.Decimal {
	ev := decimal.Zero
	for _, h := range t.hitCounts() {
		p := decimal.NewFromFloat(HypergeometricPMF(t.Choose, h))
		ev = ev.Add(p.Mul(t.Payouts[h]))
	}
	return ev.Sub(t.Price).Round(6)
}

// KellyFraction searches f in [0,1] on a grid of resolution steps for the
// maximum of E[log(1 + f·(g−1))], where g is prize over price. A table with
// non-positive expectation returns 0.
func KellyFraction(t Table, resolution int) float64 {
	if resolution <= 0 {
		resolution = DefaultKellyResolution
	}
	price := t.Price.InexactFloat64()

	type outcome struct{ p, g float64 }
	var outcomes []outcome
	ev := 0.0
	for h := 0; h <= t.Choose; h++ {
		p := HypergeometricPMF(t.Choose, h)
		g := t.Payouts[h].InexactFloat64() / price
		outcomes = append(outcomes, outcome{p, g})
		ev += p * (g - 1)
	}
	if ev <= 0 {
		return 0
	}

	bestF, bestObj := 0.0, math.Inf(-1)
	for i := 0; i <= resolution; i++ {
		f := float64(i) / float64(resolution)
		obj := 0.0
		valid := true
		for _, o := range outcomes {
			r := 1 + f*(o.g-1)
			if r <= 0 {
				if o.p > 0 {
					valid = false
					break
				}
				continue
			}
			obj += o.p * math.Log(r)
		}
		if valid && obj > bestObj {
			bestF, bestObj = f, obj
		}
	}
	return bestF
}

// Stakes converts a budget into a whole number of bets under a fraction of
// the Kelly stake.
func Stakes(t Table, budget decimal.Decimal, fractionOfKelly float64) int {
	if !budget.IsPositive() || !t.Price.IsPositive() {
		return 0
	}
	bankroll := budget.Div(t.Price).Floor().IntPart()
	f := math.Max(0, math.Min(1, KellyFraction(t, DefaultKellyResolution)*fractionOfKelly))
	return int(math.Round(f * float64(bankroll)))
}
