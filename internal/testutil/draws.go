// Package testutil builds synthetic draw histories for tests.
package testutil

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/yourusername/lotto-backtest/internal/models"
)

// Epoch is the first calendar day considered when generating draw dates.
var Epoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// Draws generates n valid draws for the game with dates that follow its
// schedule. The same seed always yields the same draws.
func Draws(game models.Game, n int, seed int64) []models.Draw {
	rng := rand.New(rand.NewSource(seed))
	dates := ScheduleDates(game, Epoch, n)

	draws := make([]models.Draw, n)
	for i := 0; i < n; i++ {
		draws[i] = models.NewDraw(
			i,
			PeriodCode(dates[i], i),
			dates[i],
			pick(rng, game.Primary, nil),
			pick(rng, game.Secondary, nil),
		)
	}
	return draws
}

// PlantNumber forces number into the primary section of roughly ratio of the
// draws, replacing a random other number when needed.
func PlantNumber(game models.Game, draws []models.Draw, number int, ratio float64, seed int64) []models.Draw {
	rng := rand.New(rand.NewSource(seed))
	out := make([]models.Draw, len(draws))
	for i, d := range draws {
		primary := append([]int(nil), d.Primary...)
		has := false
		for _, n := range primary {
			if n == number {
				has = true
			}
		}
		if !has && rng.Float64() < ratio {
			primary[rng.Intn(len(primary))] = number
			sort.Ints(primary)
		}
		if has && rng.Float64() >= ratio {
			primary = pick(rng, game.Primary, []int{number})
		}
		out[i] = models.NewDraw(d.Index, d.Period, d.Date, primary, d.Secondary)
	}
	return out
}

// Poison returns a copy of draws where every draw with Index >= from has its
// numbers regenerated and its date shifted by a day.
func Poison(game models.Game, draws []models.Draw, from int, seed int64) []models.Draw {
	rng := rand.New(rand.NewSource(seed))
	out := make([]models.Draw, len(draws))
	for i, d := range draws {
		if d.Index < from {
			out[i] = d
			continue
		}
		out[i] = models.NewDraw(
			d.Index,
			d.Period,
			d.Date.AddDate(0, 0, 1),
			pick(rng, game.Primary, nil),
			pick(rng, game.Secondary, nil),
		)
	}
	return out
}

// ScheduleDates returns the first n scheduled draw dates on or after start.
func ScheduleDates(game models.Game, start time.Time, n int) []time.Time {
	dates := make([]time.Time, 0, n)
	for day := start; len(dates) < n; day = day.AddDate(0, 0, 1) {
		if game.IsDrawDay(day.Weekday()) {
			dates = append(dates, day)
		}
	}
	return dates
}

// PeriodCode mimics the issuer's year + sequence issue codes
func PeriodCode(date time.Time, i int) string {
	return fmt.Sprintf("%s%03d", date.Format("2006"), i+1)
}

// pick draws spec.Size distinct numbers, avoiding the excluded ones.
func pick(rng *rand.Rand, spec models.SectionSpec, exclude []int) []int {
	if spec.Size == 0 {
		return nil
	}
	pool := make([]int, 0, spec.RangeSize())
	for n := spec.Low; n <= spec.High; n++ {
		skip := false
		for _, x := range exclude {
			if x == n {
				skip = true
			}
		}
		if !skip {
			pool = append(pool, n)
		}
	}
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	out := append([]int(nil), pool[:spec.Size]...)
	sort.Ints(out)
	return out
}
