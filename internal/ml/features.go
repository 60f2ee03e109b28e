package ml

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/yourusername/lotto-backtest/internal/models"
)

// scalarFeatures counts the engineered values appended after the one-hot blocks:
// normalized sum, span, odd ratio, even ratio, sin and cos of the weekday.
const scalarFeatures = 6

// FeatureSize returns the number of features per draw for a game
func FeatureSize(game models.Game) int {
	return game.Primary.RangeSize() + game.Secondary.RangeSize() + scalarFeatures + len(game.DrawWeekdays)
}

// DrawFeatures encodes one draw as a multi-hot primary block, a one-hot
// secondary block, engineered shape features and a schedule one-hot.
func DrawFeatures(game models.Game, d models.Draw) []float64 {
	out := make([]float64, FeatureSize(game))
	writeDrawFeatures(game, d, out)
	return out
}

func writeDrawFeatures(game models.Game, d models.Draw, out []float64) {
	p, s := game.Primary, game.Secondary
	for _, n := range d.Primary {
		if p.Contains(n) {
			out[n-p.Low] = 1
		}
	}
	offset := p.RangeSize()
	if s.Size > 0 {
		for _, n := range d.Secondary {
			if s.Contains(n) {
				out[offset+n-s.Low] = 1
			}
		}
		offset += s.RangeSize()
	}

	minSum, maxSum := p.SumBounds()
	sum := models.Sum(d.Primary)
	lo, hi := p.High, p.Low
	for _, n := range d.Primary {
		if n < lo {
			lo = n
		}
		if n > hi {
			hi = n
		}
	}
	odd := models.OddCount(d.Primary)
	size := float64(len(d.Primary))
	if size == 0 {
		size = 1
	}
	wd := float64(d.Weekday())

	out[offset+0] = float64(sum-minSum) / float64(maxSum-minSum)
	out[offset+1] = float64(hi-lo) / float64(p.High-p.Low)
	out[offset+2] = float64(odd) / size
	out[offset+3] = float64(len(d.Primary)-odd) / size
	out[offset+4] = math.Sin(2 * math.Pi * wd / 7)
	out[offset+5] = math.Cos(2 * math.Pi * wd / 7)
	offset += scalarFeatures

	for i, day := range game.DrawWeekdays {
		if d.Weekday() == day {
			out[offset+i] = 1
		}
	}
}

// Dataset holds supervised samples built from a window
type Dataset struct {
	X         *mat.Dense // samples x (seqLen*featureSize)
	Primary   *mat.Dense // samples x primary range, multi-hot
	Secondary []int      // per sample class index, nil when the game has no secondary section
}

// Samples returns the number of rows
func (ds *Dataset) Samples() int {
	r, _ := ds.X.Dims()
	return r
}

// BuildDataset turns a window into samples: the features of draws j-seqLen..j-1
// predict draw j, for every j >= seqLen. The window must hold at least
// seqLen+1 draws.
func BuildDataset(game models.Game, window []models.Draw, seqLen int) (*Dataset, error) {
	samples := len(window) - seqLen
	if seqLen <= 0 || samples <= 0 {
		return nil, ErrEmptyDataset
	}

	fs := FeatureSize(game)
	encoded := make([][]float64, len(window))
	for i, d := range window {
		encoded[i] = DrawFeatures(game, d)
	}

	ds := &Dataset{
		X:       mat.NewDense(samples, seqLen*fs, nil),
		Primary: mat.NewDense(samples, game.Primary.RangeSize(), nil),
	}
	if game.HasSecondary() {
		ds.Secondary = make([]int, samples)
	}

	for r := 0; r < samples; r++ {
		j := r + seqLen
		row := ds.X.RawRowView(r)
		for step := 0; step < seqLen; step++ {
			copy(row[step*fs:(step+1)*fs], encoded[j-seqLen+step])
		}
		for _, n := range window[j].Primary {
			ds.Primary.Set(r, n-game.Primary.Low, 1)
		}
		if ds.Secondary != nil && len(window[j].Secondary) > 0 {
			ds.Secondary[r] = window[j].Secondary[0] - game.Secondary.Low
		}
	}
	return ds, nil
}

// SequenceInput encodes the last seqLen draws as one prediction row.
func SequenceInput(game models.Game, recent []models.Draw, seqLen int) ([]float64, error) {
	if len(recent) < seqLen {
		return nil, ErrInputShape
	}
	fs := FeatureSize(game)
	row := make([]float64, seqLen*fs)
	tail := recent[len(recent)-seqLen:]
	for step, d := range tail {
		writeDrawFeatures(game, d, row[step*fs:(step+1)*fs])
	}
	return row, nil
}
