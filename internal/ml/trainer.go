package ml

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/yourusername/lotto-backtest/internal/models"
)

const (
	adamBeta1   = 0.9
	adamBeta2   = 0.999
	adamEpsilon = 1e-8
)

// Model is a network trained on one window.
type Model struct {
	game     models.Game
	cfg      Config
	net      *Network
	Loss     float64
	Samples  int
	Duration time.Duration
}

// Train fits a network on the window. Every random choice comes from
// rand.New(rand.NewSource(cfg.Seed)), so identical inputs give identical models.
// A window shorter than SeqLen+1 fails with models.ErrModelNotTrainable.
func Train(ctx context.Context, game models.Game, window []models.Draw, cfg Config) (*Model, error) {
	start := time.Now()
	model, err := train(ctx, game, window, cfg)
	status := "success"
	if err != nil {
		status = "failure"
	}
	TrainingRunsTotal.WithLabelValues(game.Code, status).Inc()
	TrainingDuration.WithLabelValues(game.Code).Observe(time.Since(start).Seconds())
	if model != nil {
		model.Duration = time.Since(start)
	}
	return model, err
}

func train(ctx context.Context, game models.Game, window []models.Draw, cfg Config) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrConfiguration, err)
	}
	if len(window) < cfg.SeqLen+1 {
		return nil, fmt.Errorf("%w: window of %d draws, seq_len %d needs at least %d",
			models.ErrModelNotTrainable, len(window), cfg.SeqLen, cfg.SeqLen+1)
	}

	ds, err := BuildDataset(game, window, cfg.SeqLen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrModelNotTrainable, err)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	_, in := ds.X.Dims()
	net := NewNetwork(in, cfg.HiddenSize, game.Primary.RangeSize(), game.Secondary.RangeSize(), rng)
	opt := newAdam(net.params(), cfg.LearningRate)

	samples := ds.Samples()
	batch := cfg.BatchSize
	if batch <= 0 || batch > samples {
		batch = samples
	}

	var loss float64
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		perm := rng.Perm(samples)
		total := 0.0
		for lo := 0; lo < samples; lo += batch {
			hi := lo + batch
			if hi > samples {
				hi = samples
			}
			batchLoss, grads := net.gradients(ds, perm[lo:hi])
			total += batchLoss * float64(hi-lo)
			opt.step(grads)
		}
		loss = total / float64(samples)
		if math.IsNaN(loss) || math.IsInf(loss, 0) {
			return nil, fmt.Errorf("%w: epoch %d: %v", models.ErrModelNotTrainable, epoch, ErrNonFiniteLoss)
		}
	}

	return &Model{game: game, cfg: cfg, net: net, Loss: loss, Samples: samples}, nil
}

// Logits predicts the draw that follows the last SeqLen draws of recent.
func (m *Model) Logits(recent []models.Draw) (primary, secondary []float64, err error) {
	input, err := SequenceInput(m.game, recent, m.cfg.SeqLen)
	if err != nil {
		return nil, nil, err
	}
	primary, secondary = m.net.Logits(input)
	return primary, secondary, nil
}

// gradients computes the mean batch loss (binary cross-entropy on the primary
// head plus cross-entropy on the secondary head) and the parameter gradients
// in params() order.
func (n *Network) gradients(ds *Dataset, rows []int) (float64, []*mat.Dense) {
	b := len(rows)
	_, in := ds.X.Dims()
	_, pOut := ds.Primary.Dims()

	x := mat.NewDense(b, in, nil)
	y := mat.NewDense(b, pOut, nil)
	for i, r := range rows {
		copy(x.RawRowView(i), ds.X.RawRowView(r))
		copy(y.RawRowView(i), ds.Primary.RawRowView(r))
	}

	act := n.forward(x)
	scale := 1 / float64(b)
	loss := 0.0

	dp := mat.NewDense(b, pOut, nil)
	for i := 0; i < b; i++ {
		z, t, d := act.primary.RawRowView(i), y.RawRowView(i), dp.RawRowView(i)
		for j := range z {
			loss += (math.Max(z[j], 0) - z[j]*t[j] + math.Log1p(math.Exp(-math.Abs(z[j])))) / float64(pOut)
			d[j] = (sigmoid(z[j]) - t[j]) * scale / float64(pOut)
		}
	}

	var ds2 *mat.Dense
	if act.secondary != nil {
		_, sOut := act.secondary.Dims()
		ds2 = mat.NewDense(b, sOut, nil)
		for i, r := range rows {
			probs := Softmax(act.secondary.RawRowView(i), 1)
			label := ds.Secondary[r]
			loss -= math.Log(math.Max(probs[label], 1e-12))
			d := ds2.RawRowView(i)
			for j, p := range probs {
				d[j] = p * scale
			}
			d[label] -= scale
		}
	}
	loss *= scale

	var gWp, gW1, dHidden mat.Dense
	gWp.Mul(act.hidden.T(), dp)
	dHidden.Mul(dp, n.Wp.T())

	grads := []*mat.Dense{nil, nil, &gWp, colSums(dp)}
	if ds2 != nil {
		var gWs, dSec mat.Dense
		gWs.Mul(act.hidden.T(), ds2)
		dSec.Mul(ds2, n.Ws.T())
		dHidden.Add(&dHidden, &dSec)
		grads = append(grads, &gWs, colSums(ds2))
	}

	dHidden.Apply(func(i, j int, v float64) float64 {
		h := act.hidden.At(i, j)
		return v * (1 - h*h)
	}, &dHidden)
	gW1.Mul(x.T(), &dHidden)
	grads[0] = &gW1
	grads[1] = colSums(&dHidden)

	return loss, grads
}

type adam struct {
	params []*mat.Dense
	m, v   []*mat.Dense
	lr     float64
	t      int
}

func newAdam(params []*mat.Dense, lr float64) *adam {
	a := &adam{params: params, lr: lr}
	for _, p := range params {
		r, c := p.Dims()
		a.m = append(a.m, mat.NewDense(r, c, nil))
		a.v = append(a.v, mat.NewDense(r, c, nil))
	}
	return a
}

func (a *adam) step(grads []*mat.Dense) {
	a.t++
	c1 := 1 - math.Pow(adamBeta1, float64(a.t))
	c2 := 1 - math.Pow(adamBeta2, float64(a.t))
	for i, p := range a.params {
		pr, pc := p.Dims()
		for r := 0; r < pr; r++ {
			pRow, mRow, vRow := p.RawRowView(r), a.m[i].RawRowView(r), a.v[i].RawRowView(r)
			for c := 0; c < pc; c++ {
				g := grads[i].At(r, c)
				mRow[c] = adamBeta1*mRow[c] + (1-adamBeta1)*g
				vRow[c] = adamBeta2*vRow[c] + (1-adamBeta2)*g*g
				pRow[c] -= a.lr * (mRow[c] / c1) / (math.Sqrt(vRow[c]/c2) + adamEpsilon)
			}
		}
	}
}
