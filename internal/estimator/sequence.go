package estimator

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/yourusername/lotto-backtest/internal/ml"
	"github.com/yourusername/lotto-backtest/internal/models"
)

// Default temperatures for the sequence model heads
const (
	DefaultTauPrimary   = 1.3
	DefaultTauSecondary = 1.5

	// sharpSecondary raises the secondary temperature by 0.1 when the raw
	// secondary head puts more than this mass on a single number.
	sharpSecondary = 0.18
)

// SequenceModel trains an ml.Model on the window alone and returns
// softmax(logit/tau) per section. Training needs at least SeqLen+1 draws.
type SequenceModel struct {
	Config       ml.Config
	TauPrimary   float64
	TauSecondary float64
	Cache        *ml.PredictionCache
}

func (SequenceModel) Name() string { return "sequence_model" }

func (s SequenceModel) Estimate(in Input, section models.Section) (Output, error) {
	spec, err := sectionSpec(in, section)
	if err != nil {
		return Output{}, err
	}

	pred, err := s.Predict(context.Background(), in)
	if err != nil {
		return Output{}, err
	}

	scores := pred.Primary
	if section == models.Secondary {
		scores = pred.Secondary
	}
	return Output{Low: spec.Low, Scores: append([]float64(nil), scores...)}, nil
}

// Predict trains once and returns both smoothed heads. The model seed is
// Config.Seed offset by the target index so every period trains independently
// and reproducibly.
func (s SequenceModel) Predict(ctx context.Context, in Input) (*ml.Prediction, error) {
	cfg := s.Config
	cfg.Seed += int64(in.TargetIndex)

	key := ml.CacheKey{Game: in.Game.Code, TargetIndex: in.TargetIndex, Params: s.paramsHash(cfg) + ":" + windowFingerprint(in.Window)}
	if s.Cache != nil {
		if pred, ok := s.Cache.Get(key); ok {
			return pred, nil
		}
	}

	if len(in.Window) < cfg.SeqLen+1 {
		return nil, fmt.Errorf("%w: window of %d draws, seq_len %d", models.ErrModelNotTrainable, len(in.Window), cfg.SeqLen)
	}

	model, err := ml.Train(ctx, in.Game, in.Window, cfg)
	if err != nil {
		return nil, err
	}

	primaryLogits, secondaryLogits, err := model.Logits(in.Window)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrModelNotTrainable, err)
	}

	pred := &ml.Prediction{
		Primary:  ml.Softmax(primaryLogits, s.tauPrimary()),
		Loss:     model.Loss,
		Duration: model.Duration,
	}
	if secondaryLogits != nil {
		tau := s.tauSecondary()
		if floats.Max(ml.Softmax(secondaryLogits, 1)) > sharpSecondary {
			tau += 0.1
		}
		pred.Secondary = ml.Softmax(secondaryLogits, tau)
	}

	if s.Cache != nil {
		s.Cache.Set(key, pred)
	}
	return pred, nil
}

func (s SequenceModel) paramsHash(cfg ml.Config) string {
	return fmt.Sprintf("%s:%g:%g", cfg.Hash(), s.tauPrimary(), s.tauSecondary())
}

func (s SequenceModel) tauPrimary() float64 {
	if s.TauPrimary > 0 {
		return s.TauPrimary
	}
	return DefaultTauPrimary
}

func (s SequenceModel) tauSecondary() float64 {
	if s.TauSecondary > 0 {
		return s.TauSecondary
	}
	return DefaultTauSecondary
}

// windowFingerprint digests the draws a model is trained on so cached outputs
// are only reused for an identical window.
func windowFingerprint(window []models.Draw) string {
	h := sha256.New()
	buf := make([]byte, 8)
	put := func(v int64) {
		binary.LittleEndian.PutUint64(buf, uint64(v))
		h.Write(buf)
	}
	for _, d := range window {
		put(int64(d.Index))
		put(d.Date.Unix())
		for _, n := range d.Primary {
			put(int64(n))
		}
		for _, n := range d.Secondary {
			put(int64(n))
		}
	}
	return fmt.Sprintf("%x", h.Sum(nil)[:8])
}
