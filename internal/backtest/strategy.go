package backtest

import (
	"context"
	"errors"
	"fmt"

	"github.com/yourusername/lotto-backtest/internal/estimator"
	"github.com/yourusername/lotto-backtest/internal/fusion"
	"github.com/yourusername/lotto-backtest/internal/logger"
	"github.com/yourusername/lotto-backtest/internal/ml"
	"github.com/yourusername/lotto-backtest/internal/models"
)

// Strategy IDs
const (
	StrategyGlobal     = "BASE_global"
	StrategyWeekday    = "BASE_weekday"
	StrategyShort      = "BASE_short"
	StrategyLong       = "BASE_long"
	StrategyRecent     = "BASE_recent"
	StrategyEMA        = "BASE_ema"
	StrategyKenoMix    = "KENO_mix"
	StrategyFusedPrior = "FUSED_prior"
	StrategyMLFixed    = "ML_fixed"
	StrategyMLAuto     = "ML_auto"
)

// KL8 trend/frequency mix
const (
	kenoTrendWeight = 0.6
	kenoFreqWeight  = 0.4
)

// MixStrategyID names the short/weekday mix for beta
func MixStrategyID(beta float64) string {
	return fmt.Sprintf("BASE_mix_%.2f", beta)
}

// Prediction is one strategy's distributions for the next draw. Secondary is
// nil for games without a secondary section.
type Prediction struct {
	Primary   fusion.Distribution
	Secondary *fusion.Distribution
	Fallback  bool
}

// Strategy produces a prediction from a causal input only
type Strategy interface {
	ID() string
	Predict(ctx context.Context, in estimator.Input) (Prediction, error)
}

// component is one weighted estimator inside a fused strategy
type component struct {
	est    estimator.Estimator
	weight float64
}

// fusedStrategy fuses weighted estimator outputs per section. A single
// component degenerates to plain normalization.
type fusedStrategy struct {
	id    string
	parts []component
}

func newEstimatorStrategy(id string, est estimator.Estimator) *fusedStrategy {
	return &fusedStrategy{id: id, parts: []component{{est: est, weight: 1}}}
}

func (s *fusedStrategy) ID() string { return s.id }

func (s *fusedStrategy) Predict(_ context.Context, in estimator.Input) (Prediction, error) {
	primary, err := s.section(in, models.Primary)
	if err != nil {
		return Prediction{}, err
	}
	pred := Prediction{Primary: primary}

	if in.Game.HasSecondary() {
		secondary, err := s.section(in, models.Secondary)
		if err != nil {
			return Prediction{}, err
		}
		pred.Secondary = &secondary
	}
	return pred, nil
}

func (s *fusedStrategy) section(in estimator.Input, section models.Section) (fusion.Distribution, error) {
	parts := make([]fusion.Weighted, 0, len(s.parts))
	for _, c := range s.parts {
		out, err := c.est.Estimate(in, section)
		if err != nil {
			return fusion.Distribution{}, fmt.Errorf("%s %s: %w", c.est.Name(), section, err)
		}
		parts = append(parts, fusion.Weighted{Output: out, Weight: c.weight})
	}
	return fusion.Fuse(parts, in.Game.Spec(section))
}

// mlStrategy blends the sequence model into the fused prior with either a
// fixed or an adaptive alpha.
type mlStrategy struct {
	id       string
	model    estimator.SequenceModel
	prior    Strategy
	alpha    float64
	adaptive bool
	strict   bool
	logger   *logger.MLLogger
}

func (s *mlStrategy) ID() string { return s.id }

func (s *mlStrategy) Predict(ctx context.Context, in estimator.Input) (Prediction, error) {
	prior, err := s.prior.Predict(ctx, in)
	if err != nil {
		return Prediction{}, err
	}

	trained, err := s.model.Predict(ctx, in)
	if errors.Is(err, models.ErrModelNotTrainable) && !s.strict {
		if s.logger != nil {
			s.logger.LogFallback(in.Game.Code, in.TargetIndex, s.id, err)
		}
		prior.Fallback = true
		return prior, nil
	}
	if err != nil {
		return Prediction{}, err
	}
	if s.logger != nil {
		s.logger.LogTrainingComplete(in.Game.Code, in.TargetIndex, trained.Loss, trained.Duration)
	}

	modelPrimary := fusion.Distribution{Low: in.Game.Primary.Low, Probs: trained.Primary}
	var modelSecondary *fusion.Distribution
	if prior.Secondary != nil && trained.Secondary != nil {
		modelSecondary = &fusion.Distribution{Low: in.Game.Secondary.Low, Probs: trained.Secondary}
	}

	alpha := s.alpha
	if s.adaptive {
		alpha = fusion.AdaptiveAlpha(fusion.AlphaInputs{
			PriorPrimary:   prior.Primary,
			ModelPrimary:   modelPrimary,
			PriorSecondary: prior.Secondary,
			ModelSecondary: modelSecondary,
			Recent:         in.Window,
			TargetWeekday:  in.TargetWeekday,
		})
	}

	primary, err := fusion.Blend(prior.Primary, modelPrimary, alpha, in.Game.Primary)
	if err != nil {
		return Prediction{}, err
	}
	pred := Prediction{Primary: primary}

	if modelSecondary != nil {
		secondary, err := fusion.Blend(*prior.Secondary, *modelSecondary, alpha, in.Game.Secondary)
		if err != nil {
			return Prediction{}, err
		}
		pred.Secondary = &secondary
	}
	return pred, nil
}

// Registry holds the strategies available to a run, in report order
type Registry struct {
	order    []string
	byID     map[string]Strategy
	defaults []string
}

// NewRegistry builds every strategy the game supports from cfg. The cache,
// when non-nil, is shared by both ML strategies so the model trains once per
// period.
func NewRegistry(cfg Config, cache *ml.PredictionCache, mlLogger *logger.MLLogger) *Registry {
	r := &Registry{byID: make(map[string]Strategy)}

	global := estimator.GlobalFrequency{HalfLife: cfg.HalfLife}
	weekday := estimator.WeekdayConditional{HalfLife: cfg.HalfLife, Beta: cfg.BaselineShrinkBeta}
	short := estimator.WeekdayConditional{HalfLife: cfg.HalfLife, Beta: cfg.BaselineShrinkBeta, Window: cfg.ShortWindow}
	long := estimator.WeekdayConditional{HalfLife: cfg.HalfLife, Beta: cfg.BaselineShrinkBeta, Window: cfg.LongWindow}

	prior := newFusedPrior(cfg)

	model := estimator.SequenceModel{
		Config:       cfg.ML,
		TauPrimary:   cfg.TauPrimary,
		TauSecondary: cfg.TauSecondary,
		Cache:        cache,
	}

	r.register(&mlStrategy{id: StrategyMLAuto, model: model, prior: prior, adaptive: true, strict: cfg.StrictTraining, logger: mlLogger}, true)
	r.register(&mlStrategy{id: StrategyMLFixed, model: model, prior: prior, alpha: cfg.AlphaFixed, strict: cfg.StrictTraining, logger: mlLogger}, true)
	r.register(newEstimatorStrategy(StrategyGlobal, global), true)

	isKeno := !cfg.Game.HasSecondary()
	r.register(newEstimatorStrategy(StrategyWeekday, weekday), !isKeno)
	r.register(newEstimatorStrategy(StrategyShort, short), true)
	r.register(newEstimatorStrategy(StrategyLong, long), true)
	r.register(newEstimatorStrategy(StrategyRecent, estimator.WindowFrequency{Window: cfg.ShortWindow, HalfLife: cfg.HalfLife}), false)

	for _, beta := range cfg.MixBetas {
		r.register(&fusedStrategy{id: MixStrategyID(beta), parts: []component{
			{est: short, weight: beta},
			{est: weekday, weight: 1 - beta},
		}}, !isKeno)
	}

	ema := estimator.EMATrend{Alpha: cfg.EMAAlpha}
	r.register(newEstimatorStrategy(StrategyEMA, ema), isKeno)
	r.register(&fusedStrategy{id: StrategyKenoMix, parts: []component{
		{est: ema, weight: kenoTrendWeight},
		{est: estimator.GlobalFrequency{}, weight: kenoFreqWeight},
	}}, isKeno)

	r.register(prior, true)
	return r
}

// newFusedPrior weighs a weekday-conditioned short window, the weekday
// estimate and the global estimate 0.30/0.20/0.50, all shrunk with ShrinkBeta.
func newFusedPrior(cfg Config) *fusedStrategy {
	return &fusedStrategy{id: StrategyFusedPrior, parts: []component{
		{est: estimator.WeekdayConditional{HalfLife: cfg.HalfLife, Beta: cfg.ShrinkBeta, Window: cfg.ShortWindow}, weight: fusion.WeightShort},
		{est: estimator.WeekdayConditional{HalfLife: cfg.HalfLife, Beta: cfg.ShrinkBeta}, weight: fusion.WeightWeekday},
		{est: estimator.GlobalFrequency{HalfLife: cfg.HalfLife}, weight: fusion.WeightGlobal},
	}}
}

// register adds s unless its ID is taken; byDefault puts it in the default selection.
func (r *Registry) register(s Strategy, byDefault bool) {
	if _, exists := r.byID[s.ID()]; exists {
		return
	}
	r.byID[s.ID()] = s
	r.order = append(r.order, s.ID())
	if byDefault {
		r.defaults = append(r.defaults, s.ID())
	}
}

// Register adds a custom strategy to the registry and the default selection
func (r *Registry) Register(s Strategy) {
	r.register(s, true)
}

// IDs returns every registered strategy ID in registration order
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}

// Defaults returns the IDs run when no explicit selection is given
func (r *Registry) Defaults() []string {
	return append([]string(nil), r.defaults...)
}

// Get looks up a strategy by ID
func (r *Registry) Get(id string) (Strategy, bool) {
	s, ok := r.byID[id]
	return s, ok
}

// Select resolves ids in order, or the defaults when ids is empty. An unknown
// ID is a configuration error.
func (r *Registry) Select(ids []string) ([]Strategy, error) {
	if len(ids) == 0 {
		ids = r.defaults
	}
	selected := make([]Strategy, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		s, ok := r.byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: unknown strategy %q", models.ErrConfiguration, id)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		selected = append(selected, s)
	}
	return selected, nil
}
