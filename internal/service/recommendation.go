package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/lotto-backtest/internal/backtest"
	"github.com/yourusername/lotto-backtest/internal/estimator"
	"github.com/yourusername/lotto-backtest/internal/history"
	"github.com/yourusername/lotto-backtest/internal/logger"
	"github.com/yourusername/lotto-backtest/internal/metrics"
	"github.com/yourusername/lotto-backtest/internal/ml"
	"github.com/yourusername/lotto-backtest/internal/models"
	"github.com/yourusername/lotto-backtest/internal/payout"
	"github.com/yourusername/lotto-backtest/internal/recommend"
)

// RecommendOptions controls one recommendation request
type RecommendOptions struct {
	Strategy   string
	Sets       int
	Candidates int
	Pick       int
	// Holdout withholds the latest draw and scores the tickets against it.
	Holdout bool
	// Payout, when set, sizes KL8 pick-N stakes from Budget.
	Payout          *payout.Table
	Budget          decimal.Decimal
	FractionOfKelly float64
}

// HoldoutCheck scores tickets against the withheld draw
type HoldoutCheck struct {
	Period   string        `json:"period"`
	Overlaps []int         `json:"overlaps"`
	Tiers    []payout.Tier `json:"tiers,omitempty"`
}

// PayoutPlan is the stake sizing for a KL8 prize table
type PayoutPlan struct {
	Choose        int             `json:"choose"`
	ExpectedValue decimal.Decimal `json:"expected_value"`
	Kelly         float64         `json:"kelly_fraction"`
	Stakes        int             `json:"stakes"`
}

// Recommendation is the ticket set for the draw after the window
type Recommendation struct {
	Game          string              `json:"game"`
	Strategy      string              `json:"strategy"`
	TargetIndex   int                 `json:"target_index"`
	TargetWeekday string              `json:"target_weekday"`
	Fallback      bool                `json:"fallback"`
	SumRange      *estimator.SumRange `json:"sum_range,omitempty"`
	HotSecondary  []int               `json:"hot_secondary,omitempty"`
	Tickets       []recommend.Ticket  `json:"tickets"`
	Holdout       *HoldoutCheck       `json:"holdout,omitempty"`
	Payout        *PayoutPlan         `json:"payout,omitempty"`
}

// RecommendationService turns a strategy's next-draw distributions into tickets
type RecommendationService struct {
	logger *logrus.Logger
	cache  *ml.PredictionCache
}

// NewRecommendationService creates a new recommendation service. cache may be nil.
func NewRecommendationService(log *logrus.Logger, cache *ml.PredictionCache) *RecommendationService {
	return &RecommendationService{logger: log, cache: cache}
}

// Recommend predicts from the causal window ending at the latest draw, or at
// the one before it when opts.Holdout is set, and generates tickets.
func (s *RecommendationService) Recommend(ctx context.Context, h *history.History, cfg backtest.Config, opts RecommendOptions) (*Recommendation, error) {
	start := time.Now()
	game := h.Game()
	if h.Len() == 0 {
		return nil, fmt.Errorf("%w: empty history", models.ErrInsufficientHistory)
	}

	id := opts.Strategy
	if id == "" {
		id = backtest.StrategyFusedPrior
	}
	registry := backtest.NewRegistry(cfg, s.cache, logger.NewMLLogger(s.logger))
	strategy, ok := registry.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: unknown strategy %q", models.ErrConfiguration, id)
	}

	target := h.LastIndex() + 1
	if opts.Holdout {
		target = h.LastIndex()
	}
	minWindow := cfg.MinWindow
	if minWindow < 1 {
		minWindow = 1
	}
	window, err := h.WindowBefore(target, cfg.MaxWindow, minWindow)
	if err != nil {
		return nil, err
	}

	in := estimator.Input{
		Game:          game,
		Window:        window,
		TargetIndex:   target,
		TargetWeekday: history.TargetWeekday(game, window),
	}
	pred, err := strategy.Predict(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("strategy %s: %w", id, err)
	}

	rec := &Recommendation{
		Game:          game.Code,
		Strategy:      id,
		TargetIndex:   target,
		TargetWeekday: in.TargetWeekday.String(),
		Fallback:      pred.Fallback,
	}

	genOpts := recommend.Options{Sets: opts.Sets, Candidates: opts.Candidates, Pick: opts.Pick}
	if r, err := (estimator.TrendConstraint{}).Forecast(game, window); err == nil {
		rec.SumRange = &r
		genOpts.SumRange = &r
	}
	if game.HasSecondary() {
		rec.HotSecondary = recommend.HotNumbers(window, models.Secondary, recommend.HotWindow, recommend.HotMinCount)
		genOpts.HotSecondary = rec.HotSecondary
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	tickets, err := recommend.Generate(ctx, game, pred.Primary, pred.Secondary, genOpts, rng)
	if err != nil {
		return nil, err
	}
	rec.Tickets = tickets

	if opts.Holdout {
		actual := h.At(h.Len() - 1)
		rec.Holdout = checkHoldout(game, actual, tickets)
	}

	if opts.Payout != nil && !game.HasSecondary() {
		rec.Payout = &PayoutPlan{
			Choose:        opts.Payout.Choose,
			ExpectedValue: payout.ExpectedValue(*opts.Payout),
			Kelly:         payout.KellyFraction(*opts.Payout, payout.DefaultKellyResolution),
			Stakes:        payout.Stakes(*opts.Payout, opts.Budget, opts.FractionOfKelly),
		}
	}

	duration := time.Since(start)
	metrics.RecordRecommendations(game.Code, len(tickets), duration.Seconds())
	s.logger.WithFields(logrus.Fields{
		"game":     game.Code,
		"strategy": id,
		"target":   target,
		"tickets":  len(tickets),
		"fallback": pred.Fallback,
		"duration": duration,
	}).Info("Recommendations generated")

	return rec, nil
}

func checkHoldout(game models.Game, actual models.Draw, tickets []recommend.Ticket) *HoldoutCheck {
	check := &HoldoutCheck{Period: actual.Period}
	for _, t := range tickets {
		check.Overlaps = append(check.Overlaps, payout.Overlap(t.Primary, actual.Primary))
		if game.Code == models.SSQ.Code {
			check.Tiers = append(check.Tiers, payout.EvaluateSSQ(t.Primary, t.Secondary, actual))
		}
	}
	return check
}
