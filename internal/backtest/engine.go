package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/lotto-backtest/internal/estimator"
	"github.com/yourusername/lotto-backtest/internal/fusion"
	"github.com/yourusername/lotto-backtest/internal/history"
	"github.com/yourusername/lotto-backtest/internal/logger"
	"github.com/yourusername/lotto-backtest/internal/metrics"
	"github.com/yourusername/lotto-backtest/internal/ml"
	"github.com/yourusername/lotto-backtest/internal/models"
)

// Default trained-output cache sizing
const (
	defaultCacheTTL  = time.Hour
	defaultCacheSize = 5000
)

// Engine orchestrates rolling backtest runs over one history
type Engine struct {
	config     Config
	history    *history.History
	registry   *Registry
	strategies []Strategy
	cache      *ml.PredictionCache
	logger     *logrus.Logger
}

// Option customizes an Engine
type Option func(*Engine)

// WithPredictionCache shares a trained-output cache across engines
func WithPredictionCache(cache *ml.PredictionCache) Option {
	return func(e *Engine) {
		e.cache = cache
	}
}

// WithStrategies registers additional strategies before selection
func WithStrategies(strategies ...Strategy) Option {
	return func(e *Engine) {
		e.strategies = append(e.strategies, strategies...)
	}
}

// NewEngine validates cfg and resolves the strategy selection. Any failure is
// a configuration error and no period runs.
func NewEngine(cfg Config, h *history.History, log *logrus.Logger, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if h == nil {
		return nil, fmt.Errorf("%w: history is required", models.ErrConfiguration)
	}
	if h.Game().Code != cfg.Game.Code {
		return nil, fmt.Errorf("%w: history is for %s, config for %s", models.ErrConfiguration, h.Game().Code, cfg.Game.Code)
	}
	if log == nil {
		log = logrus.New()
	}

	e := &Engine{config: cfg, history: h, logger: log}
	for _, opt := range opts {
		opt(e)
	}
	if e.cache == nil {
		e.cache = ml.NewPredictionCache(defaultCacheTTL, defaultCacheSize)
	}

	e.registry = NewRegistry(cfg, e.cache, logger.NewMLLogger(log))
	for _, s := range e.strategies {
		e.registry.Register(s)
	}

	selected, err := e.registry.Select(cfg.Strategies)
	if err != nil {
		return nil, err
	}
	e.strategies = selected
	return e, nil
}

// Config returns the backtest configuration
func (e *Engine) Config() Config {
	return e.config
}

// Registry returns the strategy registry
func (e *Engine) Registry() *Registry {
	return e.registry
}

// StrategyIDs returns the selected strategies in report order
func (e *Engine) StrategyIDs() []string {
	ids := make([]string, len(e.strategies))
	for i, s := range e.strategies {
		ids[i] = s.ID()
	}
	return ids
}

// PeriodRange resolves the inclusive target index range. AutoIndex bounds
// come from the history.
func (e *Engine) PeriodRange() (start, end int) {
	start, end = e.config.StartIndex, e.config.EndIndex
	if start == AutoIndex {
		start = e.history.FirstIndex() + e.config.ML.SeqLen
	}
	if end == AutoIndex {
		end = e.history.LastIndex()
	}
	return start, end
}

// Run evaluates every target period in range. On cancellation it returns the
// periods finished so far together with ctx.Err(). Any error outside the
// recoverable taxonomy aborts the run.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	started := time.Now()
	runID := uuid.New()
	game := e.config.Game.Code
	start, end := e.PeriodRange()
	ids := e.StrategyIDs()

	bl := logger.NewBacktestLogger(e.logger, runID.String(), game)
	bl.LogRunStart(start, end, ids, e.workers())

	var targets []models.Draw
	for i := 0; i < e.history.Len(); i++ {
		if d := e.history.At(i); d.Index >= start && d.Index <= end {
			targets = append(targets, d)
		}
	}

	slots := make([]periodResult, len(targets))
	runErr := e.evaluateAll(ctx, targets, slots)

	records, skips, completed := flatten(slots)
	result := &Result{
		RunID:      runID,
		Game:       game,
		StartIndex: start,
		EndIndex:   end,
		Strategies: ids,
		Records:    records,
		Skips:      skips,
		Summary:    Summarize(records, skips, e.config, ids),
		StartedAt:  started.UTC(),
		Duration:   time.Since(started),
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		result.Cancelled = true
		bl.LogRunCancelled(completed, ctxErr)
		metrics.RecordBacktestRun(game, "cancelled", result.Duration.Seconds())
		return result, ctxErr
	}
	if runErr != nil {
		metrics.RecordBacktestRun(game, "failure", result.Duration.Seconds())
		return nil, runErr
	}

	e.recordMetrics(result)
	for _, skip := range skips {
		bl.LogPeriodSkip(skip.TargetIndex, skip.Strategy, skip.Reason, skip.Err)
	}
	bl.LogRunComplete(completed, len(records), len(skips), result.Summary.Fallbacks, result.Duration)
	metrics.RecordBacktestRun(game, "success", result.Duration.Seconds())
	return result, nil
}

func (e *Engine) workers() int {
	if e.config.Workers < 1 {
		return 1
	}
	return e.config.Workers
}

// evaluateAll fills slots either sequentially or with a bounded errgroup. Each
// worker writes only its own slot.
func (e *Engine) evaluateAll(ctx context.Context, targets []models.Draw, slots []periodResult) error {
	if e.workers() == 1 {
		for i, target := range targets {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := e.evaluatePeriod(ctx, target)
			if err != nil {
				return err
			}
			slots[i] = res
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers())
	for i, target := range targets {
		if gctx.Err() != nil {
			break
		}
		i, target := i, target
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := e.evaluatePeriod(gctx, target)
			if err != nil {
				return err
			}
			slots[i] = res
			return nil
		})
	}
	return g.Wait()
}

// evaluatePeriod assembles the causal window for target, runs every strategy
// on it and scores the predictions. Only here is the target draw read, and
// only after all predictions exist.
func (e *Engine) evaluatePeriod(ctx context.Context, target models.Draw) (periodResult, error) {
	game := e.config.Game
	res := periodResult{done: true}

	window, err := e.history.WindowBefore(target.Index, e.config.MaxWindow, e.config.MinWindow)
	if err != nil {
		reason, ok := skipReason(err)
		if !ok {
			return periodResult{}, err
		}
		res.skips = append(res.skips, newSkip(target.Index, "", reason, err))
		return res, nil
	}

	in := estimator.Input{
		Game:          game,
		Window:        window,
		TargetIndex:   target.Index,
		TargetWeekday: history.TargetWeekday(game, window),
	}

	predictions := make([]Prediction, len(e.strategies))
	ok := make([]bool, len(e.strategies))
	for i, s := range e.strategies {
		pred, err := s.Predict(ctx, in)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return periodResult{}, ctxErr
			}
			reason, recoverable := skipReason(err)
			if !recoverable {
				return periodResult{}, fmt.Errorf("strategy %s at index %d: %w", s.ID(), target.Index, err)
			}
			res.skips = append(res.skips, newSkip(target.Index, s.ID(), reason, err))
			continue
		}
		predictions[i], ok[i] = pred, true
	}

	actual, found := e.history.ByIndex(target.Index)
	if !found {
		return periodResult{}, fmt.Errorf("target index %d vanished from history", target.Index)
	}
	for i, s := range e.strategies {
		if !ok[i] {
			continue
		}
		pred := predictions[i]
		var secondaryRanking []int
		if pred.Secondary != nil {
			secondaryRanking = fusion.Ranking(*pred.Secondary)
		}
		rec := newRecord(e.config, s.ID(), pred, fusion.Ranking(pred.Primary), secondaryRanking, actual.Primary, actual.Secondary)
		rec.TargetIndex = actual.Index
		rec.TargetPeriod = actual.Period
		res.records = append(res.records, rec)
	}
	return res, nil
}

// skipReason classifies recoverable errors
func skipReason(err error) (string, bool) {
	switch {
	case errors.Is(err, models.ErrInsufficientHistory):
		return ReasonInsufficientHistory, true
	case errors.Is(err, models.ErrModelNotTrainable):
		return ReasonModelNotTrainable, true
	case errors.Is(err, models.ErrDegenerateDistribution):
		return ReasonDegenerateDistribution, true
	default:
		return "", false
	}
}

func newSkip(index int, strategy, reason string, err error) SkipRecord {
	return SkipRecord{TargetIndex: index, Strategy: strategy, Reason: reason, Message: err.Error(), Err: err}
}

func (e *Engine) recordMetrics(result *Result) {
	game := result.Game
	for i := 0; i < result.Summary.Periods+result.Summary.SkippedPeriods; i++ {
		metrics.RecordBacktestPeriod(game)
	}
	for _, skip := range result.Skips {
		metrics.RecordBacktestSkip(game, skip.Strategy, skip.Reason)
	}
	for _, rec := range result.Records {
		if rec.Fallback {
			metrics.RecordBacktestFallback(game, rec.Strategy)
		}
	}
	for _, st := range result.Summary.Strategies {
		for k, m := range st.HitAtK {
			if m.Defined() {
				metrics.UpdateHitRate(game, st.Strategy, k, m.Mean)
			}
		}
	}
}
