package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/lotto-backtest/internal/backtest"
	"github.com/yourusername/lotto-backtest/internal/history"
	"github.com/yourusername/lotto-backtest/internal/models"
	"github.com/yourusername/lotto-backtest/internal/payout"
	"github.com/yourusername/lotto-backtest/internal/testutil"
)

func newHistory(t *testing.T, game models.Game, n int) *history.History {
	t.Helper()
	h, err := history.New(game, testutil.Draws(game, n, 5))
	require.NoError(t, err)
	return h
}

func TestRecommendSSQ(t *testing.T) {
	h := newHistory(t, models.SSQ, 80)
	cfg := backtest.DefaultConfig(models.SSQ)
	svc := NewRecommendationService(quietLogger(), nil)

	rec, err := svc.Recommend(context.Background(), h, cfg, RecommendOptions{Sets: 3, Candidates: 500})
	require.NoError(t, err)

	assert.Equal(t, backtest.StrategyFusedPrior, rec.Strategy)
	assert.Equal(t, 80, rec.TargetIndex)
	assert.Equal(t, models.SSQ.NextDrawWeekday(h.At(79).Date).String(), rec.TargetWeekday)
	require.Len(t, rec.Tickets, 3)
	for _, tk := range rec.Tickets {
		assert.Len(t, tk.Primary, 6)
		assert.Len(t, tk.Secondary, 1)
	}
	require.NotNil(t, rec.SumRange)
	assert.Nil(t, rec.Holdout)
	assert.Nil(t, rec.Payout)

	again, err := svc.Recommend(context.Background(), h, cfg, RecommendOptions{Sets: 3, Candidates: 500})
	require.NoError(t, err)
	assert.Equal(t, rec.Tickets, again.Tickets)
}

func TestRecommendHoldout(t *testing.T) {
	h := newHistory(t, models.SSQ, 60)
	svc := NewRecommendationService(quietLogger(), nil)

	rec, err := svc.Recommend(context.Background(), h, backtest.DefaultConfig(models.SSQ), RecommendOptions{
		Strategy: backtest.StrategyGlobal, Sets: 2, Candidates: 300, Holdout: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 59, rec.TargetIndex)
	require.NotNil(t, rec.Holdout)
	assert.Equal(t, h.At(59).Period, rec.Holdout.Period)
	assert.Len(t, rec.Holdout.Overlaps, 2)
	assert.Len(t, rec.Holdout.Tiers, 2)
}

func TestRecommendKenoPayout(t *testing.T) {
	h := newHistory(t, models.KL8, 50)
	table := payout.Table{
		Choose: 1,
		Price:  decimal.NewFromInt(2),
		Payouts: map[int]decimal.Decimal{
			1: decimal.NewFromFloat(4.6),
		},
	}
	svc := NewRecommendationService(quietLogger(), nil)

	rec, err := svc.Recommend(context.Background(), h, backtest.DefaultConfig(models.KL8), RecommendOptions{
		Strategy: backtest.StrategyKenoMix, Sets: 2, Candidates: 200, Pick: 1,
		Payout: &table, Budget: decimal.NewFromInt(100), FractionOfKelly: 0.5,
	})
	require.NoError(t, err)
	require.Len(t, rec.Tickets, 2)
	assert.Len(t, rec.Tickets[0].Primary, 1)
	assert.Empty(t, rec.HotSecondary)

	require.NotNil(t, rec.Payout)
	assert.Equal(t, 1, rec.Payout.Choose)
	assert.True(t, rec.Payout.ExpectedValue.Equal(payout.ExpectedValue(table)))
}

func TestRecommendErrors(t *testing.T) {
	svc := NewRecommendationService(quietLogger(), nil)
	h := newHistory(t, models.SSQ, 20)

	_, err := svc.Recommend(context.Background(), h, backtest.DefaultConfig(models.SSQ), RecommendOptions{Strategy: "nope"})
	assert.True(t, errors.Is(err, models.ErrConfiguration))

	empty, err := history.New(models.SSQ, nil)
	require.NoError(t, err)
	_, err = svc.Recommend(context.Background(), empty, backtest.DefaultConfig(models.SSQ), RecommendOptions{})
	assert.True(t, errors.Is(err, models.ErrInsufficientHistory))
}
