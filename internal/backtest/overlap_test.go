package backtest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/lotto-backtest/internal/history"
	"github.com/yourusername/lotto-backtest/internal/models"
	"github.com/yourusername/lotto-backtest/internal/testutil"
)

func overlapConfig() Config {
	cfg := DefaultConfig(models.KL8)
	cfg.Overlap = OverlapConfig{Window: 20, Sets: 3, RandomTrials: 200}
	return cfg
}

func TestRunOverlap(t *testing.T) {
	h, err := history.New(models.KL8, testutil.Draws(models.KL8, 60, 4))
	require.NoError(t, err)
	cfg := overlapConfig()

	res, err := RunOverlap(context.Background(), h, cfg)
	require.NoError(t, err)

	assert.Equal(t, 40, res.Samples)
	assert.Len(t, res.ModelOverlaps, 40)
	assert.Len(t, res.RandomOverlaps, 200)
	assert.Equal(t, 20, res.Pick)
	for _, v := range append(append([]int(nil), res.ModelOverlaps...), res.RandomOverlaps...) {
		assert.GreaterOrEqual(t, v, 0)
		assert.LessOrEqual(t, v, 20)
	}
	for _, s := range []OverlapStats{res.Model, res.Random} {
		assert.LessOrEqual(t, s.Median, s.P90)
		assert.Greater(t, s.Mean, 0.0)
	}

	again, err := RunOverlap(context.Background(), h, cfg)
	require.NoError(t, err)
	assert.Equal(t, res, again)

	report := GenerateOverlapReport(res)
	assert.Contains(t, report, "samples: 40")
	assert.Contains(t, report, "random")
}

func TestRunOverlapPick(t *testing.T) {
	h, err := history.New(models.KL8, testutil.Draws(models.KL8, 30, 5))
	require.NoError(t, err)
	cfg := overlapConfig()
	cfg.Overlap.Pick = 5
	cfg.Overlap.RandomTrials = 1

	res, err := RunOverlap(context.Background(), h, cfg)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Pick)
	assert.Len(t, res.RandomOverlaps, 10)
	for _, v := range res.ModelOverlaps {
		assert.LessOrEqual(t, v, 5)
	}
}

func TestRunOverlapErrors(t *testing.T) {
	h, err := history.New(models.KL8, testutil.Draws(models.KL8, 20, 6))
	require.NoError(t, err)

	_, err = RunOverlap(context.Background(), h, overlapConfig())
	assert.True(t, errors.Is(err, models.ErrInsufficientHistory))

	bad := overlapConfig()
	bad.Overlap.Sets = 0
	_, err = RunOverlap(context.Background(), h, bad)
	assert.True(t, errors.Is(err, models.ErrConfiguration))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	small := overlapConfig()
	small.Overlap.Window = 5
	_, err = RunOverlap(ctx, h, small)
	assert.True(t, errors.Is(err, context.Canceled))
}
