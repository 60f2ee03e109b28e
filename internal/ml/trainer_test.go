package ml

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/lotto-backtest/internal/models"
	"github.com/yourusername/lotto-backtest/internal/testutil"
)

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.SeqLen = 4
	cfg.Epochs = 2
	cfg.HiddenSize = 8
	cfg.BatchSize = 16
	return cfg
}

func TestFeatureSize(t *testing.T) {
	assert.Equal(t, 58, FeatureSize(models.SSQ))
	assert.Equal(t, 93, FeatureSize(models.KL8))
}

func TestDrawFeatures(t *testing.T) {
	d := testutil.Draws(models.SSQ, 1, 3)[0]
	f := DrawFeatures(models.SSQ, d)
	require.Len(t, f, 58)

	ones := 0.0
	for _, v := range f[:33] {
		ones += v
	}
	assert.Equal(t, 6.0, ones)

	blue := 0.0
	for _, v := range f[33:49] {
		blue += v
	}
	assert.Equal(t, 1.0, blue)

	for _, v := range f[49:53] {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
	schedule := f[55] + f[56] + f[57]
	assert.Equal(t, 1.0, schedule)
}

func TestBuildDataset(t *testing.T) {
	window := testutil.Draws(models.SSQ, 12, 1)

	ds, err := BuildDataset(models.SSQ, window, 4)
	require.NoError(t, err)
	assert.Equal(t, 8, ds.Samples())
	_, cols := ds.X.Dims()
	assert.Equal(t, 4*58, cols)
	assert.Len(t, ds.Secondary, 8)
	assert.Equal(t, window[4].Secondary[0]-1, ds.Secondary[0])

	_, err = BuildDataset(models.SSQ, window[:4], 4)
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestTrainRejectsShortWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SeqLen = 10

	_, err := Train(context.Background(), models.SSQ, testutil.Draws(models.SSQ, 3, 1), cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrModelNotTrainable))
}

func TestTrainIsDeterministic(t *testing.T) {
	window := testutil.Draws(models.SSQ, 40, 2)
	cfg := smallConfig()

	m1, err := Train(context.Background(), models.SSQ, window, cfg)
	require.NoError(t, err)
	m2, err := Train(context.Background(), models.SSQ, window, cfg)
	require.NoError(t, err)

	p1, s1, err := m1.Logits(window)
	require.NoError(t, err)
	p2, s2, err := m2.Logits(window)
	require.NoError(t, err)

	assert.Equal(t, p1, p2)
	assert.Equal(t, s1, s2)
	assert.Len(t, p1, 33)
	assert.Len(t, s1, 16)
	assert.False(t, math.IsNaN(m1.Loss))
}

func TestTrainReducesLoss(t *testing.T) {
	window := testutil.Draws(models.SSQ, 60, 4)

	short := smallConfig()
	short.Epochs = 1
	long := smallConfig()
	long.Epochs = 30
	long.LearningRate = 1e-2

	m1, err := Train(context.Background(), models.SSQ, window, short)
	require.NoError(t, err)
	m2, err := Train(context.Background(), models.SSQ, window, long)
	require.NoError(t, err)

	assert.Less(t, m2.Loss, m1.Loss)
}

func TestTrainWithoutSecondary(t *testing.T) {
	window := testutil.Draws(models.KL8, 20, 5)

	m, err := Train(context.Background(), models.KL8, window, smallConfig())
	require.NoError(t, err)

	p, s, err := m.Logits(window)
	require.NoError(t, err)
	assert.Len(t, p, 80)
	assert.Nil(t, s)
}

func TestTrainHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Train(ctx, models.SSQ, testutil.Draws(models.SSQ, 30, 1), smallConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSoftmaxTemperature(t *testing.T) {
	logits := []float64{2, 1, 0}

	sharp := Softmax(logits, 0.5)
	flat := Softmax(logits, 3)

	sum := 0.0
	for _, p := range flat {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
	assert.Greater(t, sharp[0], flat[0])
	assert.Less(t, sharp[2], flat[2])
}
