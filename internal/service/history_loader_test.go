package service

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/lotto-backtest/internal/models"
	"github.com/yourusername/lotto-backtest/internal/testutil"
)

func TestHistoryLoaderPrefersStorage(t *testing.T) {
	draws := testutil.Draws(models.SSQ, 20, 1)
	src := &fakeSource{notices: noticesFrom(draws)}
	loader := NewHistoryLoader(newFakeDrawRepo(draws...), src, 0, quietLogger())

	h, err := loader.Load(context.Background(), models.SSQ, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, h.Len())
	assert.Equal(t, draws[19].Period, h.At(9).Period)
	assert.Equal(t, 0, src.calls)
}

func TestHistoryLoaderFallsBackToSource(t *testing.T) {
	draws := testutil.Draws(models.KL8, 15, 2)
	src := &fakeSource{notices: noticesFrom(draws)}

	for name, loader := range map[string]*HistoryLoader{
		"empty storage": NewHistoryLoader(newFakeDrawRepo(), src, 0, quietLogger()),
		"no storage":    NewHistoryLoader(nil, src, 0, quietLogger()),
	} {
		t.Run(name, func(t *testing.T) {
			h, err := loader.Load(context.Background(), models.KL8, 0)
			require.NoError(t, err)
			require.Equal(t, 15, h.Len())
			assert.Equal(t, draws[0].Period, h.At(0).Period)
			assert.Equal(t, 14, h.LastIndex())
		})
	}
}

func TestHistoryLoaderWithoutData(t *testing.T) {
	_, err := NewHistoryLoader(nil, nil, 0, quietLogger()).Load(context.Background(), models.SSQ, 0)
	assert.True(t, errors.Is(err, models.ErrInsufficientHistory))

	disabled := &fakeSource{disabled: true}
	_, err = NewHistoryLoader(newFakeDrawRepo(), disabled, 0, quietLogger()).Load(context.Background(), models.SSQ, 0)
	assert.True(t, errors.Is(err, models.ErrInsufficientHistory))
	assert.Equal(t, 0, disabled.calls)
}

func TestLoadFile(t *testing.T) {
	draws := testutil.Draws(models.SSQ, 8, 3)
	for i := range draws {
		draws[i].Index = 0
	}
	data, err := json.Marshal(draws)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "ssq.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	h, err := LoadFile(models.SSQ, path)
	require.NoError(t, err)
	assert.Equal(t, 8, h.Len())
	assert.Equal(t, 7, h.LastIndex())
	assert.Equal(t, draws[7].Period, h.At(7).Period)

	_, err = LoadFile(models.KL8, path)
	assert.True(t, errors.Is(err, models.ErrInvalidDraw))

	_, err = LoadFile(models.SSQ, filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
