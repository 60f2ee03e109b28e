package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/lotto-backtest/internal/datasource"
	"github.com/yourusername/lotto-backtest/internal/models"
	"github.com/yourusername/lotto-backtest/internal/testutil"
)

func TestIngestStoresNewDraws(t *testing.T) {
	draws := testutil.Draws(models.SSQ, 10, 1)
	repo := newFakeDrawRepo(draws[:3]...)

	notices := noticesFrom(draws)
	notices = append(notices, notices[4])
	bad := notices[0]
	bad.Period = "2099999"
	bad.Primary = []int{1, 2, 3}
	notices = append(notices, bad)

	svc := NewIngestionService(&fakeSource{notices: notices}, repo, quietLogger(), 3, 0)
	m, err := svc.Ingest(context.Background(), models.SSQ, 0)
	require.NoError(t, err)

	assert.Equal(t, 12, m.Fetched)
	assert.Equal(t, 7, m.Stored)
	assert.Equal(t, 4, m.Duplicates)
	assert.Equal(t, 1, m.ValidationErrors)
	assert.Equal(t, 0, m.Errors)
	assert.Len(t, repo.stored, 10)

	require.Len(t, repo.batches, 3)
	assert.Len(t, repo.batches[0], 3)
	assert.Len(t, repo.batches[2], 1)
	assert.Equal(t, draws[3].Period, repo.batches[0][0].Period)
	assert.Equal(t, draws[9].Period, repo.batches[2][0].Period)
	assert.Equal(t, "success", m.Status)
	assert.Equal(t, draws[3].Period, m.FirstPeriod)
	assert.Equal(t, draws[9].Period, m.LastPeriod)
	assert.Contains(t, m.String(), "stored=7")
}

func TestIngestNothingNew(t *testing.T) {
	draws := testutil.Draws(models.KL8, 5, 2)
	repo := newFakeDrawRepo(draws...)

	svc := NewIngestionService(&fakeSource{notices: noticesFrom(draws)}, repo, quietLogger(), 0, 0)
	m, err := svc.Ingest(context.Background(), models.KL8, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Stored)
	assert.Equal(t, 5, m.Duplicates)
	assert.Empty(t, repo.batches)
}

func TestIngestErrors(t *testing.T) {
	draws := testutil.Draws(models.SSQ, 4, 3)
	boom := errors.New("boom")

	t.Run("fetch", func(t *testing.T) {
		src := &fakeSource{err: datasource.NewDataSourceError("fake", datasource.ErrCodeServerError, "down", datasource.ErrServerError)}
		m, err := NewIngestionService(src, newFakeDrawRepo(), quietLogger(), 0, 0).Ingest(context.Background(), models.SSQ, 0)
		require.Error(t, err)
		assert.True(t, errors.Is(err, datasource.ErrServerError))
		assert.Equal(t, 1, m.Errors)
		assert.Equal(t, "error", m.Status)
	})

	t.Run("existing periods", func(t *testing.T) {
		repo := newFakeDrawRepo()
		repo.existingErr = boom
		_, err := NewIngestionService(&fakeSource{notices: noticesFrom(draws)}, repo, quietLogger(), 0, 0).Ingest(context.Background(), models.SSQ, 0)
		assert.True(t, errors.Is(err, boom))
	})

	t.Run("insert", func(t *testing.T) {
		repo := newFakeDrawRepo()
		repo.insertErr = boom
		m, err := NewIngestionService(&fakeSource{notices: noticesFrom(draws)}, repo, quietLogger(), 0, 0).Ingest(context.Background(), models.SSQ, 0)
		assert.True(t, errors.Is(err, boom))
		assert.Equal(t, 0, m.Stored)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		repo := newFakeDrawRepo()
		m, err := NewIngestionService(&fakeSource{notices: noticesFrom(draws)}, repo, quietLogger(), 0, 0).Ingest(ctx, models.SSQ, 0)
		assert.True(t, errors.Is(err, context.Canceled))
		assert.Equal(t, "cancelled", m.Status)
		assert.Empty(t, repo.stored)
	})
}

func TestIngestAll(t *testing.T) {
	src := &fakeSource{notices: noticesFrom(testutil.Draws(models.KL8, 3, 4))}
	svc := NewIngestionService(src, newFakeDrawRepo(), quietLogger(), 0, 0)

	results, err := svc.IngestAll(context.Background(), []string{"nope", "kl8"}, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrUnknownGame))
	require.Contains(t, results, "kl8")
	assert.Equal(t, 3, results["kl8"].Stored)
	assert.Equal(t, "kl8", src.lastGame)
}
