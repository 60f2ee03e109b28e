package scheduler

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/lotto-backtest/internal/service"
)

type fakeIngester struct {
	mu    sync.Mutex
	calls [][]string
	err   error
}

func (f *fakeIngester) IngestAll(_ context.Context, games []string, _ int) (map[string]*service.IngestionMetrics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, games)
	out := map[string]*service.IngestionMetrics{}
	for _, g := range games {
		out[g] = service.NewIngestionMetrics(g)
	}
	return out, f.err
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestScheduleIngestion(t *testing.T) {
	s := NewScheduler(&fakeIngester{}, quietLogger())

	_, err := s.ScheduleIngestion("not a cron", []string{"ssq"}, 10)
	assert.Error(t, err)

	_, err = s.ScheduleIngestion("0 22 * * *", nil, 10)
	assert.Error(t, err)

	assert.Error(t, s.Start(), "no jobs scheduled")

	id, err := s.ScheduleIngestion("0 22 * * *", []string{"ssq", "kl8"}, 10)
	require.NoError(t, err)
	assert.Len(t, s.Entries(), 1)
	assert.True(t, s.GetNextRun().IsZero())

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.Error(t, s.Start())
	assert.False(t, s.GetNextRun().IsZero())

	_, err = s.ScheduleIngestion("0 23 * * *", []string{"ssq"}, 10)
	assert.Error(t, err)
	assert.Error(t, s.RemoveJob(id))

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	require.NoError(t, s.Stop())

	require.NoError(t, s.RemoveJob(id))
	assert.Empty(t, s.Entries())
}

func TestRunNow(t *testing.T) {
	ingester := &fakeIngester{}
	s := NewScheduler(ingester, quietLogger())

	require.NoError(t, s.RunNow(context.Background(), []string{"kl8"}, 5))
	last, err := s.LastRun()
	assert.NoError(t, err)
	assert.False(t, last.IsZero())
	assert.Equal(t, [][]string{{"kl8"}}, ingester.calls)

	ingester.err = errors.New("upstream down")
	assert.ErrorIs(t, s.RunNow(context.Background(), []string{"ssq"}, 5), ingester.err)
	_, err = s.LastRun()
	assert.ErrorIs(t, err, ingester.err)
}
