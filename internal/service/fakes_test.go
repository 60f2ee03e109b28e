package service

import (
	"context"
	"io"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/lotto-backtest/internal/datasource"
	"github.com/yourusername/lotto-backtest/internal/models"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// noticesFrom converts draws into the newest-first shape the CWL endpoint returns.
func noticesFrom(draws []models.Draw) []datasource.DrawNotice {
	notices := make([]datasource.DrawNotice, 0, len(draws))
	for i := len(draws) - 1; i >= 0; i-- {
		d := draws[i]
		notices = append(notices, datasource.DrawNotice{
			Period:    d.Period,
			Date:      d.Date,
			Primary:   d.Primary,
			Secondary: d.Secondary,
		})
	}
	return notices
}

type fakeSource struct {
	notices  []datasource.DrawNotice
	err      error
	disabled bool
	calls    int
	lastGame string
}

func (f *fakeSource) FetchNotices(_ context.Context, game models.Game, limit, _ int) ([]datasource.DrawNotice, error) {
	f.calls++
	f.lastGame = game.Code
	if f.err != nil {
		return nil, f.err
	}
	if limit > 0 && limit < len(f.notices) {
		return f.notices[:limit], nil
	}
	return f.notices, nil
}

func (f *fakeSource) Name() string    { return "fake" }
func (f *fakeSource) IsEnabled() bool { return !f.disabled }

type fakeDrawRepo struct {
	stored      map[string]models.Draw
	batches     [][]models.Draw
	insertErr   error
	existingErr error
}

func newFakeDrawRepo(draws ...models.Draw) *fakeDrawRepo {
	r := &fakeDrawRepo{stored: map[string]models.Draw{}}
	for _, d := range draws {
		r.stored[d.Period] = d
	}
	return r
}

func (r *fakeDrawRepo) InsertBatch(_ context.Context, _ string, draws []models.Draw) (int, error) {
	if r.insertErr != nil {
		return 0, r.insertErr
	}
	r.batches = append(r.batches, draws)
	n := 0
	for _, d := range draws {
		if _, ok := r.stored[d.Period]; ok {
			continue
		}
		r.stored[d.Period] = d
		n++
	}
	return n, nil
}

func (r *fakeDrawRepo) ListByGame(_ context.Context, _ string, limit int) ([]models.Draw, error) {
	draws := make([]models.Draw, 0, len(r.stored))
	for _, d := range r.stored {
		draws = append(draws, d)
	}
	sort.Slice(draws, func(i, j int) bool { return draws[i].Date.Before(draws[j].Date) })
	if limit > 0 && limit < len(draws) {
		draws = draws[len(draws)-limit:]
	}
	for i := range draws {
		draws[i].Index = i
	}
	return draws, nil
}

func (r *fakeDrawRepo) ExistingPeriods(_ context.Context, _ string, periods []string) (map[string]bool, error) {
	if r.existingErr != nil {
		return nil, r.existingErr
	}
	out := map[string]bool{}
	for _, p := range periods {
		if _, ok := r.stored[p]; ok {
			out[p] = true
		}
	}
	return out, nil
}

func (r *fakeDrawRepo) LatestPeriod(ctx context.Context, game string) (string, error) {
	draws, _ := r.ListByGame(ctx, game, 1)
	if len(draws) == 0 {
		return "", models.ErrNotFound
	}
	return draws[0].Period, nil
}

func (r *fakeDrawRepo) Count(_ context.Context, _ string) (int, error) {
	return len(r.stored), nil
}

type fakeSummaryRepo struct {
	rows []models.BacktestSummaryRow
	err  error
}

func (r *fakeSummaryRepo) SaveRows(_ context.Context, rows []models.BacktestSummaryRow) error {
	if r.err != nil {
		return r.err
	}
	r.rows = append(r.rows, rows...)
	return nil
}

func (r *fakeSummaryRepo) GetByRunID(_ context.Context, runID uuid.UUID) ([]models.BacktestSummaryRow, error) {
	var out []models.BacktestSummaryRow
	for _, row := range r.rows {
		if row.RunID == runID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *fakeSummaryRepo) GetLatestRun(_ context.Context, _ string) ([]models.BacktestSummaryRow, error) {
	if len(r.rows) == 0 {
		return nil, models.ErrNotFound
	}
	return r.GetByRunID(context.Background(), r.rows[len(r.rows)-1].RunID)
}
