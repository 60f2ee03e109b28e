package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/lotto-backtest/internal/datasource"
	"github.com/yourusername/lotto-backtest/internal/logger"
	"github.com/yourusername/lotto-backtest/internal/models"
	"github.com/yourusername/lotto-backtest/internal/repository"
)

const defaultBatchSize = 100

// IngestionService handles the draw ingestion workflow
type IngestionService struct {
	source     datasource.DataSource
	drawRepo   repository.DrawRepository
	validator  *DataValidator
	normalizer *DataNormalizer
	audit      *logger.AuditLogger
	logger     *logrus.Logger
	batchSize  int
	maxPages   int
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(
	source datasource.DataSource,
	drawRepo repository.DrawRepository,
	log *logrus.Logger,
	batchSize int,
	maxPages int,
) *IngestionService {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	return &IngestionService{
		source:     source,
		drawRepo:   drawRepo,
		validator:  NewDataValidator(log),
		normalizer: NewDataNormalizer(),
		audit:      logger.NewAuditLogger(log),
		logger:     log,
		batchSize:  batchSize,
		maxPages:   maxPages,
	}
}

// Ingest fetches up to limit notices for game and stores the ones not
// already present. limit <= 0 fetches everything the source pages through.
func (s *IngestionService) Ingest(ctx context.Context, game models.Game, limit int) (*IngestionMetrics, error) {
	m := NewIngestionMetrics(game.Code)
	defer m.finish()

	s.logger.WithFields(logrus.Fields{
		"game":      game.Code,
		"source":    s.source.Name(),
		"limit":     limit,
		"max_pages": s.maxPages,
	}).Info("Starting draw ingestion")

	notices, err := s.source.FetchNotices(ctx, game, limit, s.maxPages)
	if err != nil {
		return m, m.fail(fmt.Errorf("failed to fetch notices: %w", err))
	}
	m.Fetched = len(notices)

	fresh, err := s.unseen(ctx, game, s.prepare(game, notices, m), m)
	if err != nil {
		return m, m.fail(err)
	}
	m.span(fresh)

	for start := 0; start < len(fresh); start += s.batchSize {
		if err := ctx.Err(); err != nil {
			return m, m.cancel(err)
		}
		end := min(start+s.batchSize, len(fresh))
		stored, err := s.drawRepo.InsertBatch(ctx, game.Code, fresh[start:end])
		m.Stored += stored
		if err != nil {
			return m, m.fail(fmt.Errorf("failed to store batch: %w", err))
		}
	}

	s.audit.LogDrawsStored(game.Code, m.Stored, m.Duplicates, m.FirstPeriod, m.LastPeriod)
	s.logger.WithField("metrics", m.String()).Info("Draw ingestion completed")
	return m, nil
}

// unseen drops candidates whose period is already stored
func (s *IngestionService) unseen(ctx context.Context, game models.Game, candidates []datasource.DrawNotice, m *IngestionMetrics) ([]models.Draw, error) {
	periods := make([]string, len(candidates))
	for i, n := range candidates {
		periods[i] = n.Period
	}
	existing, err := s.drawRepo.ExistingPeriods(ctx, game.Code, periods)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing periods: %w", err)
	}

	fresh := make([]models.Draw, 0, len(candidates))
	for _, n := range candidates {
		if existing[n.Period] {
			m.Duplicates++
			continue
		}
		fresh = append(fresh, models.NewDraw(0, n.Period, n.Date, n.Primary, n.Secondary))
	}
	return fresh, nil
}

// IngestAll runs Ingest for each game code in turn. A failing game does not
// stop the others; the first error is returned after all games ran.
func (s *IngestionService) IngestAll(ctx context.Context, codes []string, limit int) (map[string]*IngestionMetrics, error) {
	results := make(map[string]*IngestionMetrics, len(codes))
	var firstErr error

	for _, code := range codes {
		game, err := models.LookupGame(code)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		m, err := s.Ingest(ctx, game, limit)
		results[game.Code] = m
		if err != nil {
			s.logger.WithError(err).WithField("game", game.Code).Error("Draw ingestion failed")
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", game.Code, err)
			}
			if ctx.Err() != nil {
				break
			}
		}
	}

	return results, firstErr
}

// prepare normalizes and validates notices, drops repeated periods within
// the fetch and returns the survivors oldest first.
func (s *IngestionService) prepare(game models.Game, notices []datasource.DrawNotice, m *IngestionMetrics) []datasource.DrawNotice {
	seen := make(map[string]bool, len(notices))
	out := make([]datasource.DrawNotice, 0, len(notices))

	for _, raw := range notices {
		n := s.normalizer.NormalizeNotice(raw)
		if errs := s.validator.ValidateNotice(game, n); len(errs) > 0 {
			m.ValidationErrors++
			s.logger.WithFields(logrus.Fields{
				"game":   game.Code,
				"period": n.Period,
				"errors": errs,
			}).Warn("Skipping invalid notice")
			continue
		}
		if seen[n.Period] {
			m.Duplicates++
			s.audit.LogDuplicatePeriod(game.Code, n.Period)
			continue
		}
		seen[n.Period] = true
		out = append(out, n)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Period < out[j].Period
	})
	return out
}
