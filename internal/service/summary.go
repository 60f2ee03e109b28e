package service

import (
	"context"
	"fmt"

	"github.com/yourusername/lotto-backtest/internal/backtest"
	"github.com/yourusername/lotto-backtest/internal/logger"
	"github.com/yourusername/lotto-backtest/internal/repository"
)

// SummaryService persists backtest summaries
type SummaryService struct {
	repo  repository.SummaryRepository
	audit *logger.AuditLogger
}

// NewSummaryService creates a new summary service
func NewSummaryService(repo repository.SummaryRepository, audit *logger.AuditLogger) *SummaryService {
	return &SummaryService{repo: repo, audit: audit}
}

// Persist stores one row per strategy, metric and k. Statistics that are
// undefined are stored as NULL.
func (s *SummaryService) Persist(ctx context.Context, result *backtest.Result) (int, error) {
	rows := backtest.SummaryRows(result)
	if len(rows) == 0 {
		return 0, nil
	}
	if err := s.repo.SaveRows(ctx, rows); err != nil {
		return 0, fmt.Errorf("failed to persist summary: %w", err)
	}
	s.audit.LogSummaryPersisted(result.RunID.String(), result.Game, len(rows))
	return len(rows), nil
}
