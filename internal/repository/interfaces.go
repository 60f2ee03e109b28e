package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/yourusername/lotto-backtest/internal/models"
)

// DrawRepository defines draw history persistence. Draws are keyed by
// (game, period); Index is assigned on read from draw date order.
type DrawRepository interface {
	InsertBatch(ctx context.Context, game string, draws []models.Draw) (int, error)
	ListByGame(ctx context.Context, game string, limit int) ([]models.Draw, error)
	ExistingPeriods(ctx context.Context, game string, periods []string) (map[string]bool, error)
	LatestPeriod(ctx context.Context, game string) (string, error)
	Count(ctx context.Context, game string) (int, error)
}

// SummaryRepository defines backtest summary persistence
type SummaryRepository interface {
	SaveRows(ctx context.Context, rows []models.BacktestSummaryRow) error
	GetByRunID(ctx context.Context, runID uuid.UUID) ([]models.BacktestSummaryRow, error)
	GetLatestRun(ctx context.Context, game string) ([]models.BacktestSummaryRow, error)
}
