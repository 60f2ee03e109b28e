package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/lotto-backtest/internal/database"
	"github.com/yourusername/lotto-backtest/internal/models"
)

const errScanSummaryRow = "failed to scan backtest summary: %w"

var summaryColumns = []string{"run_id", "game", "strategy", "k", "metric", "mean", "std", "periods", "created_at"}

// PostgresSummaryRepository implements SummaryRepository for PostgreSQL
type PostgresSummaryRepository struct {
	db *database.DB
}

// NewPostgresSummaryRepository creates a new summary repository
func NewPostgresSummaryRepository(db *database.DB) SummaryRepository {
	return &PostgresSummaryRepository{db: db}
}

// SaveRows bulk-inserts summary rows with COPY
func (r *PostgresSummaryRepository) SaveRows(ctx context.Context, rows []models.BacktestSummaryRow) error {
	if len(rows) == 0 {
		return nil
	}

	source := make([][]any, len(rows))
	for i, row := range rows {
		source[i] = []any{row.RunID, row.Game, row.Strategy, row.K, row.Metric, row.Mean, row.Std, row.Periods, row.CreatedAt}
	}

	count, err := r.db.GetPool().CopyFrom(ctx, pgx.Identifier{"backtest_summaries"}, summaryColumns, pgx.CopyFromRows(source))
	if err != nil {
		return fmt.Errorf("failed to save backtest summary: %w", err)
	}
	if int(count) != len(rows) {
		return fmt.Errorf("saved %d of %d summary rows", count, len(rows))
	}
	return nil
}

// GetByRunID retrieves the summary rows of one run
func (r *PostgresSummaryRepository) GetByRunID(ctx context.Context, runID uuid.UUID) ([]models.BacktestSummaryRow, error) {
	query := `
		SELECT run_id, game, strategy, k, metric, mean, std, periods, created_at
		FROM backtest_summaries WHERE run_id = $1
		ORDER BY strategy, metric, k
	`
	rows, err := r.db.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query backtest summary: %w", err)
	}
	return scanSummaryRows(rows)
}

// GetLatestRun retrieves the rows of the most recent run for game
func (r *PostgresSummaryRepository) GetLatestRun(ctx context.Context, game string) ([]models.BacktestSummaryRow, error) {
	query := `
		SELECT run_id, game, strategy, k, metric, mean, std, periods, created_at
		FROM backtest_summaries
		WHERE run_id = (
			SELECT run_id FROM backtest_summaries WHERE game = $1
			ORDER BY created_at DESC LIMIT 1
		)
		ORDER BY strategy, metric, k
	`
	rows, err := r.db.Query(ctx, query, game)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest backtest summary: %w", err)
	}
	result, err := scanSummaryRows(rows)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, models.ErrNotFound
	}
	return result, nil
}

func scanSummaryRows(rows pgx.Rows) ([]models.BacktestSummaryRow, error) {
	defer rows.Close()

	var result []models.BacktestSummaryRow
	for rows.Next() {
		var row models.BacktestSummaryRow
		if err := rows.Scan(
			&row.RunID, &row.Game, &row.Strategy, &row.K, &row.Metric,
			&row.Mean, &row.Std, &row.Periods, &row.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf(errScanSummaryRow, err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
