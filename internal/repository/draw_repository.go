package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/lotto-backtest/internal/database"
	"github.com/yourusername/lotto-backtest/internal/models"
)

// PostgresDrawRepository implements DrawRepository for PostgreSQL
type PostgresDrawRepository struct {
	db *database.DB
}

// NewPostgresDrawRepository creates a new draw repository
func NewPostgresDrawRepository(db *database.DB) DrawRepository {
	return &PostgresDrawRepository{db: db}
}

// InsertBatch inserts draws in one transaction, ignoring periods already
// stored. It returns the number of rows actually inserted.
func (r *PostgresDrawRepository) InsertBatch(ctx context.Context, game string, draws []models.Draw) (int, error) {
	if len(draws) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO draws (game, period, draw_date, primary_numbers, secondary_numbers)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (game, period) DO NOTHING
	`

	inserted := 0
	err := r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, d := range draws {
			secondary := d.Secondary
			if secondary == nil {
				secondary = []int{}
			}
			batch.Queue(query, game, d.Period, d.Date, d.Primary, secondary)
		}

		results := tx.SendBatch(ctx, batch)
		for range draws {
			tag, err := results.Exec()
			if err != nil {
				_ = results.Close()
				return fmt.Errorf("failed to insert draw: %w", err)
			}
			inserted += int(tag.RowsAffected())
		}
		return results.Close()
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// ListByGame returns draws oldest first with Index assigned from 0. limit > 0
// keeps only the most recent limit draws.
func (r *PostgresDrawRepository) ListByGame(ctx context.Context, game string, limit int) ([]models.Draw, error) {
	query := `
		SELECT period, draw_date, primary_numbers, secondary_numbers FROM (
			SELECT period, draw_date, primary_numbers, secondary_numbers
			FROM draws WHERE game = $1
			ORDER BY draw_date DESC, period DESC
			LIMIT NULLIF($2, 0)
		) recent
		ORDER BY draw_date ASC, period ASC
	`
	rows, err := r.db.Query(ctx, query, game, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query draws: %w", err)
	}
	defer rows.Close()

	var draws []models.Draw
	for rows.Next() {
		var d models.Draw
		if err := rows.Scan(&d.Period, &d.Date, &d.Primary, &d.Secondary); err != nil {
			return nil, fmt.Errorf("failed to scan draw: %w", err)
		}
		if len(d.Secondary) == 0 {
			d.Secondary = nil
		}
		d.Index = len(draws)
		draws = append(draws, d)
	}
	return draws, rows.Err()
}

// ExistingPeriods reports which of periods are already stored
func (r *PostgresDrawRepository) ExistingPeriods(ctx context.Context, game string, periods []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	if len(periods) == 0 {
		return existing, nil
	}

	rows, err := r.db.Query(ctx, `SELECT period FROM draws WHERE game = $1 AND period = ANY($2)`, game, periods)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing periods: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var period string
		if err := rows.Scan(&period); err != nil {
			return nil, fmt.Errorf("failed to scan period: %w", err)
		}
		existing[period] = true
	}
	return existing, rows.Err()
}

// LatestPeriod returns the most recent stored period for game
func (r *PostgresDrawRepository) LatestPeriod(ctx context.Context, game string) (string, error) {
	var period string
	err := r.db.QueryRow(ctx,
		`SELECT period FROM draws WHERE game = $1 ORDER BY draw_date DESC, period DESC LIMIT 1`, game,
	).Scan(&period)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", models.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query latest period: %w", err)
	}
	return period, nil
}

// Count returns how many draws are stored for game
func (r *PostgresDrawRepository) Count(ctx context.Context, game string) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM draws WHERE game = $1`, game).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count draws: %w", err)
	}
	return n, nil
}
