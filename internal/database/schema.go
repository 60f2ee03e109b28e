package database

import (
	"context"
	"fmt"
)

// schemaStatements create the draw store and summary tables. Each statement
// is idempotent.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS draws (
		game              TEXT        NOT NULL,
		period            TEXT        NOT NULL,
		draw_date         DATE        NOT NULL,
		primary_numbers   INTEGER[]   NOT NULL,
		secondary_numbers INTEGER[]   NOT NULL DEFAULT '{}',
		created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (game, period)
	)`,
	`CREATE INDEX IF NOT EXISTS draws_game_date_idx ON draws (game, draw_date, period)`,
	`CREATE TABLE IF NOT EXISTS backtest_summaries (
		run_id     UUID             NOT NULL,
		game       TEXT             NOT NULL,
		strategy   TEXT             NOT NULL,
		k          INTEGER          NOT NULL,
		metric     TEXT             NOT NULL,
		mean       DOUBLE PRECISION,
		std        DOUBLE PRECISION,
		periods    INTEGER          NOT NULL,
		created_at TIMESTAMPTZ      NOT NULL,
		PRIMARY KEY (run_id, strategy, metric, k)
	)`,
	`CREATE INDEX IF NOT EXISTS backtest_summaries_game_created_idx ON backtest_summaries (game, created_at DESC)`,
}

// EnsureSchema creates missing tables and indexes
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
