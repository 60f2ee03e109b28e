package models

import (
	"time"

	"github.com/google/uuid"
)

// Summary metric names
const (
	MetricHitAtK   = "hit_at_k"
	MetricTopKRate = "top_k_rate"
)

// BacktestSummaryRow is one persisted cell of a backtest summary table
type BacktestSummaryRow struct {
	RunID     uuid.UUID `db:"run_id" json:"run_id"`
	Game      string    `db:"game" json:"game"`
	Strategy  string    `db:"strategy" json:"strategy"`
	K         int       `db:"k" json:"k"`
	Metric    string    `db:"metric" json:"metric"`
	Mean      *float64  `db:"mean" json:"mean"`
	Std       *float64  `db:"std" json:"std"`
	Periods   int       `db:"periods" json:"periods"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
