package backtest

import (
	"time"

	"github.com/google/uuid"
)

// Skip reasons recorded in SkipRecord.Reason and the summary
const (
	ReasonInsufficientHistory    = "insufficient_history"
	ReasonModelNotTrainable      = "model_not_trainable"
	ReasonDegenerateDistribution = "degenerate_distribution"
)

// BacktestRecord is one scored (period, strategy) pair. PrimaryHits holds
// |top_k ∩ actual| per k; SecondaryHits whether any actual secondary number
// was in the top k.
type BacktestRecord struct {
	TargetIndex      int          `json:"target_index"`
	TargetPeriod     string       `json:"target_period"`
	Strategy         string       `json:"strategy"`
	PrimaryRanking   []int        `json:"primary_ranking"`
	SecondaryRanking []int        `json:"secondary_ranking,omitempty"`
	PrimaryHits      map[int]int  `json:"primary_hits"`
	SecondaryHits    map[int]bool `json:"secondary_hits,omitempty"`
	Fallback         bool         `json:"fallback"`
}

// SkipRecord notes a period or a single strategy that could not be scored.
// An empty Strategy means the whole period was skipped.
type SkipRecord struct {
	TargetIndex int    `json:"target_index"`
	Strategy    string `json:"strategy,omitempty"`
	Reason      string `json:"reason"`
	Message     string `json:"message"`
	Err         error  `json:"-"`
}

// Result is the in-memory outcome of a run
type Result struct {
	RunID      uuid.UUID        `json:"run_id"`
	Game       string           `json:"game"`
	StartIndex int              `json:"start_index"`
	EndIndex   int              `json:"end_index"`
	Strategies []string         `json:"strategies"`
	Records    []BacktestRecord `json:"records"`
	Skips      []SkipRecord     `json:"skips"`
	Summary    Summary          `json:"summary"`
	StartedAt  time.Time        `json:"started_at"`
	Duration   time.Duration    `json:"duration"`
	Cancelled  bool             `json:"cancelled"`
}

// periodResult is the slot one period worker owns exclusively
type periodResult struct {
	done    bool
	records []BacktestRecord
	skips   []SkipRecord
}

// flatten joins completed slots in period order
func flatten(slots []periodResult) ([]BacktestRecord, []SkipRecord, int) {
	var records []BacktestRecord
	var skips []SkipRecord
	completed := 0
	for _, slot := range slots {
		if !slot.done {
			continue
		}
		completed++
		records = append(records, slot.records...)
		skips = append(skips, slot.skips...)
	}
	return records, skips, completed
}
