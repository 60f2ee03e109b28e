package backtest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/yourusername/lotto-backtest/internal/models"
)

// Export is the JSON document written for a run
type Export struct {
	RunID      string       `json:"run_id"`
	Game       string       `json:"game"`
	StartIndex int          `json:"start_index"`
	EndIndex   int          `json:"end_index"`
	StartedAt  time.Time    `json:"started_at"`
	DurationMS int64        `json:"duration_ms"`
	Cancelled  bool         `json:"cancelled"`
	Summary    Summary      `json:"summary"`
	Skips      []SkipRecord `json:"skips"`
}

// ExportJSON writes the run summary as indented JSON. Undefined metrics are null.
func ExportJSON(w io.Writer, result *Result) error {
	if result == nil {
		return fmt.Errorf("result is required")
	}
	doc := Export{
		RunID:      result.RunID.String(),
		Game:       result.Game,
		StartIndex: result.StartIndex,
		EndIndex:   result.EndIndex,
		StartedAt:  result.StartedAt,
		DurationMS: result.Duration.Milliseconds(),
		Cancelled:  result.Cancelled,
		Summary:    result.Summary,
		Skips:      result.Skips,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to marshal export: %w", err)
	}
	return nil
}

// ExportToJSON writes the export to outputPath, creating parent directories
func ExportToJSON(result *Result, outputPath string) error {
	if outputPath == "" {
		return fmt.Errorf("output path is required")
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()
	return ExportJSON(f, result)
}

// SummaryRows flattens the summary into persisted rows, one per
// (strategy, k, metric). Undefined means and stds become NULL.
func SummaryRows(result *Result) []models.BacktestSummaryRow {
	created := result.StartedAt.Add(result.Duration)
	var rows []models.BacktestSummaryRow
	for _, st := range result.Summary.Strategies {
		rows = append(rows, metricRows(result, st, models.MetricHitAtK, st.HitAtK, created)...)
		rows = append(rows, metricRows(result, st, models.MetricTopKRate, st.TopKRate, created)...)
	}
	return rows
}

func metricRows(result *Result, st StrategySummary, metric string, stats map[int]MetricStat, created time.Time) []models.BacktestSummaryRow {
	ks := make([]int, 0, len(stats))
	for k := range stats {
		ks = append(ks, k)
	}
	sort.Ints(ks)

	rows := make([]models.BacktestSummaryRow, 0, len(ks))
	for _, k := range ks {
		m := stats[k]
		rows = append(rows, models.BacktestSummaryRow{
			RunID:     result.RunID,
			Game:      result.Game,
			Strategy:  st.Strategy,
			K:         k,
			Metric:    metric,
			Mean:      finite(m.Mean),
			Std:       finite(m.Std),
			Periods:   st.Periods,
			CreatedAt: created,
		})
	}
	return rows
}
