package backtest

import (
	"encoding/json"
	"math"

	"gonum.org/v1/gonum/stat"
)

// MetricStat is a mean and population std over scored periods. Both are NaN
// when nothing was scored; JSON encodes NaN as null.
type MetricStat struct {
	Mean float64
	Std  float64
}

// MarshalJSON implements json.Marshaler
func (m MetricStat) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Mean *float64 `json:"mean"`
		Std  *float64 `json:"std"`
	}{finite(m.Mean), finite(m.Std)})
}

// Defined reports whether at least one period was scored
func (m MetricStat) Defined() bool {
	return !math.IsNaN(m.Mean)
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// StrategySummary aggregates one strategy over the run
type StrategySummary struct {
	Strategy  string             `json:"strategy"`
	Periods   int                `json:"periods"`
	Fallbacks int                `json:"fallbacks"`
	Skips     map[string]int     `json:"skips"`
	HitAtK    map[int]MetricStat `json:"hit_at_k"`
	TopKRate  map[int]MetricStat `json:"top_k_rate,omitempty"`
}

// Summary is the per-strategy, per-k table plus run-level counts
type Summary struct {
	Game           string            `json:"game"`
	Periods        int               `json:"periods"`
	SkippedPeriods int               `json:"skipped_periods"`
	KValues        []int             `json:"k_values"`
	BlueKValues    []int             `json:"blue_k_values,omitempty"`
	Strategies     []StrategySummary `json:"strategies"`
	Skips          map[string]int    `json:"skips"`
	Fallbacks      int               `json:"fallbacks"`
}

// Strategy returns the summary for id
func (s Summary) Strategy(id string) (StrategySummary, bool) {
	for _, st := range s.Strategies {
		if st.Strategy == id {
			return st, true
		}
	}
	return StrategySummary{}, false
}

// HitCount returns |top_k(ranking) ∩ actual| with k clamped to [0, len(ranking)]
func HitCount(ranking, actual []int, k int) int {
	if k < 0 {
		k = 0
	}
	if k > len(ranking) {
		k = len(ranking)
	}
	want := make(map[int]struct{}, len(actual))
	for _, n := range actual {
		want[n] = struct{}{}
	}
	hits := 0
	for _, n := range ranking[:k] {
		if _, ok := want[n]; ok {
			hits++
		}
	}
	return hits
}

// HitAtK returns |top_k ∩ actual| / |actual|, or 0 when actual is empty
func HitAtK(ranking, actual []int, k int) float64 {
	if len(actual) == 0 {
		return 0
	}
	return float64(HitCount(ranking, actual, k)) / float64(len(actual))
}

// TopKHit reports whether any actual number is within the top k
func TopKHit(ranking, actual []int, k int) bool {
	return HitCount(ranking, actual, k) > 0
}

// newRecord scores a prediction against the actual draw numbers.
func newRecord(cfg Config, strategy string, pred Prediction, primaryRanking, secondaryRanking, actualPrimary, actualSecondary []int) BacktestRecord {
	rec := BacktestRecord{
		Strategy:         strategy,
		PrimaryRanking:   primaryRanking,
		SecondaryRanking: secondaryRanking,
		PrimaryHits:      make(map[int]int, len(cfg.KValues)),
		Fallback:         pred.Fallback,
	}
	for _, k := range cfg.KValues {
		rec.PrimaryHits[k] = HitCount(primaryRanking, actualPrimary, k)
	}
	if secondaryRanking != nil {
		rec.SecondaryHits = make(map[int]bool, len(cfg.BlueKValues))
		for _, k := range cfg.BlueKValues {
			rec.SecondaryHits[k] = TopKHit(secondaryRanking, actualSecondary, k)
		}
	}
	return rec
}

// Summarize aggregates records and skips per strategy in the given order.
// Hit@k divides hit counts by the game's primary draw size.
func Summarize(records []BacktestRecord, skips []SkipRecord, cfg Config, strategies []string) Summary {
	summary := Summary{
		Game:        cfg.Game.Code,
		KValues:     append([]int(nil), cfg.KValues...),
		BlueKValues: append([]int(nil), cfg.BlueKValues...),
		Skips:       make(map[string]int),
	}

	byStrategy := make(map[string][]BacktestRecord, len(strategies))
	periods := make(map[int]struct{})
	for _, rec := range records {
		byStrategy[rec.Strategy] = append(byStrategy[rec.Strategy], rec)
		periods[rec.TargetIndex] = struct{}{}
	}
	summary.Periods = len(periods)

	strategySkips := make(map[string]map[string]int)
	for _, skip := range skips {
		summary.Skips[skip.Reason]++
		if skip.Strategy == "" {
			summary.SkippedPeriods++
			continue
		}
		if strategySkips[skip.Strategy] == nil {
			strategySkips[skip.Strategy] = make(map[string]int)
		}
		strategySkips[skip.Strategy][skip.Reason]++
	}

	size := float64(cfg.Game.Primary.Size)
	for _, id := range strategies {
		recs := byStrategy[id]
		st := StrategySummary{
			Strategy: id,
			Periods:  len(recs),
			Skips:    strategySkips[id],
			HitAtK:   make(map[int]MetricStat, len(cfg.KValues)),
		}
		if st.Skips == nil {
			st.Skips = map[string]int{}
		}
		for _, rec := range recs {
			if rec.Fallback {
				st.Fallbacks++
			}
		}
		summary.Fallbacks += st.Fallbacks

		values := make([]float64, len(recs))
		for _, k := range cfg.KValues {
			for i, rec := range recs {
				values[i] = float64(rec.PrimaryHits[k]) / size
			}
			st.HitAtK[k] = meanStd(values)
		}

		if cfg.Game.HasSecondary() {
			st.TopKRate = make(map[int]MetricStat, len(cfg.BlueKValues))
			for _, k := range cfg.BlueKValues {
				for i, rec := range recs {
					values[i] = 0
					if rec.SecondaryHits[k] {
						values[i] = 1
					}
				}
				st.TopKRate[k] = meanStd(values)
			}
		}
		summary.Strategies = append(summary.Strategies, st)
	}
	return summary
}

// meanStd returns the mean and population std, NaN for no values
func meanStd(values []float64) MetricStat {
	if len(values) == 0 {
		return MetricStat{Mean: math.NaN(), Std: math.NaN()}
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	return MetricStat{Mean: mean, Std: std}
}
