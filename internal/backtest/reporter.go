package backtest

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
)

// GenerateConsoleReport renders the summary as text tables
func GenerateConsoleReport(result *Result) string {
	var builder strings.Builder
	s := result.Summary

	builder.WriteString("Backtest Report\n")
	builder.WriteString("================\n")
	builder.WriteString(fmt.Sprintf("Run: %s\n", result.RunID))
	builder.WriteString(fmt.Sprintf("Game: %s\n", result.Game))
	builder.WriteString(fmt.Sprintf("Target range: %d..%d\n", result.StartIndex, result.EndIndex))
	builder.WriteString(fmt.Sprintf("Periods scored: %d (skipped %d)\n", s.Periods, s.SkippedPeriods))
	builder.WriteString(fmt.Sprintf("Fallbacks: %d\n", s.Fallbacks))
	if result.Cancelled {
		builder.WriteString("Status: cancelled, partial results\n")
	}

	builder.WriteString("\nPrimary Hit@k (mean ± std)\n")
	writeTable(&builder, s, s.KValues, "Hit@", func(st StrategySummary) map[int]MetricStat { return st.HitAtK })

	if len(s.BlueKValues) > 0 {
		builder.WriteString("\nSecondary top-k rate (mean ± std)\n")
		writeTable(&builder, s, s.BlueKValues, "Top", func(st StrategySummary) map[int]MetricStat { return st.TopKRate })
	}

	if len(s.Skips) > 0 {
		builder.WriteString("\nSkips\n")
		reasons := make([]string, 0, len(s.Skips))
		for reason := range s.Skips {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			builder.WriteString(fmt.Sprintf("  %s: %d\n", reason, s.Skips[reason]))
		}
		for _, st := range s.Strategies {
			if len(st.Skips) > 0 {
				builder.WriteString(fmt.Sprintf("  %s: %s\n", st.Strategy, formatSkips(st.Skips)))
			}
		}
	}
	return builder.String()
}

func skipTotal(skips map[string]int) int {
	total := 0
	for _, n := range skips {
		total += n
	}
	return total
}

// formatSkips lists reason=count pairs in reason order
func formatSkips(skips map[string]int) string {
	reasons := make([]string, 0, len(skips))
	for reason := range skips {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	parts := make([]string, len(reasons))
	for i, reason := range reasons {
		parts[i] = fmt.Sprintf("%s=%d", reason, skips[reason])
	}
	return strings.Join(parts, " ")
}

func writeTable(builder *strings.Builder, s Summary, ks []int, prefix string, pick func(StrategySummary) map[int]MetricStat) {
	tw := tabwriter.NewWriter(builder, 0, 0, 2, ' ', 0)

	header := []string{"strategy", "n", "skipped"}
	for _, k := range ks {
		header = append(header, fmt.Sprintf("%s%d", prefix, k))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, st := range s.Strategies {
		row := []string{st.Strategy, fmt.Sprintf("%d", st.Periods), fmt.Sprintf("%d", skipTotal(st.Skips))}
		stats := pick(st)
		for _, k := range ks {
			row = append(row, formatStat(stats[k]))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
}

func formatStat(m MetricStat) string {
	if !m.Defined() {
		return "n/a"
	}
	return fmt.Sprintf("%.4f ± %.4f", m.Mean, m.Std)
}

// GenerateOverlapReport renders an overlap backtest against its random baseline
func GenerateOverlapReport(result OverlapResult) string {
	var builder strings.Builder
	builder.WriteString("Overlap Backtest\n")
	builder.WriteString("================\n")
	builder.WriteString(fmt.Sprintf("Game: %s  window: %d  sets: %d  pick: %d  samples: %d\n",
		result.Game, result.Window, result.Sets, result.Pick, result.Samples))

	tw := tabwriter.NewWriter(&builder, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tmean\tmedian\tp90")
	fmt.Fprintf(tw, "model\t%.4f\t%.1f\t%.1f\n", result.Model.Mean, result.Model.Median, result.Model.P90)
	fmt.Fprintf(tw, "random\t%.4f\t%.1f\t%.1f\n", result.Random.Mean, result.Random.Median, result.Random.P90)
	tw.Flush()
	return builder.String()
}
