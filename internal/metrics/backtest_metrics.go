package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Backtest counter vectors
var (
	BacktestRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backtest_runs_total",
		Help:      "Total number of backtest runs by game and status",
	}, []string{"game", "status"})

	BacktestPeriodsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backtest_periods_total",
		Help:      "Total number of evaluated backtest periods",
	}, []string{"game"})

	BacktestSkipsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backtest_skips_total",
		Help:      "Skipped periods or strategies by reason. An empty strategy label is a whole-period skip",
	}, []string{"game", "strategy", "reason"})

	BacktestFallbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backtest_fallbacks_total",
		Help:      "ML predictions replaced by the fused prior",
	}, []string{"game", "strategy"})
)

// Backtest histogram and gauge vectors
var (
	BacktestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backtest_duration_seconds",
		Help:      "Duration of backtest runs in seconds",
		Buckets:   []float64{0.1, 1, 5, 10, 30, 60, 300, 600, 1800},
	}, []string{"game"})

	BacktestHitRate = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "backtest_hit_rate",
		Help:      "Mean Hit@k of the latest run per strategy",
	}, []string{"game", "strategy", "k"})
)

// RecordBacktestRun records a backtest run event.
// status should be one of: "success", "failure", "cancelled"
func RecordBacktestRun(game, status string, durationSeconds float64) {
	BacktestRunsTotal.WithLabelValues(game, status).Inc()
	BacktestDuration.WithLabelValues(game).Observe(durationSeconds)
}

// RecordBacktestPeriod counts one evaluated target period.
func RecordBacktestPeriod(game string) {
	BacktestPeriodsTotal.WithLabelValues(game).Inc()
}

// RecordBacktestSkip counts a skip.
func RecordBacktestSkip(game, strategy, reason string) {
	BacktestSkipsTotal.WithLabelValues(game, strategy, reason).Inc()
}

// RecordBacktestFallback counts a fallback to the fused prior.
func RecordBacktestFallback(game, strategy string) {
	BacktestFallbacksTotal.WithLabelValues(game, strategy).Inc()
}

// UpdateHitRate publishes the mean Hit@k of a strategy.
func UpdateHitRate(game, strategy string, k int, value float64) {
	BacktestHitRate.WithLabelValues(game, strategy, strconv.Itoa(k)).Set(value)
}
