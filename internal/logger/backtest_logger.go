package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// BacktestLogger provides dedicated logging for backtest runs.
type BacktestLogger struct {
	*logrus.Entry
}

// NewBacktestLogger creates a backtest logger bound to one run.
func NewBacktestLogger(baseLogger *logrus.Logger, runID, game string) *BacktestLogger {
	return &BacktestLogger{
		Entry: baseLogger.WithFields(logrus.Fields{
			"component": "backtest",
			"run_id":    runID,
			"game":      game,
		}),
	}
}

// LogRunStart logs the start of a run.
func (bl *BacktestLogger) LogRunStart(startIndex, endIndex int, strategies []string, workers int) {
	bl.WithFields(logrus.Fields{
		"start_index": startIndex,
		"end_index":   endIndex,
		"strategies":  strategies,
		"workers":     workers,
	}).Info("Backtest run started")
}

// LogPeriodSkip logs a skipped period, or a skipped strategy within a period.
func (bl *BacktestLogger) LogPeriodSkip(targetIndex int, strategy, reason string, err error) {
	fields := logrus.Fields{
		"target_index": targetIndex,
		"reason":       reason,
	}
	if strategy != "" {
		fields["strategy"] = strategy
	}
	bl.WithFields(fields).WithError(err).Debug("Backtest period skipped")
}

// LogRunComplete logs the end of a run.
func (bl *BacktestLogger) LogRunComplete(periods, records, skips, fallbacks int, duration time.Duration) {
	bl.WithFields(logrus.Fields{
		"periods":     periods,
		"records":     records,
		"skips":       skips,
		"fallbacks":   fallbacks,
		"duration_ms": duration.Milliseconds(),
	}).Info("Backtest run completed")
}

// LogRunCancelled logs a run interrupted between periods.
func (bl *BacktestLogger) LogRunCancelled(completedPeriods int, err error) {
	bl.WithFields(logrus.Fields{
		"completed_periods": completedPeriods,
	}).WithError(err).Warn("Backtest run cancelled, returning partial results")
}
