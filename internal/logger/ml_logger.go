package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// MLLogger provides dedicated logging for sequence model operations.
type MLLogger struct {
	*logrus.Entry
}

// NewMLLogger creates a new ML logger.
func NewMLLogger(baseLogger *logrus.Logger) *MLLogger {
	return &MLLogger{
		Entry: baseLogger.WithField("component", "ml"),
	}
}

// LogTrainingComplete logs a finished model fit for one target period.
func (ml *MLLogger) LogTrainingComplete(game string, targetIndex int, loss float64, duration time.Duration) {
	ml.WithFields(logrus.Fields{
		"game":              game,
		"target_index":      targetIndex,
		"loss":              loss,
		"training_duration": duration.Seconds(),
	}).Debug("Sequence model trained")
}

// LogFallback logs an ML strategy replaced by the fused prior.
func (ml *MLLogger) LogFallback(game string, targetIndex int, strategy string, err error) {
	ml.WithFields(logrus.Fields{
		"game":         game,
		"target_index": targetIndex,
		"strategy":     strategy,
	}).WithError(err).Info("Sequence model not trainable, falling back to fused prior")
}

// LogCacheStats logs the output cache counters.
func (ml *MLLogger) LogCacheStats(hits, misses uint64, ratio float64, items int) {
	ml.WithFields(logrus.Fields{
		"cache_hits":   hits,
		"cache_misses": misses,
		"hit_ratio":    ratio,
		"items":        items,
	}).Info("Sequence model cache statistics")
}
