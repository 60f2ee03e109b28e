package logger

import (
	"github.com/sirupsen/logrus"
)

// AuditLogger provides the audit trail of data written to storage.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogDrawsStored logs a batch of draws written for a game.
func (al *AuditLogger) LogDrawsStored(game string, stored, duplicates int, firstPeriod, lastPeriod string) {
	al.WithFields(logrus.Fields{
		"game":         game,
		"stored":       stored,
		"duplicates":   duplicates,
		"first_period": firstPeriod,
		"last_period":  lastPeriod,
	}).Info("Draws stored")
}

// LogDuplicatePeriod logs a period seen twice in one fetch; the first occurrence is kept.
func (al *AuditLogger) LogDuplicatePeriod(game, period string) {
	al.WithFields(logrus.Fields{
		"game":   game,
		"period": period,
	}).Warn("Duplicate draw period in fetched data")
}

// LogSummaryPersisted logs backtest summary rows written for a run.
func (al *AuditLogger) LogSummaryPersisted(runID, game string, rows int) {
	al.WithFields(logrus.Fields{
		"run_id": runID,
		"game":   game,
		"rows":   rows,
	}).Info("Backtest summary persisted")
}
