package service

import (
	"fmt"
	"time"

	"github.com/yourusername/lotto-backtest/internal/metrics"
	"github.com/yourusername/lotto-backtest/internal/models"
)

// Run statuses reported to Prometheus
const (
	statusSuccess   = "success"
	statusError     = "error"
	statusCancelled = "cancelled"
)

// IngestionMetrics is the tally of one Ingest call. It is owned by the
// goroutine running the ingestion and read once the call returns.
type IngestionMetrics struct {
	Game      string
	Status    string
	StartTime time.Time
	Duration  time.Duration

	Fetched          int
	Stored           int
	Duplicates       int
	ValidationErrors int
	Errors           int

	// FirstPeriod and LastPeriod bound the draws handed to storage.
	FirstPeriod string
	LastPeriod  string
}

// NewIngestionMetrics starts a tally for game
func NewIngestionMetrics(game string) *IngestionMetrics {
	return &IngestionMetrics{Game: game, Status: statusSuccess, StartTime: time.Now()}
}

func (m *IngestionMetrics) fail(err error) error {
	m.Status = statusError
	m.Errors++
	return err
}

func (m *IngestionMetrics) cancel(err error) error {
	m.Status = statusCancelled
	return err
}

func (m *IngestionMetrics) span(draws []models.Draw) {
	if len(draws) == 0 {
		return
	}
	m.FirstPeriod = draws[0].Period
	m.LastPeriod = draws[len(draws)-1].Period
}

// finish fixes the duration and publishes the tally
func (m *IngestionMetrics) finish() {
	m.Duration = time.Since(m.StartTime)
	metrics.RecordIngestionRun(m.Game, m.Status, m.Duration)
	metrics.RecordIngestedDraws(m.Game, "stored", m.Stored)
	metrics.RecordIngestedDraws(m.Game, "duplicate", m.Duplicates)
	metrics.RecordIngestedDraws(m.Game, "invalid", m.ValidationErrors)
}

func (m *IngestionMetrics) String() string {
	return fmt.Sprintf("%s %s: fetched=%d stored=%d duplicates=%d invalid=%d errors=%d periods=[%s..%s] in %v",
		m.Game, m.Status, m.Fetched, m.Stored, m.Duplicates, m.ValidationErrors, m.Errors,
		m.FirstPeriod, m.LastPeriod, m.Duration)
}
