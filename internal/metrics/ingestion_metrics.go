package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Ingestion metrics
var (
	IngestionRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingestion_runs_total",
		Help:      "Total number of ingestion runs by game and status",
	}, []string{"game", "status"})

	IngestionDrawsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingestion_draws_total",
		Help:      "Draws seen by ingestion, by outcome (stored, duplicate, invalid)",
	}, []string{"game", "outcome"})

	IngestionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "ingestion_duration_seconds",
		Help:      "Duration of ingestion runs in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"game"})

	IngestionLastSuccess = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ingestion_last_success_timestamp_seconds",
		Help:      "Unix time of the last successful ingestion run",
	}, []string{"game"})

	DataSourceRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "datasource_requests_total",
		Help:      "Requests made to draw data sources by status",
	}, []string{"source", "status"})
)

// RecordIngestionRun records the outcome of one ingestion run.
func RecordIngestionRun(game, status string, duration time.Duration) {
	IngestionRunsTotal.WithLabelValues(game, status).Inc()
	IngestionDuration.WithLabelValues(game).Observe(duration.Seconds())
	if status == "success" {
		IngestionLastSuccess.WithLabelValues(game).Set(float64(time.Now().Unix()))
	}
}

// RecordIngestedDraws adds count draws with the given outcome.
func RecordIngestedDraws(game, outcome string, count int) {
	if count == 0 {
		return
	}
	IngestionDrawsTotal.WithLabelValues(game, outcome).Add(float64(count))
}

// RecordDataSourceRequest counts one upstream request.
func RecordDataSourceRequest(source, status string) {
	DataSourceRequestsTotal.WithLabelValues(source, status).Inc()
}
