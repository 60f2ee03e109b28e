// Package metrics provides the centralized Prometheus registry for the backtest
// and ingestion binaries.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yourusername/lotto-backtest/internal/ml"
)

const namespace = "lotto_backtest"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Recommendation metrics
var (
	RecommendationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recommendations_total",
		Help:      "Total number of recommended tickets by game",
	}, []string{"game"})
	RecommendationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "recommendation_duration_seconds",
		Help:      "Duration of recommendation generation in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(RecommendationsTotal)
		registry.MustRegister(RecommendationDuration)

		// Register backtest metrics
		registry.MustRegister(BacktestRunsTotal)
		registry.MustRegister(BacktestDuration)
		registry.MustRegister(BacktestPeriodsTotal)
		registry.MustRegister(BacktestSkipsTotal)
		registry.MustRegister(BacktestFallbacksTotal)
		registry.MustRegister(BacktestHitRate)

		// Register ingestion metrics
		registry.MustRegister(IngestionRunsTotal)
		registry.MustRegister(IngestionDrawsTotal)
		registry.MustRegister(IngestionDuration)
		registry.MustRegister(IngestionLastSuccess)
		registry.MustRegister(DataSourceRequestsTotal)

		// Sequence model collectors live in the ml package
		registry.MustRegister(ml.TrainingRunsTotal)
		registry.MustRegister(ml.TrainingDuration)
		registry.MustRegister(ml.PredictionsTotal)
		registry.MustRegister(ml.CacheHitRatio)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordRecommendations records a batch of generated tickets.
func RecordRecommendations(game string, count int, durationSeconds float64) {
	RecommendationsTotal.WithLabelValues(game).Add(float64(count))
	RecommendationDuration.Observe(durationSeconds)
}
