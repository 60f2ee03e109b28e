// Package ml provides Prometheus metrics for model training.
package ml

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TrainingRunsTotal tracks sequence model training runs
	TrainingRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ml_training_runs_total",
			Help: "Total number of sequence model training runs",
		},
		[]string{"game", "status"},
	)

	// TrainingDuration tracks training wall time
	TrainingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ml_training_duration_seconds",
			Help:    "Sequence model training duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"game"},
	)

	// PredictionsTotal tracks cached and fresh model predictions
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ml_predictions_total",
			Help: "Total number of sequence model predictions served",
		},
		[]string{"cache_hit"},
	)

	// CacheHitRatio tracks cache hit ratio
	CacheHitRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ml_cache_hit_ratio",
			Help: "Sequence model output cache hit ratio",
		},
	)
)
