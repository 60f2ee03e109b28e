package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistry(t *testing.T) {
	InitRegistry()
	registry := GetRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
	assert.Same(t, registry, InitRegistry())
}

func TestBacktestMetrics(t *testing.T) {
	InitRegistry()

	before := testutil.ToFloat64(BacktestRunsTotal.WithLabelValues("ssq", "success"))
	RecordBacktestRun("ssq", "success", 1.5)
	assert.Equal(t, before+1, testutil.ToFloat64(BacktestRunsTotal.WithLabelValues("ssq", "success")))

	RecordBacktestSkip("ssq", "ML_auto", "model_not_trainable")
	RecordBacktestSkip("ssq", "ML_auto", "model_not_trainable")
	assert.GreaterOrEqual(t, testutil.ToFloat64(BacktestSkipsTotal.WithLabelValues("ssq", "ML_auto", "model_not_trainable")), 2.0)

	UpdateHitRate("ssq", "BASE_global", 6, 0.18)
	assert.Equal(t, 0.18, testutil.ToFloat64(BacktestHitRate.WithLabelValues("ssq", "BASE_global", "6")))

	assert.NotPanics(t, func() {
		RecordBacktestPeriod("ssq")
		RecordBacktestFallback("ssq", "ML_fixed")
	})
}

func TestIngestionMetrics(t *testing.T) {
	InitRegistry()

	RecordIngestionRun("kl8", "success", 2*time.Second)
	assert.Greater(t, testutil.ToFloat64(IngestionLastSuccess.WithLabelValues("kl8")), 0.0)

	before := testutil.ToFloat64(IngestionDrawsTotal.WithLabelValues("kl8", "stored"))
	RecordIngestedDraws("kl8", "stored", 30)
	RecordIngestedDraws("kl8", "stored", 0)
	assert.Equal(t, before+30, testutil.ToFloat64(IngestionDrawsTotal.WithLabelValues("kl8", "stored")))

	RecordDataSourceRequest("cwl", "200")
}

func TestRegistryGathers(t *testing.T) {
	InitRegistry()
	RecordBacktestRun("kl8", "failure", 0.2)
	RecordRecommendations("kl8", 5, 0.01)

	families, err := GetRegistry().Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["lotto_backtest_backtest_runs_total"])
	assert.True(t, names["lotto_backtest_recommendations_total"])
}

func TestMetricsHandler(t *testing.T) {
	InitRegistry()
	RecordRecommendations("ssq", 1, 0.01)

	handler := Handler()
	assert.Implements(t, (*http.Handler)(nil), handler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "lotto_backtest_recommendations_total"))
}

func BenchmarkRecordBacktestPeriod(b *testing.B) {
	InitRegistry()

	for i := 0; i < b.N; i++ {
		RecordBacktestPeriod("ssq")
	}
}
