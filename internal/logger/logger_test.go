package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	log := NewJSONLogger("debug", buf)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	if err != nil {
		return nil
	}
	return logEntry
}

func TestNewLoggerLevel(t *testing.T) {
	assert.Equal(t, logrus.WarnLevel, NewLogger("warn").GetLevel())
	assert.Equal(t, logrus.InfoLevel, NewLogger("not-a-level").GetLevel())

	_, buf := setupTestLogger()
	log := NewJSONLogger("info", buf)
	log.Debug("hidden")
	assert.Empty(t, buf.String())
}

func TestBacktestLoggerRunStart(t *testing.T) {
	log, buf := setupTestLogger()
	bl := NewBacktestLogger(log, "run-1", "ssq")

	bl.LogRunStart(10, 200, []string{"BASE_global", "ML_auto"}, 4)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "backtest", logEntry["component"])
	assert.Equal(t, "run-1", logEntry["run_id"])
	assert.Equal(t, "ssq", logEntry["game"])
	assert.Equal(t, float64(4), logEntry["workers"])
	assert.Equal(t, "info", logEntry["level"])
}

func TestBacktestLoggerPeriodSkip(t *testing.T) {
	log, buf := setupTestLogger()
	bl := NewBacktestLogger(log, "run-1", "kl8")

	bl.LogPeriodSkip(42, "ML_fixed", "model_not_trainable", errors.New("window too short"))

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, float64(42), logEntry["target_index"])
	assert.Equal(t, "ML_fixed", logEntry["strategy"])
	assert.Equal(t, "window too short", logEntry["error"])
}

func TestBacktestLoggerPeriodSkipOmitsEmptyStrategy(t *testing.T) {
	log, buf := setupTestLogger()
	NewBacktestLogger(log, "run-1", "kl8").LogPeriodSkip(3, "", "insufficient_history", errors.New("short"))

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	_, ok := logEntry["strategy"]
	assert.False(t, ok)
}

func TestBacktestLoggerRunComplete(t *testing.T) {
	log, buf := setupTestLogger()
	NewBacktestLogger(log, "run-2", "ssq").LogRunComplete(190, 1900, 3, 12, 1500*time.Millisecond)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, float64(1500), logEntry["duration_ms"])
	assert.Equal(t, float64(12), logEntry["fallbacks"])
}

func TestMLLoggerFallback(t *testing.T) {
	log, buf := setupTestLogger()
	mlLogger := NewMLLogger(log)

	mlLogger.LogFallback("ssq", 7, "ML_auto", errors.New("not trainable"))

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "ml", logEntry["component"])
	assert.Equal(t, "ML_auto", logEntry["strategy"])
}

func TestMLLoggerTrainingComplete(t *testing.T) {
	log, buf := setupTestLogger()
	NewMLLogger(log).LogTrainingComplete("kl8", 99, 0.42, 2*time.Second)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, 0.42, logEntry["loss"])
	assert.Equal(t, float64(2), logEntry["training_duration"])
}

func TestAuditLoggerDrawsStored(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogDrawsStored("ssq", 30, 2, "2024001", "2024030")

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "audit", logEntry["component"])
	assert.Equal(t, "2024030", logEntry["last_period"])
}

func TestAuditLoggerDuplicatePeriod(t *testing.T) {
	log, buf := setupTestLogger()
	NewAuditLogger(log).LogDuplicatePeriod("kl8", "2024100")

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "warning", logEntry["level"])
}
