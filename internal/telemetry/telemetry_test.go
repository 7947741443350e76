package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegistersDistinctCollectors(t *testing.T) {
	m := NewMetrics("test-queue-" + t.Name())
	require.NotNil(t, m)
	m.MessagesProduced.Inc()
	m.MessagesDropped.Inc()
	m.MessagesConsumed.WithLabelValues("0").Inc()
	m.ConsumerDepth.WithLabelValues("0").Set(3)
}

func TestNewLoggerFallsBackOnBadLevel(t *testing.T) {
	logger := NewLogger(LogConfig{Level: "not-a-level"})
	assert.NotNil(t, logger)
	logger.Info("smoke test")
}
