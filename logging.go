package shmbus

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/shmbus/shmbus/internal/telemetry"
)

// lifecycleLogger records construction, attach, and teardown events.
// It is never consulted from Produce or Consume — those stay on the
// mapped-memory fast path and must not make syscalls.
type lifecycleLogger struct {
	z *zap.Logger
}

func newTelemetryLogger() *lifecycleLogger {
	return &lifecycleLogger{z: telemetry.NewLogger(telemetry.DefaultLogConfig())}
}

func (l *lifecycleLogger) segmentCreated(name string, capacity, maxPayload, numConsumers uint32) {
	l.z.Info("segment created",
		zap.String("name", name),
		zap.Uint32("capacity", capacity),
		zap.Uint32("max_payload", maxPayload),
		zap.Uint32("num_consumers", numConsumers),
	)
}

func (l *lifecycleLogger) segmentAttached(name string) {
	l.z.Info("segment attached", zap.String("name", name))
}

func (l *lifecycleLogger) segmentClosed() {
	l.z.Info("segment closed")
}

func consumerIDLabel(id uint32) string {
	return strconv.FormatUint(uint64(id), 10)
}
