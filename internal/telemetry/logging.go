// Package telemetry provides the queue's lifecycle logging and
// metrics. The logger is only ever called from construction, attach,
// and teardown — Produce and Consume must stay on the mapped-memory
// fast path with no syscalls, and logging is a syscall. Metrics are
// different: the counters are plain atomic increments cheap enough to
// take on every Produce/Consume call; only the depth gauge is sampled
// separately, by whatever calls SampleDepth.
package telemetry

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig configures the lifecycle logger.
type LogConfig struct {
	Level       string // "debug", "info", "warn", "error"
	Development bool
}

// DefaultLogConfig returns production-ready logger configuration.
func DefaultLogConfig() LogConfig {
	return LogConfig{Level: "info"}
}

// NewLogger builds a zap logger for lifecycle events (segment created,
// attached, closed). On a bad level string it falls back to info level,
// and if the logger cannot be built it returns a no-op logger, rather
// than failing queue construction over a logging misconfiguration.
func NewLogger(cfg LogConfig) *zap.Logger {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Development,
		Encoding:         encodingFormat(cfg.Development),
		EncoderConfig:    encoderConfig(cfg.Development),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func encodingFormat(development bool) string {
	if development {
		return "console"
	}
	return "json"
}

func encoderConfig(development bool) zapcore.EncoderConfig {
	if development {
		return zapcore.EncoderConfig{
			TimeKey:        "T",
			LevelKey:       "L",
			NameKey:        "N",
			MessageKey:     "M",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
		}
	}
	return zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "message",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
	}
}
