// Package logger builds the zap loggers shared by the storages and the CLI.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New constructs a production Sugared Logger that writes to stdout, or to
// outputPaths when given, and provides human-readable timestamps.
func New(service string, outputPaths ...string) *zap.SugaredLogger {
	return NewWithLevel(service, "info", outputPaths...)
}

// NewWithLevel is New with an explicit minimum level ("debug", "info", "warn",
// "error"). Unknown levels fall back to info.
func NewWithLevel(service, level string, outputPaths ...string) *zap.SugaredLogger {
	config := zap.NewProductionConfig()

	config.OutputPaths = []string{"stdout"}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.DisableStacktrace = true
	config.InitialFields = map[string]any{
		"service": service,
	}

	if lvl, err := zapcore.ParseLevel(level); err == nil {
		config.Level = zap.NewAtomicLevelAt(lvl)
	}

	if len(outputPaths) > 0 {
		config.OutputPaths = outputPaths
	}

	log, err := config.Build(zap.WithCaller(true))
	if err != nil {
		return zap.NewNop().Sugar()
	}

	return log.Sugar()
}

// NewNop returns a logger that discards everything. Used by tests.
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
