package core

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultLogLevel keeps interactive use quiet; standard error is shared with
// the frontends.
const DefaultLogLevel = "warn"

// Init initializes zap's global logger
// After calling this, we use zap.L() directly.
// Logs always go to stderr: stdout carries plugin output.
func Init(level string, pretty bool) error {
	var config zap.Config

	if pretty {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		config.Sampling = nil
	}

	if level == "" {
		level = DefaultLogLevel
	}
	atomicLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	config.Level = atomicLevel
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	logger, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	zap.ReplaceGlobals(logger)
	return nil
}

// LogPluginInvocation logs a plugin operation using zap's global logger.
// Failures are returned to the caller and reported by the CLI, so they are
// only logged at info level; cancellations at debug.
func LogPluginInvocation(plugin, operation string, duration float64, err error) {
	fields := []zap.Field{
		zap.String("plugin", plugin),
		zap.String("operation", operation),
		zap.Float64("duration_seconds", duration),
		zap.Bool("success", err == nil),
	}

	switch {
	case err == nil:
		zap.L().Debug("Plugin invocation completed", fields...)
	case errors.Is(err, ErrCancelled):
		zap.L().Debug("Plugin invocation cancelled", fields...)
	default:
		fields = append(fields, zap.Error(err))
		zap.L().Info("Plugin invocation failed", fields...)
	}
}
