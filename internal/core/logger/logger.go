package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the service logger. Format "json" switches to the
// production encoder; anything else keeps the development console output.
// outputPaths replaces stderr, which the terminal viewer needs for itself.
func NewLogger(level, format string, outputPaths ...string) (*zap.Logger, error) {
	loggerConfig := zap.NewDevelopmentConfig()
	if format == "json" {
		loggerConfig = zap.NewProductionConfig()
	}
	loggerConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if len(outputPaths) > 0 {
		loggerConfig.OutputPaths = outputPaths
		loggerConfig.ErrorOutputPaths = outputPaths
	}

	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		loggerConfig.Level = zap.NewAtomicLevelAt(lvl)
	}

	logger, err := loggerConfig.Build()
	if nil != err {
		return nil, err
	}

	return logger.With(zap.String("service", "imsystem")), nil
}

// MustNewLogger is NewLogger for command setup where a logger is required.
func MustNewLogger(level, format string) *zap.Logger {
	logger, err := NewLogger(level, format)
	if nil != err {
		panic(err)
	}
	return logger
}
