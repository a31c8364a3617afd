package main

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultLogLevel = "warn"

// newLogger builds a logger writing to w. Development loggers use the
// console encoder, others emit JSON lines.
func newLogger(w io.Writer, level string, development bool) (*zap.Logger, error) {
	if level == "" {
		level = defaultLogLevel
	}

	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	config := zap.NewProductionConfig()
	encoder := zapcore.NewJSONEncoder(config.EncoderConfig)

	if development {
		config = zap.NewDevelopmentConfig()
		encoder = zapcore.NewConsoleEncoder(config.EncoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), zap.NewAtomicLevelAt(lvl))

	return zap.New(core), nil
}
