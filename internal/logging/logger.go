// Package logging provides zap logger helpers.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// L is the process-global logger. It starts as a no-op and is replaced by
// InitLogger at startup.
var L = zap.NewNop()

// InitLogger builds the global logger. Called at startup, and again once
// configuration is loaded so the configured mode takes effect.
func InitLogger(development bool) {
	logger, err := New(development)
	if err != nil {
		// Logging must never take the process down; keep the no-op.
		return
	}
	L = logger
	zap.ReplaceGlobals(logger)
}

// New builds a zap.Logger configured for development or production.
func New(development bool) (*zap.Logger, error) {
	if development {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		logger, err := cfg.Build()
		if err != nil {
			return nil, fmt.Errorf("build dev logger: %w", err)
		}
		return logger, nil
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = false
	cfg.EncoderConfig.TimeKey = "ts"
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build prod logger: %w", err)
	}
	return logger, nil
}
