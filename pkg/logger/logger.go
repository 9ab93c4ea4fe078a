package logger

import (
	"go.uber.org/zap"
)

// LoggerConfig controls logger construction.
type LoggerConfig struct {
	Debug bool
}

// NewLogger creates a zap logger. Debug builds a development logger with
// console output and DEBUG level; otherwise a production JSON logger.
func NewLogger(cfg *LoggerConfig) (*zap.Logger, error) {
	if cfg != nil && cfg.Debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
