package logging

import (
	"strings"

	"go.uber.org/zap"
)

// New builds a debug-level zap logger. mode "prod" selects JSON output,
// anything else the console encoder. When enabled is false a no-op logger is returned.
func New(enabled bool, mode string) (*zap.Logger, error) {
	if !enabled {
		return zap.NewNop(), nil
	}
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	// stdout carries cleaned tables
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
