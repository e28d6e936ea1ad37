package app

import (
	"stockportal/internal/config"
	"stockportal/pkg/logging"
)

// Config holds the application configuration
type Config struct {
	// LogLevel is the minimum level written to the log output.
	LogLevel logging.LogLevel

	// ConfigPath is the configuration directory. Empty selects the default.
	ConfigPath string

	// Portal is the loaded configuration. When set, loading is skipped.
	Portal *config.Config
}

// NewConfig creates a new application configuration
func NewConfig(level logging.LogLevel, configPath string) *Config {
	return &Config{
		LogLevel:   level,
		ConfigPath: configPath,
	}
}
