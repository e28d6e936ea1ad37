package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"stockportal/internal/config"
	"stockportal/pkg/logging"
)

// Application owns the configuration and the wired services for one run.
type Application struct {
	config   *Config
	services *Services
}

// NewApplication configures logging, loads the configuration (unless
// cfg.Portal is already set) and initializes all services.
func NewApplication(cfg *Config) (*Application, error) {
	return newApplication(cfg, os.Stderr)
}

func newApplication(cfg *Config, logOutput io.Writer) (*Application, error) {
	logging.InitForCLI(cfg.LogLevel, logOutput)

	if cfg.Portal == nil {
		configPath := cfg.ConfigPath
		if configPath == "" {
			var err error
			configPath, err = config.DefaultConfigPath()
			if err != nil {
				return nil, err
			}
		}

		portalCfg, err := config.LoadConfig(configPath)
		if err != nil {
			logging.Error("Bootstrap", err, "Failed to load configuration from %s", configPath)
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg.Portal = &portalCfg
	}

	services, err := InitializeServices(*cfg.Portal)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

// Services returns the wired services.
func (a *Application) Services() *Services {
	return a.services
}

// Config returns the loaded portal configuration.
func (a *Application) Config() config.Config {
	return *a.config.Portal
}

// Init restores the previous session from storage.
func (a *Application) Init(ctx context.Context) error {
	return a.services.Auth.Init(ctx)
}

// Close releases resources held by the services.
func (a *Application) Close() error {
	return a.services.Close()
}
