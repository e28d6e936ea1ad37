package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"stockportal/pkg/logging"
)

const (
	userConfigDir  = ".config/stockportal"
	configFileName = "config.yaml"

	// EnvAPIURL overrides api.baseURL.
	EnvAPIURL = "STOCKPORTAL_API_URL"
	// EnvStorage overrides storage.backend.
	EnvStorage = "STOCKPORTAL_STORAGE"
)

// osUserHomeDir is replaced in tests.
var osUserHomeDir = os.UserHomeDir

// DefaultConfigPath returns ~/.config/stockportal.
func DefaultConfigPath() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

func GetDefaultConfigPathOrPanic() string {
	path, err := DefaultConfigPath()
	if err != nil {
		panic(err)
	}
	return path
}

// LoadConfig loads config.yaml from configPath on top of the defaults and
// applies environment overrides. The result is validated.
func LoadConfig(configPath string) (Config, error) {
	config := GetDefaultConfig()
	configFilePath := filepath.Join(configPath, configFileName)

	data, err := os.ReadFile(configFilePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logging.Debug("Config", "No config.yaml found at %s, using defaults", configFilePath)
	case err != nil:
		return Config{}, fmt.Errorf("error reading config from %s: %w", configFilePath, err)
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return Config{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
		}
		logging.Debug("Config", "Loaded configuration from %s", configFilePath)
	}

	applyEnv(&config)

	if err := config.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration in %s: %w", configFilePath, err)
	}
	return config, nil
}

// SaveConfig writes config to configPath/config.yaml.
func SaveConfig(configPath string, config Config) error {
	if err := os.MkdirAll(configPath, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(&config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(filepath.Join(configPath, configFileName), data, 0600)
}

func applyEnv(config *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		logging.Debug("Config", "Using %s from environment", EnvAPIURL)
		config.API.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvStorage)); v != "" {
		logging.Debug("Config", "Using %s from environment", EnvStorage)
		config.Storage.Backend = StorageBackend(strings.ToLower(v))
	}
}
