package config

import "time"

// StorageBackend selects where credentials are persisted.
type StorageBackend string

const (
	StorageFile   StorageBackend = "file"
	StorageMemory StorageBackend = "memory"
	StorageRedis  StorageBackend = "redis"
)

// Config is the top-level configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
}

// APIConfig describes how to reach the portal.
type APIConfig struct {
	// BaseURL is the API root, e.g. http://127.0.0.1:8000/api/v1.
	BaseURL string `yaml:"baseURL"`

	// Timeout bounds each HTTP call.
	Timeout time.Duration `yaml:"timeout"`

	// RenewalTimeout bounds a single credential renewal.
	RenewalTimeout time.Duration `yaml:"renewalTimeout"`

	// ExemptPaths are path suffixes whose 401 responses are never renewed.
	ExemptPaths []string `yaml:"exemptPaths,omitempty"`
}

// StorageConfig describes the credential storage backend.
type StorageConfig struct {
	Backend StorageBackend `yaml:"backend"`

	// Dir is the file backend directory. Empty selects
	// ~/.config/stockportal/credentials.
	Dir string `yaml:"dir,omitempty"`

	Redis RedisConfig `yaml:"redis,omitempty"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password,omitempty"`
	DB        int    `yaml:"db,omitempty"`
	KeyPrefix string `yaml:"keyPrefix,omitempty"`
}
