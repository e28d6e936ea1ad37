package config

import "time"

const (
	DefaultBaseURL        = "http://127.0.0.1:8000/api/v1"
	DefaultTimeout        = 30 * time.Second
	DefaultRenewalTimeout = 15 * time.Second
	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisKeyPrefix = "stockportal:credentials:"
)

// DefaultExemptPaths are the credential endpoints.
var DefaultExemptPaths = []string{"/token/", "/token/refresh/"}

// GetDefaultConfig returns the configuration used when no file exists.
func GetDefaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL:        DefaultBaseURL,
			Timeout:        DefaultTimeout,
			RenewalTimeout: DefaultRenewalTimeout,
			ExemptPaths:    append([]string(nil), DefaultExemptPaths...),
		},
		Storage: StorageConfig{
			Backend: StorageFile,
			Redis: RedisConfig{
				Addr:      DefaultRedisAddr,
				KeyPrefix: DefaultRedisKeyPrefix,
			},
		},
	}
}
