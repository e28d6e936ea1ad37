package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte(content), 0644))
}

func TestLoadConfig_DefaultsWhenMissing(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvStorage, "")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), cfg)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvStorage, "")

	dir := t.TempDir()
	writeConfig(t, dir, `
api:
  baseURL: https://portal.example.com/api/v1
  timeout: 5s
storage:
  backend: redis
  redis:
    addr: redis.internal:6380
    db: 2
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://portal.example.com/api/v1", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, DefaultRenewalTimeout, cfg.API.RenewalTimeout, "unset fields keep defaults")
	assert.Equal(t, DefaultExemptPaths, cfg.API.ExemptPaths)
	assert.Equal(t, StorageRedis, cfg.Storage.Backend)
	assert.Equal(t, "redis.internal:6380", cfg.Storage.Redis.Addr)
	assert.Equal(t, 2, cfg.Storage.Redis.DB)
	assert.Equal(t, DefaultRedisKeyPrefix, cfg.Storage.Redis.KeyPrefix)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "api:\n  baseURL: http://file.example/api/v1\n")

	t.Setenv(EnvAPIURL, "http://env.example/api/v1")
	t.Setenv(EnvStorage, "MEMORY")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "http://env.example/api/v1", cfg.API.BaseURL)
	assert.Equal(t, StorageMemory, cfg.Storage.Backend)
}

func TestLoadConfig_Malformed(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvStorage, "")

	dir := t.TempDir()
	writeConfig(t, dir, "api: [not, a, map")

	_, err := LoadConfig(dir)
	assert.ErrorContains(t, err, "error loading config from")
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvStorage, "")

	dir := t.TempDir()
	writeConfig(t, dir, "storage:\n  backend: floppy\n")

	_, err := LoadConfig(dir)
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, "storage.backend", verrs[0].Field)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvStorage, "")

	dir := filepath.Join(t.TempDir(), "nested")
	cfg := GetDefaultConfig()
	cfg.API.BaseURL = "http://portal.test/api/v1"
	cfg.Storage.Backend = StorageMemory

	require.NoError(t, SaveConfig(dir, cfg))

	info, err := os.Stat(filepath.Join(dir, configFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestDefaultConfigPath(t *testing.T) {
	original := osUserHomeDir
	defer func() { osUserHomeDir = original }()

	osUserHomeDir = func() (string, error) { return "/home/tester", nil }
	path, err := DefaultConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/tester", ".config", "stockportal"), path)
	assert.Equal(t, path, GetDefaultConfigPathOrPanic())

	osUserHomeDir = func() (string, error) { return "", errors.New("no home") }
	_, err = DefaultConfigPath()
	assert.Error(t, err)
	assert.Panics(t, func() { GetDefaultConfigPathOrPanic() })
}
