package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAMLConfig(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
port: 9100
api_keys:
  - sk-test-1
  - sk-test-2
bedrock_endpoint: http://localhost:4566
storage_backend: file
storage_base_dir: /tmp/stdapi
`)

	cm, err := NewConfigManager(path)
	require.NoError(t, err)
	defer cm.Stop()

	cfg := cm.GetConfig()
	require.Equal(t, 9100, cfg.Port)
	require.Equal(t, []string{"sk-test-1", "sk-test-2"}, cfg.APIKeys)
	require.Equal(t, "http://localhost:4566", cfg.BedrockEndpoint)
	require.Equal(t, "file", cfg.StorageBackend)

	// Defaults fill in what the file omits.
	require.Equal(t, "0.0.0.0", cfg.Host)
	require.Equal(t, 120, cfg.InvokeTimeoutSec)
	require.Equal(t, "memory", cm.defaultConfig().StorageBackend)
}

func TestLoadJSONConfig(t *testing.T) {
	path := writeConfig(t, "config.json", `{"port": 9200, "debug": true}`)

	cm, err := NewConfigManager(path)
	require.NoError(t, err)
	defer cm.Stop()

	cfg := cm.GetConfig()
	require.Equal(t, 9200, cfg.Port)
	require.True(t, cfg.Debug)
}

func TestMissingFileFallsBackToDefaults(t *testing.T) {
	cm, err := NewConfigManager(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	defer cm.Stop()

	cfg := cm.GetConfig()
	require.Equal(t, 8000, cfg.Port)
	require.Equal(t, "memory", cfg.StorageBackend)
	require.Equal(t, 1500, cfg.TranscribePollMs)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9300")
	t.Setenv("API_KEYS", "sk-a, sk-b ,")
	t.Setenv("STORAGE_BACKEND", "Redis")
	t.Setenv("PUBLIC_BASE_URL", "https://gw.example.com/")

	path := writeConfig(t, "config.yaml", "port: 9100\n")
	cm, err := NewConfigManager(path)
	require.NoError(t, err)
	defer cm.Stop()

	cfg := cm.GetConfig()
	require.Equal(t, 9300, cfg.Port)
	require.Equal(t, []string{"sk-a", "sk-b"}, cfg.APIKeys)
	require.Equal(t, "redis", cfg.StorageBackend)
	require.Equal(t, "https://gw.example.com", cfg.PublicBaseURL)
}

func TestInvalidEnvPortIgnored(t *testing.T) {
	t.Setenv("PORT", "not-a-port")

	cm, err := NewConfigManager(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	defer cm.Stop()

	require.Equal(t, 8000, cm.GetConfig().Port)
}

func TestGetConfigReturnsCopy(t *testing.T) {
	cm, err := NewConfigManager(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	defer cm.Stop()

	a := cm.GetConfig()
	a.Port = 1
	require.Equal(t, 8000, cm.GetConfig().Port)
}
