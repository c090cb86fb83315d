package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "http://192.168.8.1", cfg.Gateway.URL)
	assert.Equal(t, "admin", cfg.Gateway.Username)
	assert.Equal(t, 30*time.Second, cfg.Gateway.PollInterval)
	assert.Equal(t, 9101, cfg.Metrics.Port)
	require.NoError(t, cfg.Validate())

	cfg, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
gateway:
  url: https://router.lan
  poll_interval: 1m
  password: hunter2
logging:
  level: debug
  format: json
  file: /var/log/exporter.log
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://router.lan", cfg.Gateway.URL)
	assert.Equal(t, time.Minute, cfg.Gateway.PollInterval)
	assert.Equal(t, 10*time.Second, cfg.Gateway.Timeout)

	gw := cfg.ToGatewayConfig()
	assert.Equal(t, "hunter2", gw.Password)
	assert.Equal(t, "admin", gw.Username)

	lc := cfg.ToLoggingConfig()
	assert.Equal(t, "debug", lc.Level)
	assert.Equal(t, "json", lc.Format)
	assert.Equal(t, "/var/log/exporter.log", lc.File)
	assert.Equal(t, 3, lc.MaxBackups)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gateway: ["), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("HUAWEI_LTE_URL", "http://10.0.0.1")
	t.Setenv("HUAWEI_LTE_POLL_INTERVAL", "15s")
	t.Setenv("HUAWEI_LTE_METRICS_PORT", "9200")
	t.Setenv("HUAWEI_LTE_PASSWORD", "secret")
	t.Setenv("HUAWEI_LTE_LOG_LEVEL", "warn")

	cfg := DefaultConfig()
	LoadConfigFromEnv(&cfg)
	assert.Equal(t, "http://10.0.0.1", cfg.Gateway.URL)
	assert.Equal(t, 15*time.Second, cfg.Gateway.PollInterval)
	assert.Equal(t, 9200, cfg.Metrics.Port)
	assert.Equal(t, "secret", cfg.Gateway.Password)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gateway.PollInterval = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Metrics.Port = 70000
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Gateway.URL = ""
	assert.Error(t, cfg.Validate())
}
