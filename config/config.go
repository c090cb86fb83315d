// Package config provides configuration loading for the Huawei LTE exporter.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lte-dashboard/exporter/gateway"
	"github.com/lte-dashboard/exporter/logging"
)

// Config holds the application configuration.
type Config struct {
	// Gateway configuration
	Gateway GatewayConfig `yaml:"gateway"`

	// Metrics server configuration
	Metrics MetricsConfig `yaml:"metrics"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging"`
}

// GatewayConfig holds router connection settings.
type GatewayConfig struct {
	// URL is the base URL of the router
	URL string `yaml:"url"`

	// PollInterval is how often the net-mode selects are refreshed
	PollInterval time.Duration `yaml:"poll_interval"`

	// Timeout for router requests
	Timeout time.Duration `yaml:"timeout"`

	// Username for router authentication
	Username string `yaml:"username"`

	// Password for router authentication; changing net mode requires it
	Password string `yaml:"password"`

	// InsecureSkipVerify skips TLS certificate verification
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// MetricsConfig holds HTTP server settings.
type MetricsConfig struct {
	// Port to serve metrics and the select API on
	Port int `yaml:"port"`

	// Path for metrics endpoint
	Path string `yaml:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the log level (debug, info, warn, error)
	Level string `yaml:"level"`

	// Format is the log format (json, text)
	Format string `yaml:"format"`

	// File is an optional rotated log file
	File string `yaml:"file"`

	// MaxSizeMB is the size at which the log file is rotated
	MaxSizeMB int `yaml:"max_size_mb"`

	// MaxBackups is the number of rotated files kept
	MaxBackups int `yaml:"max_backups"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	gw := gateway.DefaultConfig()
	return Config{
		Gateway: GatewayConfig{
			URL:                gw.URL,
			PollInterval:       30 * time.Second,
			Timeout:            gw.Timeout,
			Username:           gw.Username,
			InsecureSkipVerify: gw.InsecureSkipVerify,
		},
		Metrics: MetricsConfig{
			Port: 9101,
			Path: "/metrics",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// LoadConfigFromEnv loads configuration from environment variables.
// Environment variables override values from the config file.
func LoadConfigFromEnv(cfg *Config) {
	if url := os.Getenv("HUAWEI_LTE_URL"); url != "" {
		cfg.Gateway.URL = url
	}

	if interval := os.Getenv("HUAWEI_LTE_POLL_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			cfg.Gateway.PollInterval = d
		}
	}

	if port := os.Getenv("HUAWEI_LTE_METRICS_PORT"); port != "" {
		var p int
		if _, err := fmt.Sscanf(port, "%d", &p); err == nil {
			cfg.Metrics.Port = p
		}
	}

	if username := os.Getenv("HUAWEI_LTE_USERNAME"); username != "" {
		cfg.Gateway.Username = username
	}

	if password := os.Getenv("HUAWEI_LTE_PASSWORD"); password != "" {
		cfg.Gateway.Password = password
	}

	if level := os.Getenv("HUAWEI_LTE_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}

	if format := os.Getenv("HUAWEI_LTE_LOG_FORMAT"); format != "" {
		cfg.Logging.Format = format
	}
}

// Validate checks settings that would otherwise fail late.
func (c *Config) Validate() error {
	if c.Gateway.URL == "" {
		return fmt.Errorf("gateway.url is required")
	}
	if c.Gateway.PollInterval <= 0 {
		return fmt.Errorf("gateway.poll_interval must be positive, got %s", c.Gateway.PollInterval)
	}
	if c.Metrics.Port <= 0 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port out of range: %d", c.Metrics.Port)
	}
	return nil
}

// ToGatewayConfig converts the config to a gateway.ClientConfig.
func (c *Config) ToGatewayConfig() gateway.ClientConfig {
	return gateway.ClientConfig{
		URL:                c.Gateway.URL,
		Timeout:            c.Gateway.Timeout,
		Username:           c.Gateway.Username,
		Password:           c.Gateway.Password,
		InsecureSkipVerify: c.Gateway.InsecureSkipVerify,
	}
}

// ToLoggingConfig converts the config to a logging.Config.
func (c *Config) ToLoggingConfig() logging.Config {
	return logging.Config{
		Level:      c.Logging.Level,
		Format:     c.Logging.Format,
		File:       c.Logging.File,
		MaxSizeMB:  c.Logging.MaxSizeMB,
		MaxBackups: c.Logging.MaxBackups,
	}
}
