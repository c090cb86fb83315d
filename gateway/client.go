package gateway

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"time"
)

// ClientConfig contains configuration for connecting to a router.
type ClientConfig struct {
	// URL is the base URL of the router (e.g., http://192.168.8.1)
	URL string

	// Timeout for HTTP requests
	Timeout time.Duration

	// Username for authentication (if required)
	Username string

	// Password for authentication (if required)
	Password string

	// InsecureSkipVerify skips TLS certificate verification
	InsecureSkipVerify bool
}

// DefaultConfig returns a ClientConfig with default values.
func DefaultConfig() ClientConfig {
	return ClientConfig{
		URL:                "http://192.168.8.1",
		Username:           "admin",
		Timeout:            10 * time.Second,
		InsecureSkipVerify: true,
	}
}

// NewClient connects to the router: it opens a session, logs in when a
// password is configured and detects the router model.
func NewClient(ctx context.Context, cfg ClientConfig, logger *slog.Logger) (*HuaweiClient, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("router URL is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	httpClient := &http.Client{
		Timeout: cfg.Timeout,
		Jar:     jar,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.InsecureSkipVerify,
			},
		},
	}

	client, err := NewHuaweiClient(cfg, httpClient, logger)
	if err != nil {
		return nil, err
	}

	if err := client.openSession(ctx); err != nil {
		return nil, fmt.Errorf("failed to open session at %s: %w", cfg.URL, err)
	}

	if cfg.Password != "" {
		if err := client.login(ctx); err != nil {
			return nil, fmt.Errorf("failed to log in: %w", err)
		}
	}

	client.detectModel(ctx)
	return client, nil
}
