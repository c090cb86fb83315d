// Huawei LTE Router Exporter
//
// This exporter collects signal metrics from Huawei LTE routers, exposes them
// in Prometheus format, and serves the router's preferred network mode and
// preferred LTE band as selectable settings over a JSON API.
//
// Usage:
//
//	huawei-lte-exporter [flags]
//
// Flags:
//
//	-config string    Path to config file (default: no config file)
//	-port int         Port to serve on (default: 9101)
//	-gateway string   Router URL (default: http://192.168.8.1)
//	-interval string  Select poll interval (default: 30s)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lte-dashboard/exporter/config"
	"github.com/lte-dashboard/exporter/gateway"
	"github.com/lte-dashboard/exporter/logging"
	"github.com/lte-dashboard/exporter/metrics"
	"github.com/lte-dashboard/exporter/selects"
	"github.com/lte-dashboard/exporter/web"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to config file")
	port := flag.Int("port", 0, "Port to serve on (default: 9101)")
	gatewayURL := flag.String("gateway", "", "Router URL (default: http://192.168.8.1)")
	interval := flag.String("interval", "", "Select poll interval (default: 30s)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("huawei-lte-exporter %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Load environment variables
	config.LoadConfigFromEnv(cfg)

	// Override with command line flags
	if *port != 0 {
		cfg.Metrics.Port = *port
	}
	if *gatewayURL != "" {
		cfg.Gateway.URL = *gatewayURL
	}
	if *interval != "" {
		if d, err := time.ParseDuration(*interval); err == nil {
			cfg.Gateway.PollInterval = d
		}
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	logger, logCloser := logging.New(cfg.ToLoggingConfig())
	defer logCloser.Close()
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Exporter failed", slog.Any("error", err))
		logCloser.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("Starting Huawei LTE Exporter",
		slog.String("version", version),
		slog.String("gateway_url", cfg.Gateway.URL),
		slog.Duration("poll_interval", cfg.Gateway.PollInterval),
		slog.Int("port", cfg.Metrics.Port))

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Create router client
	gwClient, err := gateway.NewClient(ctx, cfg.ToGatewayConfig(), logger)
	if err != nil {
		return fmt.Errorf("failed to create gateway client: %w", err)
	}

	logger.Info("Detected router model", slog.String("model", gwClient.GetModel()))

	// Create metrics collector; it closes the client on shutdown
	collector := metrics.NewCollector(gwClient, cfg.Gateway.Timeout, logger)
	defer func() {
		if err := collector.Close(); err != nil {
			logger.Warn("Error closing gateway client", slog.Any("error", err))
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collector)

	// Keep the net-mode selects current
	manager := selects.NewManager(gwClient, cfg.Gateway.Timeout, logger)
	go manager.Run(ctx, cfg.Gateway.PollInterval)

	// Create HTTP server
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/api/", web.NewHandler(manager, logger))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>
<head><title>Huawei LTE Exporter</title></head>
<body>
<h1>Huawei LTE Exporter</h1>
<p>Version: ` + version + `</p>
<p>Router: ` + cfg.Gateway.URL + `</p>
<p>Model: ` + gwClient.GetModel() + `</p>
<p><a href="` + cfg.Metrics.Path + `">Metrics</a></p>
<p><a href="/api/selects">Selects</a></p>
</body>
</html>`))
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2*cfg.Gateway.Timeout + 10*time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.Any("error", err))
		}
	}()

	// Start server
	logger.Info("Serving metrics", slog.String("url", fmt.Sprintf("http://localhost:%d%s", cfg.Metrics.Port, cfg.Metrics.Path)))
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}

	logger.Info("Exporter stopped")
	return nil
}
