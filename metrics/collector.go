// Package metrics provides Prometheus metric collection for Huawei LTE routers.
package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lte-dashboard/exporter/gateway"
	"github.com/lte-dashboard/exporter/netmode"
)

// Collector implements prometheus.Collector for router metrics.
type Collector struct {
	client  gateway.GatewayClient
	logger  *slog.Logger
	timeout time.Duration
	mu      sync.Mutex

	// Signal metrics
	rsrpDesc *prometheus.Desc
	rsrqDesc *prometheus.Desc
	sinrDesc *prometheus.Desc
	rssiDesc *prometheus.Desc

	// Cell metrics
	pciDesc    *prometheus.Desc
	cellIDDesc *prometheus.Desc
	bandDesc   *prometheus.Desc

	// Connection metrics
	connectionTypeDesc *prometheus.Desc

	// Net mode metrics
	netModeInfoDesc      *prometheus.Desc
	bandConfigurableDesc *prometheus.Desc

	// Scrape metrics
	scrapeSuccessDesc  *prometheus.Desc
	scrapeDurationDesc *prometheus.Desc
}

// NewCollector creates a new Collector with the given router client.
// Each scrape is bounded by timeout.
func NewCollector(client gateway.GatewayClient, timeout time.Duration, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	labels := []string{"model"}

	return &Collector{
		client:  client,
		logger:  logger,
		timeout: timeout,

		// Signal metrics
		rsrpDesc: prometheus.NewDesc(
			"huawei_lte_signal_rsrp",
			"Reference Signal Received Power in dBm",
			labels,
			nil,
		),
		rsrqDesc: prometheus.NewDesc(
			"huawei_lte_signal_rsrq",
			"Reference Signal Received Quality in dB",
			labels,
			nil,
		),
		sinrDesc: prometheus.NewDesc(
			"huawei_lte_signal_sinr",
			"Signal to Interference Noise Ratio in dB",
			labels,
			nil,
		),
		rssiDesc: prometheus.NewDesc(
			"huawei_lte_signal_rssi",
			"Received Signal Strength Indicator in dBm",
			labels,
			nil,
		),

		// Cell metrics
		pciDesc: prometheus.NewDesc(
			"huawei_lte_cell_pci",
			"Physical Cell ID",
			labels,
			nil,
		),
		cellIDDesc: prometheus.NewDesc(
			"huawei_lte_cell_id",
			"E-UTRAN cell identity",
			labels,
			nil,
		),
		bandDesc: prometheus.NewDesc(
			"huawei_lte_cell_band",
			"Current frequency band number",
			labels,
			nil,
		),

		// Connection metrics
		connectionTypeDesc: prometheus.NewDesc(
			"huawei_lte_connection_type",
			"Connection type (0=unknown, 1=2G, 2=3G, 3=LTE)",
			labels,
			nil,
		),

		// Net mode metrics
		netModeInfoDesc: prometheus.NewDesc(
			"huawei_lte_net_mode_info",
			"Preferred network mode and LTE band, always 1",
			[]string{"model", "network_mode", "lte_band"},
			nil,
		),
		bandConfigurableDesc: prometheus.NewDesc(
			"huawei_lte_band_configurable",
			"Whether the preferred LTE band can be chosen in the current network mode",
			labels,
			nil,
		),

		// Scrape metrics
		scrapeSuccessDesc: prometheus.NewDesc(
			"huawei_lte_scrape_success",
			"Whether the last scrape was successful",
			nil,
			nil,
		),
		scrapeDurationDesc: prometheus.NewDesc(
			"huawei_lte_scrape_duration_seconds",
			"Duration of the last scrape in seconds",
			nil,
			nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.rsrpDesc
	ch <- c.rsrqDesc
	ch <- c.sinrDesc
	ch <- c.rssiDesc
	ch <- c.pciDesc
	ch <- c.cellIDDesc
	ch <- c.bandDesc
	ch <- c.connectionTypeDesc
	ch <- c.netModeInfoDesc
	ch <- c.bandConfigurableDesc
	ch <- c.scrapeSuccessDesc
	ch <- c.scrapeDurationDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
		ch <- prometheus.MustNewConstMetric(c.scrapeDurationDesc, prometheus.GaugeValue, v)
	}))
	defer timer.ObserveDuration()

	ctx := context.Background()
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	status, err := c.client.GetStatus(ctx)
	if err != nil {
		c.logger.Error("Error collecting metrics", slog.Any("error", err))
		ch <- prometheus.MustNewConstMetric(c.scrapeSuccessDesc, prometheus.GaugeValue, 0)
		return
	}

	ch <- prometheus.MustNewConstMetric(c.scrapeSuccessDesc, prometheus.GaugeValue, 1)

	model := status.Model

	// Signal metrics
	ch <- prometheus.MustNewConstMetric(c.rsrpDesc, prometheus.GaugeValue, status.Signal.RSRP, model)
	ch <- prometheus.MustNewConstMetric(c.rsrqDesc, prometheus.GaugeValue, status.Signal.RSRQ, model)
	ch <- prometheus.MustNewConstMetric(c.sinrDesc, prometheus.GaugeValue, status.Signal.SINR, model)
	ch <- prometheus.MustNewConstMetric(c.rssiDesc, prometheus.GaugeValue, status.Signal.RSSI, model)

	// Cell metrics
	ch <- prometheus.MustNewConstMetric(c.pciDesc, prometheus.GaugeValue, float64(status.Cell.PCI), model)
	ch <- prometheus.MustNewConstMetric(c.cellIDDesc, prometheus.GaugeValue, float64(status.Cell.CellID), model)
	ch <- prometheus.MustNewConstMetric(c.bandDesc, prometheus.GaugeValue, float64(status.Cell.Band), model)

	ch <- prometheus.MustNewConstMetric(c.connectionTypeDesc, prometheus.GaugeValue, connectionType(status.Connection.Type), model)

	c.collectNetMode(ctx, ch, model)
}

// collectNetMode exports the preferred network mode and LTE band. A failed
// read only drops these series; the scrape itself still succeeds.
func (c *Collector) collectNetMode(ctx context.Context, ch chan<- prometheus.Metric, model string) {
	settings, err := c.client.NetModeSettings(ctx)
	if err != nil {
		c.logger.Warn("Error reading net mode", slog.Any("error", err))
		return
	}

	mode, ok := netmode.ReadNetworkMode(settings)
	configurable := netmode.BandConfigurable(mode, ok)

	configurableValue := 0.0
	if configurable {
		configurableValue = 1.0
	}
	ch <- prometheus.MustNewConstMetric(c.bandConfigurableDesc, prometheus.GaugeValue, configurableValue, model)

	if !ok {
		return
	}
	band := netmode.LTEBandAll
	if raw, found := settings.Lookup(netmode.KeyLTEBand); found && configurable {
		band = netmode.DecodeLTEBand(raw)
	}
	ch <- prometheus.MustNewConstMetric(c.netModeInfoDesc, prometheus.GaugeValue, 1, model, mode.Name(), band.Name())
}

func connectionType(t string) float64 {
	switch t {
	case "2G":
		return 1
	case "3G":
		return 2
	case "LTE":
		return 3
	default:
		return 0
	}
}

// Close releases resources held by the collector.
func (c *Collector) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
