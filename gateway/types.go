// Package gateway provides types and a client for the Huawei LTE router HTTP API.
package gateway

import (
	"context"

	"github.com/lte-dashboard/exporter/netmode"
)

// SignalMetrics contains the signal quality metrics from the router.
type SignalMetrics struct {
	// RSRP - Reference Signal Received Power (dBm)
	// Typical range: -140 to -44 dBm
	RSRP float64

	// RSRQ - Reference Signal Received Quality (dB)
	// Typical range: -20 to -3 dB
	RSRQ float64

	// SINR - Signal to Interference Noise Ratio (dB)
	// Typical range: -20 to 30 dB
	SINR float64

	// RSSI - Received Signal Strength Indicator (dBm)
	// Typical range: -120 to -25 dBm
	RSSI float64
}

// CellInfo contains information about the serving cell.
type CellInfo struct {
	// PCI - Physical Cell ID
	PCI int64

	// CellID - E-UTRAN cell identity
	CellID int64

	// Band - Current frequency band number
	Band int64

	// Bandwidth - Downlink channel bandwidth
	Bandwidth string
}

// ConnectionInfo contains the radio access technology in use.
type ConnectionInfo struct {
	// Type - Connection type (2G, 3G, LTE)
	Type string
}

// GatewayStatus contains all metrics from the router.
type GatewayStatus struct {
	Signal     SignalMetrics
	Cell       CellInfo
	Connection ConnectionInfo

	// Model contains the router model, e.g. B525s-23a
	Model string
}

// ModelUnknown is reported when the router does not disclose its model.
const ModelUnknown = "unknown"

// GatewayClient is what the exporter needs from a router.
type GatewayClient interface {
	netmode.Store

	// GetStatus retrieves the current signal metrics.
	GetStatus(ctx context.Context) (*GatewayStatus, error)

	// GetModel returns the router model.
	GetModel() string

	// Close logs out and releases any resources held by the client.
	Close() error
}
