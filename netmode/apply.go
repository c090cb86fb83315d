package netmode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lte-dashboard/exporter/logging"
)

var (
	// ErrFieldMissing is returned when the snapshot lacks a field needed to
	// resolve the value to write.
	ErrFieldMissing = errors.New("net-mode field missing")

	// ErrUnknownNetworkMode is returned when the router reports a network
	// mode code outside the known set.
	ErrUnknownNetworkMode = errors.New("unknown network mode")

	// ErrInvalidChange is returned when a Change carries a network mode or
	// LTE band outside the known set.
	ErrInvalidChange = errors.New("invalid net-mode change")
)

// Store reads and writes the router's combined net-mode endpoint.
type Store interface {
	// NetModeSettings fetches the current snapshot.
	NetModeSettings(ctx context.Context) (Settings, error)

	// SetNetMode writes all three fields at once.
	SetNetMode(ctx context.Context, lteBand LTEBand, networkBand NetworkBand, mode NetworkMode) error
}

// Change holds the fields to override. Nil fields keep the router's value.
type Change struct {
	NetworkMode *NetworkMode
	LTEBand     *LTEBand
}

// SetNetworkMode returns a Change overriding only the network mode.
func SetNetworkMode(m NetworkMode) Change {
	return Change{NetworkMode: &m}
}

// SetLTEBand returns a Change overriding only the LTE band.
func SetLTEBand(b LTEBand) Change {
	return Change{LTEBand: &b}
}

// Target is the triple written to the router.
type Target struct {
	LTEBand     LTEBand
	NetworkBand NetworkBand
	NetworkMode NetworkMode
}

// Merge resolves the value to write from the current snapshot and the
// requested change. The LTE band is forced to LTEBandAll whenever the
// effective mode does not allow band selection.
func Merge(current Settings, change Change) (Target, error) {
	if change.NetworkMode != nil && !change.NetworkMode.Valid() {
		return Target{}, fmt.Errorf("%w: network mode %q", ErrInvalidChange, string(*change.NetworkMode))
	}
	if change.LTEBand != nil && !change.LTEBand.Valid() {
		return Target{}, fmt.Errorf("%w: LTE band %s", ErrInvalidChange, change.LTEBand.Hex())
	}

	var mode NetworkMode
	if change.NetworkMode != nil {
		mode = *change.NetworkMode
	} else {
		raw, ok := current.Lookup(KeyNetworkMode)
		if !ok {
			return Target{}, fmt.Errorf("%w: %s", ErrFieldMissing, KeyNetworkMode)
		}
		m, known := ParseNetworkMode(raw)
		if !known {
			return Target{}, fmt.Errorf("%w: %q", ErrUnknownNetworkMode, raw)
		}
		mode = m
	}

	var band LTEBand
	switch {
	case !mode.BandConfigurable():
		band = LTEBandAll
	case change.LTEBand != nil:
		band = *change.LTEBand
	default:
		raw, ok := current.Lookup(KeyLTEBand)
		if !ok {
			return Target{}, fmt.Errorf("%w: %s", ErrFieldMissing, KeyLTEBand)
		}
		band = DecodeLTEBand(raw)
	}

	return Target{
		LTEBand:     band,
		NetworkBand: NetworkBandAll,
		NetworkMode: mode,
	}, nil
}

// Coordinator applies net-mode changes with one read and one write.
// Applies through the same Coordinator run one at a time; writers outside
// it are not detected and the last write wins.
type Coordinator struct {
	store  Store
	logger *slog.Logger

	mu sync.Mutex
}

// NewCoordinator creates a Coordinator. A nil logger uses slog.Default().
func NewCoordinator(store Store, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{store: store, logger: logger}
}

// Apply reads the current snapshot, merges change into it and writes the
// result back. A failed write is returned as the store reported it; nothing
// is retried.
func (c *Coordinator) Apply(ctx context.Context, change Change) (Target, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	logger := logging.FromContextOr(ctx, c.logger)

	current, err := c.store.NetModeSettings(ctx)
	if err != nil {
		return Target{}, fmt.Errorf("failed to read net mode: %w", err)
	}

	target, err := Merge(current, change)
	if err != nil {
		return Target{}, err
	}

	if change.LTEBand != nil && *change.LTEBand != target.LTEBand {
		logger.InfoContext(ctx, "LTE band not configurable in this network mode, using all bands",
			slog.String("requested", change.LTEBand.Name()),
			slog.String("network_mode", target.NetworkMode.Name()))
	}

	logger.DebugContext(ctx, "setting net mode",
		slog.String("network_mode", target.NetworkMode.Name()),
		slog.String("lte_band", target.LTEBand.Name()),
		slog.String("network_band", target.NetworkBand.Hex()))

	if err := c.store.SetNetMode(ctx, target.LTEBand, target.NetworkBand, target.NetworkMode); err != nil {
		return Target{}, err
	}

	return target, nil
}
