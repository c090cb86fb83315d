package selects

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lte-dashboard/exporter/logging"
	"github.com/lte-dashboard/exporter/netmode"
)

// ErrUnknownSelect is returned for items no select is registered for.
var ErrUnknownSelect = errors.New("unknown select")

// Manager polls the router's net-mode endpoint and keeps every select
// up to date. Refreshes and option changes run one at a time, so snapshots
// are applied in the order they were read.
type Manager struct {
	store   netmode.Store
	logger  *slog.Logger
	timeout time.Duration
	selects []*Select

	mu sync.Mutex
}

// NewManager creates a Manager with both net-mode selects.
func NewManager(store netmode.Store, timeout time.Duration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	coord := netmode.NewCoordinator(store, logger)
	return &Manager{
		store:   store,
		logger:  logger,
		timeout: timeout,
		selects: []*Select{
			NewNetworkModeSelect(coord, logger),
			NewLTEBandSelect(coord, logger),
		},
	}
}

// Refresh reads one snapshot and updates every select from it. When the
// read fails all selects become unavailable and the error is returned.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refresh(ctx)
}

func (m *Manager) refresh(ctx context.Context) error {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	snapshot, err := m.store.NetModeSettings(ctx)
	if err != nil {
		for _, s := range m.selects {
			s.MarkUnavailable()
		}
		return fmt.Errorf("failed to read net mode: %w", err)
	}

	for _, s := range m.selects {
		s.Update(snapshot)
	}
	return nil
}

func (m *Manager) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.timeout > 0 {
		return context.WithTimeout(ctx, m.timeout)
	}
	return context.WithCancel(ctx)
}

// Run refreshes the selects every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := m.Refresh(ctx); err != nil && ctx.Err() == nil {
			m.logger.WarnContext(ctx, "Error refreshing selects", slog.Any("error", err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Select returns the select backed by item.
func (m *Manager) Select(item string) (*Select, bool) {
	for _, s := range m.selects {
		if s.Item() == item {
			return s, true
		}
	}
	return nil, false
}

// SelectOption applies option to the select backed by item, then refreshes
// so the router's new state is shown.
func (m *Manager) SelectOption(ctx context.Context, item, option string) error {
	s, ok := m.Select(item)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSelect, item)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	applyCtx, cancel := m.withTimeout(ctx)
	err := s.SelectOption(applyCtx, option)
	cancel()
	if err != nil {
		return err
	}

	logger := logging.FromContextOr(ctx, m.logger)
	logger.InfoContext(ctx, "Option selected", slog.String("item", item), slog.String("option", option))

	if err := m.refresh(ctx); err != nil {
		logger.WarnContext(ctx, "Error refreshing selects after change", slog.Any("error", err))
	}
	return nil
}

// States returns the state of every select.
func (m *Manager) States() []State {
	states := make([]State, 0, len(m.selects))
	for _, s := range m.selects {
		states = append(states, s.State())
	}
	return states
}
