// Package selects exposes the router's net-mode settings as selectable
// options with a fixed option list, a current value and an availability
// flag recomputed from every polled snapshot.
package selects

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/lte-dashboard/exporter/netmode"
)

// KeyNetMode is the router endpoint backing both selects.
const KeyNetMode = "net/net-mode"

// ErrInvalidOption is returned when an option is not in the select's list.
var ErrInvalidOption = errors.New("invalid option")

// Description describes one select.
type Description struct {
	Key     string
	Item    string
	Name    string
	Options []string

	// Available decides from the snapshot whether the select can be shown.
	Available func(netmode.Settings) bool
	// Set applies an option.
	Set func(ctx context.Context, option string) error
	// State converts the raw field value into an option. ok is false when
	// the value has no option.
	State func(raw string) (option string, ok bool)
}

// State is what a select currently shows.
type State struct {
	Item      string   `json:"item"`
	Name      string   `json:"name"`
	Options   []string `json:"options"`
	Available bool     `json:"available"`
	Current   string   `json:"current,omitempty"`
}

// Select is a selectable setting backed by one field of a device endpoint.
type Select struct {
	desc   Description
	logger *slog.Logger

	mu        sync.RWMutex
	available bool
	current   string
}

// New creates a Select. It is unavailable until the first Update.
func New(desc Description, logger *slog.Logger) *Select {
	if logger == nil {
		logger = slog.Default()
	}
	return &Select{
		desc:   desc,
		logger: logger.With(slog.String("select", desc.Key+"."+desc.Item)),
	}
}

// NewNetworkModeSelect creates the "Preferred network mode" select.
func NewNetworkModeSelect(coord *netmode.Coordinator, logger *slog.Logger) *Select {
	return New(Description{
		Key:       KeyNetMode,
		Item:      netmode.KeyNetworkMode,
		Name:      "Preferred network mode",
		Options:   netmode.NetworkModeNames(),
		Available: func(netmode.Settings) bool { return true },
		Set: func(ctx context.Context, option string) error {
			mode, ok := netmode.NetworkModeFromName(option)
			if !ok {
				return fmt.Errorf("%w: %q", ErrInvalidOption, option)
			}
			_, err := coord.Apply(ctx, netmode.SetNetworkMode(mode))
			return err
		},
		State: func(raw string) (string, bool) {
			mode, ok := netmode.ParseNetworkMode(raw)
			if !ok {
				return "", false
			}
			return mode.Name(), true
		},
	}, logger)
}

// NewLTEBandSelect creates the "Preferred LTE band" select. It is only
// available while the router's network mode allows band selection.
func NewLTEBandSelect(coord *netmode.Coordinator, logger *slog.Logger) *Select {
	return New(Description{
		Key:     KeyNetMode,
		Item:    netmode.KeyLTEBand,
		Name:    "Preferred LTE band",
		Options: netmode.LTEBandNames(),
		Available: func(s netmode.Settings) bool {
			return netmode.BandConfigurable(netmode.ReadNetworkMode(s))
		},
		Set: func(ctx context.Context, option string) error {
			band, ok := netmode.LTEBandFromName(option)
			if !ok {
				return fmt.Errorf("%w: %q", ErrInvalidOption, option)
			}
			_, err := coord.Apply(ctx, netmode.SetLTEBand(band))
			return err
		},
		State: func(raw string) (string, bool) {
			return netmode.DecodeLTEBand(raw).Name(), true
		},
	}, logger)
}

// Item returns the field the select is backed by.
func (s *Select) Item() string { return s.desc.Item }

// Options returns the selectable options in display order.
func (s *Select) Options() []string { return slices.Clone(s.desc.Options) }

// Update recomputes availability and the current option from a snapshot.
// The previous option is kept while the select is unavailable.
func (s *Select) Update(snapshot netmode.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.desc.Available(snapshot) {
		s.available = false
		return
	}

	raw, ok := snapshot.Lookup(s.desc.Item)
	if !ok {
		s.logger.Debug("field not in data", slog.String("key", s.desc.Key), slog.String("item", s.desc.Item))
		s.available = false
		return
	}

	option, ok := s.desc.State(raw)
	if !ok {
		s.logger.Debug("unrecognized value", slog.String("raw", raw))
		s.available = false
		return
	}

	s.available = true
	s.current = option
}

// MarkUnavailable is used when no snapshot could be read.
func (s *Select) MarkUnavailable() {
	s.mu.Lock()
	s.available = false
	s.mu.Unlock()
}

// SelectOption applies option. The shown option does not change until the
// next Update.
func (s *Select) SelectOption(ctx context.Context, option string) error {
	if !slices.Contains(s.desc.Options, option) {
		return fmt.Errorf("%w: %q", ErrInvalidOption, option)
	}
	return s.desc.Set(ctx, option)
}

// Available reports whether the select currently has a value.
func (s *Select) Available() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.available
}

// Current returns the current option; ok is false while unavailable.
func (s *Select) Current() (option string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.available {
		return "", false
	}
	return s.current, true
}

// State returns a copy of what the select shows.
func (s *Select) State() State {
	current, available := s.Current()
	return State{
		Item:      s.desc.Item,
		Name:      s.desc.Name,
		Options:   s.Options(),
		Available: available,
		Current:   current,
	}
}
