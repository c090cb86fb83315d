// Package netmode maps the Huawei LTE router's net-mode settings between
// their wire encoding and symbolic names, and applies changes to the
// router's combined net-mode endpoint without clobbering the sibling field.
package netmode

import (
	"strconv"
	"strings"
)

// Keys of the combined net-mode snapshot.
const (
	KeyNetworkMode = "NetworkMode"
	KeyNetworkBand = "NetworkBand"
	KeyLTEBand     = "LTEBand"
)

// bandConfigurableMarker is present in the wire code of every mode that
// includes 4G.
const bandConfigurableMarker = "03"

// NetworkMode is the preferred radio access technology, as its wire code.
type NetworkMode string

const (
	ModeAuto     NetworkMode = "00"
	Mode2GOnly   NetworkMode = "01"
	Mode3GOnly   NetworkMode = "02"
	Mode4GOnly   NetworkMode = "03"
	Mode4G3GAuto NetworkMode = "0302"
	Mode4G2GAuto NetworkMode = "0301"
	Mode3G2GAuto NetworkMode = "0201"
)

var networkModeNames = map[NetworkMode]string{
	ModeAuto:     "MODE_AUTO",
	Mode2GOnly:   "MODE_2G_ONLY",
	Mode3GOnly:   "MODE_3G_ONLY",
	Mode4GOnly:   "MODE_4G_ONLY",
	Mode4G3GAuto: "MODE_4G_3G_AUTO",
	Mode4G2GAuto: "MODE_4G_2G_AUTO",
	Mode3G2GAuto: "MODE_3G_2G_AUTO",
}

// ParseNetworkMode converts a wire code into a NetworkMode.
func ParseNetworkMode(code string) (NetworkMode, bool) {
	m := NetworkMode(strings.TrimSpace(code))
	_, ok := networkModeNames[m]
	return m, ok
}

// NetworkModeFromName converts a symbolic name such as MODE_4G_ONLY.
func NetworkModeFromName(name string) (NetworkMode, bool) {
	for m, n := range networkModeNames {
		if n == name {
			return m, true
		}
	}
	return "", false
}

// Name returns the symbolic name, or the raw code for unknown modes.
func (m NetworkMode) Name() string {
	if n, ok := networkModeNames[m]; ok {
		return n
	}
	return string(m)
}

func (m NetworkMode) String() string { return m.Name() }

// Valid reports whether m is one of the known modes.
func (m NetworkMode) Valid() bool {
	_, ok := networkModeNames[m]
	return ok
}

// BandConfigurable reports whether the router honors an LTE band
// restriction in this mode.
func (m NetworkMode) BandConfigurable() bool {
	return strings.Contains(string(m), bandConfigurableMarker)
}

// LTEBand is an LTE band selection bitmask.
type LTEBand uint64

const (
	LTEBandB1  LTEBand = 1 << 0
	LTEBandB3  LTEBand = 1 << 2
	LTEBandB7  LTEBand = 1 << 6
	LTEBandB8  LTEBand = 1 << 7
	LTEBandB20 LTEBand = 1 << 19
	LTEBandB38 LTEBand = 1 << 37
	LTEBandB40 LTEBand = 1 << 39
	LTEBandAll LTEBand = 0x7FFFFFFFFFFFFFFF
)

var lteBandNames = map[LTEBand]string{
	LTEBandAll: "ALL",
	LTEBandB1:  "B1",
	LTEBandB3:  "B3",
	LTEBandB7:  "B7",
	LTEBandB8:  "B8",
	LTEBandB20: "B20",
	LTEBandB38: "B38",
	LTEBandB40: "B40",
}

// LTEBandFromName converts a symbolic name such as B3.
func LTEBandFromName(name string) (LTEBand, bool) {
	for b, n := range lteBandNames {
		if n == name {
			return b, true
		}
	}
	return 0, false
}

// DecodeLTEBand parses the router's hexadecimal band mask. Anything that is
// not exactly one of the known bands, malformed input included, decodes to
// LTEBandAll.
func DecodeLTEBand(raw string) LTEBand {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "0x"), "0X")
	v, err := strconv.ParseUint(raw, 16, 64)
	if err != nil {
		return LTEBandAll
	}
	if _, ok := lteBandNames[LTEBand(v)]; ok {
		return LTEBand(v)
	}
	return LTEBandAll
}

// Name returns the symbolic name, or the hex mask for unknown bands.
func (b LTEBand) Name() string {
	if n, ok := lteBandNames[b]; ok {
		return n
	}
	return b.Hex()
}

func (b LTEBand) String() string { return b.Name() }

// Valid reports whether b is one of the known bands.
func (b LTEBand) Valid() bool {
	_, ok := lteBandNames[b]
	return ok
}

// Hex returns the mask the way the router writes it: upper case, no prefix.
func (b LTEBand) Hex() string {
	return strings.ToUpper(strconv.FormatUint(uint64(b), 16))
}

// NetworkBand is the 2G/3G band mask written alongside the LTE band.
type NetworkBand uint64

// NetworkBandAll enables every 2G/3G band.
const NetworkBandAll NetworkBand = 0x3FFFFFFF

// Hex returns the mask the way the router writes it.
func (b NetworkBand) Hex() string {
	return strings.ToUpper(strconv.FormatUint(uint64(b), 16))
}

// Settings is a snapshot of the router's combined net-mode endpoint.
type Settings map[string]string

// Lookup returns the raw value stored under key.
func (s Settings) Lookup(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	v, ok := s[key]
	return v, ok
}

// ReadNetworkMode decodes the current network mode. ok is false when the
// field is absent or carries a code this package does not know.
func ReadNetworkMode(s Settings) (NetworkMode, bool) {
	raw, ok := s.Lookup(KeyNetworkMode)
	if !ok {
		return "", false
	}
	return ParseNetworkMode(raw)
}

// BandConfigurable reports whether the LTE band can be chosen under mode.
// A missing mode is never configurable.
func BandConfigurable(mode NetworkMode, ok bool) bool {
	return ok && mode.BandConfigurable()
}

// NetworkModeNames returns the selectable network modes, in display order.
func NetworkModeNames() []string {
	return []string{
		ModeAuto.Name(),
		Mode4G3GAuto.Name(),
		Mode4G2GAuto.Name(),
		Mode4GOnly.Name(),
		Mode3G2GAuto.Name(),
		Mode3GOnly.Name(),
		Mode2GOnly.Name(),
	}
}

// LTEBandNames returns the selectable LTE bands, in display order.
func LTEBandNames() []string {
	return []string{
		LTEBandAll.Name(),
		LTEBandB20.Name(),
		LTEBandB8.Name(),
		LTEBandB3.Name(),
		LTEBandB1.Name(),
		LTEBandB40.Name(),
		LTEBandB7.Name(),
		LTEBandB38.Name(),
	}
}
