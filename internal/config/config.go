// Package config defines the boundary types the core consumes:
// gateways, endpoints, and protocol-level defaults. Source format
// (the real deployments use hand-edited XML) is out of scope; this
// package only decodes the YAML fixtures used in tests and by
// cmd/opennettyd, and merges per-gateway overrides onto defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/opennetty/opennetty/internal/catalog"
	"github.com/opennetty/opennetty/internal/protocol"
)

// ErrUnknownDialect is returned by ParseDialect for any value other
// than "scs", "nitoo", or "zigbee".
var ErrUnknownDialect = fmt.Errorf("unknown dialect")

// ParseDialect maps a YAML dialect string onto protocol.Dialect.
func ParseDialect(s string) (protocol.Dialect, error) {
	switch s {
	case "scs":
		return protocol.Scs, nil
	case "nitoo":
		return protocol.Nitoo, nil
	case "zigbee":
		return protocol.Zigbee, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownDialect, s)
	}
}

// Address builds the protocol.Address this EndpointConfig describes,
// using whichever field set matches its Dialect.
func (e EndpointConfig) Address() (protocol.Address, error) {
	dialect, err := ParseDialect(e.Dialect)
	if err != nil {
		return nil, err
	}
	switch dialect {
	case protocol.Scs:
		return protocol.NewSCSAddress(e.SCSArea, e.SCSPoint)
	case protocol.Nitoo:
		return protocol.NewNitooAddress(uint32(e.NitooID), e.NitooUnit)
	case protocol.Zigbee:
		return protocol.NewZigbeeAddress(uint32(e.ZigbeeID), e.ZigbeeUnit)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, e.Dialect)
	}
}

// Defaults carries the protocol-tuned timing knobs a GatewayConfig can
// selectively override.
type Defaults struct {
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	MaxAttempts        int           `yaml:"max_attempts"`
	SessionOpenTimeout time.Duration `yaml:"session_open_timeout"`
}

// GatewayConfig describes one physical OpenWebNet gateway: its
// transport descriptor, dialect, credentials, and any
// defaults overrides.
type GatewayConfig struct {
	Name    string `yaml:"name"`
	Dialect string `yaml:"dialect"` // "scs", "nitoo", or "zigbee"

	// Transport descriptor: exactly one of Address (TCP host:port) or
	// SerialPort should be set.
	Address    string `yaml:"address"`
	SerialPort string `yaml:"serial_port"`
	BaudRate   int    `yaml:"baud_rate"`

	OpenPassword string `yaml:"open_password"`
	HMACKey      string `yaml:"hmac_key"`

	ScenarioSession bool `yaml:"scenario_session"`

	Overrides Defaults `yaml:"overrides"`
}

// EndpointConfig describes one addressable unit bound to a gateway's
// dialect, mirroring internal/endpoint.Endpoint's fields in their
// YAML-friendly form.
type EndpointConfig struct {
	Name    string `yaml:"name"`
	Dialect string `yaml:"dialect"`

	// Address components; exactly the set matching Dialect should be
	// populated.
	SCSArea     int `yaml:"scs_area"`
	SCSPoint    int `yaml:"scs_point"`
	NitooID     int `yaml:"nitoo_id"`
	NitooUnit   int `yaml:"nitoo_unit"`
	ZigbeeID    int `yaml:"zigbee_id"`
	ZigbeeUnit  int `yaml:"zigbee_unit"`

	DeviceBrand string `yaml:"device_brand"`
	DeviceModel string `yaml:"device_model"`
	Unit        int    `yaml:"unit"`

	// ExplicitCapabilities, when present (even as an empty list),
	// replaces whatever the bound device/unit would otherwise grant.
	ExplicitCapabilities []catalog.Capability `yaml:"capabilities"`
}

// File is the top-level YAML document shape: global defaults plus the
// gateway and endpoint lists.
type File struct {
	Defaults  Defaults         `yaml:"defaults"`
	Gateways  []GatewayConfig  `yaml:"gateways"`
	Endpoints []EndpointConfig `yaml:"endpoints"`
}

// Load reads and decodes a YAML configuration file from path.
func Load(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %q: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parsing config %q: %w", path, err)
	}
	f.applyDefaults()
	return &f, nil
}

func (f *File) applyDefaults() {
	if f.Defaults.RequestTimeout == 0 {
		f.Defaults.RequestTimeout = 2 * time.Second
	}
	if f.Defaults.MaxAttempts == 0 {
		f.Defaults.MaxAttempts = 3
	}
	if f.Defaults.SessionOpenTimeout == 0 {
		f.Defaults.SessionOpenTimeout = 5 * time.Second
	}
}

// EffectiveDefaults merges gw's Overrides onto f's global Defaults,
// field by field, with Overrides winning whenever it sets a non-zero
// value — the per-gateway knob tuning the real XML config loader would
// also need. Global defaults are backfilled first, so this is safe to
// call on a File built directly (not via Load).
func (f *File) EffectiveDefaults(gw GatewayConfig) (Defaults, error) {
	f.applyDefaults()
	merged := f.Defaults
	if err := mergo.Merge(&merged, gw.Overrides, mergo.WithOverride); err != nil {
		return Defaults{}, fmt.Errorf("merging overrides for gateway %q: %w", gw.Name, err)
	}
	return merged, nil
}
