// Package endpoint defines the addressable unit exposed to consumers
// (name, protocol, optional address, optional bound device/unit,
// explicit capability set) and the O(1) (protocol, address) index the
// Coordinator uses to resolve inbound frames.
package endpoint

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/opennetty/opennetty/internal/catalog"
	"github.com/opennetty/opennetty/internal/protocol"
)

// ErrDuplicateName is returned by NewIndex when two endpoints share a
// name.
var ErrDuplicateName = fmt.Errorf("duplicate endpoint name")

// ErrNoIdentity is returned by NewIndex when an endpoint has neither a
// device binding nor an address, leaving it with no way to be reached
// or resolved.
var ErrNoIdentity = fmt.Errorf("endpoint has neither a device binding nor an address")

// Endpoint is one addressable unit. ExplicitCapabilities, when
// non-nil, fully replaces whatever the bound device/unit would
// otherwise grant — including down to an empty set, letting a
// deployment lock out an operation a unit nominally supports. When
// nil, the endpoint inherits the bound unit's capability set
// unchanged.
type Endpoint struct {
	Name    string
	Dialect protocol.Dialect
	Address protocol.Address // optional

	DeviceBrand string // optional, paired with DeviceModel+Unit
	DeviceModel string
	Unit        int

	ExplicitCapabilities []catalog.Capability // optional override/restriction

	// resolved at index-build time
	capabilities []catalog.Capability
}

// Capabilities returns the endpoint's effective capability set,
// resolved once by NewIndex.
func (e Endpoint) Capabilities() []catalog.Capability {
	return e.capabilities
}

// HasCapability reports whether e's effective capability set includes c.
func (e Endpoint) HasCapability(c catalog.Capability) bool {
	return slices.Contains(e.capabilities, c)
}

func (e Endpoint) resolveCapabilities() []catalog.Capability {
	if e.ExplicitCapabilities != nil {
		return e.ExplicitCapabilities
	}
	if e.DeviceBrand == "" && e.DeviceModel == "" {
		return nil
	}
	device, ok := catalog.Lookup(e.DeviceBrand, e.DeviceModel)
	if !ok {
		return nil
	}
	return device.CapabilitiesFor(e.Unit)
}

// key identifies an endpoint by (dialect, wire WHERE value+params) for
// O(1) inbound resolution. Params are included because Zigbee packs
// the unit id as a parameter rather than into Value.
type key struct {
	dialect protocol.Dialect
	where   string
}

func keyFor(dialect protocol.Dialect, addr protocol.Address) key {
	fv := addr.WhereField()
	return key{dialect: dialect, where: fv.Value + "#" + strings.Join(fv.Params, "#")}
}
