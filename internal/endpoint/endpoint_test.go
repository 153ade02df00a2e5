package endpoint_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opennetty/opennetty/internal/catalog"
	"github.com/opennetty/opennetty/internal/endpoint"
	"github.com/opennetty/opennetty/internal/protocol"
)

func TestCapabilitiesInheritFromDeviceWhenNotExplicit(t *testing.T) {
	addr, err := protocol.NewSCSAddress(1, 1)
	require.NoError(t, err)

	idx, err := endpoint.NewIndex([]endpoint.Endpoint{
		{Name: "kitchen-light", Dialect: protocol.Scs, Address: addr, DeviceBrand: "BTicino", DeviceModel: "F429", Unit: 1},
	})
	require.NoError(t, err)

	e, ok := idx.ByName("kitchen-light")
	require.True(t, ok)
	assert.True(t, e.HasCapability(catalog.CapabilityLightingDimmer))
	assert.True(t, e.HasCapability(catalog.CapabilityLightingSwitch))
	assert.False(t, e.HasCapability(catalog.CapabilityPilotWire))
}

func TestExplicitCapabilitiesLockOutInheritedOnes(t *testing.T) {
	addr, err := protocol.NewSCSAddress(1, 2)
	require.NoError(t, err)

	idx, err := endpoint.NewIndex([]endpoint.Endpoint{
		{
			Name: "locked-dimmer", Dialect: protocol.Scs, Address: addr,
			DeviceBrand: "BTicino", DeviceModel: "F429", Unit: 1,
			ExplicitCapabilities: []catalog.Capability{catalog.CapabilityLightingSwitch},
		},
	})
	require.NoError(t, err)

	e, ok := idx.ByName("locked-dimmer")
	require.True(t, ok)
	assert.True(t, e.HasCapability(catalog.CapabilityLightingSwitch))
	assert.False(t, e.HasCapability(catalog.CapabilityLightingDimmer))
}

func TestLookupByAddressResolvesEndpoint(t *testing.T) {
	addr, err := protocol.NewNitooAddress(487932, 2)
	require.NoError(t, err)

	idx, err := endpoint.NewIndex([]endpoint.Endpoint{
		{Name: "hallway", Dialect: protocol.Nitoo, Address: addr, ExplicitCapabilities: []catalog.Capability{catalog.CapabilityLightingSwitch}},
	})
	require.NoError(t, err)

	e, ok := idx.Lookup(protocol.Nitoo, addr)
	require.True(t, ok)
	assert.Equal(t, "hallway", e.Name)
}

func TestLookupMissesUnregisteredAddress(t *testing.T) {
	idx, err := endpoint.NewIndex(nil)
	require.NoError(t, err)

	addr, err := protocol.NewSCSAddress(2, 2)
	require.NoError(t, err)
	_, ok := idx.Lookup(protocol.Scs, addr)
	assert.False(t, ok)
}

func TestNewIndexRejectsDuplicateNames(t *testing.T) {
	addr1, _ := protocol.NewSCSAddress(1, 1)
	addr2, _ := protocol.NewSCSAddress(1, 2)
	_, err := endpoint.NewIndex([]endpoint.Endpoint{
		{Name: "dup", Dialect: protocol.Scs, Address: addr1},
		{Name: "dup", Dialect: protocol.Scs, Address: addr2},
	})
	assert.ErrorIs(t, err, endpoint.ErrDuplicateName)
}

func TestNewIndexRejectsEndpointWithNoIdentity(t *testing.T) {
	_, err := endpoint.NewIndex([]endpoint.Endpoint{
		{Name: "ghost", Dialect: protocol.Scs},
	})
	assert.ErrorIs(t, err, endpoint.ErrNoIdentity)
}
