package controller_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opennetty/opennetty/internal/catalog"
	"github.com/opennetty/opennetty/internal/controller"
	"github.com/opennetty/opennetty/internal/endpoint"
	"github.com/opennetty/opennetty/internal/protocol"
)

// fakeSender records every Message it's given and returns the next
// scripted response, in order.
type fakeSender struct {
	sent      []protocol.Message
	responses [][]string
	err       error
}

func (f *fakeSender) Send(_ context.Context, msg protocol.Message) ([]string, error) {
	f.sent = append(f.sent, msg)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.responses) == 0 {
		return nil, nil
	}
	next := f.responses[0]
	f.responses = f.responses[1:]
	return next, nil
}

func dimmerEndpoint(t *testing.T) *endpoint.Endpoint {
	t.Helper()
	addr, err := protocol.NewSCSAddress(1, 3)
	require.NoError(t, err)
	idx, err := endpoint.NewIndex([]endpoint.Endpoint{
		{Name: "dimmer", Dialect: protocol.Scs, Address: addr, DeviceBrand: "BTicino", DeviceModel: "F429", Unit: 1},
	})
	require.NoError(t, err)
	e, ok := idx.ByName("dimmer")
	require.True(t, ok)
	return e
}

func TestSwitchOnSendsLightingOnCommand(t *testing.T) {
	send := &fakeSender{}
	c := controller.New(dimmerEndpoint(t), send)

	require.NoError(t, c.SwitchOn(context.Background()))

	require.Len(t, send.sent, 1)
	assert.Equal(t, protocol.CommandLightingOn, send.sent[0].CommandName)
}

func TestSwitchOnRejectedWithoutCapability(t *testing.T) {
	addr, err := protocol.NewSCSAddress(1, 4)
	require.NoError(t, err)
	idx, err := endpoint.NewIndex([]endpoint.Endpoint{
		{Name: "heater", Dialect: protocol.Scs, Address: addr, ExplicitCapabilities: []catalog.Capability{catalog.CapabilityPilotWire}},
	})
	require.NoError(t, err)
	e, ok := idx.ByName("heater")
	require.True(t, ok)

	c := controller.New(e, &fakeSender{})
	err = c.SwitchOn(context.Background())
	assert.ErrorIs(t, err, controller.ErrCapabilityMissing)
}

func TestGetSwitchStateDecodesLightingOnResponse(t *testing.T) {
	send := &fakeSender{responses: [][]string{{protocol.CommandLightingOn}}}
	c := controller.New(dimmerEndpoint(t), send)

	on, err := c.GetSwitchState(context.Background())
	require.NoError(t, err)
	assert.True(t, on)

	require.Len(t, send.sent, 1)
	assert.Equal(t, protocol.KindStatusRequest, send.sent[0].Kind)
	assert.Equal(t, protocol.WhoLighting, send.sent[0].Who)
}

func TestSetBrightnessQuantizesToNearestSCSStep(t *testing.T) {
	send := &fakeSender{}
	c := controller.New(dimmerEndpoint(t), send)

	accepted, err := c.SetBrightness(context.Background(), 47)
	require.NoError(t, err)
	assert.Equal(t, 50, accepted)

	require.Len(t, send.sent, 1)
	assert.Equal(t, "3", send.sent[0].Command)
}

func TestGetBrightnessParsesSCSLevelCode(t *testing.T) {
	send := &fakeSender{responses: [][]string{{"8"}}}
	c := controller.New(dimmerEndpoint(t), send)

	level, err := c.GetBrightness(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 90, level)
}

func TestDispatchBasicScenarioRequiresScenarioCapability(t *testing.T) {
	c := controller.New(dimmerEndpoint(t), &fakeSender{})
	err := c.DispatchBasicScenario(context.Background(), 5)
	assert.ErrorIs(t, err, controller.ErrCapabilityMissing)
}

func TestPilotWireConfigurationRoundTrip(t *testing.T) {
	addr, err := protocol.NewSCSAddress(2, 1)
	require.NoError(t, err)
	idx, err := endpoint.NewIndex([]endpoint.Endpoint{
		{Name: "zone1", Dialect: protocol.Scs, Address: addr, DeviceBrand: "BTicino", DeviceModel: "F520", Unit: 1},
	})
	require.NoError(t, err)
	e, ok := idx.ByName("zone1")
	require.True(t, ok)

	send := &fakeSender{responses: [][]string{{"comfort"}, {"eco"}}}
	c := controller.New(e, send)

	cfg, err := c.GetPilotWireConfiguration(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "comfort", cfg.SetpointMode)
	assert.True(t, cfg.DerogationActive)
	assert.Equal(t, "eco", cfg.DerogationMode)
}
