// Package controller exposes typed operations over an Endpoint:
// validate capability, build one or more Messages, send through the
// service façade, and decode the response into a typed result.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/opennetty/opennetty/internal/catalog"
	"github.com/opennetty/opennetty/internal/endpoint"
	"github.com/opennetty/opennetty/internal/protocol"
)

// ErrCapabilityMissing is returned when an endpoint lacks the
// capability an operation requires.
var ErrCapabilityMissing = errors.New("endpoint missing required capability")

// sender is the subset of service.Service a Controller needs; kept
// narrow so tests can fake it without spinning up real workers.
type sender interface {
	Send(ctx context.Context, msg protocol.Message) ([]string, error)
}

// Controller runs typed operations against a fixed Endpoint.
type Controller struct {
	endpoint *endpoint.Endpoint
	send     sender
}

// New builds a Controller bound to ep, dispatching through send.
func New(ep *endpoint.Endpoint, send sender) *Controller {
	return &Controller{endpoint: ep, send: send}
}

func (c *Controller) require(capability catalog.Capability) error {
	if !c.endpoint.HasCapability(capability) {
		return fmt.Errorf("%w: %s requires %s", ErrCapabilityMissing, c.endpoint.Name, capability)
	}
	return nil
}

func (c *Controller) dialect() protocol.Dialect { return c.endpoint.Dialect }
func (c *Controller) address() protocol.Address { return c.endpoint.Address }

// SwitchOn turns the endpoint's lighting load on.
func (c *Controller) SwitchOn(ctx context.Context) error {
	if err := c.require(catalog.CapabilityLightingSwitch); err != nil {
		return err
	}
	return c.sendCommand(ctx, protocol.CommandLightingOn)
}

// SwitchOff turns the endpoint's lighting load off.
func (c *Controller) SwitchOff(ctx context.Context) error {
	if err := c.require(catalog.CapabilityLightingSwitch); err != nil {
		return err
	}
	return c.sendCommand(ctx, protocol.CommandLightingOff)
}

// Toggle reads the current switch state and sends the opposite
// command; it is not atomic against a concurrent state change on the
// bus, which mirrors how OpenWebNet itself has no toggle primitive.
func (c *Controller) Toggle(ctx context.Context) error {
	if err := c.require(catalog.CapabilityLightingSwitch); err != nil {
		return err
	}
	on, err := c.GetSwitchState(ctx)
	if err != nil {
		return err
	}
	if on {
		return c.sendCommand(ctx, protocol.CommandLightingOff)
	}
	return c.sendCommand(ctx, protocol.CommandLightingOn)
}

// GetSwitchState issues a StatusRequest on the Lighting subsystem and
// reports whether the endpoint is currently on.
func (c *Controller) GetSwitchState(ctx context.Context) (bool, error) {
	if err := c.require(catalog.CapabilityLightingSwitch); err != nil {
		return false, err
	}
	msg, err := protocol.NewStatusRequestMessage(c.dialect(), c.address(), protocol.WhoLighting)
	if err != nil {
		return false, err
	}
	values, err := c.send.Send(ctx, msg)
	if err != nil {
		return false, err
	}
	for _, v := range values {
		switch v {
		case protocol.CommandLightingOn:
			return true, nil
		case protocol.CommandLightingOff:
			return false, nil
		}
	}
	return false, fmt.Errorf("%w: no switch state in response", protocol.ErrUnknownFrameShape)
}

// GetBrightness reads the endpoint's current dimmer level (0..100).
func (c *Controller) GetBrightness(ctx context.Context) (int, error) {
	if err := c.require(catalog.CapabilityLightingDimmer); err != nil {
		return 0, err
	}
	msg, err := protocol.NewDimensionRequestMessage(c.dialect(), c.address(), protocol.DimensionLightingLevel)
	if err != nil {
		return 0, err
	}
	values, err := c.send.Send(ctx, msg)
	if err != nil {
		return 0, err
	}
	return parseLevel(c.dialect(), values)
}

// SetBrightness quantizes level to the nearest legal step for the
// endpoint's dialect, sends the dim command, and returns the level
// actually accepted.
func (c *Controller) SetBrightness(ctx context.Context, level int) (int, error) {
	if err := c.require(catalog.CapabilityLightingDimmer); err != nil {
		return 0, err
	}
	switch c.dialect() {
	case protocol.Scs:
		accepted, what, err := protocol.QuantizeSCSLevel(level)
		if err != nil {
			return 0, err
		}
		msg := protocol.Message{
			Dialect: protocol.Scs, Kind: protocol.KindBusCommand,
			Who: protocol.WhoLighting, Command: what,
			Address: c.address(), Medium: protocol.MediumBus, Mode: protocol.ModeUnicast,
		}
		if _, err := c.send.Send(ctx, msg); err != nil {
			return 0, err
		}
		return accepted, nil
	case protocol.Nitoo:
		accepted, err := protocol.QuantizeNitooLevel(level)
		if err != nil {
			return 0, err
		}
		msg := protocol.Message{
			Dialect: protocol.Nitoo, Kind: protocol.KindBusCommand,
			Who: protocol.WhoLighting, Command: strconv.Itoa(accepted),
			Address: c.address(), Medium: protocol.MediumPowerline, Mode: protocol.ModeUnicast,
		}
		if _, err := c.send.Send(ctx, msg); err != nil {
			return 0, err
		}
		return accepted, nil
	case protocol.Zigbee:
		accepted, err := protocol.QuantizeZigbeeLevel(level)
		if err != nil {
			return 0, err
		}
		msg := protocol.Message{
			Dialect: protocol.Zigbee, Kind: protocol.KindBusCommand,
			Who: protocol.WhoLighting, Command: strconv.Itoa(accepted),
			Address: c.address(), Medium: protocol.MediumRadio, Mode: protocol.ModeUnicast,
		}
		if _, err := c.send.Send(ctx, msg); err != nil {
			return 0, err
		}
		return accepted, nil
	default:
		return 0, fmt.Errorf("%w: unsupported dialect %s", protocol.ErrUnknownFrameShape, c.dialect())
	}
}

func parseLevel(dialect protocol.Dialect, values []string) (int, error) {
	for _, v := range values {
		if dialect == protocol.Scs {
			if level, ok := protocol.DecodeSCSLevel(v); ok {
				return level, nil
			}
		}
		if n, err := strconv.Atoi(v); err == nil {
			return n, nil
		}
	}
	return 0, fmt.Errorf("%w: no brightness level in response", protocol.ErrUnknownFrameShape)
}

// PilotWireConfiguration is the decoded state of a pilot-wire heating
// zone: its steady setpoint mode and, if a derogation is active, the
// overriding mode.
type PilotWireConfiguration struct {
	SetpointMode     string
	DerogationActive bool
	DerogationMode   string
}

// GetPilotWireConfiguration reads both the setpoint and derogation
// dimensions for a pilot-wire endpoint.
func (c *Controller) GetPilotWireConfiguration(ctx context.Context) (PilotWireConfiguration, error) {
	if err := c.require(catalog.CapabilityPilotWire); err != nil {
		return PilotWireConfiguration{}, err
	}
	setpointMsg, err := protocol.NewDimensionRequestMessage(c.dialect(), c.address(), protocol.DimensionPilotWireSetpoint)
	if err != nil {
		return PilotWireConfiguration{}, err
	}
	setpointValues, err := c.send.Send(ctx, setpointMsg)
	if err != nil {
		return PilotWireConfiguration{}, err
	}
	cfg := PilotWireConfiguration{SetpointMode: firstOrEmpty(setpointValues)}

	derogationMsg, err := protocol.NewDimensionRequestMessage(c.dialect(), c.address(), protocol.DimensionPilotWireDerogation)
	if err != nil {
		return PilotWireConfiguration{}, err
	}
	derogationValues, err := c.send.Send(ctx, derogationMsg)
	if err != nil {
		return PilotWireConfiguration{}, err
	}
	if mode := firstOrEmpty(derogationValues); mode != "" {
		cfg.DerogationActive = true
		cfg.DerogationMode = mode
	}
	return cfg, nil
}

// SetPilotWireSetpointMode sets the zone's steady-state mode (e.g.
// comfort, eco, frost-protection, off — the literal set is
// gateway-defined and passed through verbatim).
func (c *Controller) SetPilotWireSetpointMode(ctx context.Context, mode string) error {
	if err := c.require(catalog.CapabilityPilotWire); err != nil {
		return err
	}
	return c.sendDimensionSet(ctx, protocol.DimensionPilotWireSetpoint, []string{mode})
}

// SetPilotWireDerogationMode overrides the zone's mode for duration
// (a gateway-specific encoded value, e.g. a quarter-hour count).
func (c *Controller) SetPilotWireDerogationMode(ctx context.Context, mode, duration string) error {
	if err := c.require(catalog.CapabilityPilotWire); err != nil {
		return err
	}
	return c.sendDimensionSet(ctx, protocol.DimensionPilotWireDerogation, []string{mode, duration})
}

// CancelPilotWireDerogation clears an active derogation, returning the
// zone to its steady setpoint mode.
func (c *Controller) CancelPilotWireDerogation(ctx context.Context) error {
	if err := c.require(catalog.CapabilityPilotWire); err != nil {
		return err
	}
	return c.sendCommand(ctx, protocol.CommandPilotWireCancelDerogation)
}

// SmartMeterIndexes are the raw, gateway-reported consumption index
// values; the unit and count vary by tariff structure so they are
// passed through uninterpreted.
type SmartMeterIndexes struct {
	Values []string
}

// GetSmartMeterIndexes reads the endpoint's energy consumption
// indexes.
func (c *Controller) GetSmartMeterIndexes(ctx context.Context) (SmartMeterIndexes, error) {
	if err := c.require(catalog.CapabilitySmartMeter); err != nil {
		return SmartMeterIndexes{}, err
	}
	msg, err := protocol.NewDimensionRequestMessage(c.dialect(), c.address(), protocol.DimensionSmartMeterIndexes)
	if err != nil {
		return SmartMeterIndexes{}, err
	}
	values, err := c.send.Send(ctx, msg)
	if err != nil {
		return SmartMeterIndexes{}, err
	}
	return SmartMeterIndexes{Values: values}, nil
}

// GetWaterHeaterState reads the water heater's current operating
// state (gateway-defined literal).
func (c *Controller) GetWaterHeaterState(ctx context.Context) (string, error) {
	if err := c.require(catalog.CapabilityWaterHeater); err != nil {
		return "", err
	}
	msg, err := protocol.NewDimensionRequestMessage(c.dialect(), c.address(), protocol.DimensionWaterHeaterState)
	if err != nil {
		return "", err
	}
	values, err := c.send.Send(ctx, msg)
	if err != nil {
		return "", err
	}
	return firstOrEmpty(values), nil
}

// SetWaterHeaterSetpointMode sets the water heater's operating mode
// (e.g. manual, program, anti-freeze — gateway-defined literal).
func (c *Controller) SetWaterHeaterSetpointMode(ctx context.Context, mode string) error {
	if err := c.require(catalog.CapabilityWaterHeater); err != nil {
		return err
	}
	return c.sendDimensionSet(ctx, protocol.DimensionWaterHeaterSetpoint, []string{mode})
}

// DispatchBasicScenario fires basic scenario number n (0..99).
func (c *Controller) DispatchBasicScenario(ctx context.Context, n int) error {
	if err := c.require(catalog.CapabilityScenario); err != nil {
		return err
	}
	return c.sendCommand(ctx, protocol.CommandScenarioBasicPrefix+strconv.Itoa(n))
}

// DispatchOnOffScenario fires the on/off scenario marker for the
// requested state.
func (c *Controller) DispatchOnOffScenario(ctx context.Context, on bool) error {
	if err := c.require(catalog.CapabilityScenario); err != nil {
		return err
	}
	if on {
		return c.sendCommand(ctx, protocol.CommandScenarioOnOffOn)
	}
	return c.sendCommand(ctx, protocol.CommandScenarioOnOffOff)
}

func (c *Controller) sendCommand(ctx context.Context, command string) error {
	msg, err := protocol.NewBusCommandMessage(c.dialect(), c.address(), command)
	if err != nil {
		return err
	}
	_, err = c.send.Send(ctx, msg)
	return err
}

func (c *Controller) sendDimensionSet(ctx context.Context, dimension string, values []string) error {
	msg, err := protocol.NewDimensionSetMessage(c.dialect(), c.address(), dimension, values)
	if err != nil {
		return err
	}
	_, err = c.send.Send(ctx, msg)
	return err
}

func firstOrEmpty(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

