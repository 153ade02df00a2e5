// Package catalog holds the read-only, compiled-in device/unit
// capability table keyed by (brand, model): no reflection, no dynamic
// loading, just a Go map populated at package init.
package catalog

// Capability names a functional surface an Endpoint can expose; it is
// what internal/controller checks before building a Message.
type Capability string

const (
	CapabilityLightingSwitch Capability = "lighting_switch"
	CapabilityLightingDimmer Capability = "lighting_dimmer"
	CapabilityPilotWire      Capability = "pilot_wire"
	CapabilitySmartMeter     Capability = "smart_meter"
	CapabilityWaterHeater    Capability = "water_heater"
	CapabilityBurglarAlarm   Capability = "burglar_alarm"
	CapabilityScenario       Capability = "scenario"
)

// UnitDefinition is the capability set for one unit id of a device.
type UnitDefinition struct {
	Capabilities []Capability
}

// DeviceDefinition is the static descriptor for one (brand, model)
// pair: which units it exposes and what each unit can do.
type DeviceDefinition struct {
	Brand string
	Model string
	Units map[int]UnitDefinition
}

type deviceKey struct{ brand, model string }

var devices = map[deviceKey]DeviceDefinition{}

func register(d DeviceDefinition) {
	devices[deviceKey{d.Brand, d.Model}] = d
}

func init() {
	register(DeviceDefinition{
		Brand: "BTicino", Model: "F411/2",
		Units: map[int]UnitDefinition{
			1: {Capabilities: []Capability{CapabilityLightingSwitch}},
			2: {Capabilities: []Capability{CapabilityLightingSwitch}},
		},
	})
	register(DeviceDefinition{
		Brand: "BTicino", Model: "F429",
		Units: map[int]UnitDefinition{
			1: {Capabilities: []Capability{CapabilityLightingSwitch, CapabilityLightingDimmer}},
		},
	})
	register(DeviceDefinition{
		Brand: "BTicino", Model: "F520",
		Units: map[int]UnitDefinition{
			1: {Capabilities: []Capability{CapabilityPilotWire}},
		},
	})
	register(DeviceDefinition{
		Brand: "BTicino", Model: "LN4870",
		Units: map[int]UnitDefinition{
			1: {Capabilities: []Capability{CapabilitySmartMeter}},
		},
	})
	register(DeviceDefinition{
		Brand: "BTicino", Model: "3529",
		Units: map[int]UnitDefinition{
			1: {Capabilities: []Capability{CapabilityWaterHeater}},
		},
	})
	register(DeviceDefinition{
		Brand: "Legrand", Model: "088328",
		Units: map[int]UnitDefinition{
			1: {Capabilities: []Capability{CapabilityBurglarAlarm}},
		},
	})
	register(DeviceDefinition{
		Brand: "BTicino", Model: "H/LN4691",
		Units: map[int]UnitDefinition{
			1: {Capabilities: []Capability{CapabilityScenario}},
		},
	})
}

// Lookup returns the DeviceDefinition for brand+model.
func Lookup(brand, model string) (DeviceDefinition, bool) {
	d, ok := devices[deviceKey{brand, model}]
	return d, ok
}

// CapabilitiesFor returns the capability set the device's unit
// carries, or nil if the unit isn't defined on this device.
func (d DeviceDefinition) CapabilitiesFor(unit int) []Capability {
	u, ok := d.Units[unit]
	if !ok {
		return nil
	}
	return u.Capabilities
}
