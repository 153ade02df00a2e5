package coordinator

import (
	"strconv"
	"strings"

	"github.com/opennetty/opennetty/internal/protocol"
)

// classify maps msg onto the semantic event taxonomy. It reports
// ok=false for messages that carry no corresponding semantic event
// (still visible through the raw service API, per the pass-through
// policy for UnknownCommand traffic).
func classify(msg protocol.Message) (Event, bool) {
	switch msg.Who {
	case protocol.WhoLighting:
		return classifyLighting(msg)
	case protocol.WhoScenario:
		return classifyScenario(msg)
	case protocol.WhoPilotWire:
		return classifyPilotWire(msg)
	case protocol.WhoEnergy:
		return classifyEnergy(msg)
	case protocol.WhoWaterHeater:
		return classifyWaterHeater(msg)
	case protocol.WhoBurglarAlarm:
		return classifyBurglarAlarm(msg)
	default:
		return Event{}, false
	}
}

func classifyLighting(msg protocol.Message) (Event, bool) {
	switch msg.CommandName {
	case protocol.CommandLightingOn:
		return Event{Kind: SwitchStateReported, On: true}, true
	case protocol.CommandLightingOff:
		return Event{Kind: SwitchStateReported, On: false}, true
	case protocol.CommandLightingDimUp, protocol.CommandLightingDimDown:
		return Event{Kind: DimmingStepReported, On: msg.CommandName == protocol.CommandLightingDimUp}, true
	}
	if strings.HasPrefix(msg.CommandName, "Lighting.DimTo.") {
		if level, ok := parseInt(strings.TrimPrefix(msg.CommandName, "Lighting.DimTo.")); ok {
			return Event{Kind: BrightnessReported, Level: level}, true
		}
	}
	switch msg.DimensionName {
	case protocol.DimensionLightingLevel:
		if level, ok := parseLevelValues(msg.Values); ok {
			return Event{Kind: BrightnessReported, Level: level}, true
		}
	case protocol.DimensionBatteryLevel:
		if level, ok := parseFirstInt(msg.Values); ok {
			return Event{Kind: BatteryLevelReported, Level: level}, true
		}
	}
	return Event{}, false
}

func classifyScenario(msg protocol.Message) (Event, bool) {
	switch msg.CommandName {
	case protocol.CommandScenarioOnOffOn:
		return Event{Kind: OnOffScenarioReported, On: true}, true
	case protocol.CommandScenarioOnOffOff:
		return Event{Kind: OnOffScenarioReported, On: false}, true
	}
	if scene, ok := scenePrefixed(msg.CommandName, protocol.CommandScenarioBasicPrefix); ok {
		return Event{Kind: BasicScenarioReported, SceneNumber: scene}, true
	}
	if scene, ok := scenePrefixed(msg.CommandName, protocol.CommandScenarioTogglePrefix); ok {
		return Event{Kind: ToggleScenarioReported, SceneNumber: scene}, true
	}
	if scene, ok := scenePrefixed(msg.CommandName, protocol.CommandScenarioTimedPrefix); ok {
		return Event{Kind: TimedScenarioReported, SceneNumber: scene}, true
	}
	if scene, ok := scenePrefixed(msg.CommandName, protocol.CommandScenarioProgressivePrefix); ok {
		return Event{Kind: ProgressiveScenarioReported, SceneNumber: scene}, true
	}
	return Event{}, false
}

func classifyPilotWire(msg protocol.Message) (Event, bool) {
	switch msg.DimensionName {
	case protocol.DimensionPilotWireSetpoint:
		return Event{Kind: PilotWireSetpointModeReported, Mode: firstOrEmpty(msg.Values)}, true
	case protocol.DimensionPilotWireDerogation:
		return Event{Kind: PilotWireDerogationModeReported, Mode: firstOrEmpty(msg.Values)}, true
	}
	if msg.CommandName == protocol.CommandPilotWireCancelDerogation {
		return Event{Kind: PilotWireDerogationModeReported, Mode: ""}, true
	}
	return Event{}, false
}

func classifyEnergy(msg protocol.Message) (Event, bool) {
	switch msg.DimensionName {
	case protocol.DimensionSmartMeterIndexes:
		return Event{Kind: SmartMeterIndexesReported, Values: msg.Values}, true
	case protocol.DimensionSmartMeterRateType:
		return Event{Kind: SmartMeterRateTypeReported, Mode: firstOrEmpty(msg.Values)}, true
	case protocol.DimensionSmartMeterPowerCut:
		return Event{Kind: SmartMeterPowerCutModeReported, Mode: firstOrEmpty(msg.Values)}, true
	}
	return Event{}, false
}

func classifyWaterHeater(msg protocol.Message) (Event, bool) {
	switch msg.DimensionName {
	case protocol.DimensionWaterHeaterState:
		return Event{Kind: WaterHeaterStateReported, Mode: firstOrEmpty(msg.Values)}, true
	case protocol.DimensionWaterHeaterSetpoint:
		return Event{Kind: WaterHeaterSetpointModeReported, Mode: firstOrEmpty(msg.Values)}, true
	}
	return Event{}, false
}

func classifyBurglarAlarm(msg protocol.Message) (Event, bool) {
	if msg.DimensionName == protocol.DimensionBurglarAlarmState {
		return Event{Kind: WirelessBurglarAlarmStateReported, Mode: firstOrEmpty(msg.Values)}, true
	}
	return Event{}, false
}

func scenePrefixed(command, prefix string) (int, bool) {
	if !strings.HasPrefix(command, prefix) {
		return 0, false
	}
	return parseInt(strings.TrimPrefix(command, prefix))
}

func parseLevelValues(values []string) (int, bool) {
	if len(values) == 0 {
		return 0, false
	}
	if level, ok := protocol.DecodeSCSLevel(values[0]); ok {
		return level, true
	}
	return parseInt(values[0])
}

func parseFirstInt(values []string) (int, bool) {
	if len(values) == 0 {
		return 0, false
	}
	return parseInt(values[0])
}

func firstOrEmpty(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func parseInt(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
