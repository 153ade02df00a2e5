package protocol

// commandKey and dimensionKey index the per-dialect WHO/WHAT and
// WHO/DIMENSION tables. The three dialects mostly share the same WHO
// subsystem numbering (a simplification of the real OpenWebNet
// registry); only the WHO values exercised by internal/controller and
// internal/coordinator are populated here.
type commandKey struct {
	dialect Dialect
	who     string
	what    string
}

type dimensionKey struct {
	dialect Dialect
	who     string
	dim     string
}

// Symbolic command identifiers used by internal/controller.
const (
	CommandLightingOn  = "Lighting.On"
	CommandLightingOff = "Lighting.Off"

	// CommandLightingDimUp/Down are the relative one-step dim commands,
	// distinct from the absolute dim-to-level commands registered from
	// scsLevelByWhat / the Nitoo and Zigbee level loops below.
	CommandLightingDimUp   = "Lighting.Dim.Up"
	CommandLightingDimDown = "Lighting.Dim.Down"

	CommandPilotWireCancelDerogation = "PilotWire.CancelDerogation"

	CommandScenarioBasicPrefix       = "Scenario.Basic."       // + scene number
	CommandScenarioOnOffOn           = "Scenario.OnOff.On"
	CommandScenarioOnOffOff          = "Scenario.OnOff.Off"
	CommandScenarioTogglePrefix      = "Scenario.Toggle."      // + scene number
	CommandScenarioTimedPrefix       = "Scenario.Timed."       // + scene number
	CommandScenarioProgressivePrefix = "Scenario.Progressive." // + scene number
)

// Symbolic dimension identifiers.
const (
	DimensionLightingLevel       = "Dimmer.Level"
	DimensionPilotWireSetpoint   = "PilotWire.SetpointMode"
	DimensionPilotWireDerogation = "PilotWire.DerogationMode"
	DimensionSmartMeterIndexes   = "SmartMeter.Indexes"
	DimensionSmartMeterRateType  = "SmartMeter.RateType"
	DimensionSmartMeterPowerCut  = "SmartMeter.PowerCutMode"
	DimensionWaterHeaterState    = "WaterHeater.State"
	DimensionWaterHeaterSetpoint = "WaterHeater.SetpointMode"
	DimensionBatteryLevel        = "Battery.Level"
	DimensionBurglarAlarmState   = "BurglarAlarm.State"
)

// WHO subsystem identifiers, shared across dialects. Exported so
// internal/controller can build StatusRequest messages, which only
// need a subsystem's WHO, not one of its registered commands.
const (
	WhoLighting     = "1"
	WhoScenario     = "0"
	WhoEnergy       = "18"
	WhoPilotWire    = "25"
	WhoWaterHeater  = "23"
	WhoBurglarAlarm = "16"
)

var commandByWhat = map[commandKey]string{}
var whatByCommand = map[string]map[Dialect]struct {
	who, what string
}{}

var dimensionByID = map[dimensionKey]string{}
var whoByDimension = map[string]map[Dialect]string{}
var dimCodeByName = map[string]map[Dialect]string{}

func registerCommand(dialect Dialect, who, what, command string) {
	commandByWhat[commandKey{dialect, who, what}] = command
	if whatByCommand[command] == nil {
		whatByCommand[command] = map[Dialect]struct{ who, what string }{}
	}
	whatByCommand[command][dialect] = struct{ who, what string }{who, what}
}

func registerDimension(dialect Dialect, who, dim, name string) {
	dimensionByID[dimensionKey{dialect, who, dim}] = name
	if whoByDimension[name] == nil {
		whoByDimension[name] = map[Dialect]string{}
	}
	whoByDimension[name][dialect] = who
	if dimCodeByName[name] == nil {
		dimCodeByName[name] = map[Dialect]string{}
	}
	dimCodeByName[name][dialect] = dim
}

// resolveDimension returns the raw (who, dim) wire codes for a
// symbolic dimension name on dialect.
func resolveDimension(dialect Dialect, name string) (who, dim string, ok bool) {
	who, ok = whoForDimension(dialect, name)
	if !ok {
		return "", "", false
	}
	dim, ok = dimCodeByName[name][dialect]
	return who, dim, ok
}

func init() {
	for _, d := range []Dialect{Scs, Nitoo, Zigbee} {
		registerCommand(d, WhoLighting, "0", CommandLightingOff)
		registerCommand(d, WhoLighting, "1", CommandLightingOn)
		registerCommand(d, WhoPilotWire, "0", CommandPilotWireCancelDerogation)
		registerCommand(d, WhoScenario, "1000", CommandScenarioOnOffOn)
		registerCommand(d, WhoScenario, "1001", CommandScenarioOnOffOff)
		// Relative dim-step WHATs sit at 101/102, clear of SCS's 1..8/10
		// absolute-level codes and Nitoo/Zigbee's 0..100 level range.
		registerCommand(d, WhoLighting, "101", CommandLightingDimUp)
		registerCommand(d, WhoLighting, "102", CommandLightingDimDown)

		registerDimension(d, WhoLighting, "1", DimensionLightingLevel)
		registerDimension(d, WhoPilotWire, "11", DimensionPilotWireSetpoint)
		registerDimension(d, WhoPilotWire, "12", DimensionPilotWireDerogation)
		registerDimension(d, WhoEnergy, "51", DimensionSmartMeterIndexes)
		registerDimension(d, WhoEnergy, "52", DimensionSmartMeterRateType)
		registerDimension(d, WhoEnergy, "53", DimensionSmartMeterPowerCut)
		registerDimension(d, WhoWaterHeater, "20", DimensionWaterHeaterState)
		registerDimension(d, WhoWaterHeater, "25", DimensionWaterHeaterSetpoint)
		registerDimension(d, WhoLighting, "15", DimensionBatteryLevel)
		registerDimension(d, WhoBurglarAlarm, "10", DimensionBurglarAlarmState)
	}
	// Basic/toggle/timed/progressive scenario numbers 0..99 each occupy
	// their own clear WHAT range; register them individually so
	// lookupCommand stays a flat map.
	for _, d := range []Dialect{Scs, Nitoo, Zigbee} {
		for n := 0; n < 100; n++ {
			registerCommand(d, WhoScenario, itoa(2000+n), CommandScenarioBasicPrefix+itoa(n))
			registerCommand(d, WhoScenario, itoa(3000+n), CommandScenarioTogglePrefix+itoa(n))
			registerCommand(d, WhoScenario, itoa(4000+n), CommandScenarioTimedPrefix+itoa(n))
			registerCommand(d, WhoScenario, itoa(5000+n), CommandScenarioProgressivePrefix+itoa(n))
		}
	}

	// Dimmer "dim to level" is itself a BusCommand frame, not a
	// DimensionSet, so every legal level per dialect gets its own WHAT
	// registration.
	for what, level := range scsLevelByWhat {
		registerCommand(Scs, WhoLighting, what, dimToCommandName(level))
	}
	for level := 0; level <= 100; level++ {
		registerCommand(Nitoo, WhoLighting, itoa(level), dimToCommandName(level))
	}
	for level := 0; level <= 100; level += 10 {
		registerCommand(Zigbee, WhoLighting, itoa(level), dimToCommandName(level))
	}
}

func dimToCommandName(level int) string {
	return "Lighting.DimTo." + itoa(level)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := [20]byte{}
	i := len(digits)
	neg := n < 0
	if neg {
		n = -n
	}
	for n > 0 {
		i--
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		digits[i] = '-'
	}
	return string(digits[i:])
}

func lookupCommand(dialect Dialect, who, what string) (string, bool) {
	cmd, ok := commandByWhat[commandKey{dialect, who, what}]
	return cmd, ok
}

func lookupDimension(dialect Dialect, who, dim string) (string, bool) {
	name, ok := dimensionByID[dimensionKey{dialect, who, dim}]
	return name, ok
}

func whoFor(dialect Dialect, command string) (string, bool) {
	perDialect, ok := whatByCommand[command]
	if !ok {
		return "", false
	}
	entry, ok := perDialect[dialect]
	return entry.who, ok
}

// whatFor returns the WHAT code registered for command on dialect.
func whatFor(dialect Dialect, command string) (string, bool) {
	perDialect, ok := whatByCommand[command]
	if !ok {
		return "", false
	}
	entry, ok := perDialect[dialect]
	return entry.what, ok
}

func whoForDimension(dialect Dialect, dimension string) (string, bool) {
	perDialect, ok := whoByDimension[dimension]
	if !ok {
		return "", false
	}
	who, ok := perDialect[dialect]
	return who, ok
}
