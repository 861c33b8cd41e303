package askoheat_modbus

// DeviceKey groups entities into sub devices of the heater.
type DeviceKey string

const (
	DeviceModbusMaster    DeviceKey = "modbus_master"
	DeviceHeatPump        DeviceKey = "heat_pump"
	DeviceAnalogInput     DeviceKey = "analog_input"
	DeviceEnergyManager   DeviceKey = "energy_manager"
	DeviceWaterBoiler     DeviceKey = "water_boiler"
	DeviceLegioProtection DeviceKey = "legio_protection"
)

var DeviceKeys = []DeviceKey{
	DeviceEnergyManager,
	DeviceWaterBoiler,
	DeviceLegioProtection,
	DeviceAnalogInput,
	DeviceHeatPump,
	DeviceModbusMaster,
}

var deviceNames = map[DeviceKey]string{
	DeviceModbusMaster:    "Modbus master",
	DeviceHeatPump:        "Heat pump control",
	DeviceAnalogInput:     "Analog input control",
	DeviceEnergyManager:   "Energy manager",
	DeviceWaterBoiler:     "Water heater control",
	DeviceLegioProtection: "Legionella protection control",
}

func (d DeviceKey) DisplayName() string {
	if n, ok := deviceNames[d]; ok {
		return n
	}
	return string(d)
}

func strEnum(values ...string) []EnumValue {
	out := make([]EnumValue, 0, len(values))
	for _, v := range values {
		out = append(out, EnumValue{Raw: v, Label: v})
	}
	return out
}

var Baudrates = strEnum(
	"1200",
	"2400",
	"4800",
	"9600",
	"14400",
	"19200",
	"28800",
	"38400",
	"57600",
	"76800",
	"115200",
	"230400",
)

var SmartMeterTypes = strEnum(
	"not installed",
	"Askoma smart meter up to 100A",
	"Askoma smart meter up to 200A",
	"Carlo Gavazzi EM340...S1 PFA",
	"Askoma smart meter RTU III",
	"Optec (ECS M3)",
	"Eastron SDM72D-M",
	"ALPHA-ESS Smart Grid Value",
	"CHNT DTSU666",
	"SONNENKRAFT SK-HWR-6/8/10/12",
	"FOX HYBRID H3",
	"FRONIUS MODBUS RTU",
	"M-TEC ENERGY BUTLER RTU",
)

var EnergyMeterTypes = []EnumValue{
	{Raw: 0x000, Label: "not installed"},
	{Raw: 0x001, Label: "Automation One A1EM-BIMOD"},
	{Raw: 0x002, Label: "Automation One A1EM-MOD"},
	{Raw: 0x010, Label: "EM300"},
}

// Labels lists the selectable options of an enum field.
func Labels(values []EnumValue) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, v.Label)
	}
	return out
}
