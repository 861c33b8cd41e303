package askoheat_modbus

// Statistics block: operating times, relay counters and legionella
// protection state.

const (
	DATA_BASE  = 600
	DATA_COUNT = 98

	DATA_LEGIO_STATUS_REGISTER = 27
)

func dataMinutes(key string, offset uint16, name string, device DeviceKey) Entry {
	return Entry{
		Key:   key,
		Field: Struct(offset, 2, ">L"),
		Meta: EntityMeta{
			Name:           name,
			Device:         device,
			Icon:           "mdi:timer-outline",
			Unit:           UNIT_MINUTES,
			DeviceClass:    DEVICE_CLASS_DURATION,
			StateClass:     STATE_CLASS_TOTAL_INCREASING,
			EntityCategory: ENTITY_CATEGORY_DIAGNOSTIC,
		},
	}
}

func dataCounter(key string, offset uint16, name string, device DeviceKey) Entry {
	return Entry{
		Key:   key,
		Field: UInt32(offset),
		Meta: EntityMeta{
			Name:           name,
			Device:         device,
			Icon:           "mdi:counter",
			StateClass:     STATE_CLASS_TOTAL_INCREASING,
			EntityCategory: ENTITY_CATEGORY_DIAGNOSTIC,
		},
	}
}

func dataLegio(key string, bit uint8, name string, deviceClass string) Entry {
	return Entry{
		Key:   "legio_status." + key,
		Field: Flag(DATA_LEGIO_STATUS_REGISTER, bit),
		Meta: EntityMeta{
			Name:        name,
			Device:      DeviceLegioProtection,
			Icon:        "mdi:shield-sun",
			DeviceClass: deviceClass,
		},
	}
}

// time spent in each operating mode, one >L struct every two registers
var dataModeDurations = []struct {
	key    string
	name   string
	device DeviceKey
}{
	{"set_heater_step", "Set heater step", DeviceEnergyManager},
	{"load_setpoint", "Load setpoint", DeviceEnergyManager},
	{"load_feedin", "Load feed-in", DeviceEnergyManager},
	{"heatpump_request", "Heat pump request", DeviceHeatPump},
	{"analog_input", "Analog input", DeviceAnalogInput},
	{"emergency_mode", "Emergency mode", DeviceWaterBoiler},
	{"legio_protection", "Legionella protection", DeviceLegioProtection},
	{"low_tariff", "Low tariff", DeviceWaterBoiler},
	{"minimal_temp", "Minimal temperature", DeviceWaterBoiler},
	{"heater_step1", "Heater step 1", DeviceEnergyManager},
	{"heater_step2", "Heater step 2", DeviceEnergyManager},
	{"heater_step3", "Heater step 3", DeviceEnergyManager},
	{"heater_step4", "Heater step 4", DeviceEnergyManager},
	{"heater_step5", "Heater step 5", DeviceEnergyManager},
	{"heater_step6", "Heater step 6", DeviceEnergyManager},
	{"heater_step7", "Heater step 7", DeviceEnergyManager},
}

// activation counters of the same modes, starting at register 79
var dataModeCounts = []string{
	"set_heater_step",
	"load_setpoint",
	"load_feedin",
	"heatpump_request",
	"analog_input",
	"emergency_mode",
	"legio_protection",
	"low_tariff",
	"minimal_temp",
}

func dataSensors() []Entry {
	sensors := []Entry{
		dataMinutes("operating_time_minutes", 0, "Operating time", DeviceWaterBoiler),
		dataMinutes("heater1_operating_time_minutes", 2, "Heater 1 operating time", DeviceWaterBoiler),
		dataMinutes("heater2_operating_time_minutes", 4, "Heater 2 operating time", DeviceWaterBoiler),
		dataMinutes("heater3_operating_time_minutes", 6, "Heater 3 operating time", DeviceWaterBoiler),
		dataMinutes("pump_operating_time_minutes", 8, "Pump operating time", DeviceWaterBoiler),
		dataMinutes("valve_operating_time_minutes", 10, "Valve operating time", DeviceWaterBoiler),
		dataCounter("relay1_switch_count", 12, "Relay 1 switch count", DeviceWaterBoiler),
		dataCounter("relay2_switch_count", 14, "Relay 2 switch count", DeviceWaterBoiler),
		dataCounter("relay3_switch_count", 16, "Relay 3 switch count", DeviceWaterBoiler),
		dataCounter("relay4_switch_count", 18, "Relay 4 switch count", DeviceWaterBoiler),
		dataMinutes("since_last_legio_activation_minutes", 28, "Time since last legionella protection", DeviceLegioProtection),
		{
			Key:   "legio_plateau_timer",
			Field: UInt16(30),
			Meta: EntityMeta{
				Name:           "Legionella plateau timer",
				Device:         DeviceLegioProtection,
				Icon:           "mdi:timer-sand",
				Unit:           UNIT_SECONDS,
				DeviceClass:    DEVICE_CLASS_DURATION,
				StateClass:     STATE_CLASS_MEASUREMENT,
				EntityCategory: ENTITY_CATEGORY_DIAGNOSTIC,
			},
		},
		{
			Key:   "analog_input_step",
			Field: Byte(39),
			Meta: EntityMeta{
				Name:   "Analog input step",
				Device: DeviceAnalogInput,
				Icon:   "mdi:stairs",
			},
		},
		{
			Key:   "actual_temp_limit",
			Field: UInt16(40),
			Meta: EntityMeta{
				Name:        "Actual temperature limit",
				Device:      DeviceWaterBoiler,
				Icon:        "mdi:thermometer-alert",
				Unit:        UNIT_CELSIUS,
				DeviceClass: DEVICE_CLASS_TEMPERATURE,
				StateClass:  STATE_CLASS_MEASUREMENT,
			},
		},
		{
			Key:   "auto_heater_off_countdown_minutes",
			Field: UInt32(41),
			Meta: EntityMeta{
				Name:        "Auto heater off countdown",
				Device:      DeviceWaterBoiler,
				Icon:        "mdi:timer-off",
				Unit:        UNIT_MINUTES,
				DeviceClass: DEVICE_CLASS_DURATION,
				StateClass:  STATE_CLASS_MEASUREMENT,
			},
		},
		{
			Key:   "emergency_off_countdown_minutes",
			Field: UInt32(43),
			Meta: EntityMeta{
				Name:        "Emergency mode off countdown",
				Device:      DeviceWaterBoiler,
				Icon:        "mdi:timer-off",
				Unit:        UNIT_MINUTES,
				DeviceClass: DEVICE_CLASS_DURATION,
				StateClass:  STATE_CLASS_MEASUREMENT,
			},
		},
		dataCounter("boot_count", 45, "Boot count", DeviceModbusMaster),
	}

	for i, d := range dataModeDurations {
		sensors = append(sensors, dataMinutes(d.key+"_minutes", uint16(47+2*i), d.name+" time", d.device))
	}
	for i, key := range dataModeCounts {
		sensors = append(sensors, dataCounter(key+"_count", uint16(79+2*i), dataModeDurations[i].name+" count", dataModeDurations[i].device))
	}

	sensors = append(sensors, Entry{
		Key:   "max_measured_temp",
		Field: Byte(97),
		Meta: EntityMeta{
			Name:           "Maximum measured temperature",
			Device:         DeviceWaterBoiler,
			Icon:           "mdi:thermometer-high",
			Unit:           UNIT_CELSIUS,
			DeviceClass:    DEVICE_CLASS_TEMPERATURE,
			StateClass:     STATE_CLASS_MEASUREMENT,
			EntityCategory: ENTITY_CATEGORY_DIAGNOSTIC,
		},
	})
	return sensors
}

var DataBlock = &BlockDescriptor{
	Name:         "data",
	Base:         DATA_BASE,
	Count:        DATA_COUNT,
	RegisterType: InputRegister,
	BinarySensors: []Entry{
		dataLegio("heating_up", 0, "Legionella protection heating up", DEVICE_CLASS_RUNNING),
		dataLegio("temperature_reached", 1, "Legionella protection temperature reached", DEVICE_CLASS_RUNNING),
		dataLegio("temp_reached_outside_interval", 2, "Legionella temperature reached outside interval", DEVICE_CLASS_RUNNING),
		dataLegio("unexpected_temp_drop", 4, "Legionella protection unexpected temperature drop", DEVICE_CLASS_PROBLEM),
		dataLegio("error_no_valid_temp_sensor", 5, "Legionella protection no valid temperature sensor", DEVICE_CLASS_PROBLEM),
		dataLegio("error_cannot_reach_temp", 6, "Legionella protection cannot reach temperature", DEVICE_CLASS_PROBLEM),
		dataLegio("error_settings", 7, "Legionella protection settings error", DEVICE_CLASS_PROBLEM),
	},
	Sensors: dataSensors(),
}
