package askoheat_modbus

// Energy manager block (EMA): live status, temperatures and the values an
// external energy manager writes to control the heater.

const (
	EMA_BASE            = 300
	EMA_COUNT           = 37
	EMA_STATUS_REGISTER = 16

	EMA_KEY_LOAD_FEEDIN     = "load_feedin"
	EMA_KEY_EMERGENCY_MODE  = "status.emergency_mode"
	EMA_KEY_SET_HEATER_STEP = "set_heater_step"
)

const (
	UNIT_WATT    = "W"
	UNIT_VOLT    = "V"
	UNIT_CELSIUS = "°C"
	UNIT_MINUTES = "min"
	UNIT_SECONDS = "s"
	UNIT_LITER   = "L"

	DEVICE_CLASS_RUNNING     = "running"
	DEVICE_CLASS_PROBLEM     = "problem"
	DEVICE_CLASS_POWER       = "power"
	DEVICE_CLASS_VOLTAGE     = "voltage"
	DEVICE_CLASS_TEMPERATURE = "temperature"
	DEVICE_CLASS_DURATION    = "duration"

	STATE_CLASS_MEASUREMENT      = "measurement"
	STATE_CLASS_TOTAL_INCREASING = "total_increasing"

	ENTITY_CATEGORY_DIAGNOSTIC = "diagnostic"
	ENTITY_CATEGORY_CONFIG     = "config"

	NUMBER_MODE_BOX    = "box"
	NUMBER_MODE_SLIDER = "slider"
)

func emaStatus(key string, bit uint8, device DeviceKey, icon string, deviceClass string) Entry {
	return Entry{
		Key:   "status." + key,
		Field: Flag(EMA_STATUS_REGISTER, bit),
		Meta: EntityMeta{
			Device:      device,
			Icon:        icon,
			DeviceClass: deviceClass,
		},
	}
}

func emaTemperature(key string, offset uint16, name string, disabled bool) Entry {
	return Entry{
		Key:   key,
		Field: Float32(offset),
		Meta: EntityMeta{
			Name:              name,
			Device:            DeviceWaterBoiler,
			Icon:              "mdi:thermometer",
			Unit:              UNIT_CELSIUS,
			DeviceClass:       DEVICE_CLASS_TEMPERATURE,
			StateClass:        STATE_CLASS_MEASUREMENT,
			Precision:         1,
			Min:               0,
			Max:               120,
			DisabledByDefault: disabled,
		},
	}
}

func emaBinarySensors() []Entry {
	pump := emaStatus("pump", 3, DeviceWaterBoiler, "mdi:pump", DEVICE_CLASS_RUNNING)
	pump.Meta.DisabledByDefault = true
	relayBoard := emaStatus("relay_board_connected", 4, DeviceWaterBoiler, "mdi:connection", DEVICE_CLASS_PROBLEM)
	relayBoard.Meta.DisabledByDefault = true
	autoheater := emaStatus("autoheater", 12, DeviceWaterBoiler, "mdi:water-boiler-auto", DEVICE_CLASS_RUNNING)
	autoheater.Meta.Inverted = true
	followUp := emaStatus("pump_relay_follow_up_time_active", 13, DeviceWaterBoiler, "mdi:water-boiler-auto", DEVICE_CLASS_RUNNING)
	followUp.Meta.DisabledByDefault = true

	return []Entry{
		emaStatus("heater1", 0, DeviceWaterBoiler, "mdi:power-plug", DEVICE_CLASS_RUNNING),
		emaStatus("heater2", 1, DeviceWaterBoiler, "mdi:power-plug", DEVICE_CLASS_RUNNING),
		emaStatus("heater3", 2, DeviceWaterBoiler, "mdi:power-plug", DEVICE_CLASS_RUNNING),
		pump,
		relayBoard,
		// bit 5 is not used
		emaStatus("heat_pump_request", 6, DeviceHeatPump, "mdi:heat-pump", DEVICE_CLASS_RUNNING),
		emaStatus("emergency_mode", 7, DeviceWaterBoiler, "mdi:car-emergency", DEVICE_CLASS_RUNNING),
		emaStatus("legionella_protection", 8, DeviceLegioProtection, "mdi:shield-sun", DEVICE_CLASS_RUNNING),
		emaStatus("analog_input", 9, DeviceAnalogInput, "mdi:sine-wave", DEVICE_CLASS_RUNNING),
		emaStatus("setpoint", 10, DeviceEnergyManager, "mdi:finance", DEVICE_CLASS_RUNNING),
		emaStatus("load_feedin", 11, DeviceEnergyManager, "mdi:solar-power", DEVICE_CLASS_RUNNING),
		autoheater,
		followUp,
		emaStatus("temp_limit_reached", 14, DeviceWaterBoiler, "mdi:water-boiler-auto", DEVICE_CLASS_RUNNING),
		emaStatus("error", 15, DeviceWaterBoiler, "mdi:alert-circle", DEVICE_CLASS_PROBLEM),
	}
}

var EMABlock = &BlockDescriptor{
	Name:          "ema",
	Base:          EMA_BASE,
	Count:         EMA_COUNT,
	RegisterType:  InputRegister,
	BinarySensors: emaBinarySensors(),
	Sensors: []Entry{
		{
			Key:   "heater_load",
			Field: UInt16(17),
			Meta: EntityMeta{
				Name:        "Heater load",
				Device:      DeviceWaterBoiler,
				Icon:        "mdi:lightning-bolt",
				Unit:        UNIT_WATT,
				DeviceClass: DEVICE_CLASS_POWER,
				StateClass:  STATE_CLASS_MEASUREMENT,
			},
		},
		{
			Key:   "analog_input",
			Field: Float32(23),
			Meta: EntityMeta{
				Name:        "Analog input",
				Device:      DeviceAnalogInput,
				Icon:        "mdi:gauge",
				Unit:        UNIT_VOLT,
				DeviceClass: DEVICE_CLASS_VOLTAGE,
				StateClass:  STATE_CLASS_MEASUREMENT,
				Precision:   2,
				Min:         0,
				Max:         10,
			},
		},
		emaTemperature("internal_temp_sensor", 25, "Internal temperature", false),
		emaTemperature("external_temp_sensor1", 27, "External temperature 1", true),
		emaTemperature("external_temp_sensor2", 29, "External temperature 2", true),
		emaTemperature("external_temp_sensor3", 31, "External temperature 3", true),
		emaTemperature("external_temp_sensor4", 33, "External temperature 4", true),
	},
	Switches: []Entry{
		// single heater bits of the set heater step register
		{Key: "set_heater_step_heater1", Field: Flag(18, 0), Meta: EntityMeta{Name: "Heater 1", Device: DeviceEnergyManager, Icon: "mdi:heat-wave"}},
		{Key: "set_heater_step_heater2", Field: Flag(18, 1), Meta: EntityMeta{Name: "Heater 2", Device: DeviceEnergyManager, Icon: "mdi:heat-wave"}},
		{Key: "set_heater_step_heater3", Field: Flag(18, 2), Meta: EntityMeta{Name: "Heater 3", Device: DeviceEnergyManager, Icon: "mdi:heat-wave"}},
	},
	NumberInputs: []Entry{
		{
			Key:   EMA_KEY_SET_HEATER_STEP,
			Field: Byte(18),
			Meta: EntityMeta{
				Name:   "Set heater step",
				Device: DeviceEnergyManager,
				Icon:   "mdi:lightning-bolt",
				Min:    0,
				Max:    7,
				Step:   1,
				Mode:   NUMBER_MODE_SLIDER,
			},
		},
		{
			Key:   "load_setpoint",
			Field: Int16(19),
			Meta: EntityMeta{
				Name:              "Load setpoint",
				Device:            DeviceEnergyManager,
				Icon:              "mdi:lightning-bolt",
				Unit:              UNIT_WATT,
				Min:               250,
				Max:               30000,
				Step:              1,
				Mode:              NUMBER_MODE_BOX,
				DisabledByDefault: true,
			},
		},
		{
			Key:   EMA_KEY_LOAD_FEEDIN,
			Field: Int16(20),
			Meta: EntityMeta{
				Name:   "Load feed-in",
				Device: DeviceEnergyManager,
				Icon:   "mdi:solar-power",
				Unit:   UNIT_WATT,
				Min:    -30000,
				Max:    30000,
				Step:   1,
				Mode:   NUMBER_MODE_BOX,
			},
		},
	},
}
