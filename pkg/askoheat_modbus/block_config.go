package askoheat_modbus

import "fmt"

// Configuration block. Holding registers, every entry is writable.

const (
	CONF_BASE  = 500
	CONF_COUNT = 100

	CONF_INPUT_SETTINGS_REGISTER = 2
	CONF_AUTO_OFF_REGISTER       = 4
	CONF_HEATBUFFER_REGISTER     = 5
	CONF_HEATER_POSITION         = 6
	CONF_LEGIO_SETTINGS_REGISTER = 9
	CONF_HOUSE_TYPE_REGISTER     = 14
	CONF_RTU_SETTINGS_REGISTER   = 20
	CONF_TEMP_SENSOR_REGISTER    = 80

	CONF_KEY_LOAD_FEEDIN_VALUE_ENABLED = "load_feedin_value_enabled"
)

func confSwitch(key string, offset uint16, bit uint8, name string, device DeviceKey, icon string) Entry {
	return Entry{
		Key:   key,
		Field: Flag(offset, bit),
		Meta: EntityMeta{
			Name:           name,
			Device:         device,
			Icon:           icon,
			EntityCategory: ENTITY_CATEGORY_CONFIG,
		},
	}
}

func confNumber(key string, field Field, name string, device DeviceKey, unit string, min float64, max float64) Entry {
	return Entry{
		Key:   key,
		Field: field,
		Meta: EntityMeta{
			Name:           name,
			Device:         device,
			Unit:           unit,
			Min:            min,
			Max:            max,
			Step:           1,
			Mode:           NUMBER_MODE_BOX,
			EntityCategory: ENTITY_CATEGORY_CONFIG,
		},
	}
}

func confTemperature(key string, offset uint16, name string, device DeviceKey) Entry {
	e := confNumber(key, Byte(offset), name, device, UNIT_CELSIUS, 0, 95)
	e.Meta.Icon = "mdi:thermometer"
	e.Meta.DeviceClass = DEVICE_CLASS_TEMPERATURE
	return e
}

func confSwitches() []Entry {
	switches := []Entry{
		confSwitch("missing_current_flow_triggers_error", CONF_INPUT_SETTINGS_REGISTER, 0, "Missing current flow triggers error", DeviceWaterBoiler, "mdi:alert"),
		confSwitch("heater_load_value_only_if_current_flows", CONF_INPUT_SETTINGS_REGISTER, 1, "Heater load value only if current flows", DeviceWaterBoiler, "mdi:current-ac"),
		confSwitch(CONF_KEY_LOAD_FEEDIN_VALUE_ENABLED, CONF_INPUT_SETTINGS_REGISTER, 2, "Load feed-in enabled", DeviceEnergyManager, "mdi:solar-power"),
		confSwitch("load_setpoint_value_enabled", CONF_INPUT_SETTINGS_REGISTER, 3, "Load setpoint enabled", DeviceEnergyManager, "mdi:finance"),
		confSwitch("set_heater_step_value_enabled", CONF_INPUT_SETTINGS_REGISTER, 4, "Set heater step enabled", DeviceEnergyManager, "mdi:stairs"),
		confSwitch("analog_input_enabled", CONF_INPUT_SETTINGS_REGISTER, 5, "Analog input enabled", DeviceAnalogInput, "mdi:sine-wave"),
		confSwitch("heatpump_request_enabled", CONF_INPUT_SETTINGS_REGISTER, 6, "Heat pump request enabled", DeviceHeatPump, "mdi:heat-pump"),
		confSwitch("emergency_mode_enabled", CONF_INPUT_SETTINGS_REGISTER, 7, "Emergency mode enabled", DeviceWaterBoiler, "mdi:car-emergency"),
		confSwitch("low_tariff_option_enabled", CONF_INPUT_SETTINGS_REGISTER, 8, "Low tariff enabled", DeviceWaterBoiler, "mdi:cash-clock"),
		confSwitch("hold_minimal_temperature_enabled", CONF_INPUT_SETTINGS_REGISTER, 9, "Hold minimal temperature", DeviceWaterBoiler, "mdi:thermometer-low"),
		confSwitch("sw_control_sma_semp_enabled", CONF_INPUT_SETTINGS_REGISTER, 10, "SMA SEMP control", DeviceEnergyManager, "mdi:solar-power-variant"),
		confSwitch("sw_control_senec_home_enabled", CONF_INPUT_SETTINGS_REGISTER, 11, "SENEC home control", DeviceEnergyManager, "mdi:home-battery"),

		confSwitch("auto_heater_off_enabled", CONF_AUTO_OFF_REGISTER, 0, "Auto heater off", DeviceWaterBoiler, "mdi:timer-off"),
		confSwitch("auto_off_by_set_heater_step", CONF_AUTO_OFF_REGISTER, 1, "Auto off by set heater step", DeviceWaterBoiler, "mdi:timer-off"),
		confSwitch("auto_off_by_load_setpoint", CONF_AUTO_OFF_REGISTER, 2, "Auto off by load setpoint", DeviceWaterBoiler, "mdi:timer-off"),
		confSwitch("auto_off_by_load_feedin", CONF_AUTO_OFF_REGISTER, 3, "Auto off by load feed-in", DeviceWaterBoiler, "mdi:timer-off"),
		confSwitch("auto_off_by_analog_input", CONF_AUTO_OFF_REGISTER, 4, "Auto off by analog input", DeviceWaterBoiler, "mdi:timer-off"),
		confSwitch("auto_off_by_heatpump_request", CONF_AUTO_OFF_REGISTER, 5, "Auto off by heat pump request", DeviceWaterBoiler, "mdi:timer-off"),
	}

	for i, t := range []string{"tap_water", "heating", "combined", "pool", "solar", "heat_pump", "wood", "other"} {
		switches = append(switches, confSwitch("heatbuffer_type_"+t, CONF_HEATBUFFER_REGISTER, uint8(i),
			"Heat buffer type "+t, DeviceWaterBoiler, "mdi:water-boiler"))
	}
	for i, p := range []string{"bottom", "middle", "asko4heat"} {
		switches = append(switches, confSwitch("heater_position_"+p, CONF_HEATER_POSITION, uint8(i),
			"Heater position "+p, DeviceWaterBoiler, "mdi:arrow-up-down"))
	}

	legio := []string{"use_internal_temp_sensor", "use_external_temp_sensor1", "use_external_temp_sensor2",
		"use_external_temp_sensor3", "use_external_temp_sensor4"}
	for i, k := range legio {
		switches = append(switches, confSwitch("legio_"+k, CONF_LEGIO_SETTINGS_REGISTER, uint8(i),
			"Legionella "+k, DeviceLegioProtection, "mdi:thermometer"))
	}
	for i, interval := range []string{"daily", "weekly", "fortnightly", "monthly"} {
		switches = append(switches, confSwitch("legio_interval_"+interval, CONF_LEGIO_SETTINGS_REGISTER, uint8(8+i),
			"Legionella interval "+interval, DeviceLegioProtection, "mdi:calendar"))
	}
	switches = append(switches,
		confSwitch("legio_prefer_feedin_energy", CONF_LEGIO_SETTINGS_REGISTER, 12, "Legionella prefers feed-in energy", DeviceLegioProtection, "mdi:solar-power"),
		confSwitch("legio_protection_enabled", CONF_LEGIO_SETTINGS_REGISTER, 13, "Legionella protection", DeviceLegioProtection, "mdi:shield-sun"),
	)

	for i, h := range []string{"one_family_house", "two_family_house", "apartment_building", "commercial"} {
		switches = append(switches, confSwitch("house_type_"+h, CONF_HOUSE_TYPE_REGISTER, uint8(i),
			"House type "+h, DeviceWaterBoiler, "mdi:home"))
	}

	switches = append(switches,
		confSwitch("is_summer_time", 18, 0, "Summer time", DeviceModbusMaster, "mdi:sun-clock"),
		confSwitch("rtu_send_two_stop_bits", CONF_RTU_SETTINGS_REGISTER, 0, "RTU two stop bits", DeviceModbusMaster, "mdi:serial-port"),
		confSwitch("rtu_parity_even", CONF_RTU_SETTINGS_REGISTER, 1, "RTU parity even", DeviceModbusMaster, "mdi:serial-port"),
		confSwitch("rtu_parity_odd", CONF_RTU_SETTINGS_REGISTER, 2, "RTU parity odd", DeviceModbusMaster, "mdi:serial-port"),
		confSwitch("rtu_slave_mode_active", CONF_RTU_SETTINGS_REGISTER, 3, "RTU slave mode", DeviceModbusMaster, "mdi:serial-port"),
		confSwitch("rtu_master_mode_active", CONF_RTU_SETTINGS_REGISTER, 4, "RTU master mode", DeviceModbusMaster, "mdi:serial-port"),
	)

	sensors := []string{"use_internal_temp_sensor", "use_external_temp_sensor1", "use_external_temp_sensor2",
		"use_external_temp_sensor3", "use_external_temp_sensor4"}
	for i, k := range sensors {
		switches = append(switches, confSwitch(k, CONF_TEMP_SENSOR_REGISTER, uint8(i),
			"Water heater "+k, DeviceWaterBoiler, "mdi:thermometer"))
	}
	return switches
}

func confNumbers() []Entry {
	legioTemp := confTemperature("legio_protection_temperature", 10, "Legionella protection temperature", DeviceLegioProtection)
	legioTemp.Meta.Min = 50
	legioTemp.Meta.Max = 65

	numbers := []Entry{
		confNumber("relay_switch_on_inhibit_seconds", Byte(0), "Relay switch on inhibit", DeviceWaterBoiler, UNIT_SECONDS, 0, 16),
		confNumber("pump_follow_up_time_seconds", Byte(1), "Pump follow up time", DeviceWaterBoiler, UNIT_SECONDS, 0, 240),
		confNumber("auto_heater_off_minutes", UInt16(3), "Auto heater off", DeviceWaterBoiler, UNIT_MINUTES, 2, 10080),
		confNumber("cascade_priorization", Byte(7), "Cascade priorization", DeviceWaterBoiler, "", 0, 255),
		confNumber("heatbuffer_volume_liter", UInt16(8), "Heat buffer volume", DeviceWaterBoiler, UNIT_LITER, 0, 1000),
		legioTemp,
		confNumber("legio_protection_heatup_minutes", UInt16(13), "Legionella protection heat up time", DeviceLegioProtection, UNIT_MINUTES, 0, 1440),
		confNumber("number_of_household_members", Byte(15), "Household members", DeviceWaterBoiler, "", 1, 255),
		confNumber("load_feedin_basic_energy_level", UInt16(16), "Load feed-in basic energy level", DeviceEnergyManager, UNIT_WATT, 0, 10000),
		confNumber("timezone_offset", Int16(17), "Timezone offset", DeviceModbusMaster, "h", -12, 12),
		confNumber("rtu_slave_id", Byte(21), "RTU slave id", DeviceModbusMaster, "", 0, 240),
		confNumber("load_feedin_delay_seconds", Byte(42), "Load feed-in delay", DeviceEnergyManager, UNIT_SECONDS, 0, 120),
	}
	hysteresis := confNumber("analog_input_hysteresis", Float32(43), "Analog input hysteresis", DeviceAnalogInput, UNIT_VOLT, 0, 10)
	hysteresis.Meta.Step = 0.01
	hysteresis.Meta.Precision = 2
	numbers = append(numbers, hysteresis)

	// 8 analog input thresholds, 4 registers each
	for i := 0; i < 8; i++ {
		base := uint16(45 + 4*i)
		threshold := confNumber(fmt.Sprintf("analog_input_%d_threshold", i), Float32(base),
			fmt.Sprintf("Analog input %d threshold", i), DeviceAnalogInput, UNIT_VOLT, 0, 10)
		threshold.Meta.Step = 0.01
		threshold.Meta.Precision = 2
		numbers = append(numbers,
			threshold,
			confNumber(fmt.Sprintf("analog_input_%d_threshold_step", i), Byte(base+2),
				fmt.Sprintf("Analog input %d step", i), DeviceAnalogInput, "", 0, 7),
			confTemperature(fmt.Sprintf("analog_input_%d_threshold_temperature", i), base+3,
				fmt.Sprintf("Analog input %d temperature", i), DeviceAnalogInput),
		)
	}

	numbers = append(numbers,
		confNumber("heat_pump_request_off_step", Byte(77), "Heat pump request off step", DeviceHeatPump, "", 0, 7),
		confNumber("heat_pump_request_on_step", Byte(78), "Heat pump request on step", DeviceHeatPump, "", 0, 7),
		confNumber("emergency_mode_on_step", Byte(79), "Emergency mode on step", DeviceWaterBoiler, "", 0, 7),
		confNumber("temperature_hysteresis", Byte(81), "Temperature hysteresis", DeviceWaterBoiler, UNIT_CELSIUS, 0, 10),
		confTemperature("minimal_temperature", 82, "Minimal temperature", DeviceWaterBoiler),
		confTemperature("set_heater_step_temp_limit", 83, "Set heater step temperature limit", DeviceEnergyManager),
		confTemperature("load_feedin_or_setpoint_temp_limit", 84, "Load feed-in or setpoint temperature limit", DeviceEnergyManager),
		confTemperature("low_tariff_temp_limit", 85, "Low tariff temperature limit", DeviceWaterBoiler),
		confTemperature("heatpump_request_temp_limit", 86, "Heat pump request temperature limit", DeviceHeatPump),
	)
	return numbers
}

func confTime(key string, offset uint16, name string, device DeviceKey) Entry {
	return Entry{
		Key:   key,
		Field: Time(offset),
		Meta: EntityMeta{
			Name:           name,
			Device:         device,
			Icon:           "mdi:clock-outline",
			EntityCategory: ENTITY_CATEGORY_CONFIG,
		},
	}
}

var ConfigBlock = &BlockDescriptor{
	Name:         "config",
	Base:         CONF_BASE,
	Count:        CONF_COUNT,
	RegisterType: HoldingRegister,
	Switches:     confSwitches(),
	NumberInputs: confNumbers(),
	TextInputs: []Entry{
		{
			Key:   "info_string",
			Field: String(91, 9),
			Meta: EntityMeta{
				Name:           "Info string",
				Device:         DeviceModbusMaster,
				Icon:           "mdi:information-outline",
				EntityCategory: ENTITY_CATEGORY_CONFIG,
			},
		},
	},
	TimeInputs: []Entry{
		confTime("legio_protection_preferred_start_time", 11, "Legionella protection start time", DeviceLegioProtection),
		confTime("low_tariff_start_time", 87, "Low tariff start time", DeviceWaterBoiler),
		confTime("low_tariff_end_time", 89, "Low tariff end time", DeviceWaterBoiler),
	},
	SelectInputs: []Entry{
		{
			Key:   "rtu_baudrate",
			Field: EnumStr(22, 3, Baudrates...),
			Meta: EntityMeta{
				Name:           "RTU baud rate",
				Device:         DeviceModbusMaster,
				Icon:           "mdi:speedometer",
				EntityCategory: ENTITY_CATEGORY_CONFIG,
			},
		},
		{
			Key:   "smart_meter_type",
			Field: EnumStr(25, 16, SmartMeterTypes...),
			Meta: EntityMeta{
				Name:           "Smart meter type",
				Device:         DeviceEnergyManager,
				Icon:           "mdi:meter-electric",
				EntityCategory: ENTITY_CATEGORY_CONFIG,
			},
		},
		{
			Key:   "energy_meter_type",
			Field: EnumInt(41, EnergyMeterTypes...),
			Meta: EntityMeta{
				Name:           "Energy meter type",
				Device:         DeviceEnergyManager,
				Icon:           "mdi:meter-electric-outline",
				EntityCategory: ENTITY_CATEGORY_CONFIG,
			},
		},
	},
}
