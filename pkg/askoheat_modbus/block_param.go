package askoheat_modbus

// Parameter block: fixed device identity and ratings.

const (
	PAR_BASE  = 400
	PAR_COUNT = 36

	PAR_FEATURES_REGISTER = 33

	PAR_KEY_ARTICLE_NUMBER   = "article_number"
	PAR_KEY_SERIAL_NUMBER    = "serial_number"
	PAR_KEY_SOFTWARE_VERSION = "software_version"
	PAR_KEY_HARDWARE_VERSION = "hardware_version"
	PAR_KEY_NUMBER_HEATERS   = "number_of_heaters"
	PAR_KEY_RATED_POWER      = "rated_power_watt"
)

func parInfo(key string, field Field, name string, icon string) Entry {
	return Entry{
		Key:   key,
		Field: field,
		Meta: EntityMeta{
			Name:           name,
			Device:         DeviceModbusMaster,
			Icon:           icon,
			EntityCategory: ENTITY_CATEGORY_DIAGNOSTIC,
		},
	}
}

func parFeature(key string, bit uint8, name string) Entry {
	return Entry{
		Key:   "feature." + key,
		Field: Flag(PAR_FEATURES_REGISTER, bit),
		Meta: EntityMeta{
			Name:           name,
			Device:         DeviceWaterBoiler,
			Icon:           "mdi:puzzle",
			EntityCategory: ENTITY_CATEGORY_DIAGNOSTIC,
		},
	}
}

var ParameterBlock = &BlockDescriptor{
	Name:         "parameter",
	Base:         PAR_BASE,
	Count:        PAR_COUNT,
	RegisterType: InputRegister,
	BinarySensors: []Entry{
		parFeature("pump", 0, "Pump installed"),
		parFeature("valve", 1, "Valve installed"),
		parFeature("external_relay", 2, "External relay installed"),
		parFeature("analog_input", 3, "Analog input installed"),
	},
	Sensors: []Entry{
		parInfo(PAR_KEY_ARTICLE_NUMBER, String(0, 10), "Article number", "mdi:barcode"),
		parInfo(PAR_KEY_SERIAL_NUMBER, String(10, 10), "Serial number", "mdi:numeric"),
		parInfo(PAR_KEY_SOFTWARE_VERSION, String(20, 5), "Software version", "mdi:package-variant"),
		parInfo(PAR_KEY_HARDWARE_VERSION, String(25, 5), "Hardware version", "mdi:chip"),
		parInfo(PAR_KEY_NUMBER_HEATERS, Byte(30), "Number of heaters", "mdi:heating-coil"),
		{
			Key:   PAR_KEY_RATED_POWER,
			Field: UInt16(31),
			Meta: EntityMeta{
				Name:           "Rated power",
				Device:         DeviceWaterBoiler,
				Icon:           "mdi:flash",
				Unit:           UNIT_WATT,
				DeviceClass:    DEVICE_CLASS_POWER,
				EntityCategory: ENTITY_CATEGORY_DIAGNOSTIC,
			},
		},
		{
			Key:   "rated_voltage",
			Field: UInt16(32),
			Meta: EntityMeta{
				Name:           "Rated voltage",
				Device:         DeviceWaterBoiler,
				Icon:           "mdi:flash-triangle",
				Unit:           UNIT_VOLT,
				DeviceClass:    DEVICE_CLASS_VOLTAGE,
				EntityCategory: ENTITY_CATEGORY_DIAGNOSTIC,
			},
		},
		parInfo("production_date", UInt32(34), "Production date", "mdi:calendar"),
	},
}
