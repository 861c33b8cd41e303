package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"

	"github.com/berfenger/askoheat2mqtt/pkg/askoheat_modbus"

	"github.com/carlmjohnson/versioninfo"
)

const (
	SENSOR_ID_BRIDGE_STATE             = "bridge"
	SWITCH_ID_AUTO_FEEDIN              = "auto_feedin"
	INPUT_NUMBER_ID_AUTO_FEEDIN_BUFFER = "auto_feedin_buffer"
	SWITCH_ID_EMERGENCY_MODE           = "emergency_mode"
	DEVICE_CLASS_CONNECTIVITY          = "connectivity"
	ENTITY_CLASS_DIAGNOSTIC            = "diagnostic"
	ENTITY_CLASS_CONFIG                = "config"
	SENSOR_TYPE_SENSOR                 = "sensor"
	SENSOR_TYPE_BINARY                 = "binary_sensor"
	INPUT_NUMBER_MODE_BOX              = "box"
	INPUT_NUMBER_MODE_SLIDER           = "slider"
	TIME_INPUT_PATTERN                 = "^([01][0-9]|2[0-3]):[0-5][0-9]$"
	FEEDIN_MAX_WATT                    = 30000
	MANUFACTURER                       = "Askoma"
)

// EntityId builds the MQTT id of a block entry. Category qualifiers in the
// key ("status.heater1") become underscores.
func EntityId(block, key string) string {
	return block + "_" + strings.ReplaceAll(key, ".", "_")
}

func BridgeDevice(baseTopic string) Device {
	return Device{
		Id:           fmt.Sprintf("askoheat_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "ACasal",
		Model:        "askoheat2mqtt",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("Askoheat bridge %s", md5HashShort(baseTopic)),
	}
}

// AskoheatDevices creates one Home Assistant device per supported sub device
// of the heater, all linked to the bridge.
func AskoheatDevices(info *askoheat_modbus.DeviceInfo, bridge Device, supported []askoheat_modbus.DeviceKey) map[askoheat_modbus.DeviceKey]Device {
	devices := make(map[askoheat_modbus.DeviceKey]Device, len(supported))
	serialHash := md5HashShort(info.SerialNumber)
	for _, key := range supported {
		devices[key] = Device{
			Id:           fmt.Sprintf("asko_%s_%s", key, serialHash),
			Name:         fmt.Sprintf("Askoheat+ %s %s", key.DisplayName(), serialHash),
			Manufacturer: MANUFACTURER,
			Model:        info.ArticleNumber,
			Version:      info.SoftwareVersion,
			ViaDevice:    bridge.Id,
		}
	}
	return devices
}

func IdDevice(device Device) Device {
	return Device{
		Id:   device.Id,
		Name: device.Name,
	}
}

func BridgeSensors(bridgeDevice Device) []GenericSensor {

	var sensors []GenericSensor

	// Bridge connection state
	sensors = append(sensors, GenericSensor{
		Device:         bridgeDevice,
		Id:             SENSOR_ID_BRIDGE_STATE,
		SensorType:     SENSOR_TYPE_BINARY,
		Name:           "Connection state",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(bridgeDevice.Id, SENSOR_ID_BRIDGE_STATE),
	})

	return sensors
}

func FeedInEntities(energyManager Device, initialBuffer int32) Entities {
	return Entities{
		Switches: []GenericSwitch{{
			Device:   energyManager,
			Id:       SWITCH_ID_AUTO_FEEDIN,
			Name:     "Auto feed-in",
			UniqueId: uniqueId(energyManager.Id, SWITCH_ID_AUTO_FEEDIN),
			Icon:     "mdi:solar-power",
		}},
		InputNumbers: []GenericInputNumber{{
			Device:            energyManager,
			Id:                INPUT_NUMBER_ID_AUTO_FEEDIN_BUFFER,
			Name:              "Auto feed-in buffer",
			UniqueId:          uniqueId(energyManager.Id, INPUT_NUMBER_ID_AUTO_FEEDIN_BUFFER),
			Icon:              "mdi:gate-buffer",
			UnitOfMeasurement: askoheat_modbus.UNIT_WATT,
			Min:               -FEEDIN_MAX_WATT,
			Max:               FEEDIN_MAX_WATT,
			Step:              1,
			Mode:              INPUT_NUMBER_MODE_BOX,
			InitialValue:      float64(initialBuffer),
		}},
	}
}

func EmergencyEntities(waterBoiler Device) Entities {
	return Entities{
		Switches: []GenericSwitch{{
			Device:   waterBoiler,
			Id:       SWITCH_ID_EMERGENCY_MODE,
			Name:     "Emergency mode",
			UniqueId: uniqueId(waterBoiler.Id, SWITCH_ID_EMERGENCY_MODE),
			Icon:     "mdi:car-emergency",
		}},
	}
}

// BlockEntities turns the entries of a register block into components.
// Entries owned by a sub device missing from devices are skipped. Entries
// without an owner go to the energy manager.
func BlockEntities(block *askoheat_modbus.BlockDescriptor, devices map[askoheat_modbus.DeviceKey]Device) Entities {
	var entities Entities

	// the first entity of every device carries the full device description
	seen := map[askoheat_modbus.DeviceKey]bool{}
	owner := func(e askoheat_modbus.Entry) (Device, bool) {
		key := EntryDevice(e)
		d, ok := devices[key]
		if !ok {
			return d, false
		}
		if seen[key] {
			return IdDevice(d), true
		}
		seen[key] = true
		return d, true
	}

	for _, c := range askoheat_modbus.Categories {
		for _, e := range block.Entries(c) {
			device, ok := owner(e)
			if !ok {
				continue
			}
			id := EntityId(block.Name, e.Key)
			name := entityName(e)
			enabled := enabledByDefault(e)
			switch c {
			case askoheat_modbus.CategoryBinarySensor, askoheat_modbus.CategorySensor:
				sensorType := SENSOR_TYPE_SENSOR
				if c == askoheat_modbus.CategoryBinarySensor {
					sensorType = SENSOR_TYPE_BINARY
				}
				entities.Sensors = append(entities.Sensors, GenericSensor{
					Device:            device,
					Id:                id,
					SensorType:        sensorType,
					Name:              name,
					UniqueId:          uniqueId(device.Id, id),
					UnitOfMeasurement: e.Meta.Unit,
					StateClass:        e.Meta.StateClass,
					DeviceClass:       e.Meta.DeviceClass,
					EntityCategory:    e.Meta.EntityCategory,
					EnabledByDefault:  enabled,
					Icon:              e.Meta.Icon,
				})
			case askoheat_modbus.CategorySwitch:
				entities.Switches = append(entities.Switches, GenericSwitch{
					Device:           device,
					Id:               id,
					Name:             name,
					UniqueId:         uniqueId(device.Id, id),
					Icon:             e.Meta.Icon,
					EntityCategory:   e.Meta.EntityCategory,
					EnabledByDefault: enabled,
				})
			case askoheat_modbus.CategoryNumber:
				mode := e.Meta.Mode
				if mode == "" {
					mode = INPUT_NUMBER_MODE_BOX
				}
				step := e.Meta.Step
				if step == 0 {
					step = 1
				}
				entities.InputNumbers = append(entities.InputNumbers, GenericInputNumber{
					Device:            device,
					Id:                id,
					Name:              name,
					UniqueId:          uniqueId(device.Id, id),
					Icon:              e.Meta.Icon,
					UnitOfMeasurement: e.Meta.Unit,
					EntityCategory:    e.Meta.EntityCategory,
					EnabledByDefault:  enabled,
					Min:               e.Meta.Min,
					Max:               e.Meta.Max,
					Step:              step,
					Mode:              mode,
				})
			case askoheat_modbus.CategorySelect:
				entities.Selects = append(entities.Selects, GenericSelect{
					Device:           device,
					Id:               id,
					Name:             name,
					UniqueId:         uniqueId(device.Id, id),
					Icon:             e.Meta.Icon,
					EntityCategory:   e.Meta.EntityCategory,
					EnabledByDefault: enabled,
					Options:          askoheat_modbus.Labels(e.Field.Enum),
				})
			case askoheat_modbus.CategoryText:
				entities.Texts = append(entities.Texts, GenericText{
					Device:           device,
					Id:               id,
					Name:             name,
					UniqueId:         uniqueId(device.Id, id),
					Icon:             e.Meta.Icon,
					EntityCategory:   e.Meta.EntityCategory,
					EnabledByDefault: enabled,
					Max:              int(e.Field.Words) * 2,
				})
			case askoheat_modbus.CategoryTime:
				entities.Texts = append(entities.Texts, GenericText{
					Device:           device,
					Id:               id,
					Name:             name,
					UniqueId:         uniqueId(device.Id, id),
					Icon:             e.Meta.Icon,
					EntityCategory:   e.Meta.EntityCategory,
					EnabledByDefault: enabled,
					Max:              5,
					Pattern:          TIME_INPUT_PATTERN,
				})
			}
		}
	}
	return entities
}

// EntryDevice is the sub device owning an entry.
func EntryDevice(e askoheat_modbus.Entry) askoheat_modbus.DeviceKey {
	if e.Meta.Device == "" {
		return askoheat_modbus.DeviceEnergyManager
	}
	return e.Meta.Device
}

// SupportedEntityIds returns the ids of the block entries owned by one of the
// supported devices.
func SupportedEntityIds(block *askoheat_modbus.BlockDescriptor, supported []askoheat_modbus.DeviceKey) map[string]bool {
	ids := map[string]bool{}
	for _, c := range askoheat_modbus.Categories {
		for _, e := range block.Entries(c) {
			if slices.Contains(supported, EntryDevice(e)) {
				ids[EntityId(block.Name, e.Key)] = true
			}
		}
	}
	return ids
}

// SupportedDevices lists the sub devices that always exist plus the
// optional ones enabled by the caller.
func SupportedDevices(optional ...askoheat_modbus.DeviceKey) []askoheat_modbus.DeviceKey {
	devices := []askoheat_modbus.DeviceKey{askoheat_modbus.DeviceWaterBoiler, askoheat_modbus.DeviceEnergyManager}
	for _, d := range optional {
		if !slices.Contains(devices, d) {
			devices = append(devices, d)
		}
	}
	return devices
}

func entityName(e askoheat_modbus.Entry) string {
	if e.Meta.Name != "" {
		return e.Meta.Name
	}
	name := strings.NewReplacer(".", " ", "_", " ").Replace(e.Key)
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func enabledByDefault(e askoheat_modbus.Entry) *bool {
	if e.Meta.DisabledByDefault {
		return optionalBool(false)
	}
	return nil
}

func uniqueId(baseId, id string) string {
	return fmt.Sprintf("uid_%s_%s", baseId, id)
}

func md5Hash(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}

func md5HashShort(text string) string {
	hash := md5Hash(text)
	return hash[0:8]
}

func optionalBool(value bool) *bool {
	return &value
}
