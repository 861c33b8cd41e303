package domain

import (
	"testing"

	"github.com/berfenger/askoheat2mqtt/pkg/askoheat_modbus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDevices(supported []askoheat_modbus.DeviceKey) map[askoheat_modbus.DeviceKey]Device {
	info := &askoheat_modbus.DeviceInfo{
		ArticleNumber:   "AHP-3.5",
		SerialNumber:    "SIM0000001",
		SoftwareVersion: "4.2.1",
	}
	return AskoheatDevices(info, BridgeDevice("askoheat"), supported)
}

func TestEntityId(t *testing.T) {

	assert := assert.New(t)

	assert.Equal("ema_status_heater1", EntityId("ema", "status.heater1"))
	assert.Equal("ema_load_feedin", EntityId("ema", askoheat_modbus.EMA_KEY_LOAD_FEEDIN))
	assert.Equal("config_low_tariff_start_time", EntityId("config", "low_tariff_start_time"))
}

func TestSupportedDevices(t *testing.T) {

	assert := assert.New(t)

	assert.ElementsMatch([]askoheat_modbus.DeviceKey{
		askoheat_modbus.DeviceWaterBoiler,
		askoheat_modbus.DeviceEnergyManager,
	}, SupportedDevices())

	devices := SupportedDevices(askoheat_modbus.DeviceHeatPump, askoheat_modbus.DeviceWaterBoiler, askoheat_modbus.DeviceHeatPump)
	assert.Len(devices, 3)
	assert.Contains(devices, askoheat_modbus.DeviceHeatPump)
}

func TestAskoheatDevices(t *testing.T) {

	assert := assert.New(t)

	bridge := BridgeDevice("askoheat")
	devices := testDevices(SupportedDevices())

	assert.Len(devices, 2)
	boiler := devices[askoheat_modbus.DeviceWaterBoiler]
	assert.Equal(bridge.Id, boiler.ViaDevice)
	assert.Equal(MANUFACTURER, boiler.Manufacturer)
	assert.Equal("AHP-3.5", boiler.Model)
	assert.Equal("4.2.1", boiler.Version)
	assert.NotEqual(boiler.Id, devices[askoheat_modbus.DeviceEnergyManager].Id)

	// ids only depend on the serial number
	again := testDevices(SupportedDevices())
	assert.Equal(boiler.Id, again[askoheat_modbus.DeviceWaterBoiler].Id)
}

func TestBlockEntitiesFiltersDevices(t *testing.T) {

	assert := assert.New(t)

	entities := BlockEntities(askoheat_modbus.EMABlock, testDevices(SupportedDevices()))

	ids := map[string]bool{}
	for _, s := range entities.Sensors {
		ids[s.Id] = true
	}
	assert.True(ids["ema_status_heater1"])
	assert.True(ids["ema_internal_temp_sensor"])
	// heat pump, legionella and analog input are not enabled
	assert.False(ids["ema_status_heat_pump_request"])
	assert.False(ids["ema_status_legionella_protection"])
	assert.False(ids["ema_analog_input"])

	withAnalog := BlockEntities(askoheat_modbus.EMABlock, testDevices(SupportedDevices(askoheat_modbus.DeviceAnalogInput)))
	assert.Greater(len(withAnalog.Sensors), len(entities.Sensors))
}

func TestBlockEntitiesFullDeviceFirst(t *testing.T) {

	assert := assert.New(t)

	devices := testDevices(SupportedDevices())
	entities := BlockEntities(askoheat_modbus.EMABlock, devices)

	full := map[string]int{}
	for _, s := range entities.Sensors {
		if s.Device.Manufacturer != "" {
			full[s.Device.Id]++
		}
	}
	for _, s := range entities.Switches {
		if s.Device.Manufacturer != "" {
			full[s.Device.Id]++
		}
	}
	for _, n := range entities.InputNumbers {
		if n.Device.Manufacturer != "" {
			full[n.Device.Id]++
		}
	}
	assert.Equal(1, full[devices[askoheat_modbus.DeviceWaterBoiler].Id])
	assert.Equal(1, full[devices[askoheat_modbus.DeviceEnergyManager].Id])
}

func TestBlockEntitiesComponents(t *testing.T) {

	require := require.New(t)

	entities := BlockEntities(askoheat_modbus.ConfigBlock, testDevices(SupportedDevices(askoheat_modbus.DeviceLegioProtection)))

	var timeText *GenericText
	for i := range entities.Texts {
		if entities.Texts[i].Id == "config_low_tariff_start_time" {
			timeText = &entities.Texts[i]
		}
	}
	require.NotNil(timeText)
	require.Equal(TIME_INPUT_PATTERN, timeText.Pattern)
	require.Equal(5, timeText.Max)

	ema := BlockEntities(askoheat_modbus.EMABlock, testDevices(SupportedDevices()))
	var feedIn *GenericInputNumber
	for i := range ema.InputNumbers {
		if ema.InputNumbers[i].Id == "ema_load_feedin" {
			feedIn = &ema.InputNumbers[i]
		}
	}
	require.NotNil(feedIn)
	require.EqualValues(-30000, feedIn.Min)
	require.EqualValues(30000, feedIn.Max)
	require.Equal(INPUT_NUMBER_MODE_BOX, feedIn.Mode)
}

func TestSupportedEntityIds(t *testing.T) {

	assert := assert.New(t)

	ids := SupportedEntityIds(askoheat_modbus.EMABlock, SupportedDevices())
	assert.True(ids["ema_status_heater1"])
	assert.True(ids["ema_load_feedin"])
	assert.True(ids["ema_set_heater_step_heater2"])
	assert.False(ids["ema_status_heat_pump_request"])

	ids = SupportedEntityIds(askoheat_modbus.EMABlock, SupportedDevices(askoheat_modbus.DeviceHeatPump))
	assert.True(ids["ema_status_heat_pump_request"])
}

func TestEntityIndex(t *testing.T) {

	assert := assert.New(t)

	index := NewEntityIndex(askoheat_modbus.AllBlocks...)

	ref, ok := index.Lookup("ema_set_heater_step_heater2")
	assert.True(ok)
	assert.Equal(askoheat_modbus.EMABlock, ref.Block)
	assert.Equal(askoheat_modbus.CategorySwitch, ref.Category)
	assert.Equal("switch.set_heater_step_heater2", ref.QualifiedKey())

	ref, ok = index.Lookup("ema_status_emergency_mode")
	assert.True(ok)
	assert.Equal("binary_sensor."+askoheat_modbus.EMA_KEY_EMERGENCY_MODE, ref.QualifiedKey())

	_, ok = index.Lookup("nope")
	assert.False(ok)
}
