package events

import (
	"testing"

	"github.com/berfenger/askoheat2mqtt/internal/core/domain"
	"github.com/berfenger/askoheat2mqtt/pkg/askoheat_modbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBlock = &askoheat_modbus.BlockDescriptor{
	Name:  "test",
	Base:  100,
	Count: 8,
	BinarySensors: []askoheat_modbus.Entry{
		{Key: "status.running", Field: askoheat_modbus.Flag(0, 0)},
		{Key: "status.off", Field: askoheat_modbus.Flag(0, 1), Meta: askoheat_modbus.EntityMeta{Inverted: true}},
	},
	Sensors: []askoheat_modbus.Entry{
		{Key: "temp", Field: askoheat_modbus.Float32(1), Meta: askoheat_modbus.EntityMeta{Precision: 1}},
		{Key: "energy", Field: askoheat_modbus.UInt32(3), Meta: askoheat_modbus.EntityMeta{Precision: 3}},
		{Key: "serial", Field: askoheat_modbus.String(5, 2)},
	},
	Switches: []askoheat_modbus.Entry{
		{Key: "enabled", Field: askoheat_modbus.Flag(7, 0)},
	},
	NumberInputs: []askoheat_modbus.Entry{
		{Key: "setpoint", Field: askoheat_modbus.UInt16(7), Meta: askoheat_modbus.EntityMeta{Precision: 1}},
	},
	TimeInputs: []askoheat_modbus.Entry{
		{Key: "start", Field: askoheat_modbus.Time(1)},
	},
	SelectInputs: []askoheat_modbus.Entry{
		{Key: "mode", Field: askoheat_modbus.EnumInt(0, askoheat_modbus.EnumValue{Raw: 1, Label: "eco"})},
	},
}

func TestDecodedBlockToUpdateEvents(t *testing.T) {

	require := require.New(t)

	decoded := &askoheat_modbus.DecodedBlock{
		Block:         "test",
		BinarySensors: map[string]bool{"status.running": true, "status.off": true},
		Sensors:       map[string]any{"temp": float32(48.46), "energy": float32(12.3454), "serial": "A1"},
		Switches:      map[string]bool{"enabled": false},
		NumberInputs:  map[string]float64{"setpoint": 6.5},
		TimeInputs:    map[string]askoheat_modbus.TimeOfDay{"start": {Hour: 3, Minute: 5}},
		SelectInputs:  map[string]askoheat_modbus.EnumValue{"mode": {Raw: 1, Label: "eco"}},
	}

	evs := DecodedBlockToUpdateEvents(testBlock, decoded)
	require.Len(evs, 9)

	byId := map[string]any{}
	for _, ev := range evs {
		byId[ev.(domain.SensorUpdateEvent).SensorId()] = ev
	}

	require.Equal(true, byId["test_status_running"].(domain.BinarySensorUpdateEvent).Value)
	require.Equal(false, byId["test_status_off"].(domain.BinarySensorUpdateEvent).Value, "inverted")

	temp := byId["test_temp"].(domain.FloatSensorUpdateEvent)
	require.InDelta(48.5, temp.Value, 0.0001)
	require.EqualValues(1, temp.Decimals)

	energy := byId["test_energy"].(domain.FloatSensorUpdateEvent)
	require.InDelta(12.345, energy.Value, 0.0001)

	require.Equal("A1", byId["test_serial"].(domain.TextSensorUpdateEvent).Value)
	require.False(byId["test_enabled"].(domain.SwitchSensorUpdateEvent).Value)
	require.InDelta(6.5, byId["test_setpoint"].(domain.InputNumberSensorUpdateEvent).Value, 0.0001)
	require.Equal("03:05", byId["test_start"].(domain.TextInputSensorUpdateEvent).Value)
	require.Equal("eco", byId["test_mode"].(domain.SelectSensorUpdateEvent).Value)
}

func TestDecodedBlockToUpdateEventsSkipsAbsent(t *testing.T) {

	assert := assert.New(t)

	decoded := &askoheat_modbus.DecodedBlock{
		Block:   "test",
		Sensors: map[string]any{"temp": float32(20)},
	}
	evs := DecodedBlockToUpdateEvents(testBlock, decoded)
	assert.Len(evs, 1)
	assert.Empty(DecodedBlockToUpdateEvents(testBlock, nil))
}

func TestRoundToStep(t *testing.T) {

	assert := assert.New(t)

	assert.Equal(13.0, RoundToStep(12.7, askoheat_modbus.EntityMeta{Step: 1}))
	assert.Equal(12.0, RoundToStep(12.2, askoheat_modbus.EntityMeta{}))
	assert.Equal(250.0, RoundToStep(240, askoheat_modbus.EntityMeta{Step: 50}))
	assert.InDelta(0.5, RoundToStep(0.4, askoheat_modbus.EntityMeta{Step: 0.5}), 0.0001)
}
