package events

import (
	"fmt"
	"math"

	. "github.com/berfenger/askoheat2mqtt/internal/core/domain"
	"github.com/berfenger/askoheat2mqtt/pkg/askoheat_modbus"
)

// DecodedBlockToUpdateEvents converts the present values of a decoded block
// into update events, in descriptor order. Inversion, scale factor and
// precision of every entry are applied here.
func DecodedBlockToUpdateEvents(block *askoheat_modbus.BlockDescriptor, decoded *askoheat_modbus.DecodedBlock) []any {
	var events []any
	if decoded == nil {
		return events
	}

	// Binary sensors
	for _, e := range block.BinarySensors {
		if v, ok := decoded.BinarySensors[e.Key]; ok {
			events = append(events, BinarySensorUpdateEvent{
				SensorUpdateEventMixIn: mixIn(block, e),
				Value:                  v != e.Meta.Inverted,
			})
		}
	}
	// Sensors
	for _, e := range block.Sensors {
		if v, ok := decoded.Sensors[e.Key]; ok {
			events = append(events, sensorValueToUpdateEvent(block, e, v))
		}
	}
	// Switches
	for _, e := range block.Switches {
		if v, ok := decoded.Switches[e.Key]; ok {
			events = append(events, SwitchSensorUpdateEvent{
				SensorUpdateEventMixIn: mixIn(block, e),
				Value:                  v != e.Meta.Inverted,
			})
		}
	}
	// Number inputs
	for _, e := range block.NumberInputs {
		if v, ok := decoded.NumberInputs[e.Key]; ok {
			events = append(events, InputNumberSensorUpdateEvent{
				SensorUpdateEventMixIn: mixIn(block, e),
				Value:                  round(v, e.Meta),
				Decimals:               e.Meta.Precision,
			})
		}
	}
	// Text inputs
	for _, e := range block.TextInputs {
		if v, ok := decoded.TextInputs[e.Key]; ok {
			events = append(events, TextInputSensorUpdateEvent{
				SensorUpdateEventMixIn: mixIn(block, e),
				Value:                  v,
			})
		}
	}
	// Time inputs
	for _, e := range block.TimeInputs {
		if v, ok := decoded.TimeInputs[e.Key]; ok {
			events = append(events, TextInputSensorUpdateEvent{
				SensorUpdateEventMixIn: mixIn(block, e),
				Value:                  v.String(),
			})
		}
	}
	// Select inputs
	for _, e := range block.SelectInputs {
		if v, ok := decoded.SelectInputs[e.Key]; ok {
			events = append(events, SelectSensorUpdateEvent{
				SensorUpdateEventMixIn: mixIn(block, e),
				Value:                  v.Label,
			})
		}
	}

	return events
}

func sensorValueToUpdateEvent(block *askoheat_modbus.BlockDescriptor, e askoheat_modbus.Entry, value any) any {
	switch v := value.(type) {
	case string:
		return TextSensorUpdateEvent{
			SensorUpdateEventMixIn: mixIn(block, e),
			Value:                  v,
		}
	case bool:
		return BinarySensorUpdateEvent{
			SensorUpdateEventMixIn: mixIn(block, e),
			Value:                  v != e.Meta.Inverted,
		}
	case askoheat_modbus.EnumValue:
		return TextSensorUpdateEvent{
			SensorUpdateEventMixIn: mixIn(block, e),
			Value:                  v.Label,
		}
	case askoheat_modbus.TimeOfDay:
		return TextSensorUpdateEvent{
			SensorUpdateEventMixIn: mixIn(block, e),
			Value:                  v.String(),
		}
	}
	if f, ok := numeric(value); ok {
		return FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: mixIn(block, e),
			Value:                  round(f, e.Meta),
			Decimals:               e.Meta.Precision,
		}
	}
	return TextSensorUpdateEvent{
		SensorUpdateEventMixIn: mixIn(block, e),
		Value:                  fmt.Sprint(value),
	}
}

// RoundToStep snaps a user supplied number to the step of the entry.
func RoundToStep(value float64, meta askoheat_modbus.EntityMeta) float64 {
	step := meta.Step
	if step <= 0 {
		step = 1
	}
	return math.Round(value/step) * step
}

func round(value float64, meta askoheat_modbus.EntityMeta) float64 {
	p := math.Pow10(int(meta.Precision))
	return math.Round(value*p) / p
}

func mixIn(block *askoheat_modbus.BlockDescriptor, e askoheat_modbus.Entry) SensorUpdateEventMixIn {
	return SensorUpdateEventMixIn{
		Id: EntityId(block.Name, e.Key),
	}
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func BridgeOnlineUpdateEvent(online bool) any {
	return BridgeStateUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_BRIDGE_STATE,
		},
		Value: online,
	}
}

func AutoFeedInSwitchUpdateEvent(enabled bool) any {
	return SwitchSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SWITCH_ID_AUTO_FEEDIN,
		},
		Value: enabled,
	}
}

func AutoFeedInBufferUpdateEvent(bufferWatt int32) any {
	return InputNumberSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: INPUT_NUMBER_ID_AUTO_FEEDIN_BUFFER,
		},
		Value: float64(bufferWatt),
	}
}

func EmergencyModeSwitchUpdateEvent(on bool) any {
	return SwitchSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SWITCH_ID_EMERGENCY_MODE,
		},
		Value: on,
	}
}
