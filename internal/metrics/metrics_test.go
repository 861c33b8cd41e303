package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/berfenger/askoheat2mqtt/pkg/askoheat_modbus"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gathered(t *testing.T, m *Metrics, name string) []*dto.Metric {
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return f.GetMetric()
		}
	}
	return nil
}

func labelled(metrics []*dto.Metric, labels map[string]string) *dto.Metric {
	for _, metric := range metrics {
		match := 0
		for _, l := range metric.GetLabel() {
			if labels[l.GetName()] == l.GetValue() {
				match++
			}
		}
		if match == len(labels) {
			return metric
		}
	}
	return nil
}

func TestBlockReadCounter(t *testing.T) {

	assert := assert.New(t)

	m := New()
	m.ObserveBlockRead("ema", nil)
	m.ObserveBlockRead("ema", nil)
	m.ObserveBlockRead("ema", errors.New("timeout"))

	reads := gathered(t, m, "askoheat_block_reads_total")
	assert.Equal(2.0, labelled(reads, map[string]string{"block": "ema", "result": "ok"}).GetCounter().GetValue())
	assert.Equal(1.0, labelled(reads, map[string]string{"block": "ema", "result": "error"}).GetCounter().GetValue())
}

func TestObserveDecodedBlock(t *testing.T) {

	assert := assert.New(t)

	m := New()
	m.ObserveDecodedBlock(&askoheat_modbus.DecodedBlock{
		Block:         "ema",
		BinarySensors: map[string]bool{"status.pump": true},
		Sensors:       map[string]any{"temp": float32(51.5), "serial": "X"},
	})

	values := gathered(t, m, "askoheat_sensor_value")
	assert.Len(values, 2)
	assert.Equal(1.0, labelled(values, map[string]string{"key": "binary_sensor.status.pump"}).GetGauge().GetValue())
	assert.Equal(51.5, labelled(values, map[string]string{"key": "sensor.temp"}).GetGauge().GetValue())
}

func TestModbusInstrument(t *testing.T) {

	assert := assert.New(t)

	m := New()
	m.ModbusInstrument().RecordTime("ReadRegisters", 20*time.Millisecond)

	durations := gathered(t, m, "askoheat_modbus_request_duration_seconds")
	assert.Len(durations, 1)
	assert.EqualValues(1, durations[0].GetHistogram().GetSampleCount())
}

func TestNilMetrics(t *testing.T) {

	assert := assert.New(t)

	var m *Metrics
	assert.Nil(m.ModbusInstrument())
	assert.NotPanics(func() {
		m.ObserveBlockRead("ema", nil)
		m.ObserveDecodedBlock(&askoheat_modbus.DecodedBlock{})
	})
}
