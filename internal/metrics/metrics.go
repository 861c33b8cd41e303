package metrics

import (
	"net/http"
	"time"

	"github.com/berfenger/askoheat2mqtt/pkg/askoheat_modbus"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "askoheat"

// Metrics owns the bridge collectors. A nil *Metrics records nothing, so
// callers never need to check whether metrics are enabled.
type Metrics struct {
	registry       *prometheus.Registry
	modbusDuration *prometheus.HistogramVec
	blockReads     *prometheus.CounterVec
	sensorValues   *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		modbusDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "modbus_request_duration_seconds",
			Help:      "Duration of Modbus requests to the heater.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2},
		}, []string{"fn"}),
		blockReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "block_reads_total",
			Help:      "Register block reads by result.",
		}, []string{"block", "result"}),
		sensorValues: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sensor_value",
			Help:      "Last numeric value decoded from a register block.",
		}, []string{"block", "key"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.modbusDuration,
		m.blockReads,
		m.sensorValues,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ModbusInstrument feeds Modbus request timings into the duration histogram.
func (m *Metrics) ModbusInstrument() *askoheat_modbus.ModbusInstrument {
	if m == nil {
		return nil
	}
	return &askoheat_modbus.ModbusInstrument{
		RecordTime: func(fnName string, readTime time.Duration) {
			m.modbusDuration.WithLabelValues(fnName).Observe(readTime.Seconds())
		},
	}
}

func (m *Metrics) ObserveBlockRead(block string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.blockReads.WithLabelValues(block, result).Inc()
}

// ObserveDecodedBlock updates the value gauge of every numeric or boolean
// entry in the block.
func (m *Metrics) ObserveDecodedBlock(decoded *askoheat_modbus.DecodedBlock) {
	if m == nil || decoded == nil {
		return
	}
	for key, value := range decoded.Flatten() {
		if f, ok := gaugeValue(value); ok {
			m.sensorValues.WithLabelValues(decoded.Block, key).Set(f)
		}
	}
}

func gaugeValue(v any) (float64, bool) {
	switch n := v.(type) {
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case int16:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
