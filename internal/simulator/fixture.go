package simulator

import (
	"fmt"
	"os"

	"github.com/berfenger/askoheat2mqtt/pkg/askoheat_modbus"
	"gopkg.in/yaml.v3"
)

type Fixture struct {
	UnitId    uint8             `yaml:"unit_id"`
	Values    []FixtureValue    `yaml:"values"`
	Registers []FixtureRegister `yaml:"registers"`
}

// FixtureValue sets one decoded entry, encoded with the block descriptor.
type FixtureValue struct {
	Block string `yaml:"block"`
	Key   string `yaml:"key"`
	Value any    `yaml:"value"`
}

// FixtureRegister sets raw words starting at an absolute address.
type FixtureRegister struct {
	Address uint16   `yaml:"address"`
	Values  []uint16 `yaml:"values"`
}

func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseFixture(data)
}

func ParseFixture(data []byte) (*Fixture, error) {
	var fixture Fixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return &fixture, nil
}

// Apply writes raw registers first, then decoded values.
func (s *Simulator) Apply(fixture *Fixture) error {
	for _, r := range fixture.Registers {
		s.SetRegisters(r.Address, r.Values)
	}
	for _, v := range fixture.Values {
		block, err := askoheat_modbus.BlockByName(v.Block)
		if err != nil {
			return err
		}
		if err := s.Set(block, v.Key, v.Value); err != nil {
			return fmt.Errorf("fixture %s.%s: %w", v.Block, v.Key, err)
		}
	}
	return nil
}

// DefaultFixture describes a heater idling at 48.5 °C with one heater on.
const DefaultFixture = `
unit_id: 1
values:
  - {block: ema, key: status.heater1, value: true}
  - {block: ema, key: status.setpoint, value: false}
  - {block: ema, key: heater_load, value: 500}
  - {block: ema, key: set_heater_step, value: 1}
  - {block: ema, key: internal_temp_sensor, value: 48.5}
  - {block: data, key: boot_count, value: 12}
  - {block: data, key: relay1_switch_count, value: 2048}
  - {block: config, key: load_feedin_value_enabled, value: true}
  - {block: config, key: legio_protection_temperature, value: 60}
  - {block: config, key: legio_protection_preferred_start_time, value: "03:00"}
  - {block: config, key: low_tariff_start_time, value: "22:00"}
  - {block: config, key: low_tariff_end_time, value: "06:00"}
  - {block: config, key: rtu_baudrate, value: "9600"}
  - {block: config, key: smart_meter_type, value: "not installed"}
  - {block: config, key: energy_meter_type, value: 0}
  - {block: config, key: info_string, value: "simulator"}
  - {block: parameter, key: article_number, value: "AHP-3.5"}
  - {block: parameter, key: serial_number, value: "SIM0000001"}
  - {block: parameter, key: software_version, value: "4.2.1"}
  - {block: parameter, key: hardware_version, value: "2.0"}
  - {block: parameter, key: number_of_heaters, value: 3}
  - {block: parameter, key: rated_power_watt, value: 3500}
registers:
  # operating time, >L minutes
  - {address: 600, values: [0, 43200]}
`
