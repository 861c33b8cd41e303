package askoheat_modbus

import (
	"sync"

	"go.uber.org/zap"
)

// TestAskoheatModbusReader keeps a single in-memory register bank shared
// by input and holding reads, like the device does for its EMA registers.
type TestAskoheatModbusReader struct {
	mu        sync.Mutex
	registers map[uint16]uint16
	codec     *Codec
	writes    int
}

func CreateTestAskoheatModbusReader() (AskoheatModbusReader, error) {
	return NewTestAskoheatModbusReader(), nil
}

func NewTestAskoheatModbusReader() *TestAskoheatModbusReader {
	reader := &TestAskoheatModbusReader{
		registers: map[uint16]uint16{},
		codec:     NewCodec(zap.NewNop()),
	}
	reader.seed()
	return reader
}

func (r *TestAskoheatModbusReader) seed() {
	set := func(block *BlockDescriptor, key string, value any) {
		_, entry, ok := block.Lookup(key)
		if !ok {
			return
		}
		words, _ := r.codec.Encode(entry.Field, value, func() (uint16, error) {
			return r.registers[block.AbsoluteOffset(entry.Field)], nil
		})
		r.setLocked(block.AbsoluteOffset(entry.Field), words)
	}

	set(EMABlock, "status.heater1", true)
	set(EMABlock, "status.autoheater", true)
	set(EMABlock, "heater_load", 500)
	set(EMABlock, EMA_KEY_SET_HEATER_STEP, 1)
	set(EMABlock, "internal_temp_sensor", 48.5)
	set(EMABlock, "analog_input", 0)

	set(ConfigBlock, "legio_protection_temperature", 60)
	set(ConfigBlock, "legio_protection_preferred_start_time", "03:00")
	set(ConfigBlock, "low_tariff_start_time", "22:00")
	set(ConfigBlock, "low_tariff_end_time", "06:00")
	set(ConfigBlock, "rtu_baudrate", "9600")
	set(ConfigBlock, "smart_meter_type", "not installed")
	set(ConfigBlock, "energy_meter_type", 0)
	set(ConfigBlock, "info_string", "Askoheat")
	set(ConfigBlock, "number_of_household_members", 4)

	set(ParameterBlock, PAR_KEY_ARTICLE_NUMBER, "AHP-3.5")
	set(ParameterBlock, PAR_KEY_SERIAL_NUMBER, "2023000123")
	set(ParameterBlock, PAR_KEY_SOFTWARE_VERSION, "4.2.1")
	set(ParameterBlock, PAR_KEY_HARDWARE_VERSION, "2.0")
	set(ParameterBlock, PAR_KEY_NUMBER_HEATERS, 3)
	set(ParameterBlock, PAR_KEY_RATED_POWER, 3500)
}

func (r *TestAskoheatModbusReader) setLocked(addr uint16, values []uint16) {
	for i, v := range values {
		r.registers[addr+uint16(i)] = v
	}
}

// SetRegisters overwrites registers starting at the absolute address.
func (r *TestAskoheatModbusReader) SetRegisters(addr uint16, values []uint16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setLocked(addr, values)
}

func (r *TestAskoheatModbusReader) Registers(addr uint16, quantity uint16) []uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uint16, quantity)
	for i := range out {
		out[i] = r.registers[addr+uint16(i)]
	}
	return out
}

// Writes returns how many register writes reached the bank.
func (r *TestAskoheatModbusReader) Writes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}

func (r *TestAskoheatModbusReader) Open() error {
	return nil
}

func (r *TestAskoheatModbusReader) Close() error {
	return nil
}

func (r *TestAskoheatModbusReader) ReadRawBlock(block *BlockDescriptor) ([]uint16, error) {
	return r.Registers(block.Base, block.Count), nil
}

func (r *TestAskoheatModbusReader) ReadBlock(block *BlockDescriptor) (*DecodedBlock, error) {
	registers, err := r.ReadRawBlock(block)
	if err != nil {
		return nil, err
	}
	return r.codec.DecodeBlock(block, registers)
}

func (r *TestAskoheatModbusReader) WriteField(block *BlockDescriptor, key string, value any) (*DecodedBlock, error) {
	return writeField(r.codec, block, key, value, registerAccess{
		peek: func(addr uint16) (uint16, error) {
			return r.Registers(addr, 1)[0], nil
		},
		write: func(addr uint16, values []uint16) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.setLocked(addr, values)
			r.writes++
			return nil
		},
		read: func() (*DecodedBlock, error) {
			return r.ReadBlock(block)
		},
	})
}

func (r *TestAskoheatModbusReader) GetInfo() (*DeviceInfo, error) {
	block, err := r.ReadBlock(ParameterBlock)
	if err != nil {
		return nil, err
	}
	return DeviceInfoFromBlock(block), nil
}
