package askoheat_modbus

import (
	"fmt"
	"time"

	"github.com/simonvetter/modbus"
	"go.uber.org/zap"
)

type AskoheatTCPModbusReader struct {
	ModbusClient

	logger *zap.Logger
	codec  *Codec
}

func (r *AskoheatTCPModbusReader) Open() error {
	return r.client.Open()
}

func (r *AskoheatTCPModbusReader) Close() error {
	return r.client.Close()
}

func (r *AskoheatTCPModbusReader) ReadRawBlock(block *BlockDescriptor) ([]uint16, error) {
	registers, err := r.readRegisters(block.Base, block.Count, block.RegisterType.modbusRegType())
	if err != nil {
		return nil, fmt.Errorf("read block %s: %w", block.Name, err)
	}
	if len(registers) != int(block.Count) {
		return nil, &ShapeError{Block: block.Name, Expected: int(block.Count), Actual: len(registers)}
	}
	return registers, nil
}

func (r *AskoheatTCPModbusReader) ReadBlock(block *BlockDescriptor) (*DecodedBlock, error) {
	registers, err := r.ReadRawBlock(block)
	if err != nil {
		return nil, err
	}
	return r.codec.DecodeBlock(block, registers)
}

func (r *AskoheatTCPModbusReader) WriteField(block *BlockDescriptor, key string, value any) (*DecodedBlock, error) {
	return writeField(r.codec, block, key, value, registerAccess{
		peek: func(addr uint16) (uint16, error) {
			return r.readRegister(addr, block.RegisterType.modbusRegType())
		},
		write: r.writeRegisters,
		read: func() (*DecodedBlock, error) {
			return r.ReadBlock(block)
		},
	})
}

func (r *AskoheatTCPModbusReader) GetInfo() (*DeviceInfo, error) {
	block, err := r.ReadBlock(ParameterBlock)
	if err != nil {
		return nil, err
	}
	return DeviceInfoFromBlock(block), nil
}

type registerAccess struct {
	peek  func(addr uint16) (uint16, error)
	write func(addr uint16, values []uint16) error
	read  func() (*DecodedBlock, error)
}

// writeField resolves key, encodes value and writes the words at the
// absolute address. The block is read back even when the value was
// rejected by the codec, so callers always publish the device state.
func writeField(codec *Codec, block *BlockDescriptor, key string, value any, access registerAccess) (*DecodedBlock, error) {
	category, entry, ok := block.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s in block %s", ErrUnknownKey, key, block.Name)
	}
	if !category.Writable() {
		return nil, fmt.Errorf("%w: %s.%s", ErrNotWritable, category, entry.Key)
	}

	addr := block.AbsoluteOffset(entry.Field)
	words, err := codec.Encode(entry.Field, value, func() (uint16, error) {
		return access.peek(addr)
	})
	if err != nil {
		return nil, fmt.Errorf("write %s.%s: %w", block.Name, entry.Key, err)
	}
	if len(words) > 0 {
		if err := access.write(addr, words); err != nil {
			return nil, fmt.Errorf("write %s.%s: %w", block.Name, entry.Key, err)
		}
	} else {
		codec.logger.Warn("value rejected, nothing written",
			zap.String("block", block.Name), zap.String("key", entry.Key), zap.Any("value", value))
	}
	return access.read()
}

func CreateAskoheatModbusReader(host string, port uint, unitId uint8, timeout time.Duration,
	logger *zap.Logger, instrumentation *ModbusInstrument) (AskoheatModbusReader, error) {
	client, err := modbus.NewClient(&modbus.ClientConfiguration{
		URL:     fmt.Sprintf("tcp://%s:%d", host, port),
		Timeout: timeout,
	})
	if err != nil {
		return nil, err
	}

	// instrumentation
	var inst []ModbusInstrument
	logInst := traceLoggerInstrumentation(logger.With(zap.String("target", "askoheat"), zap.Uint8("unit", unitId)))
	if logInst != nil {
		inst = append(inst, *logInst)
	}
	if instrumentation != nil {
		inst = append(inst, *instrumentation)
	}

	if unitId > 0 {
		err = client.SetUnitId(unitId)
		if err != nil {
			return nil, err
		}
	}

	reader := AskoheatTCPModbusReader{
		ModbusClient: ModbusClient{
			client:     client,
			instrument: inst,
		},
		logger: logger,
		codec:  NewCodec(logger),
	}
	return &reader, nil
}
