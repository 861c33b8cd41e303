package simulator

import (
	"fmt"
	"sync"
	"time"

	"github.com/berfenger/askoheat2mqtt/pkg/askoheat_modbus"
	"github.com/simonvetter/modbus"
	"go.uber.org/zap"
)

// Simulator answers Modbus TCP requests like an Askoheat device. Input and
// holding registers share a single address space.
type Simulator struct {
	mu        sync.Mutex
	registers map[uint16]uint16
	unitId    uint8
	server    *modbus.ModbusServer
	codec     *askoheat_modbus.Codec
	logger    *zap.Logger
}

func New(unitId uint8, logger *zap.Logger) *Simulator {
	return &Simulator{
		registers: map[uint16]uint16{},
		unitId:    unitId,
		codec:     askoheat_modbus.NewCodec(logger),
		logger:    logger.With(zap.String("component", "simulator")),
	}
}

// Start listens on host:port until Stop is called.
func (s *Simulator) Start(host string, port uint) error {
	server, err := modbus.NewServer(&modbus.ServerConfiguration{
		URL:        fmt.Sprintf("tcp://%s:%d", host, port),
		Timeout:    30 * time.Second,
		MaxClients: 5,
	}, s)
	if err != nil {
		return err
	}
	if err := server.Start(); err != nil {
		return err
	}
	s.server = server
	s.logger.Info("modbus simulator started", zap.String("host", host), zap.Uint("port", port))
	return nil
}

func (s *Simulator) Stop() error {
	if s.server == nil {
		return nil
	}
	return s.server.Stop()
}

// Set encodes value into the entry named key of block.
func (s *Simulator) Set(block *askoheat_modbus.BlockDescriptor, key string, value any) error {
	_, entry, ok := block.Lookup(key)
	if !ok {
		return fmt.Errorf("%w: %s", askoheat_modbus.ErrUnknownKey, key)
	}
	addr := block.AbsoluteOffset(entry.Field)

	s.mu.Lock()
	defer s.mu.Unlock()
	words, err := s.codec.Encode(entry.Field, value, func() (uint16, error) {
		return s.registers[addr], nil
	})
	if err != nil {
		return err
	}
	if len(words) == 0 {
		return fmt.Errorf("value %v rejected for %s.%s", value, block.Name, key)
	}
	s.writeLocked(addr, words)
	return nil
}

func (s *Simulator) SetRegisters(addr uint16, values []uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeLocked(addr, values)
}

func (s *Simulator) Registers(addr uint16, quantity uint16) []uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked(addr, quantity)
}

func (s *Simulator) writeLocked(addr uint16, values []uint16) {
	for i, v := range values {
		s.registers[addr+uint16(i)] = v
	}
}

func (s *Simulator) readLocked(addr uint16, quantity uint16) []uint16 {
	out := make([]uint16, quantity)
	for i := range out {
		out[i] = s.registers[addr+uint16(i)]
	}
	return out
}

func (s *Simulator) checkUnit(unitId uint8) error {
	if s.unitId != 0 && unitId != s.unitId {
		return modbus.ErrIllegalFunction
	}
	return nil
}

func (s *Simulator) HandleCoils(req *modbus.CoilsRequest) ([]bool, error) {
	return nil, modbus.ErrIllegalFunction
}

func (s *Simulator) HandleDiscreteInputs(req *modbus.DiscreteInputsRequest) ([]bool, error) {
	return nil, modbus.ErrIllegalFunction
}

func (s *Simulator) HandleHoldingRegisters(req *modbus.HoldingRegistersRequest) ([]uint16, error) {
	if err := s.checkUnit(req.UnitId); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.IsWrite {
		s.logger.Debug("write registers", zap.Uint16("addr", req.Addr), zap.Uint16s("values", req.Args))
		s.writeLocked(req.Addr, req.Args)
	}
	return s.readLocked(req.Addr, req.Quantity), nil
}

func (s *Simulator) HandleInputRegisters(req *modbus.InputRegistersRequest) ([]uint16, error) {
	if err := s.checkUnit(req.UnitId); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked(req.Addr, req.Quantity), nil
}

// Emergency toggles the emergency mode status bit, like the device's
// http interface does.
func (s *Simulator) Emergency(on bool) error {
	return s.Set(askoheat_modbus.EMABlock, askoheat_modbus.EMA_KEY_EMERGENCY_MODE, on)
}

func (s *Simulator) EmergencyState() bool {
	_, entry, _ := askoheat_modbus.EMABlock.Lookup(askoheat_modbus.EMA_KEY_EMERGENCY_MODE)
	addr := askoheat_modbus.EMABlock.AbsoluteOffset(entry.Field)
	return s.Registers(addr, 1)[0]&(1<<entry.Field.Bit) != 0
}
