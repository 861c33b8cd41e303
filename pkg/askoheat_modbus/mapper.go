package askoheat_modbus

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ShapeError is returned when a device read does not return exactly the
// number of registers declared by the block.
type ShapeError struct {
	Block    string
	Expected int
	Actual   int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("block %s: expected %d registers, got %d", e.Block, e.Expected, e.Actual)
}

func IsShapeError(err error) bool {
	var shapeErr *ShapeError
	return errors.As(err, &shapeErr)
}

// DecodedBlock holds the present values of one block read, per category.
type DecodedBlock struct {
	Block         string
	BinarySensors map[string]bool
	Sensors       map[string]any
	Switches      map[string]bool
	NumberInputs  map[string]float64
	TextInputs    map[string]string
	TimeInputs    map[string]TimeOfDay
	SelectInputs  map[string]EnumValue
}

func newDecodedBlock(name string) *DecodedBlock {
	return &DecodedBlock{
		Block:         name,
		BinarySensors: map[string]bool{},
		Sensors:       map[string]any{},
		Switches:      map[string]bool{},
		NumberInputs:  map[string]float64{},
		TextInputs:    map[string]string{},
		TimeInputs:    map[string]TimeOfDay{},
		SelectInputs:  map[string]EnumValue{},
	}
}

// Flatten merges all categories into "<category>.<key>" keys.
func (d *DecodedBlock) Flatten() map[string]any {
	out := make(map[string]any)
	for k, v := range d.BinarySensors {
		out[string(CategoryBinarySensor)+"."+k] = v
	}
	for k, v := range d.Sensors {
		out[string(CategorySensor)+"."+k] = v
	}
	for k, v := range d.Switches {
		out[string(CategorySwitch)+"."+k] = v
	}
	for k, v := range d.NumberInputs {
		out[string(CategoryNumber)+"."+k] = v
	}
	for k, v := range d.TextInputs {
		out[string(CategoryText)+"."+k] = v
	}
	for k, v := range d.TimeInputs {
		out[string(CategoryTime)+"."+k] = v
	}
	for k, v := range d.SelectInputs {
		out[string(CategorySelect)+"."+k] = v
	}
	return out
}

func (d *DecodedBlock) Len() int {
	return len(d.BinarySensors) + len(d.Sensors) + len(d.Switches) + len(d.NumberInputs) +
		len(d.TextInputs) + len(d.TimeInputs) + len(d.SelectInputs)
}

// DecodeBlock decodes every entry of block from a full block read. Only a
// register count mismatch is an error; single field failures are logged
// and the field is left out.
func (c *Codec) DecodeBlock(block *BlockDescriptor, registers []uint16) (*DecodedBlock, error) {
	if len(registers) != int(block.Count) {
		return nil, &ShapeError{Block: block.Name, Expected: int(block.Count), Actual: len(registers)}
	}

	result := newDecodedBlock(block.Name)
	for _, e := range block.BinarySensors {
		if v, ok := c.decodeBool(registers, e); ok {
			result.BinarySensors[e.Key] = v
		}
	}
	for _, e := range block.Sensors {
		if v, ok := c.Decode(registers, e.Field); ok {
			result.Sensors[e.Key] = v
		}
	}
	for _, e := range block.Switches {
		if v, ok := c.decodeBool(registers, e); ok {
			result.Switches[e.Key] = v
		}
	}
	for _, e := range block.NumberInputs {
		v, ok := c.Decode(registers, e.Field)
		if !ok {
			continue
		}
		if n, ok := toFloat64(v); ok {
			result.NumberInputs[e.Key] = n
		} else {
			c.coercionFailed(block, CategoryNumber, e, v)
		}
	}
	for _, e := range block.TextInputs {
		v, ok := c.Decode(registers, e.Field)
		if !ok {
			continue
		}
		if s, ok := v.(string); ok {
			result.TextInputs[e.Key] = s
		} else {
			c.coercionFailed(block, CategoryText, e, v)
		}
	}
	for _, e := range block.TimeInputs {
		v, ok := c.Decode(registers, e.Field)
		if !ok {
			continue
		}
		if t, ok := v.(TimeOfDay); ok {
			result.TimeInputs[e.Key] = t
		} else {
			c.coercionFailed(block, CategoryTime, e, v)
		}
	}
	for _, e := range block.SelectInputs {
		v, ok := c.Decode(registers, e.Field)
		if !ok {
			continue
		}
		if ev, ok := v.(EnumValue); ok {
			result.SelectInputs[e.Key] = ev
		} else {
			c.coercionFailed(block, CategorySelect, e, v)
		}
	}
	return result, nil
}

// decodeBool accepts a flag, or any numeric where 1 means true.
func (c *Codec) decodeBool(registers []uint16, e Entry) (bool, bool) {
	v, ok := c.Decode(registers, e.Field)
	if !ok {
		return false, false
	}
	if b, ok := v.(bool); ok {
		return b, true
	}
	if n, ok := toFloat64(v); ok {
		return n == 1, true
	}
	c.logger.Error("cannot read boolean", zap.String("key", e.Key), zap.Any("value", v))
	return false, false
}

func (c *Codec) coercionFailed(block *BlockDescriptor, category Category, e Entry, v any) {
	c.logger.Error("decoded value does not match category",
		zap.String("block", block.Name), zap.String("category", string(category)),
		zap.String("key", e.Key), zap.String("type", fmt.Sprintf("%T", v)))
}
