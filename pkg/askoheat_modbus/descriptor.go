package askoheat_modbus

import (
	"fmt"

	"github.com/simonvetter/modbus"
)

type FieldKind int

const (
	FlagKind FieldKind = iota
	ByteKind
	Int16Kind
	UInt16Kind
	UInt32Kind
	Float32Kind
	StringKind
	TimeKind
	StructKind
	EnumIntKind
	EnumStrKind
)

var fieldKindNames = map[FieldKind]string{
	FlagKind:    "flag",
	ByteKind:    "byte",
	Int16Kind:   "int16",
	UInt16Kind:  "uint16",
	UInt32Kind:  "uint32",
	Float32Kind: "float32",
	StringKind:  "string",
	TimeKind:    "time",
	StructKind:  "struct",
	EnumIntKind: "enum_int",
	EnumStrKind: "enum_str",
}

func (k FieldKind) String() string {
	if name, ok := fieldKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Field describes how a value is laid out inside a register block.
// Offset is always relative to the block base.
type Field struct {
	Kind   FieldKind
	Offset uint16
	Bit    uint8
	Words  uint16
	Format string
	Enum   []EnumValue
}

// EnumValue is one legal member of an enumerated field. Raw holds an int
// for EnumInt fields and a string for EnumStr fields.
type EnumValue struct {
	Raw   any
	Label string
}

func (v EnumValue) String() string {
	return v.Label
}

func Flag(offset uint16, bit uint8) Field {
	if bit > 15 {
		panic(fmt.Sprintf("flag bit %d out of range", bit))
	}
	return Field{Kind: FlagKind, Offset: offset, Bit: bit}
}

func Byte(offset uint16) Field {
	return Field{Kind: ByteKind, Offset: offset}
}

func Int16(offset uint16) Field {
	return Field{Kind: Int16Kind, Offset: offset}
}

func UInt16(offset uint16) Field {
	return Field{Kind: UInt16Kind, Offset: offset}
}

func UInt32(offset uint16) Field {
	return Field{Kind: UInt32Kind, Offset: offset}
}

func Float32(offset uint16) Field {
	return Field{Kind: Float32Kind, Offset: offset}
}

func String(offset uint16, words uint16) Field {
	if words == 0 {
		panic("string field needs at least one word")
	}
	return Field{Kind: StringKind, Offset: offset, Words: words}
}

// Time is an hour word followed by a minute word.
func Time(offset uint16) Field {
	return Field{Kind: TimeKind, Offset: offset}
}

// Struct unpacks words with a packed binary format such as ">L".
func Struct(offset uint16, words uint16, format string) Field {
	if words == 0 {
		panic("struct field needs at least one word")
	}
	if _, err := parseFormat(format); err != nil {
		panic(err)
	}
	return Field{Kind: StructKind, Offset: offset, Words: words, Format: format}
}

func EnumInt(offset uint16, values ...EnumValue) Field {
	return Field{Kind: EnumIntKind, Offset: offset, Enum: values}
}

func EnumStr(offset uint16, words uint16, values ...EnumValue) Field {
	if words == 0 {
		panic("string enum field needs at least one word")
	}
	return Field{Kind: EnumStrKind, Offset: offset, Words: words, Enum: values}
}

// Width returns the number of registers the field spans.
func (f Field) Width() uint16 {
	switch f.Kind {
	case UInt32Kind, Float32Kind, TimeKind:
		return 2
	case StringKind, StructKind, EnumStrKind:
		return f.Words
	default:
		return 1
	}
}

func (f Field) String() string {
	switch f.Kind {
	case FlagKind:
		return fmt.Sprintf("flag@%d.%d", f.Offset, f.Bit)
	case StructKind:
		return fmt.Sprintf("struct@%d[%d]%q", f.Offset, f.Words, f.Format)
	case StringKind, EnumStrKind:
		return fmt.Sprintf("%s@%d[%d]", f.Kind, f.Offset, f.Words)
	default:
		return fmt.Sprintf("%s@%d", f.Kind, f.Offset)
	}
}

// Entity metadata used for Home Assistant discovery.
type EntityMeta struct {
	Name              string
	Icon              string
	Unit              string
	DeviceClass       string
	StateClass        string
	EntityCategory    string
	DisabledByDefault bool
	Device            DeviceKey
	Min               float64
	Max               float64
	Step              float64
	Mode              string
	Precision         uint
	Inverted          bool
}

type Entry struct {
	Key   string
	Field Field
	Meta  EntityMeta
}

type Category string

const (
	CategoryBinarySensor Category = "binary_sensor"
	CategorySensor       Category = "sensor"
	CategorySwitch       Category = "switch"
	CategoryNumber       Category = "number"
	CategoryText         Category = "text"
	CategoryTime         Category = "time"
	CategorySelect       Category = "select"
)

var Categories = []Category{
	CategoryBinarySensor,
	CategorySensor,
	CategorySwitch,
	CategoryNumber,
	CategoryText,
	CategoryTime,
	CategorySelect,
}

type RegisterType int

const (
	InputRegister RegisterType = iota
	HoldingRegister
)

func (r RegisterType) modbusRegType() modbus.RegType {
	if r == HoldingRegister {
		return modbus.HOLDING_REGISTER
	}
	return modbus.INPUT_REGISTER
}

// BlockDescriptor describes a contiguous range of registers read in a
// single request and the entries decoded from it.
type BlockDescriptor struct {
	Name          string
	Base          uint16
	Count         uint16
	RegisterType  RegisterType
	BinarySensors []Entry
	Sensors       []Entry
	Switches      []Entry
	NumberInputs  []Entry
	TextInputs    []Entry
	TimeInputs    []Entry
	SelectInputs  []Entry
}

func (b *BlockDescriptor) AbsoluteOffset(f Field) uint16 {
	return b.Base + f.Offset
}

func (b *BlockDescriptor) Entries(c Category) []Entry {
	switch c {
	case CategoryBinarySensor:
		return b.BinarySensors
	case CategorySensor:
		return b.Sensors
	case CategorySwitch:
		return b.Switches
	case CategoryNumber:
		return b.NumberInputs
	case CategoryText:
		return b.TextInputs
	case CategoryTime:
		return b.TimeInputs
	case CategorySelect:
		return b.SelectInputs
	}
	return nil
}

// Lookup finds an entry by key. The key may be qualified with its
// category ("switch.foo") or bare, in which case the first match wins.
func (b *BlockDescriptor) Lookup(key string) (Category, *Entry, bool) {
	category, bare := splitKey(key)
	for _, c := range Categories {
		if category != "" && c != category {
			continue
		}
		entries := b.Entries(c)
		for i := range entries {
			if entries[i].Key == bare {
				return c, &entries[i], true
			}
		}
	}
	return "", nil, false
}

// Validate checks that every field fits inside the block.
func (b *BlockDescriptor) Validate() error {
	for _, c := range Categories {
		for _, e := range b.Entries(c) {
			if e.Field.Width() == 0 || e.Field.Offset+e.Field.Width() > b.Count {
				return fmt.Errorf("block %s: %s.%s (%s) does not fit in %d registers", b.Name, c, e.Key, e.Field, b.Count)
			}
			if (e.Field.Kind == EnumIntKind || e.Field.Kind == EnumStrKind) && len(e.Field.Enum) == 0 {
				return fmt.Errorf("block %s: %s.%s enum without values", b.Name, c, e.Key)
			}
		}
	}
	return nil
}

func splitKey(key string) (Category, string) {
	for _, c := range Categories {
		prefix := string(c) + "."
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			return c, key[len(prefix):]
		}
	}
	return "", key
}
