package askoheat_modbus

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

// nanSentinel is what the device reports for a struct or string value that
// has not been measured yet.
var nanSentinel = []byte("nan\x00")

var ErrPeekUnavailable = errors.New("flag field needs the current register value")

type TimeOfDay struct {
	Hour   uint8
	Minute uint8
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) valid() bool {
	return t.Hour <= 23 && t.Minute <= 59
}

// ParseTimeOfDay accepts "HH:MM" and "HH:MM:SS" (seconds are dropped).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q", s)
	}
	h, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid hour in %q: %w", s, err)
	}
	m, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid minute in %q: %w", s, err)
	}
	t := TimeOfDay{Hour: uint8(h), Minute: uint8(m)}
	if !t.valid() {
		return TimeOfDay{}, fmt.Errorf("time of day %q out of range", s)
	}
	return t, nil
}

// Codec transcodes single fields between register words and Go values.
// It never fails loudly on decode: problems are logged and the value is
// reported as absent.
type Codec struct {
	logger *zap.Logger
}

func NewCodec(logger *zap.Logger) *Codec {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Codec{logger: logger.With(zap.String("component", "codec"))}
}

// Decode reads field out of the block-relative registers slice.
//
// Returned types: Flag bool, Byte int16, Int16 int16, UInt16 uint16,
// UInt32 uint32, Float32 float32, String string, Time TimeOfDay,
// Struct a scalar or []any, EnumInt/EnumStr EnumValue.
func (c *Codec) Decode(registers []uint16, field Field) (any, bool) {
	start := int(field.Offset)
	end := start + int(field.Width())
	if end > len(registers) {
		c.logger.Error("field outside of register range",
			zap.Stringer("field", field), zap.Int("registers", len(registers)))
		return nil, false
	}
	words := registers[start:end]

	switch field.Kind {
	case FlagKind:
		return (words[0]>>field.Bit)&0x01 == 0x01, true
	case ByteKind:
		return c.decodeByte(field, words[0])
	case Int16Kind:
		return int16(words[0]), true
	case UInt16Kind:
		return words[0], true
	case UInt32Kind:
		return joinWords(words[0], words[1]), true
	case Float32Kind:
		return math.Float32frombits(joinWords(words[0], words[1])), true
	case StringKind:
		s, ok, err := decodeString(words)
		if err != nil {
			c.logger.Error("cannot decode string", zap.Stringer("field", field), zap.Error(err))
			return nil, false
		}
		if !ok {
			return nil, false
		}
		return s, true
	case TimeKind:
		if words[0] > 23 || words[1] > 59 {
			c.logger.Error("time of day out of range", zap.Stringer("field", field),
				zap.Uint16("hour", words[0]), zap.Uint16("minute", words[1]))
			return nil, false
		}
		return TimeOfDay{Hour: uint8(words[0]), Minute: uint8(words[1])}, true
	case StructKind:
		return c.decodeStruct(field, words)
	case EnumIntKind:
		raw, ok := c.decodeByte(field, words[0])
		if !ok {
			return nil, false
		}
		for _, v := range field.Enum {
			if n, ok := toInt64(v.Raw); ok && n == int64(raw.(int16)) {
				return v, true
			}
		}
		c.logger.Error("value is not a member of the enumeration",
			zap.Stringer("field", field), zap.Any("raw", raw))
		return nil, false
	case EnumStrKind:
		s, ok, err := decodeString(words)
		if err != nil {
			c.logger.Error("cannot decode string enum", zap.Stringer("field", field), zap.Error(err))
			return nil, false
		}
		if !ok {
			return nil, false
		}
		for _, v := range field.Enum {
			if raw, ok := v.Raw.(string); ok && raw == s {
				return v, true
			}
		}
		c.logger.Error("value is not a member of the enumeration",
			zap.Stringer("field", field), zap.String("raw", s))
		return nil, false
	}

	c.logger.Error("cannot decode field kind", zap.Stringer("field", field))
	return nil, false
}

func (c *Codec) decodeByte(field Field, word uint16) (any, bool) {
	v := int16(word)
	if v < math.MinInt8 || v > math.MaxUint8 {
		c.logger.Error("byte value out of range", zap.Stringer("field", field), zap.Int16("value", v))
		return nil, false
	}
	return v, true
}

func (c *Codec) decodeStruct(field Field, words []uint16) (any, bool) {
	raw := make([]byte, 0, len(words)*2)
	for _, w := range words {
		raw = append(raw, byte(w>>8), byte(w))
	}
	if bytes.Equal(raw, nanSentinel) {
		return nil, false
	}
	values, err := Unpack(field.Format, raw)
	if err != nil {
		c.logger.Error("cannot unpack struct", zap.Stringer("field", field), zap.Error(err))
		return nil, false
	}
	if len(values) == 1 {
		return values[0], true
	}
	return values, true
}

// Encode produces the words to write at the field's absolute offset.
// peek must return the current value of the field's first register; it is
// only called for flag fields. An empty result means nothing should be
// written; the reason has already been logged. A non-nil error is only
// returned when peek itself fails.
func (c *Codec) Encode(field Field, value any, peek func() (uint16, error)) ([]uint16, error) {
	switch field.Kind {
	case FlagKind:
		flag, ok := value.(bool)
		if !ok {
			c.mismatch(field, value)
			return []uint16{}, nil
		}
		if peek == nil {
			return nil, ErrPeekUnavailable
		}
		current, err := peek()
		if err != nil {
			return nil, err
		}
		mask := uint16(1) << field.Bit
		if flag {
			return []uint16{current | mask}, nil
		}
		return []uint16{current & (0xFFFF ^ mask)}, nil
	case ByteKind:
		return c.encodeByte(field, value), nil
	case Int16Kind:
		n, ok := asInteger(value)
		if !ok || n < math.MinInt16 || n > math.MaxInt16 {
			c.mismatch(field, value)
			return []uint16{}, nil
		}
		return []uint16{uint16(int16(n))}, nil
	case UInt16Kind:
		n, ok := asInteger(value)
		if !ok || n < 0 || n > math.MaxUint16 {
			c.mismatch(field, value)
			return []uint16{}, nil
		}
		return []uint16{uint16(n)}, nil
	case UInt32Kind:
		n, ok := asInteger(value)
		if !ok || n < 0 || n > math.MaxUint32 {
			c.mismatch(field, value)
			return []uint16{}, nil
		}
		hi, lo := splitWords(uint32(n))
		return []uint16{hi, lo}, nil
	case Float32Kind:
		f, ok := toFloat64(value)
		if !ok || math.IsInf(f, 0) || math.Abs(f) > math.MaxFloat32 {
			c.mismatch(field, value)
			return []uint16{}, nil
		}
		hi, lo := splitWords(math.Float32bits(float32(f)))
		return []uint16{hi, lo}, nil
	case StringKind:
		s, ok := value.(string)
		if !ok {
			c.mismatch(field, value)
			return []uint16{}, nil
		}
		return c.encodeString(field, s), nil
	case TimeKind:
		t, ok := c.asTimeOfDay(value)
		if !ok {
			c.mismatch(field, value)
			return []uint16{}, nil
		}
		return []uint16{uint16(t.Hour), uint16(t.Minute)}, nil
	case EnumIntKind:
		member, ok := resolveEnum(field, value)
		if !ok {
			c.mismatch(field, value)
			return []uint16{}, nil
		}
		return c.encodeByte(field, member.Raw), nil
	case EnumStrKind:
		member, ok := resolveEnum(field, value)
		if !ok {
			c.mismatch(field, value)
			return []uint16{}, nil
		}
		raw, _ := member.Raw.(string)
		return c.encodeString(field, raw), nil
	}

	c.logger.Error("field kind cannot be written", zap.Stringer("field", field))
	return []uint16{}, nil
}

func (c *Codec) encodeByte(field Field, value any) []uint16 {
	if b, ok := value.(bool); ok {
		if b {
			return []uint16{1}
		}
		return []uint16{0}
	}
	n, ok := asInteger(value)
	if !ok || n < math.MinInt8 || n > math.MaxUint8 {
		c.mismatch(field, value)
		return []uint16{}
	}
	return []uint16{uint16(int16(n))}
}

func (c *Codec) encodeString(field Field, s string) []uint16 {
	raw := []byte(s)
	if len(raw) > int(field.Words)*2 {
		c.logger.Error("string does not fit in field", zap.Stringer("field", field), zap.Int("bytes", len(raw)))
		return []uint16{}
	}
	// NUL padded to the full field width so no stale characters survive
	words := make([]uint16, field.Words)
	for i := 0; i < len(raw); i += 2 {
		w := uint16(raw[i])
		if i+1 < len(raw) {
			w |= uint16(raw[i+1]) << 8
		}
		words[i/2] = w
	}
	return words
}

func (c *Codec) asTimeOfDay(value any) (TimeOfDay, bool) {
	switch v := value.(type) {
	case TimeOfDay:
		return v, v.valid()
	case time.Time:
		return TimeOfDay{Hour: uint8(v.Hour()), Minute: uint8(v.Minute())}, true
	case string:
		t, err := ParseTimeOfDay(v)
		return t, err == nil
	}
	return TimeOfDay{}, false
}

func (c *Codec) mismatch(field Field, value any) {
	c.logger.Error("cannot encode value for field",
		zap.Stringer("field", field), zap.Any("value", value), zap.String("type", fmt.Sprintf("%T", value)))
}

func resolveEnum(field Field, value any) (EnumValue, bool) {
	for _, member := range field.Enum {
		switch v := value.(type) {
		case EnumValue:
			if v.Raw == member.Raw {
				return member, true
			}
		case string:
			if v == member.Label {
				return member, true
			}
			if raw, ok := member.Raw.(string); ok && raw == v {
				return member, true
			}
			if raw, ok := toInt64(member.Raw); ok {
				if n, err := strconv.ParseInt(v, 0, 64); err == nil && n == raw {
					return member, true
				}
			}
		default:
			n, ok := asInteger(v)
			raw, rawOk := toInt64(member.Raw)
			if ok && rawOk && n == raw {
				return member, true
			}
		}
	}
	return EnumValue{}, false
}

// decodeString reports false for the nan sentinel. Text ends at the first
// NUL: encode pads the whole field with NULs and the device zero fills
// unused words.
func decodeString(words []uint16) (string, bool, error) {
	raw := make([]byte, 0, len(words)*2)
	for _, w := range words {
		raw = append(raw, byte(w), byte(w>>8))
	}
	if bytes.Equal(raw, nanSentinel) {
		return "", false, nil
	}
	if i := bytes.IndexByte(raw, 0x00); i >= 0 {
		raw = raw[:i]
	}
	if !utf8.Valid(raw) {
		return "", false, errors.New("invalid utf-8")
	}
	return strings.TrimSpace(string(raw)), true, nil
}

// word order: most significant word first
func joinWords(hi, lo uint16) uint32 {
	return uint32(hi)<<16 | uint32(lo)
}

func splitWords(v uint32) (uint16, uint16) {
	return uint16(v >> 16), uint16(v)
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	if i, ok := toInt64(v); ok {
		return float64(i), true
	}
	return 0, false
}

// asInteger accepts integers and finite floats, rounding the latter.
func asInteger(v any) (int64, bool) {
	if i, ok := toInt64(v); ok {
		return i, true
	}
	f, ok := toFloat64(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(math.Round(f)), true
}
