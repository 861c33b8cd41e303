package askoheat_modbus

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testCodec = NewCodec(zap.NewNop())

func noPeek() (uint16, error) {
	panic("peek must not be called for non flag fields")
}

func peekValue(v uint16) func() (uint16, error) {
	return func() (uint16, error) {
		return v, nil
	}
}

// roundTrip encodes value at offset 0 and decodes it back.
func roundTrip(t *testing.T, field Field, value any) any {
	words, err := testCodec.Encode(field, value, noPeek)
	require.NoError(t, err)
	require.Len(t, words, int(field.Width()), "encoded width of %s", field)
	decoded, ok := testCodec.Decode(words, field)
	require.True(t, ok, "decode %s", field)
	return decoded
}

func TestByteRoundTrip(t *testing.T) {

	assert := assert.New(t)

	for _, v := range []int16{-128, -1, 0, 1, 127, 255} {
		assert.Equal(v, roundTrip(t, Byte(0), v))
	}
}

func TestByteOutOfRange(t *testing.T) {

	assert := assert.New(t)

	words, err := testCodec.Encode(Byte(0), 256, noPeek)
	assert.NoError(err)
	assert.Empty(words)

	_, ok := testCodec.Decode([]uint16{0x0100}, Byte(0))
	assert.False(ok, "256 is not a byte")
}

func TestByteEncodesBool(t *testing.T) {

	assert := assert.New(t)

	words, _ := testCodec.Encode(Byte(0), true, noPeek)
	assert.Equal([]uint16{1}, words)
	words, _ = testCodec.Encode(Byte(0), false, noPeek)
	assert.Equal([]uint16{0}, words)
}

func TestInt16RoundTrip(t *testing.T) {

	assert := assert.New(t)

	for _, v := range []int16{math.MinInt16, -1234, 0, 1234, math.MaxInt16} {
		assert.Equal(v, roundTrip(t, Int16(0), v))
	}
	assert.Equal([]uint16{0xFFFF}, mustEncode(t, Int16(0), -1))
}

func TestUInt16RoundTrip(t *testing.T) {

	assert := assert.New(t)

	for _, v := range []uint16{0, 1, 0x8000, math.MaxUint16} {
		assert.Equal(v, roundTrip(t, UInt16(0), v))
	}
	words, _ := testCodec.Encode(UInt16(0), -1, noPeek)
	assert.Empty(words, "negative values are rejected")
}

func TestUInt32RoundTrip(t *testing.T) {

	assert := assert.New(t)

	for _, v := range []uint32{0, 1, 0xFFFF, 0x10000, 0x12345678, math.MaxUint32} {
		assert.Equal(v, roundTrip(t, UInt32(0), v))
	}
	// most significant word first
	assert.Equal([]uint16{0x1234, 0x5678}, mustEncode(t, UInt32(0), uint32(0x12345678)))
	v, ok := testCodec.Decode([]uint16{0x0001, 0x0002}, UInt32(0))
	assert.True(ok)
	assert.Equal(uint32(0x00010002), v)
}

func TestFloat32RoundTrip(t *testing.T) {

	assert := assert.New(t)

	for _, v := range []float64{0, -1.5, 48.25, 3.14159, 12345.678} {
		decoded := roundTrip(t, Float32(0), v)
		assert.IsType(float32(0), decoded)
		assert.InDelta(v, float64(decoded.(float32)), 1e-3)
	}
	// 1.0f = 0x3F800000
	assert.Equal([]uint16{0x3F80, 0x0000}, mustEncode(t, Float32(0), 1.0))
}

func TestStringRoundTrip(t *testing.T) {

	assert := assert.New(t)

	for _, s := range []string{"ab", "abc", "Askoheat", "odd", "x"} {
		field := String(0, uint16((len(s)+1)/2))
		assert.Equal(s, roundTrip(t, field, s))
	}

	field := String(0, 5)
	assert.Equal("padded", roundTrip(t, field, "  padded "))
}

func TestStringLittleEndianWithinWord(t *testing.T) {

	assert := assert.New(t)

	// "AB" = low byte 'A', high byte 'B'
	assert.Equal([]uint16{0x4241}, mustEncode(t, String(0, 1), "AB"))
	// odd trailing byte gets an implicit zero high byte
	assert.Equal([]uint16{0x4241, 0x0043}, mustEncode(t, String(0, 2), "ABC"))

	v, ok := testCodec.Decode([]uint16{0x4241, 0x0043}, String(0, 2))
	assert.True(ok)
	assert.Equal("ABC", v)
}

func TestStringTooLong(t *testing.T) {

	assert := assert.New(t)

	words, err := testCodec.Encode(String(0, 1), "abc", noPeek)
	assert.NoError(err)
	assert.Empty(words)
}

func TestStringEmptyDecodesPresent(t *testing.T) {

	assert := assert.New(t)

	v, ok := testCodec.Decode([]uint16{0, 0}, String(0, 2))
	assert.True(ok, "empty string is a value")
	assert.Equal("", v)
}

func TestStringEndsAtFirstNul(t *testing.T) {

	assert := assert.New(t)

	// 'A', NUL, 'B', NUL
	v, ok := testCodec.Decode([]uint16{0x0041, 0x0042}, String(0, 2))
	assert.True(ok)
	assert.Equal("A", v)

	// shorter text in a wider field
	v, ok = testCodec.Decode(mustEncode(t, String(0, 4), "abc"), String(0, 4))
	assert.True(ok)
	assert.Equal("abc", v)
}

func TestStringNanSentinelIsAbsent(t *testing.T) {

	assert := assert.New(t)

	// "nan\0" low byte first
	words := []uint16{0x616E, 0x006E}
	_, ok := testCodec.Decode(words, String(0, 2))
	assert.False(ok)

	enum := EnumStr(0, 2, EnumValue{Raw: "nan", Label: "nan"})
	_, ok = testCodec.Decode(words, enum)
	assert.False(ok)

	// the same text in a wider field is plain text
	v, ok := testCodec.Decode([]uint16{0x616E, 0x006E, 0x0000}, String(0, 3))
	assert.True(ok)
	assert.Equal("nan", v)
}

func TestNumericEncodeRounds(t *testing.T) {

	assert := assert.New(t)

	assert.Equal([]uint16{13}, mustEncode(t, UInt16(0), 12.7))
	assert.Equal([]uint16{12}, mustEncode(t, UInt16(0), 12.2))
	assert.Equal([]uint16{0xFFF3}, mustEncode(t, Int16(0), -12.7))
}

func TestFlagSetAndClear(t *testing.T) {

	assert := assert.New(t)

	for _, current := range []uint16{0x0000, 0xFFFF, 0xA5A5, 0x5A5A, 0x8001} {
		for bit := uint8(0); bit < 16; bit++ {
			field := Flag(0, bit)
			mask := uint16(1) << bit

			set, err := testCodec.Encode(field, true, peekValue(current))
			assert.NoError(err)
			assert.Len(set, 1)
			v, _ := testCodec.Decode(set, field)
			assert.Equal(true, v)
			assert.Equal(current&^mask, set[0]&^mask, "other bits unchanged")

			cleared, err := testCodec.Encode(field, false, peekValue(current))
			assert.NoError(err)
			assert.Len(cleared, 1)
			v, _ = testCodec.Decode(cleared, field)
			assert.Equal(false, v)
			assert.Equal(current&^mask, cleared[0], "other bits unchanged")
		}
	}
}

func TestFlagClearBit15(t *testing.T) {

	assert := assert.New(t)

	words, err := testCodec.Encode(Flag(0, 15), false, peekValue(0xFFFF))
	assert.NoError(err)
	assert.Equal([]uint16{0x7FFF}, words)

	words, err = testCodec.Encode(Flag(0, 15), false, peekValue(0x8000))
	assert.NoError(err)
	assert.Equal([]uint16{0x0000}, words)
}

func TestFlagNeedsPeek(t *testing.T) {

	assert := assert.New(t)

	_, err := testCodec.Encode(Flag(0, 1), true, nil)
	assert.ErrorIs(err, ErrPeekUnavailable)

	words, err := testCodec.Encode(Flag(0, 1), "yes", peekValue(0))
	assert.NoError(err)
	assert.Empty(words, "only bool values are accepted")
}

func TestFlagInvalidBitPanics(t *testing.T) {
	assert.Panics(t, func() { Flag(0, 16) })
}

func TestTimeDecode(t *testing.T) {

	assert := assert.New(t)

	v, ok := testCodec.Decode([]uint16{13, 45}, Time(0))
	assert.True(ok)
	assert.Equal(TimeOfDay{Hour: 13, Minute: 45}, v)
	assert.Equal("13:45", v.(TimeOfDay).String())

	_, ok = testCodec.Decode([]uint16{24, 0}, Time(0))
	assert.False(ok, "hour out of range")
	_, ok = testCodec.Decode([]uint16{10, 60}, Time(0))
	assert.False(ok, "minute out of range")
}

func TestTimeEncode(t *testing.T) {

	assert := assert.New(t)

	assert.Equal([]uint16{6, 30}, mustEncode(t, Time(0), TimeOfDay{Hour: 6, Minute: 30}))
	assert.Equal([]uint16{22, 5}, mustEncode(t, Time(0), "22:05"))
	assert.Equal([]uint16{7, 15}, mustEncode(t, Time(0), "07:15:59"))
	assert.Equal([]uint16{18, 0}, mustEncode(t, Time(0), time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC)))

	words, _ := testCodec.Encode(Time(0), "25:00", noPeek)
	assert.Empty(words)
	words, _ = testCodec.Encode(Time(0), 1330, noPeek)
	assert.Empty(words)
}

func TestStructDecode(t *testing.T) {

	assert := assert.New(t)

	v, ok := testCodec.Decode([]uint16{0x0001, 0x0002}, Struct(0, 2, ">L"))
	assert.True(ok)
	assert.Equal(uint32(0x00010002), v)

	v, ok = testCodec.Decode([]uint16{0x0102, 0x0304}, Struct(0, 2, ">BBH"))
	assert.True(ok)
	assert.Equal([]any{byte(1), byte(2), uint16(0x0304)}, v)
}

func TestStructNanSentinel(t *testing.T) {

	assert := assert.New(t)

	// "na" "n\0"
	v, ok := testCodec.Decode([]uint16{0x6E61, 0x6E00}, Struct(0, 2, ">L"))
	assert.False(ok)
	assert.Nil(v)
}

func TestStructLengthMismatch(t *testing.T) {

	assert := assert.New(t)

	_, ok := testCodec.Decode([]uint16{0x0001, 0x0002}, Struct(0, 2, ">H"))
	assert.False(ok)
}

func TestStructNotWritable(t *testing.T) {

	assert := assert.New(t)

	words, err := testCodec.Encode(Struct(0, 2, ">L"), 10, noPeek)
	assert.NoError(err)
	assert.Empty(words)
}

func TestEnumIntDecode(t *testing.T) {

	assert := assert.New(t)

	field := EnumInt(0, EnergyMeterTypes...)
	v, ok := testCodec.Decode([]uint16{0x10}, field)
	assert.True(ok)
	assert.Equal("EM300", v.(EnumValue).Label)

	_, ok = testCodec.Decode([]uint16{0x05}, field)
	assert.False(ok, "not a member")
}

func TestEnumIntEncode(t *testing.T) {

	assert := assert.New(t)

	field := EnumInt(0, EnergyMeterTypes...)
	assert.Equal([]uint16{0x10}, mustEncode(t, field, "EM300"))
	assert.Equal([]uint16{0x02}, mustEncode(t, field, 2))
	assert.Equal([]uint16{0x01}, mustEncode(t, field, EnergyMeterTypes[1]))

	words, _ := testCodec.Encode(field, "unknown meter", noPeek)
	assert.Empty(words)
}

func TestEnumStrRoundTrip(t *testing.T) {

	assert := assert.New(t)

	field := EnumStr(0, 3, Baudrates...)
	v := roundTrip(t, field, "115200")
	assert.Equal("115200", v.(EnumValue).Label)

	words, _ := testCodec.Encode(field, "300", noPeek)
	assert.Empty(words)

	_, ok := testCodec.Decode(mustEncode(t, String(0, 3), "300"), field)
	assert.False(ok, "unknown baud rate")
}

func TestDecodeOutsideRegisters(t *testing.T) {

	assert := assert.New(t)

	_, ok := testCodec.Decode([]uint16{1}, UInt32(0))
	assert.False(ok)
}

func TestParseTimeOfDay(t *testing.T) {

	assert := assert.New(t)

	tod, err := ParseTimeOfDay(" 03:07 ")
	assert.NoError(err)
	assert.Equal(TimeOfDay{Hour: 3, Minute: 7}, tod)

	for _, s := range []string{"", "3", "24:00", "12:60", "aa:bb", "1:2:3:4"} {
		_, err := ParseTimeOfDay(s)
		assert.Error(err, s)
	}
}

func mustEncode(t *testing.T, field Field, value any) []uint16 {
	words, err := testCodec.Encode(field, value, noPeek)
	require.NoError(t, err)
	require.NotEmpty(t, words, "encode %v into %s", value, field)
	return words
}
