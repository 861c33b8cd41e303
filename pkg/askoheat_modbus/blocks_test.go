package askoheat_modbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlocksValidate(t *testing.T) {
	for _, block := range AllBlocks {
		assert.NoError(t, block.Validate(), block.Name)
	}
}

func TestBlockKeysUnique(t *testing.T) {
	for _, block := range AllBlocks {
		for _, c := range Categories {
			seen := map[string]bool{}
			for _, e := range block.Entries(c) {
				assert.False(t, seen[e.Key], "%s: duplicate %s.%s", block.Name, c, e.Key)
				seen[e.Key] = true
			}
		}
	}
}

func TestValidateRejectsOverflow(t *testing.T) {

	assert := assert.New(t)

	block := &BlockDescriptor{
		Name:    "small",
		Count:   2,
		Sensors: []Entry{{Key: "wide", Field: Float32(1)}},
	}
	assert.Error(block.Validate())

	block.Sensors[0].Field = Float32(0)
	assert.NoError(block.Validate())

	block.SelectInputs = []Entry{{Key: "empty", Field: EnumInt(0)}}
	assert.Error(block.Validate())
}

func TestBlockByName(t *testing.T) {

	require := require.New(t)

	block, err := BlockByName("EMA")
	require.NoError(err)
	require.Same(EMABlock, block)

	_, err = BlockByName("nope")
	require.ErrorIs(err, ErrUnknownBlock)
}

func TestLookup(t *testing.T) {

	assert := assert.New(t)

	c, e, ok := EMABlock.Lookup(EMA_KEY_LOAD_FEEDIN)
	assert.True(ok)
	assert.Equal(CategoryNumber, c)
	assert.Equal(uint16(320), EMABlock.AbsoluteOffset(e.Field))

	c, e, ok = EMABlock.Lookup("binary_sensor." + EMA_KEY_EMERGENCY_MODE)
	assert.True(ok)
	assert.Equal(CategoryBinarySensor, c)
	assert.Equal(uint8(7), e.Field.Bit)

	_, _, ok = EMABlock.Lookup("switch." + EMA_KEY_LOAD_FEEDIN)
	assert.False(ok)

	c, _, ok = ConfigBlock.Lookup(CONF_KEY_LOAD_FEEDIN_VALUE_ENABLED)
	assert.True(ok)
	assert.True(c.Writable())
	assert.False(CategorySensor.Writable())
}

func TestEMAStatusFlags(t *testing.T) {

	assert := assert.New(t)

	registers := make([]uint16, EMA_COUNT)
	registers[EMA_STATUS_REGISTER] = 1<<0 | 1<<7 | 1<<15
	decoded, err := testCodec.DecodeBlock(EMABlock, registers)
	assert.NoError(err)

	assert.True(decoded.BinarySensors["status.heater1"])
	assert.False(decoded.BinarySensors["status.heater2"])
	assert.True(decoded.BinarySensors[EMA_KEY_EMERGENCY_MODE])
	assert.True(decoded.BinarySensors["status.error"])
	// inversion is applied when publishing, the mapper reports the raw bit
	assert.False(decoded.BinarySensors["status.autoheater"])
}

func TestDataBlockDurations(t *testing.T) {

	assert := assert.New(t)

	registers := make([]uint16, DATA_COUNT)
	registers[0], registers[1] = 0x0001, 0x0000
	registers[28], registers[29] = 0x6E61, 0x6E00
	decoded, err := testCodec.DecodeBlock(DataBlock, registers)
	assert.NoError(err)

	assert.Equal(uint32(65536), decoded.Sensors["operating_time_minutes"])
	assert.NotContains(decoded.Sensors, "since_last_legio_activation_minutes")
	assert.Equal(uint32(0), decoded.Sensors["set_heater_step_count"])
}
