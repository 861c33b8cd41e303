package actor

import (
	"testing"
	"time"

	"github.com/berfenger/askoheat2mqtt/internal/core/domain"
	"github.com/berfenger/askoheat2mqtt/internal/metrics"
	"github.com/berfenger/askoheat2mqtt/internal/util/actorutil"
	"github.com/berfenger/askoheat2mqtt/pkg/askoheat_modbus"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func spawnTestModbusActor(t *testing.T) (*actor.ActorSystem, *actor.PID, *askoheat_modbus.TestAskoheatModbusReader) {
	reader := askoheat_modbus.NewTestAskoheatModbusReader()
	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	props := actor.PropsFromProducer(func() actor.Actor { return NewModbusActor(reader, metrics.New(), 2*time.Second, logger) })
	pid := as.Root.Spawn(props)

	time.Sleep(500 * time.Millisecond)
	return as, pid, reader
}

func TestGetDevicesInfoModbusActor(t *testing.T) {

	assert := assert.New(t)

	as, pid, _ := spawnTestModbusActor(t)
	defer as.Shutdown()

	result, err := as.Root.RequestFuture(pid, domain.GetDevicesInfoRequest{}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.GetDevicesInfoResponse)

	assert.False(resp.HasResponseError())
	assert.Equal("AHP-3.5", resp.Device.ArticleNumber, "article number")
	assert.Equal("2023000123", resp.Device.SerialNumber, "serial number")
	assert.Equal("4.2.1", resp.Device.SoftwareVersion, "software version")
	assert.Equal(3, resp.Device.NumberOfHeaters, "heaters")
	assert.EqualValues(3500, resp.Device.RatedPowerWatt, "rated power")
}

func TestReadBlockModbusActor(t *testing.T) {

	require := require.New(t)

	as, pid, _ := spawnTestModbusActor(t)
	defer as.Shutdown()

	result, err := as.Root.RequestFuture(pid, domain.ReadBlockRequest{Block: "ema"}, 15*time.Second).Result()
	require.NoError(err)
	resp := result.(domain.ReadBlockResponse)

	require.False(resp.HasResponseError())
	require.Equal("ema", resp.Block.Block)
	require.True(resp.Block.BinarySensors["status.heater1"])

	result, err = as.Root.RequestFuture(pid, domain.ReadBlockRequest{Block: "nope"}, 15*time.Second).Result()
	require.NoError(err)
	resp = result.(domain.ReadBlockResponse)
	require.ErrorIs(resp.GetResponseError(), askoheat_modbus.ErrUnknownBlock)
}

func TestWriteFieldModbusActor(t *testing.T) {

	require := require.New(t)

	as, pid, reader := spawnTestModbusActor(t)
	defer as.Shutdown()

	req := domain.WriteFieldRequest{Block: "ema", Key: askoheat_modbus.EMA_KEY_LOAD_FEEDIN, Value: -1500}
	result, err := as.Root.RequestFuture(pid, req, 15*time.Second).Result()
	require.NoError(err)
	resp := result.(domain.WriteFieldResponse)

	require.False(resp.HasResponseError())
	require.EqualValues(-1500, resp.Block.NumberInputs[askoheat_modbus.EMA_KEY_LOAD_FEEDIN])
	require.Equal(1, reader.Writes())

	req = domain.WriteFieldRequest{Block: "ema", Key: "binary_sensor." + askoheat_modbus.EMA_KEY_EMERGENCY_MODE, Value: true}
	result, err = as.Root.RequestFuture(pid, req, 15*time.Second).Result()
	require.NoError(err)
	resp = result.(domain.WriteFieldResponse)
	require.ErrorIs(resp.GetResponseError(), askoheat_modbus.ErrNotWritable)
	require.Equal(1, reader.Writes())
}

func TestModbusActorSerializesRequests(t *testing.T) {

	assert := assert.New(t)

	as, pid, _ := spawnTestModbusActor(t)
	defer as.Shutdown()

	futures := []*actor.Future{}
	for _, block := range []string{"ema", "data", "config", "parameter"} {
		futures = append(futures, as.Root.RequestFuture(pid, domain.ReadBlockRequest{Block: block}, 15*time.Second))
	}
	for _, f := range futures {
		result, err := f.Result()
		assert.NoError(err)
		assert.False(result.(domain.ReadBlockResponse).HasResponseError())
	}
}
