package actor

import (
	"sync/atomic"
	"testing"
	"time"

	adactor "github.com/berfenger/askoheat2mqtt/internal/adapter/actor"
	"github.com/berfenger/askoheat2mqtt/internal/core/domain"
	"github.com/berfenger/askoheat2mqtt/internal/metrics"
	"github.com/berfenger/askoheat2mqtt/internal/util/actorutil"
	"github.com/berfenger/askoheat2mqtt/pkg/askoheat_modbus"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func spawnTestPoller(t *testing.T, block *askoheat_modbus.BlockDescriptor, interval time.Duration) (*actor.ActorSystem, *actor.PID, *askoheat_modbus.TestAskoheatModbusReader, *eventCollector) {
	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)
	reader := askoheat_modbus.NewTestAskoheatModbusReader()
	es := &eventstream.EventStream{}
	collector := collectEvents(es)

	modbusProps := actor.PropsFromProducer(func() actor.Actor {
		return adactor.NewModbusActor(reader, metrics.New(), time.Second, logger)
	})
	modbusActorPID := as.Root.Spawn(modbusProps)

	pollerProps := actor.PropsFromProducer(func() actor.Actor {
		return NewPollerActor(block, interval, 2*time.Second, modbusActorPID, es, domain.SupportedDevices(), logger)
	})
	pid := as.Root.Spawn(pollerProps)

	time.Sleep(500 * time.Millisecond)
	return as, pid, reader, collector
}

func TestPollerPublishesBlock(t *testing.T) {

	assert := assert.New(t)

	as, pid, _, collector := spawnTestPoller(t, askoheat_modbus.EMABlock, 0)
	defer as.Shutdown()

	ev, ok := collector.last(domain.EntityId("ema", "internal_temp_sensor"))
	assert.True(ok)
	assert.Equal(48.5, ev.(domain.FloatSensorUpdateEvent).Value)

	ev, ok = collector.last(domain.EntityId("ema", "status.heater1"))
	assert.True(ok)
	assert.True(ev.(domain.BinarySensorUpdateEvent).Value)

	// analog input is an optional device
	_, ok = collector.last(domain.EntityId("ema", "analog_input"))
	assert.False(ok)

	hcr, err := healthCheck(as.Root, pid)
	assert.NoError(err)
	assert.True(hcr.Healthy)
	assert.Equal(domain.PollerActorId("ema"), hcr.Id)
}

func TestPollerInterval(t *testing.T) {

	assert := assert.New(t)

	as, _, reader, collector := spawnTestPoller(t, askoheat_modbus.EMABlock, 200*time.Millisecond)
	defer as.Shutdown()

	_, entry, _ := askoheat_modbus.EMABlock.Lookup("heater_load")
	reader.SetRegisters(askoheat_modbus.EMABlock.AbsoluteOffset(entry.Field), []uint16{1500})

	time.Sleep(600 * time.Millisecond)

	ev, ok := collector.last(domain.EntityId("ema", "heater_load"))
	assert.True(ok)
	assert.Equal(1500.0, ev.(domain.FloatSensorUpdateEvent).Value)
}

func TestPollerWriteField(t *testing.T) {

	require := require.New(t)

	as, pid, reader, collector := spawnTestPoller(t, askoheat_modbus.EMABlock, 0)
	defer as.Shutdown()

	req := domain.WriteFieldRequest{Block: "ema", Key: askoheat_modbus.EMA_KEY_LOAD_FEEDIN, Value: -500}
	result, err := as.Root.RequestFuture(pid, req, 5*time.Second).Result()
	require.NoError(err)
	resp := result.(domain.WriteFieldResponse)
	require.False(resp.HasResponseError())
	require.Equal(1, reader.Writes())

	// read-back is published
	ev, ok := collector.last(domain.EntityId("ema", askoheat_modbus.EMA_KEY_LOAD_FEEDIN))
	require.True(ok)
	require.Equal(-500.0, ev.(domain.InputNumberSensorUpdateEvent).Value)

	req = domain.WriteFieldRequest{Block: "ema", Key: "heater_load", Value: 100}
	result, err = as.Root.RequestFuture(pid, req, 5*time.Second).Result()
	require.NoError(err)
	require.ErrorIs(result.(domain.WriteFieldResponse).GetResponseError(), askoheat_modbus.ErrNotWritable)
}

// slowModbusActor answers block reads after a fixed latency.
type slowModbusActor struct {
	reader  *askoheat_modbus.TestAskoheatModbusReader
	latency time.Duration
	reads   *atomic.Int32
}

func (a *slowModbusActor) Receive(ctx actor.Context) {
	switch ctx.Message().(type) {
	case domain.ReadBlockRequest:
		a.reads.Add(1)
		time.Sleep(a.latency)
		decoded, err := a.reader.ReadBlock(askoheat_modbus.EMABlock)
		ctx.Respond(domain.ReadBlockResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err},
			Block:              decoded,
		})
	}
}

func TestPollerKeepsPollingWhenReadsOutlastInterval(t *testing.T) {

	assert := assert.New(t)

	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)
	defer as.Shutdown()

	reads := &atomic.Int32{}
	modbusPID := as.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return &slowModbusActor{
			reader:  askoheat_modbus.NewTestAskoheatModbusReader(),
			latency: 150 * time.Millisecond,
			reads:   reads,
		}
	}))
	pid := as.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewPollerActor(askoheat_modbus.EMABlock, 100*time.Millisecond, time.Second, modbusPID,
			&eventstream.EventStream{}, domain.SupportedDevices(), logger)
	}))

	time.Sleep(2 * time.Second)

	// every cycle is one read plus one interval
	assert.GreaterOrEqual(reads.Load(), int32(5))

	hcr, err := healthCheck(as.Root, pid)
	assert.NoError(err)
	assert.True(hcr.Healthy)
}
