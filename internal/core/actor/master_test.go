package actor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	adactor "github.com/berfenger/askoheat2mqtt/internal/adapter/actor"
	"github.com/berfenger/askoheat2mqtt/internal/config"
	"github.com/berfenger/askoheat2mqtt/internal/core/domain"
	"github.com/berfenger/askoheat2mqtt/internal/metrics"
	"github.com/berfenger/askoheat2mqtt/internal/mqtt"
	"github.com/berfenger/askoheat2mqtt/internal/util"
	"github.com/berfenger/askoheat2mqtt/internal/util/actorutil"
	"github.com/berfenger/askoheat2mqtt/pkg/askoheat_modbus"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMasterActor(t *testing.T) {

	assert := assert.New(t)

	cfg := util.LoadTestConfig()
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(logCfg.Build())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	reader := askoheat_modbus.NewTestAskoheatModbusReader()
	sw := &fakeEmergencySwitch{}

	pid, err := context.SpawnNamed(masterProps(cfg, reader, sw, logger), domain.ACTOR_ID_MASTER)
	if err != nil {
		t.Error(err)
		return
	}

	time.Sleep(2 * time.Second)

	healthResp, err := healthCheck(context, pid)
	if err != nil {
		t.Error(err)
		return
	}
	assert.Equal(domain.ACTOR_ID_MASTER, healthResp.Id)
	assert.True(healthResp.Healthy, "healthy is true")

	context.Stop(pid)

	as.Shutdown()
}

func TestMasterRoutesCommands(t *testing.T) {

	require := require.New(t)

	cfg := util.LoadTestConfig()
	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)
	defer as.Shutdown()

	reader := askoheat_modbus.NewTestAskoheatModbusReader()
	sw := &fakeEmergencySwitch{}

	pid, err := as.Root.SpawnNamed(masterProps(cfg, reader, sw, logger), domain.ACTOR_ID_MASTER)
	require.NoError(err)

	time.Sleep(1 * time.Second)

	// grid power goes to the feed-in actor: -1500 W + 100 W buffer
	as.Root.Send(pid, adactor.ParsedCommand{Command: &mqtt.ParsedMQTTCommand{Command: mqtt.COMMAND_POWER, Payload: "-1500"}})
	// switches are written through the EMA poller
	as.Root.Send(pid, adactor.ParsedCommand{Command: &mqtt.ParsedMQTTCommand{
		DeviceId: domain.EntityId("ema", "set_heater_step_heater2"),
		Command:  mqtt.COMMAND_SWITCH,
		Payload:  mqtt.MQTT_PAYLOAD_ON,
	}})
	as.Root.Send(pid, adactor.ParsedCommand{Command: &mqtt.ParsedMQTTCommand{
		DeviceId: domain.SWITCH_ID_EMERGENCY_MODE,
		Command:  mqtt.COMMAND_SWITCH,
		Payload:  mqtt.MQTT_PAYLOAD_ON,
	}})
	// unknown entities are dropped
	as.Root.Send(pid, adactor.ParsedCommand{Command: &mqtt.ParsedMQTTCommand{DeviceId: "nope", Command: mqtt.COMMAND_SWITCH, Payload: "ON"}})

	time.Sleep(1 * time.Second)

	result, err := as.Root.RequestFuture(pid, domain.ReadBlockRequest{Block: "ema"}, 5*time.Second).Result()
	require.NoError(err)
	resp := result.(domain.ReadBlockResponse)
	require.False(resp.HasResponseError())
	require.EqualValues(-1400, resp.Block.NumberInputs[askoheat_modbus.EMA_KEY_LOAD_FEEDIN])
	require.True(resp.Block.Switches["set_heater_step_heater2"])

	require.Equal(1, sw.Calls())

	hcr, err := healthCheck(as.Root, pid)
	require.NoError(err)
	require.True(hcr.Healthy)
}

func masterProps(cfg config.Config, reader *askoheat_modbus.TestAskoheatModbusReader, sw *fakeEmergencySwitch, logger *zap.Logger) *actor.Props {
	return actor.PropsFromProducer(func() actor.Actor {
		return NewMasterOfPuppetsActor(cfg, func() *adactor.ModbusActor {
			return adactor.NewModbusActor(reader, metrics.New(), time.Second, logger)
		}, func(es *eventstream.EventStream) *adactor.MQTTActor {
			return adactor.NewTestMQTTActor(&cfg, es, logger)
		}, sw, logger)
	})
}

func healthCheck(ctx *actor.RootContext, pid *actor.PID) (*domain.ActorHealthResponse, error) {
	resp, err := ctx.RequestFuture(pid, domain.ActorHealthRequest{}, 2*time.Second).Result()
	if err != nil {
		return nil, err
	}
	hcr, ok := resp.(domain.ActorHealthResponse)
	if !ok {
		return nil, errors.New("unexpected response type")
	}
	return &hcr, nil
}

type fakeEmergencySwitch struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *fakeEmergencySwitch) SetEmergencyMode(_ context.Context, enable bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return enable, s.err
}

func (s *fakeEmergencySwitch) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// eventCollector records everything published on an event stream.
type eventCollector struct {
	mu     sync.Mutex
	events []any
}

func collectEvents(es *eventstream.EventStream) *eventCollector {
	c := &eventCollector{}
	es.Subscribe(func(evt interface{}) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.events = append(c.events, evt)
	})
	return c
}

// last returns the latest update event of a sensor.
func (c *eventCollector) last(id string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.events) - 1; i >= 0; i-- {
		if ev, ok := c.events[i].(domain.SensorUpdateEvent); ok && ev.SensorId() == id {
			return c.events[i], true
		}
	}
	return nil, false
}
