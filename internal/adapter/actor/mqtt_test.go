package actor

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/berfenger/askoheat2mqtt/internal/core/domain"
	"github.com/berfenger/askoheat2mqtt/internal/core/events"
	"github.com/berfenger/askoheat2mqtt/internal/mqtt"
	"github.com/berfenger/askoheat2mqtt/internal/util"
	"github.com/berfenger/askoheat2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMQTTActor(t *testing.T) {

	require := require.New(t)

	cfg := util.LoadTestConfig()

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)

	context := as.Root

	es := eventstream.EventStream{}

	props := actor.PropsFromProducer(func() actor.Actor { return NewTestMQTTActor(&cfg, &es, logger) })
	pid := context.Spawn(props)

	time.Sleep(500 * time.Millisecond)

	msg := domain.ActorHealthRequest{}
	result, err := context.RequestFuture(pid, msg, 2*time.Second).Result()
	require.NoError(err)
	resp, ok := result.(domain.ActorHealthResponse)
	require.True(ok)
	require.True(resp.Healthy)

	es.Publish(domain.FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{
			Id: domain.EntityId("ema", "internal_temp_sensor"),
		},
		Value:    48.46,
		Decimals: 1,
	})
	es.Publish(events.BridgeOnlineUpdateEvent(true))
	es.Publish(events.AutoFeedInSwitchUpdateEvent(true))
	es.Publish(domain.SelectSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: "config_rtu_baudrate"},
		Value:                  "9600",
	})
	es.Publish(domain.TextInputSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: "config_low_tariff_start_time"},
		Value:                  "22:00",
	})
	// ignored, not a sensor update
	es.Publish(domain.FeedInPowerRequest{PowerWatt: 100})

	time.Sleep(500 * time.Millisecond)

	result, err = context.RequestFuture(pid, GetPublishedRequest{}, 2*time.Second).Result()
	require.NoError(err)
	published := result.(GetPublishedResponse).Messages

	require.Equal("48.5", published["askoheat/sensor/ema_internal_temp_sensor/state"])
	require.Equal(mqtt.MQTT_PAYLOAD_ONLINE, published["askoheat/bridge/state"])
	require.Equal(mqtt.MQTT_PAYLOAD_ON, published["askoheat/switch/auto_feedin/state"])
	require.Equal("9600", published["askoheat/select/config_rtu_baudrate/state"])
	require.Equal("22:00", published["askoheat/text/config_low_tariff_start_time/state"])
	require.Len(published, 5)

	context.Stop(pid)

	time.Sleep(500 * time.Millisecond)

	as.Shutdown()
}

func TestMQTTActorDiscovery(t *testing.T) {

	assert := assert.New(t)

	cfg := util.LoadTestConfig()
	cfg.MQTT.HADiscoveryTopic = "homeassistant"
	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)
	defer as.Shutdown()

	props := actor.PropsFromProducer(func() actor.Actor { return NewTestMQTTActor(&cfg, nil, logger) })
	pid := as.Root.Spawn(props)

	bridge := domain.BridgeDevice(cfg.MQTT.BaseTopic)
	var entities domain.Entities
	entities.Sensors = domain.BridgeSensors(bridge)
	entities.Append(domain.FeedInEntities(bridge, 100))

	req := domain.PublishDiscoveryRequest{Entities: entities}
	_, err := as.Root.RequestFuture(pid, req, 2*time.Second).Result()
	assert.NoError(err)

	result, err := as.Root.RequestFuture(pid, GetPublishedRequest{}, 2*time.Second).Result()
	assert.NoError(err)
	published := result.(GetPublishedResponse).Messages
	assert.Len(published, 3)

	payload, ok := published["homeassistant/number/"+bridge.Id+"/"+domain.INPUT_NUMBER_ID_AUTO_FEEDIN_BUFFER+"/config"]
	assert.True(ok)
	var disc mqtt.HADiscoveryConfig
	assert.NoError(json.Unmarshal([]byte(payload), &disc))
	assert.Equal("askoheat/number/auto_feedin_buffer/set", disc.CommandTopic)
	assert.Equal(100.0, disc.InitialValue)
	assert.Equal("askoheat/bridge/state", disc.AvTopic)
}
