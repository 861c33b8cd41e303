package actor

import (
	"testing"
	"time"

	"github.com/berfenger/askoheat2mqtt/internal/core/domain"
	"github.com/berfenger/askoheat2mqtt/internal/core/service"
	"github.com/berfenger/askoheat2mqtt/pkg/askoheat_modbus"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFeedInFlow(t *testing.T) {

	require := require.New(t)

	as, emaPoller, reader, _ := spawnTestPoller(t, askoheat_modbus.EMABlock, 0)
	defer as.Shutdown()

	logger := zap.Must(zap.NewDevelopment())
	es := as.EventStream
	collector := collectEvents(es)
	logic := &service.DefaultFeedInControlLogic{Logger: logger}

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewFeedInActor(emaPoller, es, logic, 100, 2*time.Second, logger)
	})
	pid := as.Root.Spawn(props)

	time.Sleep(200 * time.Millisecond)

	feedIn := func() float64 {
		decoded, err := reader.ReadBlock(askoheat_modbus.EMABlock)
		require.NoError(err)
		return decoded.NumberInputs[askoheat_modbus.EMA_KEY_LOAD_FEEDIN]
	}
	state := func() domain.FeedInGetStateResponse {
		result, err := as.Root.RequestFuture(pid, domain.FeedInGetStateRequest{}, 2*time.Second).Result()
		require.NoError(err)
		return result.(domain.FeedInGetStateResponse)
	}

	// enabled on start
	hcr, err := healthCheck(as.Root, pid)
	require.NoError(err)
	require.Equal("enabled", hcr.State)
	ev, ok := collector.last(domain.SWITCH_ID_AUTO_FEEDIN)
	require.True(ok)
	require.True(ev.(domain.SwitchSensorUpdateEvent).Value)

	// power reading
	as.Root.Send(pid, domain.FeedInPowerRequest{PowerWatt: 1000})
	time.Sleep(300 * time.Millisecond)
	require.EqualValues(1100, feedIn())
	require.EqualValues(1100, state().WrittenWatt)

	// disable writes 0
	as.Root.Send(pid, domain.FeedInEnableRequest{Enable: false})
	time.Sleep(300 * time.Millisecond)
	require.EqualValues(0, feedIn())
	require.False(state().Enabled)
	writes := reader.Writes()

	// disabled: readings are kept but not written
	as.Root.Send(pid, domain.FeedInPowerRequest{PowerWatt: 2000})
	as.Root.Send(pid, domain.FeedInSetBufferRequest{BufferWatt: 200})
	time.Sleep(300 * time.Millisecond)
	require.Equal(writes, reader.Writes())
	require.EqualValues(200, state().BufferWatt)
	ev, ok = collector.last(domain.INPUT_NUMBER_ID_AUTO_FEEDIN_BUFFER)
	require.True(ok)
	require.Equal(200.0, ev.(domain.InputNumberSensorUpdateEvent).Value)

	// enable resends the last reading
	as.Root.Send(pid, domain.FeedInEnableRequest{Enable: true})
	time.Sleep(300 * time.Millisecond)
	require.EqualValues(2200, feedIn())
	require.True(state().Enabled)

	// clamp
	as.Root.Send(pid, domain.FeedInPowerRequest{PowerWatt: 50000})
	time.Sleep(300 * time.Millisecond)
	require.EqualValues(domain.FEEDIN_MAX_WATT, feedIn())
}
