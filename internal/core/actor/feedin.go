package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/askoheat2mqtt/internal/core/domain"
	"github.com/berfenger/askoheat2mqtt/internal/core/events"
	"github.com/berfenger/askoheat2mqtt/internal/core/port"
	. "github.com/berfenger/askoheat2mqtt/internal/util/actorutil"
	"github.com/berfenger/askoheat2mqtt/pkg/askoheat_modbus"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

// FeedInActor turns readings of the external power topic into load feed-in
// writes on the EMA block. Writes are sent to the EMA poller one at a time;
// readings arriving while a write is in flight replace each other.
type FeedInActor struct {
	ActorWithStates
	emaPoller   *actor.PID
	eventStream *eventstream.EventStream
	logic       port.FeedInControlLogic
	timeout     time.Duration

	bufferWatt  int32
	lastPower   *float64
	writtenWatt int32
	writing     bool
	pending     *int32

	logger *zap.Logger
}

func NewFeedInActor(emaPoller *actor.PID, eventStream *eventstream.EventStream, logic port.FeedInControlLogic, bufferWatt int32, timeout time.Duration, logger *zap.Logger) *FeedInActor {
	act := &FeedInActor{
		emaPoller:   emaPoller,
		eventStream: eventStream,
		logic:       logic,
		timeout:     timeout,
		bufferWatt:  bufferWatt,
		logger:      ActorLogger(domain.ACTOR_ID_FEEDIN, logger),
		ActorWithStates: ActorWithStates{
			Behavior: actor.NewBehavior(),
		},
	}
	act.Become(FIStartingState{
		actor: act,
	})
	return act
}

func (state *FeedInActor) Receive(context actor.Context) {
	state.Behavior.Receive(context)
}

// Starting state

type FIStartingState struct {
	ActorState
	actor *FeedInActor
}

func (state FIStartingState) Name() string {
	return "starting"
}

func (state FIStartingState) Receive(ctx actor.Context) {
	switch ctx.Message().(type) {
	case *actor.Started:
		state.actor.logger.Debug("feedin@starting started")
		state.actor.eventStream.Publish(events.AutoFeedInBufferUpdateEvent(state.actor.bufferWatt))
		state.actor.Become(FIEnabledState{
			actor: state.actor,
		}.OnEnter(ctx))
	case *actor.Restarting:
	}
}

// Enabled state

type FIEnabledState struct {
	ActorState
	actor *FeedInActor
}

func (state FIEnabledState) Name() string {
	return "enabled"
}

func (state FIEnabledState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.actor.logger.Debug("feedin@enabled: ActorHealthRequest")
		ctx.Respond(state.actor.health())
	case domain.FeedInRequest:
		switch cmd := msg.(type) {
		case domain.FeedInPowerRequest:
			state.actor.logger.Debug("feedin@enabled: power", zap.Float64("watt", cmd.PowerWatt))
			state.actor.lastPower = &cmd.PowerWatt
			state.actor.feedIn(ctx)
		case domain.FeedInEnableRequest:
			state.actor.logger.Sugar().Debugf("feedin@enabled: cmd enable %t", cmd.Enable)
			if cmd.Enable {
				state.actor.eventStream.Publish(events.AutoFeedInSwitchUpdateEvent(true))
			} else {
				state.actor.Become(FIDisabledState{
					actor: state.actor,
				}.OnEnterAction(ctx))
			}
		case domain.FeedInSetBufferRequest:
			state.actor.logger.Sugar().Debugf("feedin@enabled: cmd set buffer %d", cmd.BufferWatt)
			state.actor.setBuffer(cmd.BufferWatt)
			state.actor.feedIn(ctx)
		case domain.FeedInGetStateRequest:
			ForRequest(cmd).Respond(ctx, state.actor.stateResponse(true))
		}
	case domain.WriteFieldResponse:
		state.actor.onWriteResponse(ctx, msg)
	default:
		state.actor.logger.Debug("feedin@enabled: recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state FIEnabledState) OnEnter(ctx actor.Context) FIEnabledState {
	state.actor.eventStream.Publish(events.AutoFeedInSwitchUpdateEvent(true))
	return state
}

// OnEnterAction resends the last known power reading.
func (state FIEnabledState) OnEnterAction(ctx actor.Context) FIEnabledState {
	state.OnEnter(ctx)
	state.actor.feedIn(ctx)
	return state
}

// Disabled state

type FIDisabledState struct {
	ActorState
	actor *FeedInActor
}

func (state FIDisabledState) Name() string {
	return "disabled"
}

func (state FIDisabledState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.actor.logger.Debug("feedin@disabled: ActorHealthRequest")
		ctx.Respond(state.actor.health())
	case domain.FeedInRequest:
		switch cmd := msg.(type) {
		case domain.FeedInPowerRequest:
			state.actor.lastPower = &cmd.PowerWatt
		case domain.FeedInEnableRequest:
			state.actor.logger.Sugar().Debugf("feedin@disabled: cmd enable %t", cmd.Enable)
			if cmd.Enable {
				state.actor.Become(FIEnabledState{
					actor: state.actor,
				}.OnEnterAction(ctx))
			} else {
				state.actor.eventStream.Publish(events.AutoFeedInSwitchUpdateEvent(false))
			}
		case domain.FeedInSetBufferRequest:
			state.actor.logger.Sugar().Debugf("feedin@disabled: cmd set buffer %d", cmd.BufferWatt)
			state.actor.setBuffer(cmd.BufferWatt)
		case domain.FeedInGetStateRequest:
			ForRequest(cmd).Respond(ctx, state.actor.stateResponse(false))
		}
	case domain.WriteFieldResponse:
		state.actor.onWriteResponse(ctx, msg)
	default:
		state.actor.logger.Debug("feedin@disabled: recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// OnEnterAction stops the load feed-in by writing 0.
func (state FIDisabledState) OnEnterAction(ctx actor.Context) FIDisabledState {
	state.actor.eventStream.Publish(events.AutoFeedInSwitchUpdateEvent(false))
	state.actor.write(ctx, 0)
	return state
}

// Other actor function helpers

func (state *FeedInActor) feedIn(ctx actor.Context) {
	if state.lastPower == nil {
		return
	}
	state.write(ctx, state.logic.FeedInValue(*state.lastPower, state.bufferWatt))
}

func (state *FeedInActor) write(ctx actor.Context, watt int32) {
	if state.writing {
		state.pending = &watt
		return
	}
	state.writing = true
	state.writtenWatt = watt
	req := domain.WriteFieldRequest{Block: askoheat_modbus.EMABlock.Name, Key: askoheat_modbus.EMA_KEY_LOAD_FEEDIN, Value: watt}
	PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.emaPoller, req, state.timeout), func(err error) any {
		return domain.WriteFieldResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: err,
			},
		}
	})
}

func (state *FeedInActor) onWriteResponse(ctx actor.Context, msg domain.WriteFieldResponse) {
	state.writing = false
	if msg.HasResponseError() {
		state.logger.Error("feedin: load feed-in write error", zap.Error(msg.GetResponseError()))
	}
	if state.pending != nil {
		next := *state.pending
		state.pending = nil
		state.write(ctx, next)
	}
}

func (state *FeedInActor) setBuffer(bufferWatt int32) {
	state.bufferWatt = bufferWatt
	state.eventStream.Publish(events.AutoFeedInBufferUpdateEvent(bufferWatt))
}

func (state *FeedInActor) stateResponse(enabled bool) domain.FeedInGetStateResponse {
	return domain.FeedInGetStateResponse{
		Enabled:     enabled,
		BufferWatt:  state.bufferWatt,
		WrittenWatt: state.writtenWatt,
	}
}

func (state *FeedInActor) health() domain.ActorHealthResponse {
	return domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_FEEDIN,
		Healthy: true,
		State:   state.StateName(),
	}
}
