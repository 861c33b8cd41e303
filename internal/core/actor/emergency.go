package actor

import (
	"context"
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

// EmergencyActor drives the emergency mode switch of the heater. The switch
// state follows both the rest responses and the EMA status bit.
type EmergencyActor struct {
	behavior     actor.Behavior
	stash        *Stash
	sw           port.EmergencySwitch
	eventStream  *eventstream.EventStream
	subscription *eventstream.Subscription
	timeout      time.Duration
	statusId     string

	logger *zap.Logger
}

type emergencyTaskResult struct {
	response domain.EmergencyModeResponse
	replyTo  *actor.PID
}

func NewEmergencyActor(sw port.EmergencySwitch, eventStream *eventstream.EventStream, timeout time.Duration, logger *zap.Logger) *EmergencyActor {
	act := &EmergencyActor{
		sw:          sw,
		eventStream: eventStream,
		timeout:     timeout,
		statusId:    domain.EntityId(askoheat_modbus.EMABlock.Name, askoheat_modbus.EMA_KEY_EMERGENCY_MODE),
		behavior:    actor.NewBehavior(),
		stash:       &Stash{},
		logger:      ActorLogger(domain.ACTOR_ID_EMERGENCY, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *EmergencyActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *EmergencyActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("emergency@starting started")
		self := ctx.Self()
		state.subscription = state.eventStream.Subscribe(func(evt interface{}) {
			if ev, ok := evt.(domain.BinarySensorUpdateEvent); ok && ev.Id == state.statusId {
				ctx.Send(self, ev)
			}
		})
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
		state.unsubscribe()
	default:
		state.logger.Debug("emergency@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *EmergencyActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("emergency@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_EMERGENCY,
			Healthy: true,
			State:   "idle",
		})
	case domain.EmergencyModeRequest:
		state.logger.Sugar().Debugf("emergency@default: cmd emergency mode %t", msg.Enable)
		sender := ForRequest(msg).ReplyTo(ctx)
		enable := msg.Enable
		NewBackgroundTask(ctx, func() (*emergencyTaskResult, error) {
			reqCtx, cancel := context.WithTimeout(context.Background(), state.timeout)
			defer cancel()
			on, err := state.sw.SetEmergencyMode(reqCtx, enable)
			if err != nil {
				return nil, err
			}
			return &emergencyTaskResult{
				response: domain.EmergencyModeResponse{State: on},
				replyTo:  sender,
			}, nil
		}).Recover(func(err error) emergencyTaskResult {
			return emergencyTaskResult{
				response: domain.EmergencyModeResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(state.timeout + time.Second).Async().PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingSwitchReceive)
	case domain.BinarySensorUpdateEvent:
		state.update(msg.Value)
	case *actor.Stopping:
		state.unsubscribe()
	default:
		state.logger.Debug("emergency@default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *EmergencyActor) WaitingSwitchReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case emergencyTaskResult:
		if msg.response.HasResponseError() {
			state.logger.Error("emergency@waiting switch error", zap.Error(msg.response.GetResponseError()))
		} else {
			state.update(msg.response.State)
		}
		if msg.replyTo != nil {
			ctx.Send(msg.replyTo, msg.response)
		}
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_EMERGENCY,
			Healthy: true,
			State:   "switching",
		})
	case *actor.Stopping:
		state.unsubscribe()
	default:
		state.logger.Debug("emergency@waiting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *EmergencyActor) update(on bool) {
	state.eventStream.Publish(events.EmergencyModeSwitchUpdateEvent(on))
}

func (state *EmergencyActor) unsubscribe() {
	if state.subscription != nil {
		state.eventStream.Unsubscribe(state.subscription)
		state.subscription = nil
	}
}
