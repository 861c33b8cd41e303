package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/askoheat2mqtt/internal/core/domain"
	"github.com/berfenger/askoheat2mqtt/internal/core/events"
	. "github.com/berfenger/askoheat2mqtt/internal/util/actorutil"
	"github.com/berfenger/askoheat2mqtt/pkg/askoheat_modbus"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

const (
	POLLER_MAX_FAILURES = 3
)

// PollerActor owns one register block. It reads the block on every tick and
// publishes its values to the event stream. Writes to the block go through
// the poller, so the read-back is published too.
type PollerActor struct {
	behavior  actor.Behavior
	stash     *Stash
	scheduler *scheduler.TimerScheduler
	cancel    scheduler.CancelFunc

	block       *askoheat_modbus.BlockDescriptor
	interval    time.Duration
	timeout     time.Duration
	modbusActor *actor.PID
	eventStream *eventstream.EventStream
	supported   map[string]bool
	failures    int
	lastPoll    time.Time

	logger *zap.Logger
}

// PollTick triggers a block read. Interval pollers send it to themselves,
// cron pollers receive it from the master's scheduler.
type PollTick struct {
}

type pollerWrite struct {
	replyTo *actor.PID
}

// NewPollerActor creates the poller of block. With a zero interval the poller
// only reads the block on start and on external ticks.
func NewPollerActor(block *askoheat_modbus.BlockDescriptor, interval time.Duration, timeout time.Duration, modbusActor *actor.PID,
	eventStream *eventstream.EventStream, supported []askoheat_modbus.DeviceKey, logger *zap.Logger) *PollerActor {
	act := &PollerActor{
		block:       block,
		interval:    interval,
		timeout:     timeout,
		modbusActor: modbusActor,
		eventStream: eventStream,
		supported:   domain.SupportedEntityIds(block, supported),
		behavior:    actor.NewBehavior(),
		stash:       &Stash{},
		logger:      ActorLogger(domain.PollerActorId(block.Name), logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *PollerActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *PollerActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("poller@starting started", zap.String("block", state.block.Name), zap.Duration("interval", state.interval))
		state.scheduler = scheduler.NewTimerScheduler(ctx)
		// first read right away
		ctx.Send(ctx.Self(), PollTick{})
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
	default:
		state.logger.Debug("poller@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *PollerActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("poller@default: ActorHealthRequest")
		ctx.Respond(state.health("idle"))
	case PollTick:
		state.logger.Debug("poller@default tick")
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.modbusActor, domain.ReadBlockRequest{Block: state.block.Name}, state.timeout), func(err error) any {
			return domain.ReadBlockResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})
		state.behavior.BecomeStacked(state.WaitingReadReceive)
	case domain.WriteFieldRequest:
		state.logger.Debug("poller@default WriteFieldRequest", zap.String("key", msg.Key))
		write := pollerWrite{replyTo: ForRequest(msg).ReplyTo(ctx)}
		req := domain.WriteFieldRequest{Block: state.block.Name, Key: msg.Key, Value: msg.Value}
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.modbusActor, req, state.timeout), func(err error) any {
			return domain.WriteFieldResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})
		state.behavior.BecomeStacked(func(ctx actor.Context) {
			state.WaitingWriteReceive(ctx, write)
		})
	case *actor.Stopping:
		state.stop()
	default:
		state.logger.Debug("poller@default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *PollerActor) WaitingReadReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ReadBlockResponse:
		if msg.HasResponseError() {
			state.failures++
			state.logger.Error("poller@waitingRead ReadBlockResponse error", zap.String("block", state.block.Name), zap.Error(msg.GetResponseError()))
		} else {
			state.logger.Debug("poller@waitingRead ReadBlockResponse")
			state.failures = 0
			state.lastPoll = time.Now()
			state.publish(msg.Block)
		}
		state.scheduleNext(ctx)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthRequest:
		ctx.Respond(state.health("polling"))
	case PollTick:
		// a read is already in flight, the next tick is armed when it completes
		state.logger.Debug("poller@waitingRead tick skipped")
	case *actor.Stopping:
		state.stop()
	default:
		state.logger.Debug("poller@waitingRead: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *PollerActor) WaitingWriteReceive(ctx actor.Context, write pollerWrite) {
	switch msg := ctx.Message().(type) {
	case domain.WriteFieldResponse:
		if msg.HasResponseError() {
			state.logger.Error("poller@waitingWrite WriteFieldResponse error", zap.String("block", state.block.Name), zap.Error(msg.GetResponseError()))
		} else {
			state.logger.Debug("poller@waitingWrite WriteFieldResponse")
			state.lastPoll = time.Now()
			state.publish(msg.Block)
		}
		if write.replyTo != nil {
			ctx.Send(write.replyTo, msg)
		}
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthRequest:
		ctx.Respond(state.health("writing"))
	case *actor.Stopping:
		state.stop()
	default:
		state.logger.Debug("poller@waitingWrite: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

// publish sends the update events of the entries owned by supported devices.
func (state *PollerActor) publish(decoded *askoheat_modbus.DecodedBlock) {
	for _, ev := range events.DecodedBlockToUpdateEvents(state.block, decoded) {
		if sensorEv, ok := ev.(domain.SensorUpdateEvent); ok && !state.supported[sensorEv.SensorId()] {
			continue
		}
		state.eventStream.Publish(ev)
	}
}

func (state *PollerActor) health(status string) domain.ActorHealthResponse {
	return domain.ActorHealthResponse{
		Id:      domain.PollerActorId(state.block.Name),
		Healthy: state.failures < POLLER_MAX_FAILURES,
		State:   status,
	}
}

// scheduleNext arms the next interval tick. The interval counts from the end
// of the previous read, so a slow read never leaves the poller without a timer.
func (state *PollerActor) scheduleNext(ctx actor.Context) {
	if state.interval <= 0 {
		return
	}
	state.stop()
	state.cancel = state.scheduler.RequestOnce(state.interval, ctx.Self(), PollTick{})
}

func (state *PollerActor) stop() {
	if state.cancel != nil {
		state.cancel()
		state.cancel = nil
	}
}
