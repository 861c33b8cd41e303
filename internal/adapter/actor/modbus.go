package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/askoheat2mqtt/internal/core/domain"
	"github.com/berfenger/askoheat2mqtt/internal/metrics"
	"github.com/berfenger/askoheat2mqtt/internal/util/actorutil"
	"github.com/berfenger/askoheat2mqtt/pkg/askoheat_modbus"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

const (
	MODBUS_ACTOR_ID        = domain.ACTOR_ID_MODBUS
	DEFAULT_MODBUS_TIMEOUT = 5 * time.Second
)

// ModbusActor serializes every request to the heater. While a request is in
// flight all other messages are stashed.
type ModbusActor struct {
	behavior actor.Behavior
	stash    *actorutil.Stash
	reader   askoheat_modbus.AskoheatModbusReader
	metrics  *metrics.Metrics
	timeout  time.Duration
	logger   *zap.Logger
}

type backgroundTaskResult struct {
	message any
	replyTo *actor.PID
}

func NewModbusActor(reader askoheat_modbus.AskoheatModbusReader, metrics *metrics.Metrics, timeout time.Duration, logger *zap.Logger) *ModbusActor {
	if timeout <= 0 {
		timeout = DEFAULT_MODBUS_TIMEOUT
	}
	act := &ModbusActor{
		reader:   reader,
		metrics:  metrics,
		timeout:  timeout,
		behavior: actor.NewBehavior(),
		stash:    &actorutil.Stash{},
		logger:   actorutil.ActorLogger(MODBUS_ACTOR_ID, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *ModbusActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *ModbusActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("modbus@starting started")
		err := state.reader.Open()
		if err != nil {
			panic(err)
		}
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
		state.reader.Close()
	default:
		state.logger.Debug("modbus@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *ModbusActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("modbus@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      MODBUS_ACTOR_ID,
			Healthy: true,
			State:   "idle",
		})
	case domain.GetDevicesInfoRequest:
		state.logger.Debug("modbus@default: GetDevicesInfoRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.getDevicesInfo),
			mapTaskResult[domain.GetDevicesInfoResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.GetDevicesInfoResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(state.timeout).Async().PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingModbus)
	case domain.ReadBlockRequest:
		state.logger.Debug("modbus@default: ReadBlockRequest", zap.String("block", msg.Block))
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, func() (*domain.ReadBlockResponse, error) {
			return state.readBlock(msg.Block)
		}), mapTaskResult[domain.ReadBlockResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.ReadBlockResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(state.timeout).Async().PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingModbus)
	case domain.WriteFieldRequest:
		state.logger.Debug("modbus@default: WriteFieldRequest", zap.String("block", msg.Block), zap.String("key", msg.Key))
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, func() (*domain.WriteFieldResponse, error) {
			return state.writeField(msg.Block, msg.Key, msg.Value)
		}), mapTaskResult[domain.WriteFieldResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.WriteFieldResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(state.timeout).Async().PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingModbus)
	case *actor.Stopping:
		state.reader.Close()
	default:
		state.logger.Debug("modbus@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *ModbusActor) WaitingModbus(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case backgroundTaskResult:
		state.logger.Debug("modbus@WaitingModbus backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
		ctx.Send(msg.replyTo, msg.message)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      MODBUS_ACTOR_ID,
			Healthy: true,
			State:   "busy",
		})
	case *actor.Stopping:
		state.reader.Close()
	default:
		state.logger.Debug("modbus@WaitingModbus stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (a *ModbusActor) getDevicesInfo() (*domain.GetDevicesInfoResponse, error) {
	info, err := a.reader.GetInfo()
	if err != nil {
		a.logger.Error("device info read failed", zap.Error(err))
		return nil, err
	}
	return &domain.GetDevicesInfoResponse{
		Device: info,
	}, nil
}

func (a *ModbusActor) readBlock(name string) (*domain.ReadBlockResponse, error) {
	block, err := askoheat_modbus.BlockByName(name)
	if err != nil {
		return nil, err
	}
	decoded, err := a.reader.ReadBlock(block)
	a.metrics.ObserveBlockRead(block.Name, err)
	if err != nil {
		a.logger.Warn("block read failed", zap.String("block", block.Name), zap.Error(err))
		return nil, err
	}
	a.metrics.ObserveDecodedBlock(decoded)
	return &domain.ReadBlockResponse{
		Block: decoded,
	}, nil
}

func (a *ModbusActor) writeField(name string, key string, value any) (*domain.WriteFieldResponse, error) {
	block, err := askoheat_modbus.BlockByName(name)
	if err != nil {
		return nil, err
	}
	decoded, err := a.reader.WriteField(block, key, value)
	if err != nil {
		a.logger.Warn("field write failed", zap.String("block", block.Name), zap.String("key", key), zap.Error(err))
		return nil, err
	}
	a.metrics.ObserveDecodedBlock(decoded)
	return &domain.WriteFieldResponse{
		Block: decoded,
	}, nil
}

func mapTaskResult[T any](sender *actor.PID) func(t *T) *backgroundTaskResult {
	return func(t *T) *backgroundTaskResult {
		return &backgroundTaskResult{
			message: *t,
			replyTo: sender,
		}
	}
}
