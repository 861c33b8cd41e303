package actor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	adactor "github.com/berfenger/askoheat2mqtt/internal/adapter/actor"
	"github.com/berfenger/askoheat2mqtt/internal/config"
	"github.com/berfenger/askoheat2mqtt/internal/core/domain"
	"github.com/berfenger/askoheat2mqtt/internal/core/port"
	"github.com/berfenger/askoheat2mqtt/internal/core/service"
	. "github.com/berfenger/askoheat2mqtt/internal/util/actorutil"
	"github.com/berfenger/askoheat2mqtt/pkg/askoheat_modbus"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/reugn/go-quartz/job"
	"github.com/reugn/go-quartz/quartz"
	"go.uber.org/zap"
)

type MQTTActorProvider func(*eventstream.EventStream) *adactor.MQTTActor

type ModbusActorProvider func() *adactor.ModbusActor

type MasterOfPuppetsActor struct {
	config   config.Config
	behavior actor.Behavior
	stash    *Stash

	currentHealthCheck  healthCheckResult
	eventStream         *eventstream.EventStream
	modbusActor         *actor.PID
	mqttActor           *actor.PID
	feedInActor         *actor.PID
	emergencyActor      *actor.PID
	pollers             map[string]*actor.PID
	children            map[string]*actor.PID
	index               domain.EntityIndex
	scheduler           quartz.Scheduler
	cancelScheduler     context.CancelFunc
	modbusActorProvider ModbusActorProvider
	mqttActorProvider   MQTTActorProvider
	emergencySwitch     port.EmergencySwitch
	logger              *zap.Logger
}

type healthCheckResult struct {
	healthy        map[string]bool
	expected       int
	checksReceived int
	respondTo      *actor.PID
}

// NewMasterOfPuppetsActor creates the root actor. A nil emergencySwitch
// disables the emergency mode actor.
func NewMasterOfPuppetsActor(config config.Config, modbusActorProvider ModbusActorProvider, mqttActorProvider MQTTActorProvider,
	emergencySwitch port.EmergencySwitch, logger *zap.Logger) *MasterOfPuppetsActor {
	act := &MasterOfPuppetsActor{
		config:              config,
		behavior:            actor.NewBehavior(),
		stash:               &Stash{},
		logger:              ActorLogger(domain.ACTOR_ID_MASTER, logger),
		eventStream:         &eventstream.EventStream{},
		pollers:             map[string]*actor.PID{},
		children:            map[string]*actor.PID{},
		index:               domain.NewEntityIndex(askoheat_modbus.AllBlocks...),
		modbusActorProvider: modbusActorProvider,
		mqttActorProvider:   mqttActorProvider,
		emergencySwitch:     emergencySwitch,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MasterOfPuppetsActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MasterOfPuppetsActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("master@starting started")

		state.currentHealthCheck = healthCheckResult{}
		state.currentHealthCheck.reset(0)

		// start Modbus child
		modbusActorPID, err := state.startModbusActor(ctx)
		if err != nil {
			panic(err)
		}
		state.modbusActor = modbusActorPID
		state.children[domain.ACTOR_ID_MODBUS] = modbusActorPID

		// start MQTT child
		mqttActorPID, err := state.startMQTTActor(ctx)
		if err != nil {
			panic(err)
		}
		state.mqttActor = mqttActorPID
		state.children[domain.ACTOR_ID_MQTT] = mqttActorPID

		// start one poller per block
		if err := state.startPollers(ctx); err != nil {
			panic(err)
		}

		// start FeedIn child
		if state.config.FeedInConfig.Enable {
			feedInActorPID, err := state.startFeedInActor(ctx)
			if err != nil {
				panic(err)
			}
			state.feedInActor = feedInActorPID
			state.children[domain.ACTOR_ID_FEEDIN] = feedInActorPID
		}

		// start Emergency child
		if state.config.EmergencyConfig.Enable && state.emergencySwitch != nil {
			emergencyActorPID, err := state.startEmergencyActor(ctx)
			if err != nil {
				panic(err)
			}
			state.emergencyActor = emergencyActorPID
			state.children[domain.ACTOR_ID_EMERGENCY] = emergencyActorPID
		}

		// start HA Discovery
		if state.config.MQTT.HADiscoveryEnable {
			_, err := state.startHADiscoveryActor(ctx)
			if err != nil {
				panic(err)
			}
		}

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("master@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("master@default ActorHealthRequest")
		state.currentHealthCheck.reset(len(state.children))
		state.currentHealthCheck.respondTo = ctx.Sender()
		for id, pid := range state.children {
			PipeToSelfWithRecover(ctx, ctx.RequestFuture(pid, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
				return domain.ActorHealthResponse{
					Id:      id,
					Healthy: false,
				}
			})
		}

		ctx.SetReceiveTimeout(1 * time.Second)

		state.behavior.BecomeStacked(state.HealthCheckReceive)
	case adactor.ParsedCommand:
		// redirect parsedCommand to actor
		state.logger.Debug("master@default parsedCommand", zap.Any("command", msg.Command))
		if msg.Command != nil {
			cmd, err := ParsedMQTTCommandToCommand(*msg.Command, state.index)
			if err != nil {
				state.logger.Warn("master@default invalid command", zap.String("id", msg.Command.DeviceId), zap.Error(err))
				return
			}
			state.route(ctx, cmd)
		}
	case domain.ReadBlockRequest:
		state.logger.Debug("master@default ReadBlockRequest", zap.String("block", msg.Block))
		ctx.Forward(state.modbusActor)
	case *actor.Terminated:
		// if some actor fails on boot, terminate
		if msg.Who.Id == fmt.Sprintf("%s/%s", domain.ACTOR_ID_MASTER, domain.ACTOR_ID_MODBUS) {
			state.logger.Error("master@default modbus error")
			panic(errors.New("modbus terminated"))
		}
	case *actor.Stopping:
		state.stopScheduler()
	default:
		state.logger.Debug("master@default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *MasterOfPuppetsActor) HealthCheckReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
		// if some actor does not respond to healthCheck, assume not healthy
		ctx.SetReceiveTimeout(0)
		state.currentHealthCheck.respond(ctx)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthResponse:
		state.logger.Debug("master@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.currentHealthCheck.checksReceived++
		state.currentHealthCheck.healthy[msg.Id] = msg.Healthy
		if state.currentHealthCheck.allReceived() {
			ctx.SetReceiveTimeout(0)
			state.currentHealthCheck.respond(ctx)

			state.behavior.UnbecomeStacked()
			state.stash.UnstashAll(ctx)
		} else {
			ctx.SetReceiveTimeout(1 * time.Second)
		}
	case *actor.Stopping:
		state.stopScheduler()
	default:
		state.logger.Debug("master@healthcheck stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

// route sends a command to the actor that owns it. Writes go through the
// poller of the block so the read-back is published.
func (state *MasterOfPuppetsActor) route(ctx actor.Context, cmd domain.ActorRequest) {
	switch pcmd := cmd.(type) {
	case domain.WriteFieldRequest:
		if poller, ok := state.pollers[pcmd.Block]; ok {
			ctx.Send(poller, pcmd)
		}
	case domain.FeedInRequest:
		if state.feedInActor != nil {
			ctx.Send(state.feedInActor, pcmd)
		} else {
			state.logger.Debug("master@default feed-in disabled, command dropped")
		}
	case domain.EmergencyModeRequest:
		if state.emergencyActor != nil {
			ctx.Send(state.emergencyActor, pcmd)
		} else {
			state.logger.Debug("master@default emergency disabled, command dropped")
		}
	}
}

// requestTimeout bounds requests queued behind other modbus I/O.
func (state *MasterOfPuppetsActor) requestTimeout() time.Duration {
	timeout := time.Duration(state.config.AskoheatModbusTcp.TimeoutMillis) * time.Millisecond
	if timeout <= 0 {
		timeout = adactor.DEFAULT_MODBUS_TIMEOUT
	}
	return 3 * timeout
}

func (state *MasterOfPuppetsActor) startModbusActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	modbusProps := actor.PropsFromProducer(func() actor.Actor {
		return state.modbusActorProvider()
	}, actor.WithSupervisor(supervisor))
	modbusActorPID, err := ctx.SpawnNamed(modbusProps, domain.ACTOR_ID_MODBUS)
	if err != nil {
		return nil, err
	}

	return modbusActorPID, nil
}

func (state *MasterOfPuppetsActor) startMQTTActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	mqttProps := actor.PropsFromProducer(func() actor.Actor {
		return state.mqttActorProvider(state.eventStream)
	}, actor.WithSupervisor(supervisor))
	mqttActorPID, err := ctx.SpawnNamed(mqttProps, domain.ACTOR_ID_MQTT)
	if err != nil {
		return nil, err
	}

	return mqttActorPID, nil
}

// startPollers spawns one poller per block. EMA and data blocks poll on an
// interval; config and parameter blocks are ticked by cron triggers.
func (state *MasterOfPuppetsActor) startPollers(ctx actor.Context) error {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	pollCfg := state.config.PollConfig
	intervals := map[string]time.Duration{
		askoheat_modbus.EMABlock.Name:  time.Duration(pollCfg.EMAIntervalMillis) * time.Millisecond,
		askoheat_modbus.DataBlock.Name: time.Duration(pollCfg.DataIntervalMillis) * time.Millisecond,
	}
	crons := map[string]string{
		askoheat_modbus.ConfigBlock.Name:    pollCfg.ConfigCron,
		askoheat_modbus.ParameterBlock.Name: pollCfg.ParameterCron,
	}
	supported := domain.SupportedDevices(state.config.DevicesConfig.Optional()...)

	for _, block := range askoheat_modbus.AllBlocks {
		pollerProps := actor.PropsFromProducer(func() actor.Actor {
			return NewPollerActor(block, intervals[block.Name], state.requestTimeout(), state.modbusActor, state.eventStream, supported, state.logger)
		}, actor.WithSupervisor(supervisor))
		id := domain.PollerActorId(block.Name)
		pid, err := ctx.SpawnNamed(pollerProps, id)
		if err != nil {
			return err
		}
		state.pollers[block.Name] = pid
		state.children[id] = pid
	}

	var schedule []cronPoll
	for name, expr := range crons {
		if expr == "" {
			continue
		}
		schedule = append(schedule, cronPoll{block: name, expression: expr, pid: state.pollers[name]})
	}
	if len(schedule) == 0 {
		return nil
	}
	return state.startScheduler(ctx.ActorSystem().Root, schedule)
}

type cronPoll struct {
	block      string
	expression string
	pid        *actor.PID
}

func (state *MasterOfPuppetsActor) startScheduler(root *actor.RootContext, schedule []cronPoll) error {
	sched := quartz.NewStdScheduler()
	schedCtx, cancel := context.WithCancel(context.Background())
	sched.Start(schedCtx)
	state.scheduler = sched
	state.cancelScheduler = cancel

	for _, p := range schedule {
		trigger, err := quartz.NewCronTrigger(p.expression)
		if err != nil {
			return fmt.Errorf("poll cron of block %s: %w", p.block, err)
		}
		pid := p.pid
		tickJob := job.NewFunctionJob(func(_ context.Context) (bool, error) {
			root.Send(pid, PollTick{})
			return true, nil
		})
		detail := quartz.NewJobDetail(tickJob, quartz.NewJobKey(domain.PollerActorId(p.block)))
		if err := sched.ScheduleJob(detail, trigger); err != nil {
			return err
		}
		state.logger.Debug("master: poll scheduled", zap.String("block", p.block), zap.String("cron", p.expression))
	}
	return nil
}

func (state *MasterOfPuppetsActor) stopScheduler() {
	if state.scheduler == nil {
		return
	}
	state.scheduler.Stop()
	state.cancelScheduler()
	state.scheduler = nil
}

func (state *MasterOfPuppetsActor) startFeedInActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	logic := &service.DefaultFeedInControlLogic{
		InvertPower: state.config.FeedInConfig.InvertPower,
		Logger:      state.logger,
	}
	feedInProps := actor.PropsFromProducer(func() actor.Actor {
		return NewFeedInActor(state.pollers[askoheat_modbus.EMABlock.Name], state.eventStream, logic,
			state.config.FeedInConfig.BufferWatt, state.requestTimeout(), state.logger)
	}, actor.WithSupervisor(supervisor))
	feedInPID, err := ctx.SpawnNamed(feedInProps, domain.ACTOR_ID_FEEDIN)
	if err != nil {
		return nil, err
	}

	return feedInPID, nil
}

func (state *MasterOfPuppetsActor) startEmergencyActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	timeout := time.Duration(state.config.EmergencyConfig.TimeoutMillis) * time.Millisecond
	emergencyProps := actor.PropsFromProducer(func() actor.Actor {
		return NewEmergencyActor(state.emergencySwitch, state.eventStream, timeout, state.logger)
	}, actor.WithSupervisor(supervisor))
	emergencyPID, err := ctx.SpawnNamed(emergencyProps, domain.ACTOR_ID_EMERGENCY)
	if err != nil {
		return nil, err
	}

	return emergencyPID, nil
}

func (state *MasterOfPuppetsActor) startHADiscoveryActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	haDiscProps := actor.PropsFromProducer(func() actor.Actor {
		return NewHADiscoveryActor(&state.config, state.modbusActor, state.mqttActor, state.logger)
	}, actor.WithSupervisor(supervisor))
	haDiscPID, err := ctx.SpawnNamed(haDiscProps, HADISCOVERY_ACTOR_ID)
	if err != nil {
		return nil, err
	}

	return haDiscPID, nil
}

func (state *healthCheckResult) reset(expected int) {
	state.healthy = map[string]bool{}
	state.expected = expected
	state.checksReceived = 0
	state.respondTo = nil
}

func (state *healthCheckResult) allReceived() bool {
	return state.checksReceived >= state.expected
}

func (state *healthCheckResult) allHealthy() bool {
	if len(state.healthy) < state.expected {
		return false
	}
	for _, healthy := range state.healthy {
		if !healthy {
			return false
		}
	}
	return true
}

func (state *healthCheckResult) respond(ctx actor.Context) {
	resp := domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_MASTER,
		Healthy: state.allHealthy(),
	}
	if state.respondTo != nil {
		ctx.Send(state.respondTo, resp)
	}
}
