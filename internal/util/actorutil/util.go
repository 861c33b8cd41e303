package actorutil

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/berfenger/askoheat2mqtt/internal/core/domain"
	"github.com/berfenger/askoheat2mqtt/internal/core/events"
	"github.com/berfenger/askoheat2mqtt/internal/mqtt"
	"github.com/berfenger/askoheat2mqtt/pkg/askoheat_modbus"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/lmittmann/tint"
	"go.uber.org/zap"
)

var ErrUnknownEntity = errors.New("unknown entity")

func PipeToSelfWithRecover(ctx actor.Context, future *actor.Future, mapFn func(error) any) {
	ctx.ReenterAfter(future, func(msg any, err error) {
		if err != nil {
			ctx.Send(ctx.Self(), mapFn(err))
			return
		}
		ctx.Send(ctx.Self(), msg)
	})
}

func NewActorSystemWithZapLogger(logger *zap.Logger) *actor.ActorSystem {
	stdOutLogger := zap.NewStdLog(logger)

	var slogLevel slog.Level = slog.LevelInfo

	switch logger.Level() {
	case zap.DebugLevel:
		slogLevel = slog.LevelDebug
	case zap.InfoLevel:
		slogLevel = slog.LevelInfo
	case zap.WarnLevel:
		slogLevel = slog.LevelWarn
	case zap.ErrorLevel:
		slogLevel = slog.LevelError
	case zap.PanicLevel:
		slogLevel = slog.LevelError
	}

	return actor.NewActorSystem(actor.WithLoggerFactory(func(system *actor.ActorSystem) *slog.Logger {

		// create a new logger
		return slog.New(tint.NewHandler(stdOutLogger.Writer(), &tint.Options{
			Level:      slogLevel,
			TimeFormat: time.DateTime,
		}))
	}))
}

func ActorLogger(actorName string, logger *zap.Logger) *zap.Logger {
	return logger.With(zap.String("actor", actorName))
}

// ParsedMQTTCommandToCommand translates an MQTT command into the request of
// the actor that handles it. Bridge entities map to feed-in and emergency
// requests; every other entity must be in the index and becomes a write.
func ParsedMQTTCommandToCommand(cmd mqtt.ParsedMQTTCommand, index domain.EntityIndex) (domain.ActorRequest, error) {
	switch {
	case cmd.Command == mqtt.COMMAND_POWER:
		value, err := strconv.ParseFloat(strings.TrimSpace(cmd.Payload), 64)
		if err != nil {
			return nil, err
		}
		return domain.FeedInPowerRequest{PowerWatt: value}, nil
	case cmd.DeviceId == domain.SWITCH_ID_AUTO_FEEDIN:
		return domain.FeedInEnableRequest{
			Enable: cmd.Payload == mqtt.MQTT_PAYLOAD_ON,
		}, nil
	case cmd.DeviceId == domain.INPUT_NUMBER_ID_AUTO_FEEDIN_BUFFER:
		value, err := strconv.ParseFloat(cmd.Payload, 64)
		if err != nil {
			return nil, err
		}
		if value < -domain.FEEDIN_MAX_WATT || value > domain.FEEDIN_MAX_WATT {
			return nil, fmt.Errorf("feed-in buffer %v out of range", value)
		}
		return domain.FeedInSetBufferRequest{
			BufferWatt: int32(value),
		}, nil
	case cmd.DeviceId == domain.SWITCH_ID_EMERGENCY_MODE:
		return domain.EmergencyModeRequest{
			Enable: cmd.Payload == mqtt.MQTT_PAYLOAD_ON,
		}, nil
	}

	ref, ok := index.Lookup(cmd.DeviceId)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, cmd.DeviceId)
	}
	value, err := commandValue(cmd, ref)
	if err != nil {
		return nil, err
	}
	return domain.WriteFieldRequest{
		Block: ref.Block.Name,
		Key:   ref.QualifiedKey(),
		Value: value,
	}, nil
}

func commandValue(cmd mqtt.ParsedMQTTCommand, ref domain.EntityRef) (any, error) {
	meta := ref.Entry.Meta
	mismatch := fmt.Errorf("%s command not valid for %s entity %s", cmd.Command, ref.Category, cmd.DeviceId)
	switch ref.Category {
	case askoheat_modbus.CategorySwitch:
		if cmd.Command != mqtt.COMMAND_SWITCH {
			return nil, mismatch
		}
		on := cmd.Payload == mqtt.MQTT_PAYLOAD_ON
		return on != meta.Inverted, nil
	case askoheat_modbus.CategoryNumber:
		if cmd.Command != mqtt.COMMAND_NUMBER {
			return nil, mismatch
		}
		value, err := strconv.ParseFloat(cmd.Payload, 64)
		if err != nil {
			return nil, err
		}
		if meta.Max > meta.Min && (value < meta.Min || value > meta.Max) {
			return nil, fmt.Errorf("value %v of %s out of range %v..%v", value, cmd.DeviceId, meta.Min, meta.Max)
		}
		return events.RoundToStep(value, meta), nil
	case askoheat_modbus.CategorySelect:
		if cmd.Command != mqtt.COMMAND_SELECT {
			return nil, mismatch
		}
		return cmd.Payload, nil
	case askoheat_modbus.CategoryText:
		if cmd.Command != mqtt.COMMAND_TEXT {
			return nil, mismatch
		}
		return cmd.Payload, nil
	case askoheat_modbus.CategoryTime:
		if cmd.Command != mqtt.COMMAND_TEXT {
			return nil, mismatch
		}
		return askoheat_modbus.ParseTimeOfDay(cmd.Payload)
	}
	return nil, fmt.Errorf("%s entity %s is read only", ref.Category, cmd.DeviceId)
}
