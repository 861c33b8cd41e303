package service

import (
	"math"

	"github.com/berfenger/askoheat2mqtt/internal/core/domain"
	"github.com/berfenger/askoheat2mqtt/internal/core/port"

	"go.uber.org/zap"
)

type DefaultFeedInControlLogic struct {
	InvertPower bool
	Logger      *zap.Logger
}

func (l *DefaultFeedInControlLogic) FeedInValue(powerWatt float64, bufferWatt int32) int32 {
	if math.IsNaN(powerWatt) || math.IsInf(powerWatt, 0) {
		l.Logger.Warn("feedin: invalid power value", zap.Float64("power", powerWatt))
		return 0
	}
	value := powerWatt
	if l.InvertPower {
		value = -value
	}
	value += float64(bufferWatt)

	// check bounds
	value = math.Max(-domain.FEEDIN_MAX_WATT, math.Min(domain.FEEDIN_MAX_WATT, value))
	return int32(math.Round(value))
}

// ensure interface compliance
var _ port.FeedInControlLogic = (*DefaultFeedInControlLogic)(nil)
